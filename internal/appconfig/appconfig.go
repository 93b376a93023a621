// Package appconfig resolves sync configuration from three layers, in
// descending priority: explicit CLI flag, environment variable, built-in
// default. Grounded on the teacher's CLI-then-env-then-config-then-default
// resolution chain, collapsed to three layers since this tool carries no
// config file.
package appconfig

import (
	"fmt"
	"os"
)

// Defaults mirror spec's CLI flag defaults.
const (
	DefaultEndpoint        = "storage.bunnycdn.com"
	DefaultTargetSubPath   = "/"
	DefaultLockfilePath    = ".bunnysync.lock"
	DefaultConcurrency     = 16
	DefaultListConcurrency = 8
	envAccessKey           = "THUMPER_KEY"
	envAPIKey              = "THUMPER_API_KEY"
)

// ResolveAccessKey returns flagValue if non-empty, else the THUMPER_KEY
// environment variable, else an error — spec.md's §6.3 credential rule.
func ResolveAccessKey(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	if v := os.Getenv(envAccessKey); v != "" {
		return v, nil
	}

	return "", fmt.Errorf("storage access key not set: pass --access-key or set %s", envAccessKey)
}

// ResolveAPIKey returns flagValue if non-empty, else the THUMPER_API_KEY
// environment variable, else an error — required by the purge subcommands.
func ResolveAPIKey(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	if v := os.Getenv(envAPIKey); v != "" {
		return v, nil
	}

	return "", fmt.Errorf("account API key not set: pass --api-key or set %s", envAPIKey)
}
