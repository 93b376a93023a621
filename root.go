package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagJSON    bool
	flagVerbose bool
	flagQuiet   bool
)

// httpClientTimeout bounds the edge-API purge requests (defaultHTTPClient).
// The storage client used by sync is built on transferHTTPClient, which has
// no fixed timeout: listings, lockfile read/write, uploads and deletes all
// run under the orchestrator's cancellable context instead, since large
// payloads on slow links can legitimately take longer than any sensible
// default.
const httpClientTimeout = 30 * time.Second

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: httpClientTimeout}
}

func transferHTTPClient() *http.Client {
	return &http.Client{Timeout: 0}
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bunnysync",
		Short:   "Sync a local directory tree to a storage-zone CDN origin",
		Long:    "bunnysync reconciles a local directory tree against a BunnyCDN-style storage zone: uploading new or changed files, deleting remote files no longer present locally, and purging edge cache on request.",
		Version: version,
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "machine-readable output")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "per-action logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Cobra's own flag-parse failures (unrecognized flag, bad flag value)
	// bypass RunE entirely; tag them as usage errors so exitOnError picks
	// exit code 2 instead of falling through to 1. FlagErrorFunc set on the
	// root applies to every subcommand that doesn't set its own.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newUsageError("%w", err)
	})

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newPurgeURLCmd())
	cmd.AddCommand(newPurgeZoneCmd())

	return cmd
}

// buildLogger creates an slog.Logger whose level is controlled by the global
// --verbose/--quiet flags.
func buildLogger() *slog.Logger {
	level := slog.LevelWarn

	switch {
	case flagVerbose:
		level = slog.LevelInfo
	case flagQuiet:
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// usageError marks a CLI usage failure (invalid flags, missing credentials),
// which exits 2 per spec's exit-code table instead of the 1 used for
// operational failures.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newUsageError(format string, args ...any) *usageError {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// usageArgs wraps a cobra.PositionalArgs validator so a wrong-arg-count
// failure (e.g. cobra.ExactArgs) is tagged as a usage error, since it's
// returned from ValidateArgs before RunE ever runs and would otherwise exit 1.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return newUsageError("%w", err)
		}

		return nil
	}
}

// exitOnError prints a user-friendly error message to stderr and exits with
// the code the error's category demands: 2 for usageError, 1 otherwise.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var usageErr *usageError
	if errors.As(err, &usageErr) {
		os.Exit(2)
	}

	os.Exit(1)
}
