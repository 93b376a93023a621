package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaaveland/bunnysync/internal/app"
	"github.com/kaaveland/bunnysync/internal/appconfig"
	"github.com/kaaveland/bunnysync/internal/purgeapi"
)

func newPurgeURLCmd() *cobra.Command {
	var flagAPIKey string

	cmd := &cobra.Command{
		Use:   "purge-url [OPTIONS] <url>",
		Short: "Purge a single URL from the edge cache",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey, err := appconfig.ResolveAPIKey(flagAPIKey)
			if err != nil {
				return newUsageError("%w", err)
			}

			client := purgeapi.New("", apiKey, defaultHTTPClient())

			ctx := shutdownContext(context.Background(), buildLogger())
			if err := app.RunPurgeURL(ctx, client, args[0]); err != nil {
				return fmt.Errorf("purge-url failed: %w", err)
			}

			statusf(flagQuiet, "Purged %s\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVar(&flagAPIKey, "api-key", "", "account API key (env THUMPER_API_KEY)")

	return cmd
}
