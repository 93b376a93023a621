package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaaveland/bunnysync/internal/app"
	"github.com/kaaveland/bunnysync/internal/appconfig"
	"github.com/kaaveland/bunnysync/internal/purgeapi"
)

func newPurgeZoneCmd() *cobra.Command {
	var flagAPIKey string

	cmd := &cobra.Command{
		Use:   "purge-zone [OPTIONS] <pull_zone_id>",
		Short: "Purge an entire pull zone's edge cache",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey, err := appconfig.ResolveAPIKey(flagAPIKey)
			if err != nil {
				return newUsageError("%w", err)
			}

			client := purgeapi.New("", apiKey, defaultHTTPClient())

			ctx := shutdownContext(context.Background(), buildLogger())
			if err := app.RunPurgeZone(ctx, client, args[0]); err != nil {
				return fmt.Errorf("purge-zone failed: %w", err)
			}

			statusf(flagQuiet, "Purged pull zone %s\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVar(&flagAPIKey, "api-key", "", "account API key (env THUMPER_API_KEY)")

	return cmd
}
