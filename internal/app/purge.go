package app

import (
	"context"

	"github.com/kaaveland/bunnysync/internal/purgeapi"
)

// RunPurgeURL issues a single-URL purge request against the edge API.
func RunPurgeURL(ctx context.Context, client *purgeapi.Client, target string) error {
	return client.PurgeURL(ctx, target)
}

// RunPurgeZone issues a whole-zone purge request against the edge API.
func RunPurgeZone(ctx context.Context, client *purgeapi.Client, pullZoneID string) error {
	return client.PurgeZone(ctx, pullZoneID)
}
