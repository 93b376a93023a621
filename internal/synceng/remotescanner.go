package synceng

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kaaveland/bunnysync/internal/storageapi"
	"github.com/kaaveland/bunnysync/internal/storagepath"
)

// defaultRemoteListConcurrency bounds how many directory listings are in
// flight against the zone at once.
const defaultRemoteListConcurrency = 8

// ScanRemote performs a breadth-first traversal of the zone beneath root
// (zone-relative, "" for the zone root), listing directories on a bounded
// worker pool. A listing failure on any directory — including a
// non-root subdirectory — is fatal and aborts the whole scan: a partial
// remote tree is not a safe basis for a delete decision.
func ScanRemote(ctx context.Context, client storageapi.Client, root storagepath.Path, concurrency int, logger *slog.Logger) (map[storagepath.Path]FileRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if concurrency <= 0 {
		concurrency = defaultRemoteListConcurrency
	}

	records := make(map[storagepath.Path]FileRecord)

	var mu sync.Mutex

	// Listings are bounded by sem rather than g.SetLimit: workers dispatch
	// subdirectories from inside g.Go, which would block forever once every
	// slot is held by a worker waiting to dispatch.
	sem := make(chan struct{}, concurrency)

	g, gctx := errgroup.WithContext(ctx)

	var dispatch func(dir storagepath.Path)

	dispatch = func(dir storagepath.Path) {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}

			entries, err := client.List(gctx, dir.String())
			<-sem

			if err != nil {
				return fmt.Errorf("remote scan: listing %q: %w", dir, err)
			}

			logger.Debug("remote scan: listed directory",
				slog.String("dir", dir.String()),
				slog.Int("entries", len(entries)),
			)

			for _, entry := range entries {
				childPath := storagepath.Join(dir.String(), entry.Name)

				if entry.IsDir {
					dispatch(childPath)
					continue
				}

				rec := FileRecord{Path: childPath, Size: entry.Length}
				if entry.HasSum {
					rec.Checksum = entry.Checksum
				}

				mu.Lock()
				records[childPath] = rec
				mu.Unlock()
			}

			return nil
		})
	}

	dispatch(root)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}
