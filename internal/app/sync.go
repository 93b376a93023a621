// Package app wires storageapi, synceng, and lockmgr together into the
// eight-step sync sequence and the one-shot purge commands, generalized
// from the teacher's runSync (client construction, engine construction,
// RunOnce, structured report printing) to a stateless local-vs-remote
// one-way reconciliation.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/kaaveland/bunnysync/internal/lockmgr"
	"github.com/kaaveland/bunnysync/internal/storageapi"
	"github.com/kaaveland/bunnysync/internal/storagepath"
	"github.com/kaaveland/bunnysync/internal/synceng"
)

// SyncOptions configures a single sync run.
type SyncOptions struct {
	LocalPath       string
	TargetSubPath   storagepath.Path
	DryRun          bool
	Force           bool
	LockfilePath    storagepath.Path
	IgnorePrefixes  []storagepath.Path
	Concurrency     int
	ListConcurrency int
	Sink            synceng.ProgressSink
	Logger          *slog.Logger
}

// SyncResult is returned to the CLI layer for text/JSON reporting.
type SyncResult struct {
	Plan   *synceng.Plan
	Report *synceng.Report
}

// RunSync sequences the eight steps of the sync command: scan both sides
// concurrently, build the plan, short-circuit on dry-run, acquire the
// deploy lock, execute, release the lock on every exit path, and let the
// caller decide the exit code from Report.HasErrors.
func RunSync(ctx context.Context, client storageapi.Client, opts SyncOptions) (*SyncResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		localRecords, remoteRecords map[storagepath.Path]synceng.FileRecord
		localFSPaths                map[string]string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		local, fsPaths, err := scanLocalWithFSPaths(gctx, opts.LocalPath, opts.TargetSubPath, opts.Concurrency, logger)
		if err != nil {
			return fmt.Errorf("scanning local tree: %w", err)
		}

		localRecords = local
		localFSPaths = fsPaths

		return nil
	})

	g.Go(func() error {
		remote, err := synceng.ScanRemote(gctx, client, opts.TargetSubPath, opts.ListConcurrency, logger)
		if err != nil {
			return fmt.Errorf("scanning remote zone: %w", err)
		}

		remoteRecords = remote

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	lockfilePath := storagepath.Join(opts.TargetSubPath.String(), opts.LockfilePath.String())

	plan := synceng.BuildPlan(localRecords, remoteRecords, opts.IgnorePrefixes, lockfilePath)

	if opts.DryRun {
		return &SyncResult{Plan: plan, Report: &synceng.Report{}}, nil
	}

	handle, err := lockmgr.Acquire(ctx, client, lockfilePath.String(), opts.Force)
	if err != nil {
		return nil, fmt.Errorf("acquiring deploy lock: %w", err)
	}

	defer func() {
		if relErr := handle.Release(context.WithoutCancel(ctx)); relErr != nil {
			logger.Error("releasing deploy lock", slog.Any("error", relErr))
		}
	}()

	localSizes := make(map[string]int64, len(localRecords))
	for p, rec := range localRecords {
		localSizes[p.String()] = rec.Size
	}

	execOpts := synceng.ExecutorOptions{
		Concurrency: opts.Concurrency,
		DryRun:      false,
		Sink:        opts.Sink,
		Open:        func(path string) (io.ReadCloser, error) { return os.Open(path) },
		LocalSize:   localSizes,
		LocalFSPath: localFSPaths,
		Logger:      logger,
	}

	report := synceng.Run(ctx, client, plan, execOpts)

	return &SyncResult{Plan: plan, Report: report}, nil
}

// scanLocalWithFSPaths wraps synceng.ScanLocal, additionally recording the
// on-disk path behind every zone-relative path so the executor knows what
// to open for each upload.
func scanLocalWithFSPaths(ctx context.Context, root string, targetSubPath storagepath.Path, workers int, logger *slog.Logger) (map[storagepath.Path]synceng.FileRecord, map[string]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}

	records, err := synceng.ScanLocal(ctx, absRoot, targetSubPath, workers, logger)
	if err != nil {
		return nil, nil, err
	}

	fsPaths := make(map[string]string, len(records))

	for zonePath := range records {
		rel := zonePath.String()
		if targetSubPath != "" {
			rel = rel[len(targetSubPath.String())+1:]
		}

		fsPaths[zonePath.String()] = filepath.Join(absRoot, filepath.FromSlash(rel))
	}

	return records, fsPaths, nil
}
