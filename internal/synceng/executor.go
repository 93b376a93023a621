package synceng

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kaaveland/bunnysync/internal/storageapi"
)

// defaultExecutorConcurrency is the default cap on outstanding upload/delete
// operations, per spec's "small double-digits" default.
const defaultExecutorConcurrency = 16

// ExecutorOptions configures a single Run.
type ExecutorOptions struct {
	// Concurrency bounds outstanding operations per phase. Zero or negative
	// uses defaultExecutorConcurrency.
	Concurrency int
	// DryRun, when true, issues no client calls and sends no Sink events;
	// each action is logged at Info level via Logger instead.
	DryRun bool
	// Sink receives per-action lifecycle events. Defaults to NoopProgress.
	Sink ProgressSink
	// Open resolves the local filesystem path for an upload action's body.
	// Required unless DryRun is set.
	Open func(path string) (io.ReadCloser, error)
	// LocalSize maps an upload action's zone path to its on-disk size, used
	// as the request's Content-Length.
	LocalSize map[string]int64
	// LocalFSPath maps an upload action's zone path to the local filesystem
	// path Open should read from.
	LocalFSPath map[string]string
	Logger      *slog.Logger
}

// Report is the outcome of Run: per-action errors, never fatal to the plan
// itself, plus aggregate counts for the orchestrator's exit-code decision.
type Report struct {
	Uploaded int
	Deleted  int
	Errors   []ActionError
}

// ActionError pairs a failed action with the error it produced.
type ActionError struct {
	Action Action
	Err    error
}

func (e ActionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action.Type, e.Action.Path, e.Err)
}

// HasErrors reports whether the run had any per-action failures, the signal
// the orchestrator uses to pick a non-zero exit code.
func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// Run executes plan against client: phase one runs every non-HTML upload and
// every deletion concurrently (bounded by opts.Concurrency); phase two, only
// once phase one's errgroup has fully drained, runs HTML uploads. Per-action
// failures are recorded in the returned Report and never abort the run;
// context cancellation is observed at each worker's dequeue point and stops
// new work from starting, letting in-flight operations finish.
func Run(ctx context.Context, client storageapi.Client, plan *Plan, opts ExecutorOptions) *Report {
	sink := opts.Sink
	if sink == nil {
		sink = NoopProgress{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	report := &Report{}

	var phase1, htmlUploads []Action

	for _, a := range plan.Upload {
		if a.IsHTML {
			htmlUploads = append(htmlUploads, a)
		} else {
			phase1 = append(phase1, a)
		}
	}

	phase1 = append(phase1, plan.Delete...)

	if opts.DryRun {
		for _, a := range phase1 {
			logger.Info("dry-run: would "+a.Type.String(), slog.String("path", a.Path.String()))
		}

		for _, a := range htmlUploads {
			logger.Info("dry-run: would "+a.Type.String(), slog.String("path", a.Path.String()))
		}

		return report
	}

	var mu sync.Mutex

	runPhase := func(actions []Action) {
		concurrency := opts.Concurrency
		if concurrency <= 0 {
			concurrency = defaultExecutorConcurrency
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		for _, a := range actions {
			a := a

			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return nil //nolint:nilerr // cancellation: stop dequeuing, not a failure
				}

				sink.Start(a)

				err := execute(gctx, client, opts, a)

				mu.Lock()
				defer mu.Unlock()

				if err != nil {
					sink.Failed(a, err)
					report.Errors = append(report.Errors, ActionError{Action: a, Err: err})

					return nil
				}

				sink.Done(a)

				if a.Type == ActionUpload {
					report.Uploaded++
				} else {
					report.Deleted++
				}

				return nil
			})
		}

		_ = g.Wait() // per-action errors are collected above, never returned here
	}

	runPhase(phase1)
	runPhase(htmlUploads)

	return report
}

// execute performs the single client call an action requires.
func execute(ctx context.Context, client storageapi.Client, opts ExecutorOptions, a Action) error {
	switch a.Type {
	case ActionDelete:
		return client.Delete(ctx, a.Path.String())
	case ActionUpload:
		fsPath, ok := opts.LocalFSPath[a.Path.String()]
		if !ok {
			return fmt.Errorf("executor: no local path recorded for %q", a.Path)
		}

		body, err := opts.Open(fsPath)
		if err != nil {
			return fmt.Errorf("opening %q: %w", fsPath, err)
		}
		defer body.Close()

		return client.Upload(ctx, a.Path.String(), body, opts.LocalSize[a.Path.String()])
	default:
		return fmt.Errorf("executor: unknown action type %v", a.Type)
	}
}
