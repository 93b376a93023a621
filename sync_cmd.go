package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kaaveland/bunnysync/internal/app"
	"github.com/kaaveland/bunnysync/internal/appconfig"
	"github.com/kaaveland/bunnysync/internal/storageapi"
	"github.com/kaaveland/bunnysync/internal/storagepath"
	"github.com/kaaveland/bunnysync/internal/synceng"
)

func newSyncCmd() *cobra.Command {
	var (
		flagEndpoint    string
		flagAccessKey   string
		flagPath        string
		flagDryRun      bool
		flagForce       bool
		flagLockfile    string
		flagIgnore      []string
		flagConcurrency int
	)

	cmd := &cobra.Command{
		Use:   "sync [OPTIONS] <local_path> <storage_zone>",
		Short: "Reconcile a local directory tree against a storage zone",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			accessKey, err := appconfig.ResolveAccessKey(flagAccessKey)
			if err != nil {
				return newUsageError("%w", err)
			}

			targetSubPath, err := storagepath.Clean(flagPath)
			if err != nil {
				return newUsageError("invalid --path %q: %w", flagPath, err)
			}

			lockfilePath, err := storagepath.Clean(flagLockfile)
			if err != nil {
				return newUsageError("invalid --lockfile %q: %w", flagLockfile, err)
			}

			ignorePrefixes := make([]storagepath.Path, 0, len(flagIgnore))

			for _, raw := range flagIgnore {
				p, err := storagepath.Clean(raw)
				if err != nil {
					return newUsageError("invalid --ignore %q: %w", raw, err)
				}

				ignorePrefixes = append(ignorePrefixes, p)
			}

			logger := buildLogger()
			ctx := shutdownContext(context.Background(), logger)

			client := storageapi.NewHTTPClient(flagEndpoint, args[1], accessKey, transferHTTPClient(), logger)

			sink := pickProgressSink(logger, flagDryRun)

			result, err := app.RunSync(ctx, client, app.SyncOptions{
				LocalPath:       args[0],
				TargetSubPath:   targetSubPath,
				DryRun:          flagDryRun,
				Force:           flagForce,
				LockfilePath:    lockfilePath,
				IgnorePrefixes:  ignorePrefixes,
				Concurrency:     flagConcurrency,
				ListConcurrency: appconfig.DefaultListConcurrency,
				Sink:            sink,
				Logger:          logger,
			})
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			if flagDryRun {
				printPlan(result.Plan, flagJSON)
				return nil
			}

			if flagJSON {
				if err := printReportJSON(result.Report); err != nil {
					return err
				}
			} else {
				printReportText(result.Report, flagQuiet)
			}

			if result.Report.HasErrors() {
				return fmt.Errorf("sync completed with %d errors", len(result.Report.Errors))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&flagEndpoint, "endpoint", "e", appconfig.DefaultEndpoint, "storage API hostname")
	cmd.Flags().StringVarP(&flagAccessKey, "access-key", "a", "", "storage-zone password (env THUMPER_KEY)")
	cmd.Flags().StringVarP(&flagPath, "path", "p", appconfig.DefaultTargetSubPath, "zone-relative target sub-path")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "plan and print; do not execute")
	cmd.Flags().BoolVarP(&flagForce, "force", "f", false, "ignore existing lockfile")
	cmd.Flags().StringVar(&flagLockfile, "lockfile", appconfig.DefaultLockfilePath, "lockfile path within zone")
	cmd.Flags().StringSliceVarP(&flagIgnore, "ignore", "i", nil, "do not delete remote paths under this prefix (repeatable)")
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", appconfig.DefaultConcurrency, "executor action concurrency")

	return cmd
}

// pickProgressSink chooses between per-line logging (verbose), an aggregate
// terminal bar (plain runs on a TTY), and a no-op sink (quiet, json, dry-run,
// or non-interactive output), mirroring spec's verbose-vs-normal progress split.
func pickProgressSink(logger *slog.Logger, dryRun bool) synceng.ProgressSink {
	if flagVerbose {
		return synceng.VerboseProgress{Logger: logger}
	}

	if flagQuiet || flagJSON || dryRun {
		return synceng.NoopProgress{}
	}

	if synceng.IsTerminalWriter(os.Stderr) {
		return synceng.NewBarProgress(0, os.Stderr)
	}

	return synceng.NoopProgress{}
}

func printPlan(plan *synceng.Plan, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(planJSON(plan))

		return
	}

	for _, a := range plan.Upload {
		fmt.Printf("UPLOAD %s\n", a.Path)
	}

	for _, a := range plan.Delete {
		fmt.Printf("DELETE %s\n", a.Path)
	}

	stats := plan.Stats()
	fmt.Printf("%d to upload (%s), %d to delete (%s), %d unchanged\n",
		stats.Uploads, formatSize(stats.BytesToUpload),
		stats.Deletes, formatSize(stats.BytesToDelete),
		stats.Skips)
}

type planJSONOutput struct {
	Upload []string `json:"upload"`
	Delete []string `json:"delete"`
	Skip   []string `json:"skip"`
}

func planJSON(plan *synceng.Plan) planJSONOutput {
	out := planJSONOutput{}

	for _, a := range plan.Upload {
		out.Upload = append(out.Upload, a.Path.String())
	}

	for _, a := range plan.Delete {
		out.Delete = append(out.Delete, a.Path.String())
	}

	for _, p := range plan.Skip {
		out.Skip = append(out.Skip, p.String())
	}

	return out
}

func printReportText(report *synceng.Report, quiet bool) {
	if report.Uploaded == 0 && report.Deleted == 0 && !report.HasErrors() {
		statusf(quiet, "Already in sync.\n")
		return
	}

	statusf(quiet, "Sync complete: %d uploaded, %d deleted\n", report.Uploaded, report.Deleted)

	if report.HasErrors() {
		statusf(quiet, "  Errors: %d\n", len(report.Errors))
	}
}

type reportJSONOutput struct {
	Uploaded int               `json:"uploaded"`
	Deleted  int               `json:"deleted"`
	Errors   []reportJSONError `json:"errors"`
}

type reportJSONError struct {
	Path  string `json:"path"`
	Type  string `json:"type"`
	Error string `json:"error"`
}

func printReportJSON(report *synceng.Report) error {
	errs := make([]reportJSONError, 0, len(report.Errors))
	for _, e := range report.Errors {
		errs = append(errs, reportJSONError{
			Path:  e.Action.Path.String(),
			Type:  e.Action.Type.String(),
			Error: e.Err.Error(),
		})
	}

	out := reportJSONOutput{Uploaded: report.Uploaded, Deleted: report.Deleted, Errors: errs}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
