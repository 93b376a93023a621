package synceng

import (
	"io"
	"log/slog"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressSink receives per-action lifecycle events from the executor.
// Verbose callers log every event; normal callers aggregate into a single
// progress indicator. Implementations must be safe for concurrent use —
// the executor calls these methods from every worker goroutine.
type ProgressSink interface {
	Start(a Action)
	Done(a Action)
	Failed(a Action, err error)
}

// NoopProgress discards every event. Useful in tests and for --json output
// where progress lines would pollute machine-readable output.
type NoopProgress struct{}

func (NoopProgress) Start(Action)         {}
func (NoopProgress) Done(Action)          {}
func (NoopProgress) Failed(Action, error) {}

// VerboseProgress logs one line per lifecycle event via slog, grounded on
// the teacher's per-file transfer logging in TransferManager.
type VerboseProgress struct {
	Logger *slog.Logger
}

func (v VerboseProgress) Start(a Action) {
	v.Logger.Info(a.Type.String()+" start", slog.String("path", a.Path.String()))
}

func (v VerboseProgress) Done(a Action) {
	v.Logger.Info(a.Type.String()+" done", slog.String("path", a.Path.String()))
}

func (v VerboseProgress) Failed(a Action, err error) {
	v.Logger.Error(a.Type.String()+" failed", slog.String("path", a.Path.String()), slog.Any("error", err))
}

// BarProgress renders a single aggregate progress bar via progressbar/v3,
// advancing one unit per completed or failed action. It is gated behind TTY
// detection by NewBarProgress; dry-run and verbose callers never construct
// one.
type BarProgress struct {
	bar *progressbar.ProgressBar
}

// NewBarProgress builds a BarProgress sized to total actions, writing to
// out. Callers should only use this when out is a terminal (isatty.IsTerminal)
// and the run is neither dry-run nor verbose.
func NewBarProgress(total int, out io.Writer) *BarProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("syncing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	return &BarProgress{bar: bar}
}

func (b *BarProgress) Start(Action) {}

func (b *BarProgress) Done(Action) {
	_ = b.bar.Add(1)
}

func (b *BarProgress) Failed(Action, error) {
	_ = b.bar.Add(1)
}

// IsTerminalWriter reports whether out is an attached terminal, used to pick
// between BarProgress and VerboseProgress/NoopProgress at the CLI layer.
func IsTerminalWriter(out interface{ Fd() uintptr }) bool {
	return isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
}
