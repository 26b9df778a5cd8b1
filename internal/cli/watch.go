package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/breakpoints/internal/breakpoint"
	"github.com/roach88/breakpoints/internal/engine"
	"github.com/roach88/breakpoints/internal/metrics"
	"github.com/roach88/breakpoints/internal/store"
	"github.com/roach88/breakpoints/internal/viewport"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Load         LoadOptions
	SizeFile     string
	Database     string
	NoCheckpoint bool
	MetricsAddr  string
	Window       time.Duration
	Debounce     time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <definitions-file>",
		Short: "Run an engine driven by a viewport size file",
		Long: `Run an engine whose viewport follows a size file ("1024x768" or
"1024"), which must exist at start. Every transition is printed and checkpointed to SQLite, keyed by
the hash of the definitions, so a restart resumes the sequence numbering.

Configuration comes from flags, then BREAKPOINTS_WINDOW, BREAKPOINTS_DB and
BREAKPOINTS_METRICS_ADDR. When a metrics address is set, Prometheus metrics
are served on /metrics.

Example:
  breakpoints watch breakpoints.yaml --size-file /tmp/viewport --db ./bp.db
  breakpoints watch breakpoints.yaml --size-file /tmp/viewport --metrics-addr :9090`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.settings()
			if !cmd.Flags().Changed("db") {
				opts.Database = cfg.Database
			}
			if !cmd.Flags().Changed("metrics-addr") {
				opts.MetricsAddr = cfg.MetricsAddr
			}
			if !cmd.Flags().Changed("window") {
				opts.Window = cfg.Window
			}
			return runWatch(opts, args[0], cmd)
		},
	}

	addLoadFlags(cmd, &opts.Load)
	cmd.Flags().StringVar(&opts.SizeFile, "size-file", "", "file holding the viewport size (required)")
	_ = cmd.MarkFlagRequired("size-file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite checkpoint database (default $BREAKPOINTS_DB)")
	cmd.Flags().BoolVar(&opts.NoCheckpoint, "no-checkpoint", false, "do not persist transitions")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default $BREAKPOINTS_METRICS_ADDR)")
	cmd.Flags().DurationVar(&opts.Window, "window", engine.DefaultWindow, "coalescing window (default $BREAKPOINTS_WINDOW)")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", viewport.DefaultDebounce, "size file debounce")

	return cmd
}

func runWatch(opts *WatchOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := opts.logger()

	defs, err := loadDefinitions(path, opts.Load)
	if err != nil {
		return reportLoadError(f, path, err)
	}

	width, height, err := viewport.ReadSizeFile(opts.SizeFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid size file", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cp *checkpointer
	startSeq := int64(0)
	if !opts.NoCheckpoint {
		cp, startSeq, err = openCheckpointer(ctx, opts.Database, defs, logger)
		if err != nil {
			return err
		}
		defer cp.close()
	}

	reg := prometheus.NewRegistry()
	vp := viewport.New(width, height)
	eng, err := engine.New(defs, vp,
		engine.WithWindow(opts.Window),
		engine.WithLogger(logger),
		engine.WithRecorder(metrics.NewRecorder(reg)),
		engine.WithStartSeq(startSeq),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start engine", err)
	}
	defer eng.Close()

	if opts.MetricsAddr != "" {
		srv := newMetricsServer(opts.MetricsAddr, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", opts.MetricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", "addr", opts.MetricsAddr)
	}

	// Subscribe replays the seed, so the first checkpoint is the initial set.
	sub := eng.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for st := range sub.C() {
			printTransition(f, st)
			if cp != nil {
				cp.write(eng.ID(), eng.Definitions(), st)
			}
		}
	}()

	f.VerboseLog("Watching %s (engine %s)", opts.SizeFile, eng.ID())
	watchErr := viewport.WatchFile(ctx, opts.SizeFile, vp,
		viewport.WithDebounce(opts.Debounce),
		viewport.WithFileLogger(logger),
	)

	// Close finishes the subscription, which ends the printer.
	eng.Close()
	wg.Wait()

	if watchErr != nil && !errors.Is(watchErr, context.Canceled) {
		return WrapExitError(ExitFailure, "size file watch failed", watchErr)
	}
	return nil
}

func printTransition(f *OutputFormatter, st breakpoint.State) {
	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(st)
		return
	}
	fmt.Fprintf(f.Writer, "#%d %s -> %s\n", st.Seq, formatSet(st.Previous), formatSet(st.Current))
}

func newMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// checkpointer persists transitions of one definition set.
type checkpointer struct {
	st     *store.Store
	logger *slog.Logger
}

// openCheckpointer opens the store and returns the seq to resume from.
func openCheckpointer(ctx context.Context, path string, defs breakpoint.Definitions, logger *slog.Logger) (*checkpointer, int64, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, 0, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	hash, err := defs.Collapse().Hash()
	if err != nil {
		st.Close()
		return nil, 0, WrapExitError(ExitCommandError, "failed to hash definitions", err)
	}

	prev, err := st.ReadCheckpoint(ctx, hash)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &checkpointer{st: st, logger: logger}, 0, nil
	case err != nil:
		st.Close()
		return nil, 0, WrapExitError(ExitCommandError, "failed to read checkpoint", err)
	}

	logger.Info("resuming from checkpoint",
		"definitions_hash", hash,
		"engine_id", prev.EngineID,
		"seq", prev.State.Seq,
		"current", []string(prev.State.Current),
	)
	return &checkpointer{st: st, logger: logger}, prev.State.Seq, nil
}

func (c *checkpointer) write(engineID string, defs breakpoint.Definitions, st breakpoint.State) {
	cp, err := store.NewCheckpoint(engineID, defs, st)
	if err == nil {
		err = c.st.WriteCheckpoint(context.Background(), cp)
	}
	if err != nil {
		c.logger.Error("checkpoint failed", "engine_id", engineID, "seq", st.Seq, "error", err)
	}
}

func (c *checkpointer) close() {
	if err := c.st.Close(); err != nil {
		c.logger.Error("error closing database", "error", err)
	}
}
