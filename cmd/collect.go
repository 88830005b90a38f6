package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/adalundhe/branchobs/core/dataset"
	"github.com/adalundhe/branchobs/core/observation"
	"github.com/adalundhe/branchobs/core/solver/snapshot"
	"github.com/adalundhe/branchobs/core/tensor"
)

// =============================================================================
// Collect Command
// =============================================================================

var (
	collectOnly string
	collectDB   string
)

var collectCmd = &cobra.Command{
	Use:   "collect <snapshot>...",
	Short: "Append the samples of recorded episodes to the dataset",
	Long: `Run the configured extractors and target over each snapshot and store
one sample per decision point in the SQLite dataset. Steps the target cannot
score, such as nodes without a solved LP, are skipped. Each snapshot is
recorded under its file name without extension.

Examples:
  branchobs collect runs/*.yaml
  branchobs collect --db /tmp/samples.db --only 'structural' episode.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectOnly, "only", "", "Glob restricting the configured extractors")
	collectCmd.Flags().StringVar(&collectDB, "db", "", "Dataset path (defaults to dataset.path)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics, shutdown, err := serveMetrics()
	if err != nil {
		return err
	}
	defer shutdown()

	_, fns, err := buildExtractors(cfg, collectOnly, metrics)
	if err != nil {
		return err
	}
	var target observation.Function[tensor.Vector]
	if cfg.Extract.Target != "" {
		if target, err = observation.NewVector(cfg.Extract.Target, cfg.Settings()); err != nil {
			return err
		}
		target = observation.Instrument(cfg.Extract.Target, target, metrics)
	}

	path := collectDB
	if path == "" {
		path = cfg.Dataset.Path
	}
	store, err := dataset.OpenSQLite(path, cfg.Dataset.HotCache)
	if err != nil {
		return err
	}
	defer store.Close()

	buf, err := dataset.NewBuffer(cfg.Dataset.BufferSize)
	if err != nil {
		return err
	}
	collector := dataset.NewCollector(observation.NewMap(fns), target, buf, logger)

	total := 0
	for _, file := range args {
		ep, err := snapshot.Load(file)
		if err != nil {
			return err
		}
		n, err := collector.Run(ctx, episodeName(file), ep)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if buf.Evicted() > 0 {
			return fmt.Errorf("%s: episode exceeds dataset.buffer_size (%d)", file, cfg.Dataset.BufferSize)
		}
		if err := buf.Drain(ctx, store); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		total += n
	}

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "collected %d samples from %d episodes into %s (%d total)\n",
		total, len(args), store.Path(), count)
	return nil
}

func episodeName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// serveMetrics exposes extraction metrics on metrics.addr while collecting.
// Without an address it returns nil metrics and a no-op shutdown.
func serveMetrics() (*observation.Metrics, func(), error) {
	if cfg.Metrics.Addr == "" {
		return nil, func() {}, nil
	}

	reg := prometheus.NewRegistry()
	metrics, err := observation.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", cfg.Metrics.Addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", cfg.Metrics.Addr)

	return metrics, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
