package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/moolen/logsieve/internal/analysis"
	"github.com/moolen/logsieve/internal/config"
	"github.com/moolen/logsieve/internal/ingest"
	"github.com/moolen/logsieve/internal/logging"
	"github.com/moolen/logsieve/internal/models"
	"github.com/moolen/logsieve/internal/prediction"
	"github.com/moolen/logsieve/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	analyzeConfigPath      string
	analyzeHistoryPath     string
	analyzeNow             string
	analyzeWatch           bool
	analyzeMetricsTextfile string
	tracingEndpoint        string
	tracingTLSCAPath       string
	tracingTLSInsecure     bool
	tracingSampleRatio     float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <entries.jsonl>",
	Short: "Analyze a JSON-lines file of log entries",
	Long: `Runs the full analysis pipeline over a JSON-lines file of parsed log
entries and prints the result bundle: error patterns, temporal clusters,
cascades, correlations, the dependency graph, predictions, early warnings and
recommendations.

With --history, occurrences found in this run are added to the history read
from the file before forecasting. With --watch, the analysis is repeated
whenever the --config file changes, until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeConfigPath, "config", "", "Path to the analysis config YAML (defaults are used when empty)")
	analyzeCmd.Flags().StringVar(&analyzeHistoryPath, "history", "", "Path to a prediction history JSON file")
	analyzeCmd.Flags().StringVar(&analyzeNow, "now", "", "Reference time for predictions (defaults to the current time)")
	analyzeCmd.Flags().BoolVar(&analyzeWatch, "watch", false, "Re-run the analysis whenever --config changes")
	analyzeCmd.Flags().StringVar(&analyzeMetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after each run")
	analyzeCmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "", "OTLP gRPC endpoint; tracing is disabled when empty")
	analyzeCmd.Flags().StringVar(&tracingTLSCAPath, "tracing-tls-ca", "", "CA certificate for the tracing endpoint")
	analyzeCmd.Flags().BoolVar(&tracingTLSInsecure, "tracing-tls-insecure", false, "Skip TLS verification for the tracing endpoint")
	analyzeCmd.Flags().Float64Var(&tracingSampleRatio, "tracing-sample-ratio", 1, "Fraction of analysis runs to trace")
}

// analyzeRunner holds everything that stays fixed across repeated runs in
// watch mode.
type analyzeRunner struct {
	entries  []models.LogEntry
	history  map[string][]prediction.HistoryRecord
	now      time.Time
	opts     []analysis.Option
	registry *prometheus.Registry
	textfile string
	out      io.Writer
	format   string
	logger   *logging.Logger
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := logging.GetLogger("analyze")

	if analyzeWatch && analyzeConfigPath == "" {
		return fmt.Errorf("--watch requires --config")
	}

	entries, err := ingest.ReadFile(args[0])
	if err != nil {
		return err
	}
	logger.Info("Loaded %d entries from %s", len(entries), args[0])

	now, err := referenceTime(analyzeNow)
	if err != nil {
		return err
	}

	r := &analyzeRunner{
		entries:  entries,
		now:      now,
		textfile: analyzeMetricsTextfile,
		out:      cmd.OutOrStdout(),
		format:   outputFormat,
		logger:   logger,
	}

	if analyzeHistoryPath != "" {
		r.history, err = ingest.ReadHistoryFile(analyzeHistoryPath)
		if err != nil {
			return err
		}
		logger.Info("Loaded history for %d categories from %s", len(r.history), analyzeHistoryPath)
	}

	tp, err := tracing.NewProvider(tracing.Config{
		Endpoint:       tracingEndpoint,
		TLSCAPath:      tracingTLSCAPath,
		TLSInsecure:    tracingTLSInsecure,
		SampleRatio:    tracingSampleRatio,
		ServiceVersion: Version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	r.opts = []analysis.Option{
		analysis.WithTracer(tp.Tracer("logsieve/analysis")),
		analysis.WithClock(func() time.Time { return r.now }),
	}
	if r.textfile != "" {
		r.registry = prometheus.NewRegistry()
		r.opts = append(r.opts, analysis.WithMetrics(analysis.NewMetrics(r.registry)))
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !analyzeWatch {
		cfg, err := config.LoadOrDefault(analyzeConfigPath)
		if err != nil {
			return err
		}
		return r.run(ctx, *cfg)
	}

	watcher, err := config.NewWatcher(config.WatcherConfig{FilePath: analyzeConfigPath}, func(cfg *config.AnalysisConfig) error {
		return r.run(ctx, *cfg)
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	logger.Info("Watching %s for changes, press Ctrl+C to stop", analyzeConfigPath)

	<-ctx.Done()
	logger.Info("Shutting down watcher...")
	return watcher.Stop()
}

// run analyzes the entries with cfg. Every run starts from the history file
// so repeated runs do not record the same occurrences twice.
func (r *analyzeRunner) run(ctx context.Context, cfg config.AnalysisConfig) error {
	opts := r.opts
	if r.history != nil {
		opts = append(opts[:len(opts):len(opts)], analysis.WithHistory(prediction.NewHistoryStoreFrom(r.history)))
	}

	engine, err := analysis.NewEngine(cfg, opts...)
	if err != nil {
		return err
	}

	result, err := engine.Analyze(ctx, r.entries)
	if err != nil {
		return err
	}
	r.logger.Info("Analysis %s: %d patterns, %d correlations, %d predictions in %v",
		result.SessionID, len(result.Patterns), result.Correlations.Len(), len(result.Predictions), result.Stats.Duration)

	if err := writeOutput(r.out, r.format, result); err != nil {
		return err
	}

	if r.registry != nil {
		if err := prometheus.WriteToTextfile(r.textfile, r.registry); err != nil {
			return fmt.Errorf("failed to write metrics textfile: %w", err)
		}
	}
	return nil
}
