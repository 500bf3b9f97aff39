package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/moolen/logsieve/internal/config"
	"github.com/moolen/logsieve/internal/correlation"
	"github.com/moolen/logsieve/internal/depgraph"
	"github.com/moolen/logsieve/internal/logging"
	"github.com/moolen/logsieve/internal/logprocessing"
	"github.com/moolen/logsieve/internal/models"
	"github.com/moolen/logsieve/internal/prediction"
	"github.com/moolen/logsieve/internal/temporal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Stage names, used for spans, metrics and log lines.
const (
	StageCategorize  = "categorize"
	StagePatterns    = "patterns"
	StageTemporal    = "temporal"
	StageCorrelation = "correlation"
	StageGraph       = "graph"
	StagePrediction  = "prediction"
)

// Engine runs the analysis pipeline. It is safe for concurrent use: every
// run works on its own Session and the shared caches and history store are
// synchronized.
type Engine struct {
	mu     sync.RWMutex
	config config.AnalysisConfig

	categorizer *logprocessing.Categorizer
	signatures  *logprocessing.SignatureCache
	drain       logprocessing.DrainConfig

	history *prediction.HistoryStore
	metrics *Metrics
	tracer  trace.Tracer
	now     func() time.Time

	logger *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithHistory records pattern occurrences into store and enables
// predictions from it.
func WithHistory(store *prediction.HistoryStore) Option {
	return func(e *Engine) { e.history = store }
}

// WithMetrics reports run metrics to m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer sets the tracer used for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithClock sets the reference time source for predictions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDrainConfig overrides the Drain settings used for pattern families.
func WithDrainConfig(cfg logprocessing.DrainConfig) Option {
	return func(e *Engine) { e.drain = cfg }
}

// NewEngine creates an engine for cfg.
func NewEngine(cfg config.AnalysisConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	e := &Engine{
		config:      cfg,
		categorizer: logprocessing.NewCategorizer(cfg.CacheSize),
		signatures:  logprocessing.NewSignatureCache(cfg.CacheSize),
		drain:       logprocessing.DefaultDrainConfig(),
		tracer:      otel.Tracer("logsieve/analysis"),
		now:         time.Now,
		logger:      logging.GetLogger("analysis"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the active configuration.
func (e *Engine) Config() config.AnalysisConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// SetConfig swaps the configuration for subsequent runs. Runs in progress
// keep the configuration they started with. Cache sizes are fixed at
// construction and are not affected.
func (e *Engine) SetConfig(cfg config.AnalysisConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid analysis config: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = cfg
	e.logger.Info("Analysis config updated")
	return nil
}

// Analyze runs the pipeline over entries in a new session.
func (e *Engine) Analyze(ctx context.Context, entries []models.LogEntry) (*Result, error) {
	return e.AnalyzeSession(ctx, NewSession(), entries)
}

// AnalyzeSession resets s and runs the pipeline over entries in it.
// The only error is cancellation of ctx.
func (e *Engine) AnalyzeSession(ctx context.Context, s *Session, entries []models.LogEntry) (*Result, error) {
	cfg := e.Config()
	s.Reset()

	ctx, span := e.tracer.Start(ctx, "analysis.Analyze",
		trace.WithAttributes(
			attribute.String("session_id", s.ID.String()),
			attribute.Int("entries", len(entries)),
		))
	defer span.End()

	ctx = logging.ContextWithSession(ctx, s.ID.String())
	logger := e.logger.WithContext(ctx)

	start := time.Now()
	logger.Debug("Starting analysis of %d entries", len(entries))

	result := &Result{
		SessionID:   s.ID.String(),
		GeneratedAt: e.now(),
	}

	var (
		shards int
		events []correlation.Event
	)
	stages := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{StageCategorize, func(ctx context.Context) error {
			var err error
			shards, err = e.categorize(ctx, s, entries, cfg)
			return err
		}},
		{StagePatterns, func(context.Context) error {
			result.Patterns = logprocessing.BuildPatterns(s.clusters, cfg.MinOccurrences)
			logprocessing.NewFamilyMiner(e.drain).AssignFamilies(result.Patterns)
			logprocessing.LinkRelated(result.Patterns, cfg.FamilySimilarity)
			return nil
		}},
		{StageTemporal, func(context.Context) error {
			result.TemporalClusters = temporal.ClusterPatterns(
				temporal.Clusters(s.entries, cfg.TimeWindow(), cfg.MinOccurrences))
			result.Cascades = temporal.DetectCascades(s.entries, cfg.CascadeWindow())
			return nil
		}},
		{StageCorrelation, func(context.Context) error {
			events = correlation.EventsFrom(s.entries)
			result.Correlations = correlation.Analyze(events, correlation.Options{
				Window:            cfg.CorrelationWindow(),
				ConfidenceDivisor: cfg.CorrelationConfidenceDivisor,
			})
			return nil
		}},
		{StageGraph, func(context.Context) error {
			result.Graph = depgraph.Build(result.Correlations.Temporal, depgraph.Options{
				Threshold:    cfg.CorrelationThreshold,
				SymptomCount: cfg.PrimarySymptomCount,
			})
			return nil
		}},
		{StagePrediction, func(context.Context) error {
			result.Predictions = e.predict(s, result.Patterns, result.GeneratedAt, cfg)
			result.Warnings = prediction.EarlyWarnings(events, cfg.CorrelationWindow())
			result.Recommendations = prediction.Recommend(result.Predictions, result.Warnings, cfg.RiskThreshold)
			return nil
		}},
	}

	for _, st := range stages {
		if err := e.stage(ctx, st.name, st.run); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("%s stage: %w", st.name, err)
		}
	}

	result.Stats = e.stats(s, shards, time.Since(start))
	if e.metrics != nil {
		e.metrics.observeRun(result)
	}

	logger.Debug("Analysis finished in %v: %d patterns, %d temporal clusters, %d cascades, %d correlations, %d predictions",
		result.Stats.Duration, len(result.Patterns), len(result.TemporalClusters), len(result.Cascades),
		result.Correlations.Len(), len(result.Predictions))
	return result, nil
}

// stage runs fn inside a span and records its duration.
func (e *Engine) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, "analysis."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if e.metrics != nil {
		e.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
	logger := e.logger.WithContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("Stage %s failed after %v: %v", name, elapsed, err)
		return err
	}
	logger.Debug("Stage %s completed in %v", name, elapsed)
	return nil
}

type shard struct {
	start, end int
}

// shardBounds splits n entries into chunks of size. size 0 yields a single
// chunk.
func shardBounds(n, size int) []shard {
	if n == 0 {
		return nil
	}
	if size <= 0 || size >= n {
		return []shard{{0, n}}
	}
	shards := make([]shard, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		shards = append(shards, shard{start, end})
	}
	return shards
}

// categorize fills the session's entries, hashes and cluster map. Shards
// write disjoint ranges of the preallocated slices and build private
// cluster maps that are merged once all shards finished.
func (e *Engine) categorize(ctx context.Context, s *Session, entries []models.LogEntry, cfg config.AnalysisConfig) (int, error) {
	s.entries = make([]models.CategorizedEntry, len(entries))
	s.hashes = make([]string, len(entries))

	bounds := shardBounds(len(entries), cfg.ShardSize)
	partials := make([]*logprocessing.ClusterMap, len(bounds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, b := range bounds {
		i, b := i, b
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			part := logprocessing.NewClusterMap()
			categorized := e.categorizer.CategorizeAll(entries[b.start:b.end], b.start)
			for j, ce := range categorized {
				s.entries[b.start+j] = ce
				if !ce.Eligible() {
					continue
				}
				sig := e.signatures.Signature(ce.Entry.Message, ce.Category)
				part.Add(ce, sig)
				s.hashes[b.start+j] = sig.Hash
			}
			partials[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return len(bounds), err
	}

	for _, part := range partials {
		s.clusters.Merge(part)
	}
	return len(bounds), nil
}

// predict records this run into the history store, then forecasts from the
// whole store. A category is only recorded when this run is newer than its
// stored history, so analyzing the same batch again does not change it. Without a store there is nothing to forecast from.
func (e *Engine) predict(s *Session, patterns []logprocessing.ErrorPattern, now time.Time, cfg config.AnalysisConfig) []prediction.Prediction {
	if e.history == nil {
		return make([]prediction.Prediction, 0)
	}

	for issue, members := range s.membersByCategory(patterns) {
		record, ok := historyRecord(members)
		if !ok {
			continue
		}
		if !e.history.AppendNewer(issue, record) {
			e.logger.Debug("History for %s already covers %s, not recording", issue, record.Timestamp.Format(time.RFC3339))
		}
	}

	return prediction.Predict(e.history.Snapshot(), now, prediction.Options{
		MinSamples:   cfg.MinPredictionSamples,
		OverdueBoost: cfg.OverdueProbabilityBoost,
	})
}

// historyRecord summarizes one category's members of this run: the latest
// timestamp, the highest severity and the number of distinct accounts.
// Members without timestamps cannot be placed on the timeline.
func historyRecord(members []models.CategorizedEntry) (prediction.HistoryRecord, bool) {
	var record prediction.HistoryRecord
	accounts := make(map[string]struct{})
	found := false

	for _, m := range members {
		if !m.Entry.HasTimestamp() {
			continue
		}
		if ts := m.Time(); !found || ts.After(record.Timestamp) {
			record.Timestamp = ts
		}
		found = true
		if m.Entry.Severity > record.Severity {
			record.Severity = m.Entry.Severity
		}
		if m.Entry.Account != "" {
			accounts[m.Entry.Account] = struct{}{}
		}
	}
	record.AccountsAffected = len(accounts)
	return record, found
}

func (e *Engine) stats(s *Session, shards int, elapsed time.Duration) Stats {
	st := Stats{
		Entries:          len(s.entries),
		Signatures:       s.Clusters(),
		Shards:           shards,
		Duration:         elapsed,
		CategorizerCache: e.categorizer.Stats(),
		SignatureCache:   e.signatures.Stats(),
	}
	for i := range s.entries {
		if s.entries[i].Eligible() {
			st.Eligible++
		}
		if s.entries[i].Entry.HasTimestamp() {
			st.Timestamped++
		}
	}
	return st
}
