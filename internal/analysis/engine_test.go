package analysis

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moolen/logsieve/internal/config"
	"github.com/moolen/logsieve/internal/logging"
	"github.com/moolen/logsieve/internal/models"
	"github.com/moolen/logsieve/internal/prediction"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var day0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func entry(ts time.Time, sev models.Severity, component, message string) models.LogEntry {
	return models.LogEntry{
		Timestamp: &ts,
		Severity:  sev,
		Component: component,
		Message:   message,
		IsError:   sev >= models.SeverityError,
	}
}

// imapTimeouts is five IMAP timeouts for different users, two minutes apart.
func imapTimeouts() []models.LogEntry {
	var entries []models.LogEntry
	for i := 0; i < 5; i++ {
		entries = append(entries, entry(day0.Add(time.Duration(2*i)*time.Minute), models.SeverityError,
			"mail-sync", fmt.Sprintf("IMAP timeout for user%d@x.com", i+1)))
	}
	return entries
}

// cascadeDays repeats a network -> database -> authentication sequence one
// minute apart on three separate days.
func cascadeDays() []models.LogEntry {
	var entries []models.LogEntry
	for d := 0; d < 3; d++ {
		start := day0.AddDate(0, 0, d)
		entries = append(entries,
			entry(start, models.SeverityError, "resolver", "DNS lookup for mail.example.com returned SERVFAIL"),
			entry(start.Add(time.Minute), models.SeverityError, "store", "database query failed: deadlock detected"),
			entry(start.Add(2*time.Minute), models.SeverityError, "gateway", "authentication failed for account 1042"),
		)
	}
	return entries
}

func newEngine(t *testing.T, mutate func(*config.AnalysisConfig), opts ...Option) *Engine {
	t.Helper()
	cfg := config.DefaultAnalysisConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewEngine(cfg, opts...)
	require.NoError(t, err)
	return e
}

func TestEngine_ImapScenario(t *testing.T) {
	e := newEngine(t, nil)

	result, err := e.Analyze(context.Background(), imapTimeouts())
	require.NoError(t, err)

	require.Len(t, result.Patterns, 1)
	p := result.Patterns[0]
	assert.Equal(t, 5, p.Occurrences)
	assert.Equal(t, models.CategorySynchronization, p.Category)
	assert.GreaterOrEqual(t, p.Confidence, 0.8)
	assert.NotEmpty(t, p.Family)

	require.Len(t, result.TemporalClusters, 1)
	assert.Equal(t, 5, result.TemporalClusters[0].Occurrences)

	assert.Equal(t, 5, result.Stats.Entries)
	assert.Equal(t, 5, result.Stats.Eligible)
	assert.Equal(t, 5, result.Stats.Timestamped)
	assert.Equal(t, 1, result.Stats.Signatures)
	assert.Equal(t, 1, result.Stats.Shards)
	assert.NotEmpty(t, result.SessionID)
}

func TestEngine_CascadeScenario(t *testing.T) {
	e := newEngine(t, nil)

	result, err := e.Analyze(context.Background(), cascadeDays())
	require.NoError(t, err)

	require.Len(t, result.Patterns, 3)
	for _, p := range result.Patterns {
		assert.Equal(t, 3, p.Occurrences)
	}

	freq := map[string]int{}
	for _, c := range result.Correlations.Temporal {
		freq[c.SourceIssue+"->"+c.TargetIssue] = c.Frequency
	}
	assert.Equal(t, 3, freq["network->database"])
	assert.Equal(t, 3, freq["database->authentication"])

	g := result.Graph
	require.NotNil(t, g)
	assert.Equal(t, []string{"authentication", "database", "network"}, g.Nodes)
	assert.Equal(t, []string{"network"}, g.RootCauses)
	assert.Contains(t, g.PrimarySymptoms, "authentication")
	assert.Empty(t, g.CyclicalDependencies)

	assert.Len(t, result.TemporalClusters, 3)
	assert.Empty(t, result.Predictions)
}

func TestEngine_SingleEntryYieldsNothing(t *testing.T) {
	severities := []models.Severity{models.SeverityInfo, models.SeverityError, models.SeverityFatal}
	for _, sev := range severities {
		t.Run(sev.String(), func(t *testing.T) {
			e := newEngine(t, nil, WithHistory(prediction.NewHistoryStore()))
			result, err := e.Analyze(context.Background(), []models.LogEntry{
				entry(day0, sev, "api", "connection refused by upstream"),
			})
			require.NoError(t, err)
			assert.True(t, result.Empty())
			assert.Equal(t, 1, result.Stats.Entries)
		})
	}
}

func TestEngine_EmptyInput(t *testing.T) {
	e := newEngine(t, nil)
	result, err := e.Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Zero(t, result.Stats.Shards)
}

func TestEngine_BelowWarningIsIgnored(t *testing.T) {
	var entries []models.LogEntry
	for i := 0; i < 10; i++ {
		entries = append(entries, entry(day0.Add(time.Duration(i)*time.Second), models.SeverityInfo,
			"api", "connection refused by upstream"))
	}

	e := newEngine(t, nil)
	result, err := e.Analyze(context.Background(), entries)
	require.NoError(t, err)

	assert.True(t, result.Empty())
	assert.Equal(t, 10, result.Stats.Entries)
	assert.Zero(t, result.Stats.Eligible)
	assert.Zero(t, result.Stats.Signatures)
}

func TestEngine_ResetIsIdempotent(t *testing.T) {
	e := newEngine(t, nil)
	s := NewSession()
	input := append(imapTimeouts(), cascadeDays()...)

	first, err := e.AnalyzeSession(context.Background(), s, input)
	require.NoError(t, err)
	firstID := s.ID

	second, err := e.AnalyzeSession(context.Background(), s, input)
	require.NoError(t, err)

	assert.NotEqual(t, firstID, s.ID)
	assert.Equal(t, first.Patterns, second.Patterns)
	assert.Equal(t, first.TemporalClusters, second.TemporalClusters)
	assert.Equal(t, first.Correlations, second.Correlations)
	assert.Equal(t, len(input), len(s.Entries()))

	s.Reset()
	assert.Empty(t, s.Entries())
	assert.Zero(t, s.Clusters())
}

func TestEngine_ShardingMatchesSequential(t *testing.T) {
	input := append(cascadeDays(), imapTimeouts()...)
	input = append(input, entry(day0, models.SeverityDebug, "api", "heartbeat"))

	sequential := newEngine(t, nil)
	sharded := newEngine(t, func(c *config.AnalysisConfig) {
		c.ShardSize = 2
		c.Workers = 3
	})

	want, err := sequential.Analyze(context.Background(), input)
	require.NoError(t, err)
	got, err := sharded.Analyze(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 1, want.Stats.Shards)
	assert.Equal(t, 8, got.Stats.Shards)
	assert.Equal(t, want.Patterns, got.Patterns)
	assert.Equal(t, want.TemporalClusters, got.TemporalClusters)
	assert.Equal(t, want.Cascades, got.Cascades)
	assert.Equal(t, want.Correlations, got.Correlations)
	assert.Equal(t, want.Graph, got.Graph)
}

func TestEngine_CancelledContext(t *testing.T) {
	e := newEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.Analyze(ctx, imapTimeouts())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "categorize stage")
}

func TestEngine_RecordsHistoryAndPredicts(t *testing.T) {
	store := prediction.NewHistoryStoreFrom(map[string][]prediction.HistoryRecord{
		"network": {
			{Timestamp: day0, Severity: models.SeverityError},
			{Timestamp: day0.AddDate(0, 0, 1), Severity: models.SeverityError},
		},
	})
	now := day0.AddDate(0, 0, 2).Add(12 * time.Hour)
	e := newEngine(t, nil, WithHistory(store), WithClock(func() time.Time { return now }))

	result, err := e.Analyze(context.Background(), cascadeDays())
	require.NoError(t, err)

	// one record per category that produced a pattern
	assert.Len(t, store.Records("network"), 3)
	assert.Len(t, store.Records("database"), 1)
	assert.Len(t, store.Records("authentication"), 1)
	last := store.Records("network")[2]
	assert.Equal(t, day0.AddDate(0, 0, 2), last.Timestamp)
	assert.Equal(t, models.SeverityError, last.Severity)

	require.Len(t, result.Predictions, 1)
	p := result.Predictions[0]
	assert.Equal(t, "network", p.IssueType)
	assert.Equal(t, day0.AddDate(0, 0, 3), p.PredictedTime)
	assert.InDelta(t, 0.75, p.Probability, 1e-9)
	assert.False(t, p.Overdue)

	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, "check_connectivity", result.Recommendations[0].Action)
	assert.Equal(t, "network", result.Recommendations[0].Target)
	assert.Equal(t, now, result.GeneratedAt)
}

func TestEngine_RepeatedBatchKeepsHistory(t *testing.T) {
	store := prediction.NewHistoryStoreFrom(map[string][]prediction.HistoryRecord{
		"network": {
			{Timestamp: day0, Severity: models.SeverityError},
			{Timestamp: day0.AddDate(0, 0, 1), Severity: models.SeverityError},
		},
	})
	now := day0.AddDate(0, 0, 2).Add(12 * time.Hour)
	e := newEngine(t, nil, WithHistory(store), WithClock(func() time.Time { return now }))

	first, err := e.Analyze(context.Background(), cascadeDays())
	require.NoError(t, err)
	second, err := e.Analyze(context.Background(), cascadeDays())
	require.NoError(t, err)

	assert.Len(t, store.Records("network"), 3)
	assert.Equal(t, 5, store.Len())
	assert.Equal(t, first.Predictions, second.Predictions)
	require.Len(t, second.Predictions, 1)
	assert.Equal(t, day0.AddDate(0, 0, 3), second.Predictions[0].PredictedTime)
	assert.InDelta(t, 0.75, second.Predictions[0].Probability, 1e-9)

	// a later batch is still recorded
	later := cascadeDays()
	for i := range later {
		ts := later[i].Timestamp.AddDate(0, 0, 1)
		later[i].Timestamp = &ts
	}
	_, err = e.Analyze(context.Background(), later)
	require.NoError(t, err)
	assert.Len(t, store.Records("network"), 4)
}

func TestEngine_ZeroSession(t *testing.T) {
	e := newEngine(t, nil)

	var s Session
	result, err := e.AnalyzeSession(context.Background(), &s, imapTimeouts())
	require.NoError(t, err)
	assert.Len(t, result.Patterns, 1)
	assert.Equal(t, 1, s.Clusters())
	assert.NotEqual(t, uuid.Nil, s.ID)
}

func TestEngine_SetConfig(t *testing.T) {
	e := newEngine(t, nil)

	bad := config.DefaultAnalysisConfig()
	bad.Workers = 0
	require.Error(t, e.SetConfig(bad))
	assert.Equal(t, 4, e.Config().Workers)

	strict := config.DefaultAnalysisConfig()
	strict.MinOccurrences = 6
	require.NoError(t, e.SetConfig(strict))

	result, err := e.Analyze(context.Background(), imapTimeouts())
	require.NoError(t, err)
	assert.Empty(t, result.Patterns)
	assert.Empty(t, result.TemporalClusters)
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultAnalysisConfig()
	cfg.CorrelationThreshold = 1.5
	_, err := NewEngine(cfg)
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
}

func TestEngine_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newEngine(t, nil, WithMetrics(NewMetrics(reg)))

	for i := 0; i < 2; i++ {
		_, err := e.Analyze(context.Background(), imapTimeouts())
		require.NoError(t, err)
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range m.GetLabel() {
				key += "|" + l.GetName() + "=" + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				values[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 2.0, values["logsieve_analysis_runs_total"])
	assert.Equal(t, 10.0, values["logsieve_analysis_entries_total"])
	assert.Equal(t, 1.0, values["logsieve_analysis_results|kind=patterns"])
	assert.Equal(t, 2.0, values["logsieve_analysis_stage_duration_seconds|stage=categorize"])
	// second run is served from the caches
	assert.Equal(t, 5.0, values["logsieve_analysis_cache_lookups|cache=categorizer|result=hit"])
	assert.Equal(t, 5.0, values["logsieve_analysis_cache_lookups|cache=signature|result=hit"])
}

func TestEngine_StageSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	e := newEngine(t, nil, WithTracer(tp.Tracer("test")))
	_, err := e.Analyze(context.Background(), imapTimeouts())
	require.NoError(t, err)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{
		"analysis.categorize",
		"analysis.patterns",
		"analysis.temporal",
		"analysis.correlation",
		"analysis.graph",
		"analysis.prediction",
		"analysis.Analyze",
	}, names)
}

func TestEngine_FailedStageStopsPipeline(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	e := newEngine(t, nil, WithTracer(tp.Tracer("test")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Analyze(ctx, imapTimeouts())
	require.Error(t, err)

	statuses := make(map[string]codes.Code)
	for _, s := range recorder.Ended() {
		statuses[s.Name()] = s.Status().Code
	}
	assert.Equal(t, map[string]codes.Code{
		"analysis.categorize": codes.Error,
		"analysis.Analyze":    codes.Error,
	}, statuses)
}

func TestEngine_LogsCarrySession(t *testing.T) {
	var out bytes.Buffer
	t.Cleanup(logging.SetOutput(&out, &out))
	require.NoError(t, logging.Initialize("info", map[string]string{"analysis": "debug"}))
	t.Cleanup(func() { _ = logging.Initialize("info", map[string]string{}) })

	e := newEngine(t, nil)
	s := NewSession()
	_, err := e.AnalyzeSession(context.Background(), s, imapTimeouts())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Stage patterns completed")
	assert.Contains(t, out.String(), "session_id="+s.ID.String())
}

func TestShardBounds(t *testing.T) {
	tests := []struct {
		n, size int
		want    []shard
	}{
		{0, 3, nil},
		{5, 0, []shard{{0, 5}}},
		{5, 5, []shard{{0, 5}}},
		{5, 2, []shard{{0, 2}, {2, 4}, {4, 5}}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.n, tt.size), func(t *testing.T) {
			assert.Equal(t, tt.want, shardBounds(tt.n, tt.size))
		})
	}
}
