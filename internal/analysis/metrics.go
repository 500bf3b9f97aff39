package analysis

import (
	"github.com/moolen/logsieve/internal/logprocessing"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the analysis engine.
type Metrics struct {
	RunsTotal     prometheus.Counter       // Completed analysis runs
	EntriesTotal  prometheus.Counter       // Entries analyzed across all runs
	Results       *prometheus.GaugeVec     // Output sizes of the last run, by kind
	StageDuration *prometheus.HistogramVec // Stage latency, by stage
	CacheLookups  *prometheus.GaugeVec     // Memo cache lookups, by cache and result
}

// NewMetrics creates and registers the engine metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	runsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logsieve_analysis_runs_total",
		Help: "Total number of completed analysis runs",
	})

	entriesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logsieve_analysis_entries_total",
		Help: "Total number of log entries analyzed",
	})

	results := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "logsieve_analysis_results",
		Help: "Number of results produced by the last run",
	}, []string{"kind"})

	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "logsieve_analysis_stage_duration_seconds",
		Help:    "Duration of analysis pipeline stages",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"stage"})

	cacheLookups := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "logsieve_analysis_cache_lookups",
		Help: "Memo cache lookups since engine start",
	}, []string{"cache", "result"})

	reg.MustRegister(runsTotal)
	reg.MustRegister(entriesTotal)
	reg.MustRegister(results)
	reg.MustRegister(stageDuration)
	reg.MustRegister(cacheLookups)

	return &Metrics{
		RunsTotal:     runsTotal,
		EntriesTotal:  entriesTotal,
		Results:       results,
		StageDuration: stageDuration,
		CacheLookups:  cacheLookups,
	}
}

func (m *Metrics) observeRun(result *Result) {
	m.RunsTotal.Inc()
	m.EntriesTotal.Add(float64(result.Stats.Entries))

	m.Results.WithLabelValues("patterns").Set(float64(len(result.Patterns)))
	m.Results.WithLabelValues("temporal_clusters").Set(float64(len(result.TemporalClusters)))
	m.Results.WithLabelValues("cascades").Set(float64(len(result.Cascades)))
	m.Results.WithLabelValues("correlations").Set(float64(result.Correlations.Len()))
	m.Results.WithLabelValues("predictions").Set(float64(len(result.Predictions)))
	m.Results.WithLabelValues("warnings").Set(float64(len(result.Warnings)))

	m.observeCache("categorizer", result.Stats.CategorizerCache)
	m.observeCache("signature", result.Stats.SignatureCache)
}

func (m *Metrics) observeCache(name string, stats logprocessing.CacheStats) {
	m.CacheLookups.WithLabelValues(name, "hit").Set(float64(stats.Hits))
	m.CacheLookups.WithLabelValues(name, "miss").Set(float64(stats.Misses))
}
