package analysis

import (
	"time"

	"github.com/moolen/logsieve/internal/correlation"
	"github.com/moolen/logsieve/internal/depgraph"
	"github.com/moolen/logsieve/internal/logprocessing"
	"github.com/moolen/logsieve/internal/prediction"
	"github.com/moolen/logsieve/internal/temporal"
)

// Result is the output bundle of one analysis run. It shares no state with
// the engine and is owned by the caller.
type Result struct {
	SessionID   string    `json:"session_id" yaml:"session_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	Patterns         []logprocessing.ErrorPattern `json:"patterns" yaml:"patterns"`
	TemporalClusters []logprocessing.ErrorPattern `json:"temporal_clusters" yaml:"temporal_clusters"`
	Cascades         []temporal.Cascade           `json:"cascades" yaml:"cascades"`

	Correlations correlation.Result        `json:"correlations" yaml:"correlations"`
	Graph        *depgraph.DependencyGraph `json:"dependency_graph" yaml:"dependency_graph"`

	Predictions     []prediction.Prediction     `json:"predictions" yaml:"predictions"`
	Warnings        []prediction.Warning        `json:"warnings" yaml:"warnings"`
	Recommendations []prediction.Recommendation `json:"recommendations" yaml:"recommendations"`

	Stats Stats `json:"stats" yaml:"stats"`
}

// Stats summarizes the input and the engine caches for one run.
type Stats struct {
	Entries     int `json:"entries" yaml:"entries"`
	Eligible    int `json:"eligible" yaml:"eligible"`
	Timestamped int `json:"timestamped" yaml:"timestamped"`
	Signatures  int `json:"signatures" yaml:"signatures"`
	Shards      int `json:"shards" yaml:"shards"`

	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`

	CategorizerCache logprocessing.CacheStats `json:"categorizer_cache" yaml:"categorizer_cache"`
	SignatureCache   logprocessing.CacheStats `json:"signature_cache" yaml:"signature_cache"`
}

// Empty reports whether the run produced no findings at all.
func (r *Result) Empty() bool {
	return len(r.Patterns) == 0 &&
		len(r.TemporalClusters) == 0 &&
		len(r.Cascades) == 0 &&
		r.Correlations.Len() == 0 &&
		r.Correlations.Similarity.Empty() &&
		(r.Graph == nil || len(r.Graph.Nodes) == 0) &&
		len(r.Predictions) == 0 &&
		len(r.Warnings) == 0 &&
		len(r.Recommendations) == 0
}
