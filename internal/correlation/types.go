package correlation

import (
	"sort"
	"time"

	"github.com/moolen/logsieve/internal/models"
)

// Correlation kinds.
const (
	KindTemporal     = "temporal"
	KindAccount      = "account"
	KindCoOccurrence = "co_occurrence"
)

// MinFrequency is the aggregation floor for every correlation kind.
const MinFrequency = 2

// Event is one timestamped occurrence of an issue type.
type Event struct {
	Timestamp time.Time       `json:"timestamp"`
	IssueType string          `json:"issue_type"`
	Account   string          `json:"account,omitempty"`
	Severity  models.Severity `json:"severity"`
}

// Correlation links two issue types. For account correlations source and
// target are the same type and Account names the affected account.
type Correlation struct {
	SourceIssue string  `json:"source_issue" yaml:"source_issue"`
	TargetIssue string  `json:"target_issue" yaml:"target_issue"`
	Strength    float64 `json:"strength" yaml:"strength"`

	// AverageDelay is in seconds.
	AverageDelay float64 `json:"average_delay" yaml:"average_delay"`

	// Frequency counts aggregated occurrences, not raw event pairs.
	Frequency  int     `json:"frequency" yaml:"frequency"`
	Confidence float64 `json:"confidence" yaml:"confidence"`

	Kind    string `json:"correlation_type" yaml:"correlation_type"`
	Account string `json:"account,omitempty" yaml:"account,omitempty"`
}

// Options tunes the analyzer.
type Options struct {
	// Window bounds temporal pairs and sizes co-occurrence buckets.
	Window time.Duration

	// ConfidenceDivisor scales confidence = min(1, strength*frequency/divisor).
	ConfidenceDivisor float64
}

// DefaultOptions returns a 300s window and divisor 10.
func DefaultOptions() Options {
	return Options{Window: 300 * time.Second, ConfidenceDivisor: 10}
}

// Result bundles every correlation view of one event set.
type Result struct {
	Temporal     []Correlation `json:"temporal" yaml:"temporal"`
	Account      []Correlation `json:"account" yaml:"account"`
	CoOccurrence []Correlation `json:"co_occurrence" yaml:"co_occurrence"`
	Similarity   Matrix        `json:"similarity" yaml:"similarity"`
}

// EventsFrom derives events from warning-and-above timestamped entries,
// sorted by time with input order breaking ties.
func EventsFrom(entries []models.CategorizedEntry) []Event {
	type indexed struct {
		idx int
		ev  Event
	}
	tmp := make([]indexed, 0, len(entries))
	for _, e := range entries {
		if !e.Eligible() || !e.Entry.HasTimestamp() {
			continue
		}
		tmp = append(tmp, indexed{idx: e.Index, ev: Event{
			Timestamp: e.Time(),
			IssueType: e.Category.IssueType(),
			Account:   e.Entry.Account,
			Severity:  e.Entry.Severity,
		}})
	}
	sort.SliceStable(tmp, func(i, j int) bool {
		if !tmp[i].ev.Timestamp.Equal(tmp[j].ev.Timestamp) {
			return tmp[i].ev.Timestamp.Before(tmp[j].ev.Timestamp)
		}
		return tmp[i].idx < tmp[j].idx
	})

	events := make([]Event, len(tmp))
	for i := range tmp {
		events[i] = tmp[i].ev
	}
	return events
}

// Analyze runs every correlation view over events.
func Analyze(events []Event, opts Options) Result {
	return Result{
		Temporal:     Temporal(events, opts),
		Account:      Account(events, opts),
		CoOccurrence: CoOccurrence(events, opts),
		Similarity:   SimilarityMatrix(events),
	}
}

func sortedByTime(events []Event) []Event {
	out := append([]Event(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func confidence(strength float64, frequency int, divisor float64) float64 {
	if divisor <= 0 {
		return 0
	}
	return clip(strength * float64(frequency) / divisor)
}

func clip(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// sortCorrelations orders by strength (descending), then source, target
// and account.
func sortCorrelations(cs []Correlation) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Strength != b.Strength {
			return a.Strength > b.Strength
		}
		if a.SourceIssue != b.SourceIssue {
			return a.SourceIssue < b.SourceIssue
		}
		if a.TargetIssue != b.TargetIssue {
			return a.TargetIssue < b.TargetIssue
		}
		return a.Account < b.Account
	})
}

// Len returns the number of correlations across all kinds.
func (r Result) Len() int {
	return len(r.Temporal) + len(r.Account) + len(r.CoOccurrence)
}
