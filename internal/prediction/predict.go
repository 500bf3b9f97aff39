// Package prediction forecasts the next occurrence of recurring issue
// categories from their inter-arrival history and derives early warnings
// and preventive action codes.
package prediction

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Options tunes forecasting.
type Options struct {
	// MinSamples is the minimum history length per category.
	MinSamples int

	// OverdueBoost multiplies probability once the predicted time passed.
	OverdueBoost float64
}

// DefaultOptions returns three samples and a 1.2 overdue boost.
func DefaultOptions() Options {
	return Options{MinSamples: 3, OverdueBoost: 1.2}
}

// Prediction forecasts the next occurrence of an issue category.
type Prediction struct {
	IssueType              string    `json:"issue_type" yaml:"issue_type"`
	PredictedTime          time.Time `json:"predicted_time" yaml:"predicted_time"`
	Probability            float64   `json:"probability" yaml:"probability"`
	Confidence             float64   `json:"confidence" yaml:"confidence"`
	AverageIntervalSeconds float64   `json:"average_interval_seconds" yaml:"average_interval_seconds"`

	// PatternStrength is the number of samples used.
	PatternStrength int  `json:"pattern_strength" yaml:"pattern_strength"`
	Overdue         bool `json:"overdue" yaml:"overdue"`
}

// Predict forecasts every category with at least opts.MinSamples records,
// relative to now. Results are ordered by probability (descending), then
// issue type.
func Predict(history map[string][]HistoryRecord, now time.Time, opts Options) []Prediction {
	predictions := make([]Prediction, 0)

	categories := make([]string, 0, len(history))
	for c := range history {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		if p, ok := predictOne(category, history[category], now, opts); ok {
			predictions = append(predictions, p)
		}
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		if predictions[i].Probability != predictions[j].Probability {
			return predictions[i].Probability > predictions[j].Probability
		}
		return predictions[i].IssueType < predictions[j].IssueType
	})
	return predictions
}

func predictOne(category string, records []HistoryRecord, now time.Time, opts Options) (Prediction, bool) {
	minSamples := opts.MinSamples
	if minSamples < 2 {
		minSamples = 2
	}
	if len(records) < minSamples {
		return Prediction{}, false
	}

	times := make([]time.Time, len(records))
	for i, r := range records {
		times[i] = r.Timestamp
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	intervals := make([]float64, len(times)-1)
	for i := 1; i < len(times); i++ {
		intervals[i-1] = times[i].Sub(times[i-1]).Seconds()
	}

	avg, variance := stat.PopMeanVariance(intervals, nil)
	if avg <= 0 {
		return Prediction{}, false
	}

	last := times[len(times)-1]
	predicted := last.Add(time.Duration(avg * float64(time.Second)))
	consistency := 1 / (1 + variance/(avg*avg))

	var probability float64
	overdue := !predicted.After(now)
	if overdue {
		probability = consistency * opts.OverdueBoost
	} else {
		until := predicted.Sub(now).Seconds()
		probability = consistency * (1 - minFloat(until/(2*avg), 1))
	}

	return Prediction{
		IssueType:              category,
		PredictedTime:          predicted,
		Probability:            clip(probability),
		Confidence:             clip(consistency * minFloat(1, float64(len(times))/10)),
		AverageIntervalSeconds: avg,
		PatternStrength:        len(times),
		Overdue:                overdue,
	}, true
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
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
