package correlation

import (
	"sort"
	"time"
)

// minCoOccurrenceStrength is the exclusive floor for co-occurrence pairs.
const minCoOccurrenceStrength = 0.3

// CoOccurrence buckets events into fixed windows (Unix time divided by
// opts.Window) and counts, per bucket, every unordered pair of distinct
// issue types present. The pair (a, b) with a < b is normalized by the
// total co-occurrence count of a.
func CoOccurrence(events []Event, opts Options) []Correlation {
	out := make([]Correlation, 0)
	window := int64(opts.Window.Seconds())
	if window <= 0 {
		return out
	}

	buckets := make(map[int64]map[string]struct{})
	for _, e := range events {
		b := Bucket(e.Timestamp, window)
		if buckets[b] == nil {
			buckets[b] = make(map[string]struct{})
		}
		buckets[b][e.IssueType] = struct{}{}
	}

	pairs := make(map[pairKey]int)
	totals := make(map[string]int)
	for _, set := range buckets {
		types := make([]string, 0, len(set))
		for t := range set {
			types = append(types, t)
		}
		sort.Strings(types)
		for i := 0; i < len(types); i++ {
			for j := i + 1; j < len(types); j++ {
				pairs[pairKey{types[i], types[j]}]++
				totals[types[i]]++
				totals[types[j]]++
			}
		}
	}

	for key, count := range pairs {
		total := totals[key.source]
		if total == 0 || count < MinFrequency {
			continue
		}
		strength := float64(count) / float64(total)
		if strength <= minCoOccurrenceStrength {
			continue
		}
		out = append(out, Correlation{
			SourceIssue: key.source,
			TargetIssue: key.target,
			Strength:    strength,
			Frequency:   count,
			Confidence:  confidence(strength, count, opts.ConfidenceDivisor),
			Kind:        KindCoOccurrence,
		})
	}

	sortCorrelations(out)
	return out
}

// Bucket returns the index of the fixed window of the given length in
// seconds that contains t. Windows are aligned to the Unix epoch and index
// by floor division, so instants before 1970 get negative indexes.
func Bucket(t time.Time, seconds int64) int64 {
	return floorDiv(t.Unix(), seconds)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
