package correlation

import "time"

// repeatSaturation is the repeat count at which account strength reaches 1.
const repeatSaturation = 5.0

// Account flags issue types that repeat for the same account. Strength is
// min(1, count/5); AverageDelay is the mean gap between repeats. Events
// without an account are ignored.
func Account(events []Event, opts Options) []Correlation {
	out := make([]Correlation, 0)

	type key struct{ account, issue string }
	seen := make(map[key][]time.Time)
	for _, e := range sortedByTime(events) {
		if e.Account == "" {
			continue
		}
		k := key{e.Account, e.IssueType}
		seen[k] = append(seen[k], e.Timestamp)
	}

	for k, times := range seen {
		count := len(times)
		if count < MinFrequency {
			continue
		}
		strength := clip(float64(count) / repeatSaturation)
		gap := times[count-1].Sub(times[0]).Seconds() / float64(count-1)
		out = append(out, Correlation{
			SourceIssue:  k.issue,
			TargetIssue:  k.issue,
			Strength:     strength,
			AverageDelay: gap,
			Frequency:    count,
			Confidence:   confidence(strength, count, opts.ConfidenceDivisor),
			Kind:         KindAccount,
			Account:      k.account,
		})
	}

	sortCorrelations(out)
	return out
}
