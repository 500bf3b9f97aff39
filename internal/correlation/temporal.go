package correlation

type pairKey struct {
	source, target string
}

type pairAgg struct {
	strengthSum float64
	delaySum    float64
	count       int
}

// Temporal correlates every ordered pair of events at most opts.Window
// apart. A pair scores 1 - delay/window; pairs are grouped by
// (source, target) and groups with fewer than two pairs are dropped.
func Temporal(events []Event, opts Options) []Correlation {
	out := make([]Correlation, 0)
	window := opts.Window.Seconds()
	if window <= 0 || len(events) < 2 {
		return out
	}

	sorted := sortedByTime(events)
	groups := make(map[pairKey]*pairAgg)

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			delay := sorted[j].Timestamp.Sub(sorted[i].Timestamp).Seconds()
			if delay > window {
				break
			}
			key := pairKey{sorted[i].IssueType, sorted[j].IssueType}
			agg, ok := groups[key]
			if !ok {
				agg = &pairAgg{}
				groups[key] = agg
			}
			agg.strengthSum += 1 - delay/window
			agg.delaySum += delay
			agg.count++
		}
	}

	for key, agg := range groups {
		if agg.count < MinFrequency {
			continue
		}
		strength := clip(agg.strengthSum / float64(agg.count))
		out = append(out, Correlation{
			SourceIssue:  key.source,
			TargetIssue:  key.target,
			Strength:     strength,
			AverageDelay: agg.delaySum / float64(agg.count),
			Frequency:    agg.count,
			Confidence:   confidence(strength, agg.count, opts.ConfidenceDivisor),
			Kind:         KindTemporal,
		})
	}

	sortCorrelations(out)
	return out
}
