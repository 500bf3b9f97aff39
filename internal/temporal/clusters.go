package temporal

import (
	"fmt"
	"sort"
	"time"

	"github.com/moolen/logsieve/internal/logprocessing"
	"github.com/moolen/logsieve/internal/models"
)

const (
	// PatternPrefix prefixes IDs of temporal cluster patterns.
	PatternPrefix = "TEMP-"

	// ClusterConfidence is the fixed confidence of temporal clusters.
	ClusterConfidence = 0.8
)

// Cluster is a run of entries whose consecutive gaps are all within the
// window, in timestamp order.
type Cluster struct {
	Entries []models.CategorizedEntry `json:"entries"`
}

// Start returns the timestamp of the first entry.
func (c Cluster) Start() time.Time { return c.Entries[0].Time() }

// End returns the timestamp of the last entry.
func (c Cluster) End() time.Time { return c.Entries[len(c.Entries)-1].Time() }

// timeline returns eligible, timestamped entries sorted by time. Entries
// sharing a timestamp keep input order.
func timeline(entries []models.CategorizedEntry) []models.CategorizedEntry {
	out := make([]models.CategorizedEntry, 0, len(entries))
	for _, e := range entries {
		if e.Eligible() && e.Entry.HasTimestamp() {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Time(), out[j].Time()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// Clusters splits the timeline wherever two consecutive entries are more
// than window apart. Runs shorter than minOccurrences are dropped.
func Clusters(entries []models.CategorizedEntry, window time.Duration, minOccurrences int) []Cluster {
	clusters := make([]Cluster, 0)
	sorted := timeline(entries)
	if len(sorted) == 0 {
		return clusters
	}

	flush := func(run []models.CategorizedEntry) {
		if len(run) >= minOccurrences {
			clusters = append(clusters, Cluster{Entries: run})
		}
	}

	current := []models.CategorizedEntry{sorted[0]}
	for _, e := range sorted[1:] {
		last := current[len(current)-1]
		if e.Time().Sub(last.Time()) <= window {
			current = append(current, e)
			continue
		}
		flush(current)
		current = []models.CategorizedEntry{e}
	}
	flush(current)

	return clusters
}

// ClusterPatterns reports each cluster as a TEMP-n pattern, numbered in
// time order from 1.
func ClusterPatterns(clusters []Cluster) []logprocessing.ErrorPattern {
	patterns := make([]logprocessing.ErrorPattern, 0, len(clusters))
	for i, c := range clusters {
		members := c.Entries
		category := MajorityCategory(members)
		first, last := logprocessing.TimeBounds(members)

		samples := make([]models.LogEntry, 0, 3)
		for j := 0; j < len(members) && j < 3; j++ {
			samples = append(samples, members[j].Entry)
		}

		patterns = append(patterns, logprocessing.ErrorPattern{
			PatternID:          fmt.Sprintf("%s%d", PatternPrefix, i+1),
			Category:           category,
			Description:        logprocessing.Describe(category, members),
			Occurrences:        len(members),
			FirstSeen:          first,
			LastSeen:           last,
			AffectedComponents: logprocessing.Components(members),
			SampleEntries:      samples,
			Confidence:         ClusterConfidence,
			Indicators:         logprocessing.Indicators(members),
			EvidenceRefs:       logprocessing.EvidenceRefs(members),
		})
	}
	return patterns
}

// MajorityCategory returns the most common category. Ties go to the
// category listed first in models.Categories.
func MajorityCategory(members []models.CategorizedEntry) models.ErrorCategory {
	counts := make(map[models.ErrorCategory]int)
	for _, m := range members {
		counts[m.Category]++
	}

	best, bestCount := models.CategoryUnknown, 0
	for _, c := range models.Categories {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}
