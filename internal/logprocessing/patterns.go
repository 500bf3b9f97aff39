package logprocessing

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/moolen/logsieve/internal/models"
)

const (
	// SignaturePatternPrefix prefixes IDs of signature clusters.
	SignaturePatternPrefix = "SIG-"

	maxSampleEntries = 3
	maxEvidenceRefs  = 3
	maxIndicators    = 5
)

// ErrorPattern is a cluster of entries reported as one recurring issue.
type ErrorPattern struct {
	PatternID   string               `json:"pattern_id" yaml:"pattern_id"`
	Category    models.ErrorCategory `json:"category" yaml:"category"`
	Description string               `json:"description" yaml:"description"`
	Occurrences int                  `json:"occurrences" yaml:"occurrences"`

	// FirstSeen and LastSeen are nil when no member carries a timestamp.
	FirstSeen *time.Time `json:"first_seen,omitempty" yaml:"first_seen,omitempty"`
	LastSeen  *time.Time `json:"last_seen,omitempty" yaml:"last_seen,omitempty"`

	AffectedComponents []string          `json:"affected_components" yaml:"affected_components"`
	SampleEntries      []models.LogEntry `json:"sample_entries" yaml:"sample_entries"`
	Confidence         float64           `json:"confidence" yaml:"confidence"`
	Indicators         []string          `json:"indicators" yaml:"indicators"`

	// Signature is nil for temporal clusters.
	Signature    *PatternSignature `json:"signature,omitempty" yaml:"signature,omitempty"`
	EvidenceRefs []string          `json:"evidence_refs" yaml:"evidence_refs"`

	// Family is the coarse Drain template shared with structurally similar
	// patterns; RelatedPatterns lists their IDs.
	Family          string   `json:"family,omitempty" yaml:"family,omitempty"`
	RelatedPatterns []string `json:"related_patterns,omitempty" yaml:"related_patterns,omitempty"`
}

// descriptionTemplates maps categories to their description phrase.
var descriptionTemplates = map[models.ErrorCategory]string{
	models.CategoryAuthentication:  "Authentication failures in %s",
	models.CategorySynchronization: "Synchronization errors in %s",
	models.CategoryNetwork:         "Network connectivity issues in %s",
	models.CategoryDatabase:        "Database errors in %s",
	models.CategoryPerformance:     "Performance degradation in %s",
	models.CategoryUIInteraction:   "UI interaction failures in %s",
	models.CategoryFileSystem:      "File system errors in %s",
	models.CategoryUnknown:         "Recurring errors in %s",
}

var wordPattern = regexp.MustCompile(`[a-z0-9_]+`)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a about above after again against all also am an and any are as at be
		because been before being below between both but by can could did do
		does doing down during each few for from further had has have having he
		her here hers him his how i if in into is it its itself just me more
		most my no nor not now of off on once only or other our ours out over
		own same she should so some such than that the their theirs them then
		there these they this those through to too under until up very was we
		were what when where which while who whom why will with would you your
		yours error errors failed failure warning`) {
		stopWords[w] = struct{}{}
	}
}

// indicatorTags are appended when any member message contains the key.
var indicatorTags = []struct {
	substring string
	tag       string
}{
	{"timeout", "timeout_detected"},
	{"retry", "retry_pattern"},
	{"exception", "exception_thrown"},
}

// BuildPatterns turns the cluster map into patterns, dropping signatures
// seen fewer than minOccurrences times. Patterns are ordered by occurrences
// (descending), then ID.
func BuildPatterns(m *ClusterMap, minOccurrences int) []ErrorPattern {
	patterns := make([]ErrorPattern, 0)
	if m == nil {
		return patterns
	}

	for _, g := range m.snapshot() {
		if len(g.members) < minOccurrences || len(g.members) == 0 {
			continue
		}
		patterns = append(patterns, buildPattern(g))
	}

	SortPatterns(patterns)
	return patterns
}

// SortPatterns orders patterns by occurrences (descending), then ID.
func SortPatterns(patterns []ErrorPattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Occurrences != patterns[j].Occurrences {
			return patterns[i].Occurrences > patterns[j].Occurrences
		}
		return patterns[i].PatternID < patterns[j].PatternID
	})
}

func buildPattern(g *signatureGroup) ErrorPattern {
	sig := g.signature
	members := g.members
	first, last := TimeBounds(members)

	samples := make([]models.LogEntry, 0, maxSampleEntries)
	for i := 0; i < len(members) && i < maxSampleEntries; i++ {
		samples = append(samples, members[i].Entry)
	}

	return ErrorPattern{
		PatternID:          SignaturePatternPrefix + sig.Hash,
		Category:           sig.Category,
		Description:        Describe(sig.Category, members),
		Occurrences:        len(members),
		FirstSeen:          first,
		LastSeen:           last,
		AffectedComponents: Components(members),
		SampleEntries:      samples,
		Confidence:         Confidence(len(members), templatesPerSignature),
		Indicators:         Indicators(members),
		Signature:          &sig,
		EvidenceRefs:       EvidenceRefs(members),
	}
}

// templatesPerSignature is the number of distinct templates in one
// signature group: the hash is derived from the template alone.
const templatesPerSignature = 1

// Confidence scores a cluster of total members with unique distinct
// templates. Never exceeds 1; total 0 yields 0.
func Confidence(total, unique int) float64 {
	if total <= 0 {
		return 0
	}

	confidence := 0.5
	switch {
	case total >= 10:
		confidence += 0.3
	case total >= 5:
		confidence += 0.2
	case total >= 3:
		confidence += 0.1
	}
	confidence += (1 - float64(unique)/float64(total)) * 0.2

	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// Describe names the dominant component and category of a cluster.
func Describe(category models.ErrorCategory, members []models.CategorizedEntry) string {
	tmpl, ok := descriptionTemplates[category]
	if !ok {
		tmpl = descriptionTemplates[models.CategoryUnknown]
	}

	description := fmt.Sprintf(tmpl, dominantComponent(members))
	switch n := len(members); {
	case n > 10:
		description += fmt.Sprintf(" (high frequency: %d occurrences)", n)
	case n > 5:
		description += " (moderate frequency)"
	}
	return description
}

func dominantComponent(members []models.CategorizedEntry) string {
	counts := make(map[string]int)
	for _, m := range members {
		counts[m.Entry.Component]++
	}

	best, bestCount := "", 0
	for c, n := range counts {
		if n > bestCount || (n == bestCount && c < best) {
			best, bestCount = c, n
		}
	}
	if best == "" {
		return "unknown component"
	}
	return best
}

// Indicators extracts the five most frequent meaningful words plus fixed
// tags for timeouts, retries and exceptions.
func Indicators(members []models.CategorizedEntry) []string {
	counts := make(map[string]int)
	tagged := make([]bool, len(indicatorTags))

	for _, m := range members {
		lower := strings.ToLower(m.Entry.Message)
		for _, w := range wordPattern.FindAllString(lower, -1) {
			if len(w) <= 3 {
				continue
			}
			if _, stop := stopWords[w]; stop {
				continue
			}
			counts[w]++
		}
		for i, t := range indicatorTags {
			if strings.Contains(lower, t.substring) {
				tagged[i] = true
			}
		}
	}

	words := make([]string, 0, len(counts))
	for w, n := range counts {
		if n >= 2 {
			words = append(words, w)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > maxIndicators {
		words = words[:maxIndicators]
	}

	for i, t := range indicatorTags {
		if tagged[i] {
			words = append(words, t.tag)
		}
	}
	return words
}

// Components returns the sorted set of member components.
func Components(members []models.CategorizedEntry) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, m := range members {
		c := m.Entry.Component
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// EvidenceRefs returns up to three distinct "file:line" references.
func EvidenceRefs(members []models.CategorizedEntry) []string {
	refs := make([]string, 0, maxEvidenceRefs)
	seen := make(map[string]struct{})
	for _, m := range members {
		ref := m.Entry.EvidenceRef()
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
		if len(refs) == maxEvidenceRefs {
			break
		}
	}
	return refs
}

// TimeBounds returns the earliest and latest member timestamps, ignoring
// members without one. Both are nil if no member has a timestamp.
func TimeBounds(members []models.CategorizedEntry) (first, last *time.Time) {
	for i := range members {
		if !members[i].Entry.HasTimestamp() {
			continue
		}
		ts := members[i].Time()
		if first == nil || ts.Before(*first) {
			t := ts
			first = &t
		}
		if last == nil || ts.After(*last) {
			t := ts
			last = &t
		}
	}
	return first, last
}
