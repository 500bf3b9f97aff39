package logprocessing

import (
	"sort"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// LinkRelated fills RelatedPatterns for every pair of signature patterns
// whose templates are more similar than threshold. Clusters are never
// merged; the link is informational.
func LinkRelated(patterns []ErrorPattern, threshold float64) {
	for i := range patterns {
		patterns[i].RelatedPatterns = nil
	}

	for i := 0; i < len(patterns); i++ {
		if patterns[i].Signature == nil {
			continue
		}
		for j := i + 1; j < len(patterns); j++ {
			if patterns[j].Signature == nil {
				continue
			}
			if TemplateSimilarity(patterns[i].Signature.Template, patterns[j].Signature.Template) > threshold {
				patterns[i].RelatedPatterns = append(patterns[i].RelatedPatterns, patterns[j].PatternID)
				patterns[j].RelatedPatterns = append(patterns[j].RelatedPatterns, patterns[i].PatternID)
			}
		}
	}

	for i := range patterns {
		sort.Strings(patterns[i].RelatedPatterns)
	}
}

// TemplateSimilarity is 1 - distance/len(shorter), clipped to [0,1].
// Empty templates are never similar.
func TemplateSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	shorter := len(ra)
	if len(rb) < shorter {
		shorter = len(rb)
	}
	if shorter == 0 {
		return 0
	}

	similarity := 1.0 - float64(editDistance(ra, rb))/float64(shorter)
	if similarity < 0 {
		return 0
	}
	return similarity
}

// editDistance calculates the Levenshtein edit distance between two strings.
func editDistance(a, b []rune) int {
	return levenshtein.DistanceForStrings(a, b, levenshtein.DefaultOptions)
}
