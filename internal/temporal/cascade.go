package temporal

import (
	"strings"
	"time"

	"github.com/moolen/logsieve/internal/models"
)

// minSharedWords is how many distinct words two messages must share to be
// considered related.
const minSharedWords = 3

// Cascade is a root error followed by related errors within the cascade
// window.
type Cascade struct {
	Root        models.CategorizedEntry   `json:"root" yaml:"root"`
	Consequents []models.CategorizedEntry `json:"consequents" yaml:"consequents"`

	// SpanSeconds is the delay between the root and the last consequent.
	SpanSeconds float64 `json:"span_seconds" yaml:"span_seconds"`
}

// DetectCascades treats every timestamped error as a candidate root and
// collects later errors within window that are related to it. Only roots
// with at least one consequent are returned, in time order.
func DetectCascades(entries []models.CategorizedEntry, window time.Duration) []Cascade {
	cascades := make([]Cascade, 0)

	errs := make([]models.CategorizedEntry, 0)
	for _, e := range timeline(entries) {
		if e.Entry.IsError {
			errs = append(errs, e)
		}
	}

	words := make([]map[string]struct{}, len(errs))
	for i := range errs {
		words[i] = wordSet(errs[i].Entry.Message)
	}

	for i, root := range errs {
		var consequents []models.CategorizedEntry
		for j := i + 1; j < len(errs); j++ {
			delay := errs[j].Time().Sub(root.Time())
			if delay > window {
				break
			}
			if related(root, errs[j], words[i], words[j]) {
				consequents = append(consequents, errs[j])
			}
		}
		if len(consequents) == 0 {
			continue
		}
		last := consequents[len(consequents)-1]
		cascades = append(cascades, Cascade{
			Root:        root,
			Consequents: consequents,
			SpanSeconds: last.Time().Sub(root.Time()).Seconds(),
		})
	}

	return cascades
}

func related(a, b models.CategorizedEntry, wa, wb map[string]struct{}) bool {
	if a.Entry.Component != "" && a.Entry.Component == b.Entry.Component {
		return true
	}
	if a.Entry.CorrelationID != "" && a.Entry.CorrelationID == b.Entry.CorrelationID {
		return true
	}

	shared := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			shared++
			if shared >= minSharedWords {
				return true
			}
		}
	}
	return false
}

func wordSet(message string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(message)) {
		set[w] = struct{}{}
	}
	return set
}
