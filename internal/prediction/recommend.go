package prediction

import (
	"sort"

	"github.com/moolen/logsieve/internal/models"
)

// Recommendation is a preventive action code for a risky prediction or
// warning. Rendering it as text is left to the caller.
type Recommendation struct {
	Action string  `json:"action" yaml:"action"`
	Target string  `json:"target" yaml:"target"`
	Source string  `json:"source" yaml:"source"`
	Risk   float64 `json:"risk" yaml:"risk"`
}

// SourcePrediction marks recommendations derived from a prediction.
const SourcePrediction = "prediction"

var issueActions = map[string]string{
	models.CategoryAuthentication.IssueType():  "refresh_credentials",
	models.CategorySynchronization.IssueType(): "verify_sync_state",
	models.CategoryNetwork.IssueType():         "check_connectivity",
	models.CategoryDatabase.IssueType():        "check_database_health",
	models.CategoryPerformance.IssueType():     "review_resource_usage",
	models.CategoryUIInteraction.IssueType():   "review_ui_responsiveness",
	models.CategoryFileSystem.IssueType():      "check_storage",
}

var warningActions = map[string]string{
	WarningMultipleIssuesSingleAccount: "review_account",
	WarningErrorBurst:                  "investigate_burst",
}

const defaultAction = "investigate_recurring_issue"

// Recommend emits one action per prediction or warning whose risk exceeds
// threshold. Prediction risk is its probability.
func Recommend(predictions []Prediction, warnings []Warning, threshold float64) []Recommendation {
	out := make([]Recommendation, 0)

	for _, p := range predictions {
		if p.Probability <= threshold {
			continue
		}
		out = append(out, Recommendation{
			Action: actionFor(issueActions, p.IssueType),
			Target: p.IssueType,
			Source: SourcePrediction,
			Risk:   p.Probability,
		})
	}

	for _, w := range warnings {
		if w.Risk <= threshold {
			continue
		}
		target := w.Account
		if target == "" && len(w.IssueTypes) > 0 {
			target = w.IssueTypes[0]
		}
		out = append(out, Recommendation{
			Action: actionFor(warningActions, w.Type),
			Target: target,
			Source: w.Type,
			Risk:   w.Risk,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Risk != out[j].Risk {
			return out[i].Risk > out[j].Risk
		}
		return out[i].Target < out[j].Target
	})
	return out
}

func actionFor(table map[string]string, key string) string {
	if a, ok := table[key]; ok {
		return a
	}
	return defaultAction
}
