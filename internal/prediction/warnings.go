package prediction

import (
	"sort"
	"time"

	"github.com/moolen/logsieve/internal/correlation"
)

// Warning types.
const (
	WarningMultipleIssuesSingleAccount = "multiple_issues_single_account"
	WarningErrorBurst                  = "error_burst"
)

const (
	multipleIssuesRisk      = 0.8
	multipleIssuesThreshold = 2
	burstThreshold          = 5
	burstSaturation         = 10.0
)

// Warning is an early indicator derived from the current events.
type Warning struct {
	Type       string   `json:"type" yaml:"type"`
	Account    string   `json:"account,omitempty" yaml:"account,omitempty"`
	IssueTypes []string `json:"issue_types" yaml:"issue_types"`
	Count      int      `json:"count" yaml:"count"`
	Risk       float64  `json:"risk" yaml:"risk"`
}

// EarlyWarnings flags accounts hitting more than two distinct issue types
// and issue types with five or more events inside one window bucket.
func EarlyWarnings(events []correlation.Event, window time.Duration) []Warning {
	warnings := make([]Warning, 0)

	perAccount := make(map[string]map[string]struct{})
	for _, e := range events {
		if e.Account == "" {
			continue
		}
		if perAccount[e.Account] == nil {
			perAccount[e.Account] = make(map[string]struct{})
		}
		perAccount[e.Account][e.IssueType] = struct{}{}
	}
	for account, set := range perAccount {
		if len(set) <= multipleIssuesThreshold {
			continue
		}
		warnings = append(warnings, Warning{
			Type:       WarningMultipleIssuesSingleAccount,
			Account:    account,
			IssueTypes: sortedKeys(set),
			Count:      len(set),
			Risk:       multipleIssuesRisk,
		})
	}

	if seconds := int64(window.Seconds()); seconds > 0 {
		type key struct {
			issue  string
			bucket int64
		}
		counts := make(map[key]int)
		peak := make(map[string]int)
		for _, e := range events {
			k := key{e.IssueType, correlation.Bucket(e.Timestamp, seconds)}
			counts[k]++
			if counts[k] > peak[e.IssueType] {
				peak[e.IssueType] = counts[k]
			}
		}
		for issue, n := range peak {
			if n < burstThreshold {
				continue
			}
			warnings = append(warnings, Warning{
				Type:       WarningErrorBurst,
				IssueTypes: []string{issue},
				Count:      n,
				Risk:       clip(float64(n) / burstSaturation),
			})
		}
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		a, b := warnings[i], warnings[j]
		if a.Risk != b.Risk {
			return a.Risk > b.Risk
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Account != b.Account {
			return a.Account < b.Account
		}
		return a.IssueTypes[0] < b.IssueTypes[0]
	})
	return warnings
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
