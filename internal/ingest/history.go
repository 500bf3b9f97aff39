package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/moolen/logsieve/internal/models"
	"github.com/moolen/logsieve/internal/prediction"
)

// ReadHistoryFile reads predictor history from a JSON file.
func ReadHistoryFile(path string) (map[string][]prediction.HistoryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()
	return ReadHistory(f)
}

// ReadHistory decodes {"<category>": [{"timestamp", "severity",
// "accounts_affected"}, ...]}. Timestamps accept every ParseTimestamp form.
// Category names are folded onto issue types ("NETWORK" and "network" both
// become "network") and records of folded names are merged in time order.
func ReadHistory(r io.Reader) (map[string][]prediction.HistoryRecord, error) {
	var raw map[string][]map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}

	history := make(map[string][]prediction.HistoryRecord, len(raw))
	for category, items := range raw {
		records := make([]prediction.HistoryRecord, 0, len(items))
		for i, item := range items {
			entry, err := DecodeEntry(item)
			if err != nil {
				return nil, fmt.Errorf("history %s[%d]: %w", category, i, err)
			}
			if !entry.HasTimestamp() {
				return nil, fmt.Errorf("history %s[%d]: missing timestamp", category, i)
			}

			rec := prediction.HistoryRecord{
				Timestamp: *entry.Timestamp,
				Severity:  entry.Severity,
			}
			if n, ok := item["accounts_affected"].(float64); ok {
				rec.AccountsAffected = int(n)
			}
			records = append(records, rec)
		}
		key := historyKey(category)
		history[key] = append(history[key], records...)
	}
	for _, records := range history {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Timestamp.Before(records[j].Timestamp)
		})
	}
	return history, nil
}

// historyKey maps a category name onto the issue type the engine records
// under. Names outside the category set are only lower-cased.
func historyKey(name string) string {
	if c, err := models.ParseCategory(name); err == nil {
		return c.IssueType()
	}
	return strings.ToLower(strings.TrimSpace(name))
}
