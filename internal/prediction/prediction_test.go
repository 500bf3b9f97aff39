package prediction

import (
	"sync"
	"testing"
	"time"

	"github.com/moolen/logsieve/internal/correlation"
	"github.com/moolen/logsieve/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func hourly(n int, gaps ...time.Duration) []HistoryRecord {
	recs := []HistoryRecord{{Timestamp: t0, Severity: models.SeverityError, AccountsAffected: 1}}
	ts := t0
	for i := 1; i < n; i++ {
		gap := time.Hour
		if i-1 < len(gaps) {
			gap = gaps[i-1]
		}
		ts = ts.Add(gap)
		recs = append(recs, HistoryRecord{Timestamp: ts, Severity: models.SeverityError, AccountsAffected: 1})
	}
	return recs
}

func TestPredict_RegularIntervals(t *testing.T) {
	history := map[string][]HistoryRecord{"network": hourly(4)}
	last := t0.Add(3 * time.Hour)

	// halfway to the next occurrence: time_until = 30m, avg = 1h
	preds := Predict(history, last.Add(30*time.Minute), DefaultOptions())
	require.Len(t, preds, 1)

	p := preds[0]
	assert.Equal(t, "network", p.IssueType)
	assert.Equal(t, last.Add(time.Hour), p.PredictedTime)
	assert.InDelta(t, 3600, p.AverageIntervalSeconds, 1e-9)
	assert.InDelta(t, 0.75, p.Probability, 1e-9)
	assert.InDelta(t, 0.4, p.Confidence, 1e-9)
	assert.Equal(t, 4, p.PatternStrength)
	assert.False(t, p.Overdue)
}

func TestPredict_Overdue(t *testing.T) {
	history := map[string][]HistoryRecord{"database": hourly(3)}
	preds := Predict(history, t0.Add(10*time.Hour), DefaultOptions())
	require.Len(t, preds, 1)
	assert.True(t, preds[0].Overdue)
	assert.Equal(t, 1.0, preds[0].Probability)

	// irregular intervals: 1h, 3h -> mean 2h, variance 1h^2, consistency 0.8
	history = map[string][]HistoryRecord{"database": hourly(3, time.Hour, 3*time.Hour)}
	preds = Predict(history, t0.Add(10*time.Hour), DefaultOptions())
	require.Len(t, preds, 1)
	assert.InDelta(t, 0.96, preds[0].Probability, 1e-9)
	assert.InDelta(t, 0.24, preds[0].Confidence, 1e-9)
}

func TestPredict_Guards(t *testing.T) {
	history := map[string][]HistoryRecord{
		"too_few":  hourly(2),
		"same_ts":  {{Timestamp: t0}, {Timestamp: t0}, {Timestamp: t0}},
		"unsorted": {{Timestamp: t0.Add(2 * time.Hour)}, {Timestamp: t0}, {Timestamp: t0.Add(time.Hour)}},
	}

	preds := Predict(history, t0, DefaultOptions())
	require.Len(t, preds, 1)
	assert.Equal(t, "unsorted", preds[0].IssueType)
	assert.Equal(t, t0.Add(3*time.Hour), preds[0].PredictedTime)

	assert.Empty(t, Predict(nil, t0, DefaultOptions()))
}

func TestPredict_Ordering(t *testing.T) {
	history := map[string][]HistoryRecord{
		"b": hourly(5),
		"a": hourly(5),
		"c": hourly(3, time.Minute, 5*time.Hour),
	}
	preds := Predict(history, t0.Add(100*time.Hour), DefaultOptions())
	require.Len(t, preds, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{preds[0].IssueType, preds[1].IssueType, preds[2].IssueType})
	for _, p := range preds {
		assert.True(t, p.Probability >= 0 && p.Probability <= 1)
		assert.True(t, p.Confidence >= 0 && p.Confidence <= 1)
	}
}

func TestHistoryStore_ConcurrentAppend(t *testing.T) {
	store := NewHistoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				store.Append("network", HistoryRecord{Timestamp: t0.Add(time.Duration(i*50+j) * time.Minute)})
				_ = store.Records("network")
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 400, store.Len())
	assert.Equal(t, []string{"network"}, store.Categories())

	snap := store.Snapshot()
	snap["network"][0].AccountsAffected = 99
	assert.Zero(t, store.Records("network")[0].AccountsAffected)
}

func TestHistoryStore_AppendNewer(t *testing.T) {
	store := NewHistoryStoreFrom(map[string][]HistoryRecord{"network": hourly(2)})

	tests := []struct {
		name     string
		at       time.Time
		expected bool
	}{
		{"same as latest", t0.Add(time.Hour), false},
		{"older than latest", t0.Add(30 * time.Minute), false},
		{"newer than latest", t0.Add(2 * time.Hour), true},
		{"replayed newer record", t0.Add(2 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, store.AppendNewer("network", HistoryRecord{Timestamp: tt.at}))
		})
	}

	assert.Len(t, store.Records("network"), 3)
	assert.True(t, store.AppendNewer("database", HistoryRecord{Timestamp: t0}))
	assert.Equal(t, []string{"database", "network"}, store.Categories())
}

func TestEarlyWarnings(t *testing.T) {
	var events []correlation.Event
	for i, issue := range []string{"network", "authentication", "synchronization", "network"} {
		events = append(events, correlation.Event{Timestamp: t0.Add(time.Duration(i) * time.Hour), IssueType: issue, Account: "alice"})
	}
	events = append(events,
		correlation.Event{Timestamp: t0, IssueType: "network", Account: "bob"},
		correlation.Event{Timestamp: t0, IssueType: "database", Account: "bob"},
	)
	for i := 0; i < 6; i++ {
		events = append(events, correlation.Event{Timestamp: t0.Add(time.Duration(i) * 10 * time.Second), IssueType: "file_system"})
	}

	warnings := EarlyWarnings(events, 300*time.Second)
	require.Len(t, warnings, 2)

	assert.Equal(t, WarningMultipleIssuesSingleAccount, warnings[0].Type)
	assert.Equal(t, "alice", warnings[0].Account)
	assert.Equal(t, []string{"authentication", "network", "synchronization"}, warnings[0].IssueTypes)
	assert.Equal(t, 0.8, warnings[0].Risk)

	assert.Equal(t, WarningErrorBurst, warnings[1].Type)
	assert.Equal(t, []string{"file_system"}, warnings[1].IssueTypes)
	assert.Equal(t, 6, warnings[1].Count)
	assert.InDelta(t, 0.6, warnings[1].Risk, 1e-9)

	assert.Empty(t, EarlyWarnings(nil, 300*time.Second))
}

func TestEarlyWarnings_BurstBucketsStraddlingEpoch(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()
	var events []correlation.Event
	for i := 1; i <= 3; i++ {
		events = append(events, correlation.Event{Timestamp: epoch.Add(-time.Duration(i) * 10 * time.Second), IssueType: "network"})
	}
	for i := 1; i <= 2; i++ {
		events = append(events, correlation.Event{Timestamp: epoch.Add(time.Duration(i) * 10 * time.Second), IssueType: "network"})
	}

	// three events fall in the window before the epoch and two after it
	assert.Empty(t, EarlyWarnings(events, 300*time.Second))

	events = append(events,
		correlation.Event{Timestamp: epoch.Add(-40 * time.Second), IssueType: "network"},
		correlation.Event{Timestamp: epoch.Add(-50 * time.Second), IssueType: "network"},
	)
	warnings := EarlyWarnings(events, 300*time.Second)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarningErrorBurst, warnings[0].Type)
	assert.Equal(t, 5, warnings[0].Count)
}

func TestRecommend(t *testing.T) {
	preds := []Prediction{
		{IssueType: "network", Probability: 0.9},
		{IssueType: "custom_issue", Probability: 0.71},
		{IssueType: "database", Probability: 0.7},
	}
	warnings := []Warning{
		{Type: WarningMultipleIssuesSingleAccount, Account: "alice", IssueTypes: []string{"a", "b", "c"}, Risk: 0.8},
		{Type: WarningErrorBurst, IssueTypes: []string{"file_system"}, Risk: 0.5},
	}

	recs := Recommend(preds, warnings, 0.7)
	require.Len(t, recs, 3)
	assert.Equal(t, Recommendation{Action: "check_connectivity", Target: "network", Source: SourcePrediction, Risk: 0.9}, recs[0])
	assert.Equal(t, Recommendation{Action: "review_account", Target: "alice", Source: WarningMultipleIssuesSingleAccount, Risk: 0.8}, recs[1])
	assert.Equal(t, "investigate_recurring_issue", recs[2].Action)

	assert.Empty(t, Recommend(nil, nil, 0.7))
}
