package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moolen/logsieve/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEntries(t *testing.T) {
	input := strings.Join([]string{
		`{"timestamp":"2026-03-01T10:00:00Z","level":"error","component":"imap","msg":"IMAP timeout for a@x.com","file":"sync.go","line":42,"user":"alice"}`,
		``,
		`{"ts":1772359260,"severity":"warn","service":"api","message":"slow request","request_id":"r-1"}`,
		`{"time":1772359320000,"log":"startup complete"}`,
		`{"message":"handled","severity":"error","is_error":false}`,
	}, "\n")

	entries, err := ReadEntries(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	e := entries[0]
	require.NotNil(t, e.Timestamp)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), *e.Timestamp)
	assert.Equal(t, models.SeverityError, e.Severity)
	assert.Equal(t, "imap", e.Component)
	assert.Equal(t, "IMAP timeout for a@x.com", e.Message)
	assert.Equal(t, "sync.go:42", e.EvidenceRef())
	assert.Equal(t, "alice", e.Account)
	assert.True(t, e.IsError)

	e = entries[1]
	assert.Equal(t, time.Date(2026, 3, 1, 10, 1, 0, 0, time.UTC), *e.Timestamp)
	assert.Equal(t, models.SeverityWarning, e.Severity)
	assert.Equal(t, "api", e.Component)
	assert.Equal(t, "r-1", e.CorrelationID)
	assert.False(t, e.IsError)

	e = entries[2]
	assert.Equal(t, time.Date(2026, 3, 1, 10, 2, 0, 0, time.UTC), *e.Timestamp)
	assert.Equal(t, models.SeverityInfo, e.Severity)
	assert.Equal(t, "startup complete", e.Message)

	e = entries[3]
	assert.Nil(t, e.Timestamp)
	assert.False(t, e.IsError)
}

func TestReadEntries_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
		line  int
	}{
		{"invalid json", "{\"message\":\"ok\"}\nnot json", "", 2},
		{"unknown severity", `{"message":"x","level":"loud"}`, "level", 1},
		{"bad severity type", `{"message":"x","severity":3}`, "severity", 1},
		{"bad timestamp", `{"message":"x","timestamp":"certainly not a date at all"}`, "timestamp", 1},
		{"bad is_error", `{"message":"x","is_error":"yes"}`, "is_error", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadEntries(strings.NewReader(tt.input))
			require.Error(t, err)

			var de *DecodeError
			require.True(t, errors.As(err, &de), "expected DecodeError, got %T", err)
			assert.Equal(t, tt.line, de.Line)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestReadEntries_UnknownSeverityIsValidationError(t *testing.T) {
	_, err := ReadEntries(strings.NewReader(`{"message":"x","level":"loud"}`))
	assert.True(t, models.IsValidationError(err))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
	}{
		{"2026-03-01T10:00:00Z", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2026-03-01T12:00:00+02:00", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2026-03-01 10:00:00", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2026-03-01 10:00:00,250", time.Date(2026, 3, 1, 10, 0, 0, 250e6, time.UTC)},
		{"1772359200", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"1772359200.5", time.Date(2026, 3, 1, 10, 0, 0, 5e8, time.UTC)},
		{"1772359200000", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}

	_, err := ParseTimestamp("  ")
	assert.ErrorIs(t, err, ErrEmptyTimestamp)
}

func TestParseTimestamp_NaturalLanguage(t *testing.T) {
	got, err := ParseTimestamp("March 3 2026 14:05")
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 3, got.Day())
}

func TestReadHistory(t *testing.T) {
	input := `{
		"network": [
			{"timestamp": "2026-03-01T10:00:00Z", "severity": "ERROR", "accounts_affected": 2},
			{"timestamp": 1772362800, "severity": "critical"}
		],
		"database": []
	}`

	history, err := ReadHistory(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, history["network"], 2)
	assert.Empty(t, history["database"])

	rec := history["network"][0]
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), rec.Timestamp)
	assert.Equal(t, models.SeverityError, rec.Severity)
	assert.Equal(t, 2, rec.AccountsAffected)
	assert.Equal(t, models.SeverityCritical, history["network"][1].Severity)

	_, err = ReadHistory(strings.NewReader(`{"network":[{"severity":"error"}]}`))
	assert.ErrorContains(t, err, "missing timestamp")

	_, err = ReadHistory(strings.NewReader(`[]`))
	assert.Error(t, err)
}

func TestReadHistory_FoldsCategoryNames(t *testing.T) {
	input := `{
		"NETWORK": [
			{"timestamp": "2026-03-02T10:00:00Z", "severity": "error"}
		],
		"network": [
			{"timestamp": "2026-03-01T10:00:00Z", "severity": "error"},
			{"timestamp": "2026-03-03T10:00:00Z", "severity": "error"}
		],
		" File_System ": [
			{"timestamp": "2026-03-01T10:00:00Z", "severity": "warning"}
		],
		"Dns_Failure": [
			{"timestamp": "2026-03-01T10:00:00Z", "severity": "error"}
		]
	}`

	history, err := ReadHistory(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, history, 3)
	assert.Len(t, history["file_system"], 1)
	assert.Len(t, history["dns_failure"], 1)

	network := history["network"]
	require.Len(t, network, 3)
	for i, day := range []int{1, 2, 3} {
		assert.Equal(t, time.Date(2026, 3, day, 10, 0, 0, 0, time.UTC), network[i].Timestamp)
	}
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.jsonl")
	require.NoError(t, os.WriteFile(logPath, []byte(`{"message":"m","level":"error"}`+"\n"), 0o644))

	entries, err := ReadFile(logPath)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = ReadFile(filepath.Join(dir, "missing.jsonl"))
	assert.Error(t, err)

	_, err = ReadHistoryFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
