// Package ingest decodes JSON-lines log files and predictor history into
// the engine's input types.
package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/moolen/logsieve/internal/models"
)

const maxLineSize = 1 << 20

// Field aliases, most specific first.
var (
	messageFields     = []string{"message", "msg", "log", "text", "_raw", "event"}
	severityFields    = []string{"severity", "level", "lvl"}
	timestampFields   = []string{"timestamp", "time", "ts", "@timestamp"}
	componentFields   = []string{"component", "logger", "service", "source"}
	sourceFileFields  = []string{"source_file", "file"}
	lineNumberFields  = []string{"line_number", "line"}
	correlationFields = []string{"correlation_id", "request_id", "trace_id"}
	accountFields     = []string{"account", "account_id", "user"}
)

// ReadFile reads a JSON-lines log file.
func ReadFile(path string) ([]models.LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()
	return ReadEntries(f)
}

// ReadEntries decodes one JSON object per line. Blank lines are skipped;
// the first undecodable line aborts with a *DecodeError.
func ReadEntries(r io.Reader) ([]models.LogEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	entries := make([]models.LogEntry, 0)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil, &DecodeError{Line: line, Err: err}
		}

		entry, err := DecodeEntry(raw)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Line = line
				return nil, de
			}
			return nil, &DecodeError{Line: line, Err: err}
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log input: %w", err)
	}
	return entries, nil
}

// DecodeEntry maps a decoded JSON object onto a LogEntry. A missing
// severity means INFO; a missing is_error follows severity >= ERROR.
func DecodeEntry(raw map[string]interface{}) (models.LogEntry, error) {
	entry := models.LogEntry{
		Severity:      models.SeverityInfo,
		Message:       stringField(raw, messageFields),
		Component:     stringField(raw, componentFields),
		SourceFile:    stringField(raw, sourceFileFields),
		CorrelationID: stringField(raw, correlationFields),
		Account:       stringField(raw, accountFields),
	}

	if name, field := firstPresent(raw, severityFields); field != "" {
		s, ok := name.(string)
		if !ok {
			return entry, &DecodeError{Field: field, Err: fmt.Errorf("expected string, got %T", name)}
		}
		sev, err := models.ParseSeverity(s)
		if err != nil {
			return entry, &DecodeError{Field: field, Err: err}
		}
		entry.Severity = sev
	}

	if v, field := firstPresent(raw, timestampFields); field != "" && v != nil {
		ts, err := decodeTimestamp(v)
		if err != nil {
			return entry, &DecodeError{Field: field, Err: err}
		}
		entry.Timestamp = &ts
	}

	if v, _ := firstPresent(raw, lineNumberFields); v != nil {
		if n, ok := v.(float64); ok {
			entry.LineNumber = int(n)
		}
	}

	entry.IsError = entry.Severity >= models.SeverityError
	if v, ok := raw["is_error"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return entry, &DecodeError{Field: "is_error", Err: fmt.Errorf("expected bool, got %T", v)}
		}
		entry.IsError = b
	}

	return entry, nil
}

func decodeTimestamp(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case string:
		return ParseTimestamp(t)
	case float64:
		return FromUnix(t), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func firstPresent(raw map[string]interface{}, fields []string) (interface{}, string) {
	for _, f := range fields {
		if v, ok := raw[f]; ok {
			return v, f
		}
	}
	return nil, ""
}

func stringField(raw map[string]interface{}, fields []string) string {
	for _, f := range fields {
		if s, ok := raw[f].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
