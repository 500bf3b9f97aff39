package models

import (
	"fmt"
	"time"
)

// LogEntry is one parsed log line as supplied by the log-parsing
// collaborator. The engine never mutates it.
type LogEntry struct {
	// Timestamp is optional; entries without one are skipped by every
	// time-based stage but still categorized and clustered.
	Timestamp *time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`

	Severity  Severity `json:"severity" yaml:"severity"`
	Component string   `json:"component" yaml:"component"`
	Message   string   `json:"message" yaml:"message"`

	SourceFile string `json:"source_file,omitempty" yaml:"source_file,omitempty"`
	LineNumber int    `json:"line_number,omitempty" yaml:"line_number,omitempty"`

	CorrelationID string `json:"correlation_id,omitempty" yaml:"correlation_id,omitempty"`

	// Account identifies the affected user/tenant when the parser found one.
	Account string `json:"account,omitempty" yaml:"account,omitempty"`

	IsError bool `json:"is_error" yaml:"is_error"`
}

// HasTimestamp reports whether the entry carries a timestamp.
func (e *LogEntry) HasTimestamp() bool {
	return e.Timestamp != nil && !e.Timestamp.IsZero()
}

// EvidenceRef renders the "file:line" reference, or "" when the entry has
// no source file.
func (e *LogEntry) EvidenceRef() string {
	if e.SourceFile == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", e.SourceFile, e.LineNumber)
}

// CategorizedEntry pairs an entry with its category and its position in the
// input batch. It is computed once per entry and reused by every stage.
type CategorizedEntry struct {
	Index    int           `json:"index"`
	Entry    LogEntry      `json:"entry"`
	Category ErrorCategory `json:"category"`
}

// Eligible reports whether the entry passes the WARNING severity floor used
// by clustering, cascade and correlation stages.
func (c *CategorizedEntry) Eligible() bool {
	return c.Entry.Severity >= SeverityWarning
}

// Time returns the entry timestamp; callers must check HasTimestamp first.
func (c *CategorizedEntry) Time() time.Time {
	return *c.Entry.Timestamp
}
