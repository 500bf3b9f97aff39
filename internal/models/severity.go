package models

import (
	"strings"
)

// Severity is the ordered log level of an entry.
// The zero value is TRACE; comparisons use the natural integer order.
type Severity int

const (
	SeverityTrace Severity = iota
	SeverityDebug
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
	SeverityFatal
)

var severityNames = [...]string{
	SeverityTrace:    "TRACE",
	SeverityDebug:    "DEBUG",
	SeverityInfo:     "INFO",
	SeverityWarning:  "WARNING",
	SeverityError:    "ERROR",
	SeverityCritical: "CRITICAL",
	SeverityFatal:    "FATAL",
}

// severityAliases maps the spellings emitted by common log libraries
// onto the canonical levels.
var severityAliases = map[string]Severity{
	"TRACE":     SeverityTrace,
	"DEBUG":     SeverityDebug,
	"INFO":      SeverityInfo,
	"NOTICE":    SeverityInfo,
	"WARNING":   SeverityWarning,
	"WARN":      SeverityWarning,
	"ERROR":     SeverityError,
	"ERR":       SeverityError,
	"CRITICAL":  SeverityCritical,
	"CRIT":      SeverityCritical,
	"ALERT":     SeverityCritical,
	"FATAL":     SeverityFatal,
	"PANIC":     SeverityFatal,
	"EMERGENCY": SeverityFatal,
}

// String returns the canonical upper-case name.
func (s Severity) String() string {
	if s < SeverityTrace || s > SeverityFatal {
		return "UNKNOWN"
	}
	return severityNames[s]
}

// AtLeast reports whether s is at or above other.
func (s Severity) AtLeast(other Severity) bool {
	return s >= other
}

// ParseSeverity converts a level name (case-insensitive, common aliases
// accepted) into a Severity.
func ParseSeverity(name string) (Severity, error) {
	if sev, ok := severityAliases[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return sev, nil
	}
	return SeverityTrace, NewValidationError("unknown severity %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	sev, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = sev
	return nil
}
