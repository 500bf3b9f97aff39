package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	outputMu sync.Mutex
	stdout   io.Writer = os.Stdout
	stderr   io.Writer = os.Stderr
)

// SetOutput redirects log lines. A nil writer leaves that stream unchanged.
// It returns a function restoring the previous writers.
func SetOutput(out, errOut io.Writer) (restore func()) {
	outputMu.Lock()
	defer outputMu.Unlock()

	prevOut, prevErr := stdout, stderr
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
	return func() {
		outputMu.Lock()
		stdout, stderr = prevOut, prevErr
		outputMu.Unlock()
	}
}

// writeLog renders "[ts] [LEVEL] name: msg | k=v ..." with keys sorted.
func (l *Logger) writeLog(level LogLevel, msg string, fields map[string]interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s: %s", GetTimestamp(), level, l.name, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, formatValue(fields[k]))
		}
	}
	b.WriteByte('\n')

	outputMu.Lock()
	defer outputMu.Unlock()
	if level >= ERROR {
		_, _ = io.WriteString(stderr, b.String())
		return
	}
	_, _ = io.WriteString(stdout, b.String())
}

// formatValue quotes string values containing whitespace.
func formatValue(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	if strings.ContainsAny(s, " \t\n") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// logf formats msg and writes it with the logger's base fields.
func (l *Logger) logf(level LogLevel, msg string, args ...interface{}) {
	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}
	l.writeLog(level, formatted, l.baseFields())
}

// GetTimestamp returns an RFC3339 timestamp, or LOG_TIMESTAMP when set.
func GetTimestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
