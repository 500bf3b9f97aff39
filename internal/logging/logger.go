// Package logging provides the leveled, structured logger used across
// logsieve.
//
// Every package asks for a named logger once and logs through it:
//
//	logger := logging.GetLogger("logprocessing")
//	logger.Debug("clustered %d entries", n)
//	logger.InfoWithFields("analysis complete",
//	    logging.Field("patterns", len(patterns)),
//	    logging.Field("duration_ms", elapsed.Milliseconds()),
//	)
//
// Child loggers carry persistent fields:
//
//	runLogger := logger.WithField("session_id", session.ID)
//
// Levels can be overridden per package, with "pkg.*" wildcards:
//
//	logging.Initialize("info", map[string]string{"analysis": "debug"})
//
// DEBUG/INFO/WARN lines go to stdout, ERROR/FATAL to stderr. Both writers can
// be swapped with SetOutput, which is how tests capture log lines. The
// LOG_TIMESTAMP environment variable pins the timestamp for golden output.
//
// Loggers are immutable; WithField/WithFields/WithContext return copies and
// are safe to share between goroutines.
package logging

import (
	"context"
	"os"
	"strings"
	"sync"
)

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
	initOnce     sync.Once
	// exitFunc is called by Fatal; tests replace it.
	exitFunc = os.Exit
)

// Initialize sets the default level and optional per-package overrides.
// Unknown default levels fall back to INFO.
func Initialize(levelStr string, packageLevels ...map[string]string) error {
	level, err := parseLevel(levelStr)
	if err != nil {
		level = INFO
	}

	globalMu.Lock()
	globalLogger = &Logger{level: level, name: "logsieve"}
	globalMu.Unlock()

	if len(packageLevels) > 0 && packageLevels[0] != nil {
		if err := SetPackageLogLevels(packageLevels[0]); err != nil {
			return err
		}
	}
	return nil
}

// GetLogger returns a logger with the specified name.
// The first call initializes the global logger at INFO if nobody did.
func GetLogger(name string) *Logger {
	initOnce.Do(func() {
		globalMu.RLock()
		missing := globalLogger == nil
		globalMu.RUnlock()
		if missing {
			_ = Initialize("info")
		}
	})

	globalMu.RLock()
	level := globalLogger.level
	globalMu.RUnlock()

	return &Logger{
		level:  level,
		name:   name,
		fields: make(map[string]interface{}),
	}
}

// shouldLog applies per-package overrides before the logger's own level.
func (l *Logger) shouldLog(level LogLevel) bool {
	if pkgLevel := GetPackageLogLevel(l.name); pkgLevel >= 0 {
		return level >= pkgLevel
	}
	return level >= l.level
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.logf(DEBUG, msg, args...)
	}
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.logf(INFO, msg, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.logf(WARN, msg, args...)
	}
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.logf(ERROR, msg, args...)
	}
}

// Fatal logs a fatal message and exits the program with code 1
func (l *Logger) Fatal(msg string, args ...interface{}) {
	if l.shouldLog(FATAL) {
		l.logf(FATAL, msg, args...)
		exitFunc(1)
	}
}

// ErrorWithErr logs an error message followed by the error.
func (l *Logger) ErrorWithErr(msg string, err error) {
	if l.shouldLog(ERROR) {
		l.logWithFields(ERROR, msg, Field("error", err))
	}
}

// DebugWithFields logs a debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields ...LogField) {
	if l.shouldLog(DEBUG) {
		l.logWithFields(DEBUG, msg, fields...)
	}
}

// InfoWithFields logs an info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields ...LogField) {
	if l.shouldLog(INFO) {
		l.logWithFields(INFO, msg, fields...)
	}
}

// WarnWithFields logs a warning message with structured fields
func (l *Logger) WarnWithFields(msg string, fields ...LogField) {
	if l.shouldLog(WARN) {
		l.logWithFields(WARN, msg, fields...)
	}
}

// ErrorWithFields logs an error message with structured fields
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) {
	if l.shouldLog(ERROR) {
		l.logWithFields(ERROR, msg, fields...)
	}
}

// WithName returns a copy of the logger under a different name.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{level: l.level, name: name, fields: cloneFields(l.fields), ctx: l.ctx}
}

// WithField returns a copy of the logger with one more persistent field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(Field(key, value))
}

// WithFields returns a copy of the logger with additional persistent fields.
func (l *Logger) WithFields(fields ...LogField) *Logger {
	next := &Logger{level: l.level, name: l.name, fields: cloneFields(l.fields), ctx: l.ctx}
	for _, f := range fields {
		next.fields[f.Key] = f.Value
	}
	return next
}

// WithContext returns a copy whose lines include the trace_id/span_id
// stored in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{level: l.level, name: l.name, fields: cloneFields(l.fields), ctx: ctx}
}

// logWithFields merges context < persistent < call-site fields (last wins).
func (l *Logger) logWithFields(level LogLevel, msg string, fields ...LogField) {
	merged := l.baseFields()
	if len(fields) > 0 && merged == nil {
		merged = make(map[string]interface{}, len(fields))
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	l.writeLog(level, msg, merged)
}

// baseFields returns the context and persistent fields, or nil if none.
func (l *Logger) baseFields() map[string]interface{} {
	contextFields := extractContextFields(l.ctx)
	if contextFields == nil && len(l.fields) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(contextFields)+len(l.fields))
	for k, v := range contextFields {
		merged[k] = v
	}
	for k, v := range l.fields {
		merged[k] = v
	}
	return merged
}

// LevelName returns the upper-case name of a level string, or "" if invalid.
func LevelName(levelStr string) string {
	level, err := parseLevel(levelStr)
	if err != nil {
		return ""
	}
	return strings.ToUpper(level.String())
}
