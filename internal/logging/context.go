package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type contextKey int

const (
	sessionKey contextKey = iota
	traceIDKey
)

// ContextWithSession tags ctx with an analysis session ID. Loggers bound to
// the context with WithContext add it as session_id.
func ContextWithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

// SessionID returns the session ID stored in ctx, or "".
func SessionID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// ContextWithTraceID sets an explicit trace ID, for callers that correlate
// runs without OpenTelemetry.
func ContextWithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// extractContextFields collects session_id, trace_id and span_id from ctx.
// An explicit trace ID overrides the one of an active span.
func extractContextFields(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}

	fields := make(map[string]interface{})
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields["trace_id"] = sc.TraceID().String()
		fields["span_id"] = sc.SpanID().String()
	}
	if id, ok := ctx.Value(traceIDKey).(string); ok && id != "" {
		fields["trace_id"] = id
	}
	if id := SessionID(ctx); id != "" {
		fields["session_id"] = id
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}
