package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped fields threaded through a
// coordinator operation: which request, which mounted file system,
// which kind, and (once wired to internal/telemetry) which trace/span.
type LogContext struct {
	TraceID      string
	SpanID       string
	RequestID    uint32
	FileSystemID string
	Kind         string
	StartTime    time.Time
}

// WithContext returns a context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if absent.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext for a freshly created request.
func NewLogContext(requestID uint32, fileSystemID string) *LogContext {
	return &LogContext{
		RequestID:    requestID,
		FileSystemID: fileSystemID,
		StartTime:    time.Now(),
	}
}

// Clone returns a copy of lc, or nil if lc is nil.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithKind returns a copy of lc with Kind set.
func (lc *LogContext) WithKind(kind string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Kind = kind
	}
	return clone
}

// WithTrace returns a copy of lc with trace/span ids set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the elapsed time since StartTime, in
// milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
