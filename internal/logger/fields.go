package logger

import "log/slog"

// Standard field keys used consistently across the coordinator so log
// lines can be aggregated and queried by field name.
const (
	KeyTraceID      = "trace_id"
	KeySpanID       = "span_id"
	KeyRequestID    = "request_id"
	KeyFileSystemID = "file_system_id"
	KeyKind         = "kind"
	KeyOutcome      = "outcome"
	KeyErrorCode    = "error_code"
	KeyQueueDepth   = "queue_depth"
	KeyDurationMs   = "duration_ms"
	KeyError        = "error"
)

// RequestID returns a slog.Attr for a per-manager request id.
func RequestID(id uint32) slog.Attr {
	return slog.Any(KeyRequestID, id)
}

// FileSystemID returns a slog.Attr for a mounted file system id.
func FileSystemID(id string) slog.Attr {
	return slog.String(KeyFileSystemID, id)
}

// Kind returns a slog.Attr for a request kind's string name.
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// Outcome returns a slog.Attr for a terminal outcome ("success",
// "error", "cancelled", "resolved", "rejected").
func Outcome(outcome string) slog.Attr {
	return slog.String(KeyOutcome, outcome)
}

// ErrorCode returns a slog.Attr for an opaque consumer/producer error
// code.
func ErrorCode(code uint32) slog.Attr {
	return slog.Any(KeyErrorCode, code)
}

// QueueDepth returns a slog.Attr for the FIFO submission-queue length.
func QueueDepth(depth int) slog.Attr {
	return slog.Int(KeyQueueDepth, depth)
}

// DurationMs returns a slog.Attr for an operation duration in
// milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, or a zero Attr for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
