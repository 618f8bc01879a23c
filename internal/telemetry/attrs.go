package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for coordinator spans.
const (
	AttrRequestID    = "vfsprovider.request_id"
	AttrFileSystemID = "vfsprovider.file_system_id"
	AttrKind         = "vfsprovider.kind"
	AttrOutcome      = "vfsprovider.outcome"
	AttrErrorCode    = "vfsprovider.error_code"
	AttrQueueDepth   = "vfsprovider.queue_depth"
	AttrOperation    = "vfsprovider.operation"
)

// Span names for the coordinator's lifecycle operations.
const (
	SpanCreateRequest = "vfsprovider.CreateRequest"
	SpanDispatch      = "vfsprovider.Dispatch"
	SpanFulfill       = "vfsprovider.Fulfill"
	SpanReject        = "vfsprovider.Reject"
	SpanMount         = "vfsprovider.Mount"
	SpanUnmount       = "vfsprovider.Unmount"
)

// RequestID returns an attribute for a per-manager request id.
func RequestID(id uint32) attribute.KeyValue {
	return attribute.Int64(AttrRequestID, int64(id))
}

// FileSystemID returns an attribute for a mounted file system id.
func FileSystemID(id string) attribute.KeyValue {
	return attribute.String(AttrFileSystemID, id)
}

// Kind returns an attribute for a request kind's string name.
func Kind(kind string) attribute.KeyValue {
	return attribute.String(AttrKind, kind)
}

// Outcome returns an attribute for a terminal outcome.
func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

// ErrorCode returns an attribute for an opaque error code.
func ErrorCode(code uint32) attribute.KeyValue {
	return attribute.Int64(AttrErrorCode, int64(code))
}

// QueueDepth returns an attribute for the FIFO submission-queue
// length.
func QueueDepth(depth int) attribute.KeyValue {
	return attribute.Int(AttrQueueDepth, depth)
}

// StartRequestSpan starts a span for a request-coordinator operation,
// tagging it with the request id, file system id, and kind.
func StartRequestSpan(ctx context.Context, spanName string, requestID uint32, fileSystemID string, kind string) (context.Context, trace.Span) {
	return StartSpan(ctx, spanName, trace.WithAttributes(
		RequestID(requestID),
		FileSystemID(fileSystemID),
		Kind(kind),
	))
}
