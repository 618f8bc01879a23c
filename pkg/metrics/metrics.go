// Package metrics defines the optional instrumentation surface for the
// request coordinator. Passing a nil ProviderMetrics anywhere one is
// accepted disables instrumentation with zero overhead, the same
// contract the teacher's cache/NFS metrics interfaces use.
package metrics

import "time"

// ProviderMetrics records coordinator-level observability: request
// throughput and latency by kind and outcome, queue depth/backlog, and
// streamed-chunk volume.
type ProviderMetrics interface {
	// RecordRequestCreated is called once per accepted CreateRequest,
	// before dispatch is scheduled.
	RecordRequestCreated(kind string)

	// RecordRequestCompleted is called once a request reaches a
	// terminal state (outcome is "success", "error", or "cancelled"),
	// with the time elapsed since CreateRequest.
	RecordRequestCompleted(kind, outcome string, duration time.Duration)

	// RecordChunk is called on each hasMore=true Fulfill, before
	// terminal completion.
	RecordChunk(kind string)

	// RecordQueueDepth reports the current FIFO submission-queue
	// length immediately after a request drains from its head.
	RecordQueueDepth(depth int)

	// RecordMountOutcome is called when a mount or unmount deferred
	// handle settles. op is "mount" or "unmount"; outcome is
	// "resolved" or "rejected".
	RecordMountOutcome(op, outcome string)
}
