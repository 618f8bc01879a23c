package vfsprovider

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/vfsprovider/internal/logger"
	"github.com/marmos91/vfsprovider/internal/telemetry"
	vfserrors "github.com/marmos91/vfsprovider/pkg/errors"
	"github.com/marmos91/vfsprovider/pkg/metrics"
	"go.opentelemetry.io/otel/trace"
)

// CompletionCallback is what the native request-producer supplies to
// CreateRequest (spec §6). OnSuccess is always invoked with the fully
// accumulated value; the streaming has already been flattened by the
// manager. OnError carries an opaque error code whose meaning is
// defined by the producer/consumer contract.
type CompletionCallback struct {
	OnSuccess func(requestID uint32, value RequestValue)
	OnError   func(requestID uint32, errorCode uint32)
}

// pendingRequest is the manager-internal bookkeeping record for one
// in-flight request (spec §3). It is created in CreateRequest, mutated
// only by Fulfill/Reject, and destroyed once its completion has been
// scheduled and it is at the head of the FIFO queue (success path) or
// immediately on reject.
type pendingRequest struct {
	kind        RequestKind
	id          uint32
	options     RequestOptions
	completion  CompletionCallback
	completed   bool
	accumulated RequestValue
	createdAt   time.Time
	logCtx      context.Context
}

// RequestManager is the per-provider coordinator (spec §4.3): it
// accepts requests from the native side, assigns monotonic request
// IDs, routes them to the scripted consumer via EventDispatch, and
// completes the original caller in strict request-ID order even when
// the consumer answers out of order.
//
// All map/queue mutation happens under mu; event dispatch and
// completion callbacks are always scheduled on loop and run outside
// the critical section (spec §5).
type RequestManager struct {
	mu sync.Mutex

	nextID  uint32
	pending map[uint32]*pendingRequest
	queue   []uint32

	dispatcher Dispatcher
	loop       TaskLoop
	metrics    metrics.ProviderMetrics
}

// NewRequestManager creates a RequestManager that schedules dispatch
// and completion tasks onto loop. metrics may be nil to disable
// instrumentation with zero overhead.
func NewRequestManager(loop TaskLoop, m metrics.ProviderMetrics) *RequestManager {
	return &RequestManager{
		pending: make(map[uint32]*pendingRequest),
		loop:    loop,
		metrics: m,
	}
}

// SetDispatcher configures the EventDispatch-implementing target that
// CreateRequest routes events to. It is one-time configuration from
// the owning provider, called before any CreateRequest.
func (m *RequestManager) SetDispatcher(d Dispatcher) {
	m.mu.Lock()
	m.dispatcher = d
	m.mu.Unlock()
}

// CreateRequest accepts a request from the native producer side. It
// allocates the next RequestId (pre-increment, so the first assigned
// id is 1), stores a PendingRequest, appends to the tail of the FIFO
// queue, and schedules an asynchronous dispatch task. It never fires
// completion inline.
func (m *RequestManager) CreateRequest(kind RequestKind, opts RequestOptions, completion CompletionCallback) (uint32, error) {
	var fsID string
	if opts != nil {
		fsID = opts.FileSystemID()
	}
	// requestID is unknown until the id is allocated below; 0 is a
	// placeholder the post-allocation SetAttributes call overwrites.
	ctx, span := telemetry.StartRequestSpan(context.Background(), telemetry.SpanCreateRequest, 0, fsID, kind.String())
	defer span.End()

	if !kind.Valid() {
		err := vfserrors.Newf(vfserrors.ErrInvalidArgument, "invalid request kind %v", kind)
		telemetry.RecordError(ctx, err)
		return 0, err
	}
	if err := validateOptionsKind(kind, opts); err != nil {
		telemetry.RecordError(ctx, err)
		return 0, err
	}
	if completion.OnSuccess == nil || completion.OnError == nil {
		err := vfserrors.New(vfserrors.ErrInvalidArgument, "completion callback must set both OnSuccess and OnError")
		telemetry.RecordError(ctx, err)
		return 0, err
	}

	m.mu.Lock()
	if m.dispatcher == nil {
		m.mu.Unlock()
		err := vfserrors.New(vfserrors.ErrNotInitialized, "dispatcher not configured")
		telemetry.RecordError(ctx, err)
		return 0, err
	}

	m.nextID++
	id := m.nextID

	lc := logger.NewLogContext(id, opts.FileSystemID()).WithKind(kind.String())
	if sc := span.SpanContext(); sc.HasTraceID() && sc.HasSpanID() {
		lc = lc.WithTrace(sc.TraceID().String(), sc.SpanID().String())
	}
	logCtx := logger.WithContext(ctx, lc)

	m.pending[id] = &pendingRequest{
		kind:       kind,
		id:         id,
		options:    opts,
		completion: completion,
		createdAt:  time.Now(),
		logCtx:     logCtx,
	}
	m.queue = append(m.queue, id)
	dispatcher := m.dispatcher
	m.mu.Unlock()

	span.SetAttributes(telemetry.RequestID(id), telemetry.FileSystemID(opts.FileSystemID()))

	if m.metrics != nil {
		m.metrics.RecordRequestCreated(kind.String())
	}
	logger.DebugCtx(logCtx, "vfsprovider: request created", logger.RequestID(id), logger.Kind(kind.String()))

	err := m.loop.Post(func() {
		dispatcher.Dispatch(id, kind, opts)
	})
	if err != nil {
		m.mu.Lock()
		delete(m.pending, id)
		m.removeFromQueueLocked(id)
		m.mu.Unlock()
		telemetry.RecordError(ctx, err)
		return 0, err
	}

	return id, nil
}

// Fulfill records a streamed or terminal success for id (spec §4.3).
//
// hasMore=true: value is adopted as (or concatenated onto) the
// request's accumulator; the request is not completed and the drain
// loop does not run.
//
// hasMore=false: value is treated as the terminal chunk, the request
// is marked completed, and the drain loop runs to deliver completions
// to the native caller in submission order.
func (m *RequestManager) Fulfill(id uint32, value RequestValue, hasMore bool) error {
	_, span := telemetry.StartSpan(context.Background(), telemetry.SpanFulfill,
		trace.WithAttributes(telemetry.RequestID(id)))
	defer span.End()

	if hasMore && value == nil {
		return vfserrors.ForRequest(vfserrors.ErrInvalidArgument, id, "hasMore=true requires a non-nil partial value")
	}

	m.mu.Lock()
	pr, ok := m.pending[id]
	if !ok {
		m.mu.Unlock()
		return vfserrors.ForRequest(vfserrors.ErrNotFound, id, "no such pending request")
	}
	if pr.completed {
		m.mu.Unlock()
		return vfserrors.ForRequest(vfserrors.ErrNotFound, id, "request already terminal")
	}
	if value != nil && value.Kind() != pr.kind {
		m.mu.Unlock()
		return vfserrors.ForRequest(vfserrors.ErrTypeMismatch, id, "fulfill value kind does not match request kind")
	}

	if hasMore {
		if pr.accumulated == nil {
			pr.accumulated = value
		} else {
			merged, err := Concat(pr.accumulated, value)
			if err != nil {
				m.mu.Unlock()
				return err
			}
			pr.accumulated = merged
		}
		m.mu.Unlock()
		if m.metrics != nil {
			m.metrics.RecordChunk(pr.kind.String())
		}
		return nil
	}

	switch {
	case pr.accumulated != nil && value != nil:
		merged, err := Concat(pr.accumulated, value)
		if err != nil {
			m.mu.Unlock()
			return err
		}
		pr.accumulated = merged
	case pr.accumulated == nil:
		if value != nil {
			pr.accumulated = value
		} else {
			pr.accumulated = NewUnitValue(pr.kind)
		}
	}
	pr.completed = true
	duration := time.Since(pr.createdAt)
	m.mu.Unlock()

	span.SetAttributes(telemetry.Kind(pr.kind.String()), telemetry.Outcome("success"))
	if m.metrics != nil {
		m.metrics.RecordRequestCompleted(pr.kind.String(), "success", duration)
	}

	m.drain()
	return nil
}

// Reject records an error completion for id (spec §4.3). Unlike
// Fulfill's success path, reject does not respect head-of-queue
// ordering: it schedules the caller's completion and removes the
// request immediately. This is the one intentional asymmetry in the
// manager (spec §5, §9): errors are not held behind slower,
// earlier-submitted successes. After removing the request it runs the
// drain loop, so completed successes that were queued behind it are
// delivered. Rejecting a request that has already reached a terminal
// state returns NotFound.
func (m *RequestManager) Reject(id uint32, errorCode uint32) error {
	_, span := telemetry.StartSpan(context.Background(), telemetry.SpanReject,
		trace.WithAttributes(telemetry.RequestID(id), telemetry.ErrorCode(errorCode)))
	defer span.End()

	m.mu.Lock()
	pr, ok := m.pending[id]
	if !ok {
		m.mu.Unlock()
		err := vfserrors.ForRequest(vfserrors.ErrNotFound, id, "no such pending request")
		span.RecordError(err)
		return err
	}
	if pr.completed {
		m.mu.Unlock()
		err := vfserrors.ForRequest(vfserrors.ErrNotFound, id, "request already terminal")
		span.RecordError(err)
		return err
	}

	delete(m.pending, id)
	m.removeFromQueueLocked(id)
	duration := time.Since(pr.createdAt)
	m.mu.Unlock()

	span.SetAttributes(telemetry.Kind(pr.kind.String()), telemetry.Outcome("error"))
	if m.metrics != nil {
		m.metrics.RecordRequestCompleted(pr.kind.String(), "error", duration)
	}
	logger.DebugCtx(pr.logCtx, "vfsprovider: request rejected", logger.RequestID(id), logger.ErrorCode(errorCode))

	completion := pr.completion
	_ = m.loop.Post(func() {
		completion.OnError(id, errorCode)
	})

	// The rejected request may have been the head of the queue; later
	// requests that already completed can now be delivered.
	m.drain()
	return nil
}

// drain walks the FIFO queue from the head, delivering completions
// for every contiguous run of already-completed requests starting at
// the head, and stops at the first request that hasn't terminated
// yet. Later Fulfill/Reject calls re-attempt the drain.
//
// It logs the queue's id order before and after the walk at debug
// level, the Go equivalent of the original's unconditional queue dump
// around its drain loop (spec §9: "implementation noise, not part of
// the contract" — here gated behind LevelDebug instead of always on).
func (m *RequestManager) drain() {
	m.mu.Lock()
	logger.Debug("vfsprovider: queue state before drain", "queue", append([]uint32(nil), m.queue...))
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		logger.Debug("vfsprovider: queue state after drain", "queue", append([]uint32(nil), m.queue...))
		m.mu.Unlock()
	}()

	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		headID := m.queue[0]
		pr, ok := m.pending[headID]
		if !ok {
			// Invariant violation: a queued id with no backing map
			// entry. Drop it defensively rather than wedge the queue.
			m.queue = m.queue[1:]
			m.mu.Unlock()
			continue
		}
		if !pr.completed {
			m.mu.Unlock()
			return
		}

		m.queue = m.queue[1:]
		delete(m.pending, headID)
		m.mu.Unlock()

		if m.metrics != nil {
			m.metrics.RecordQueueDepth(len(m.queue))
		}

		completion := pr.completion
		accumulated := pr.accumulated
		_ = m.loop.Post(func() {
			completion.OnSuccess(headID, accumulated)
		})
	}
}

// removeFromQueueLocked removes id from the FIFO queue. Callers must
// hold mu.
func (m *RequestManager) removeFromQueueLocked(id uint32) {
	for i, v := range m.queue {
		if v == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// PendingCount returns the number of requests currently tracked by
// the manager (map size), for diagnostics and metrics.
func (m *RequestManager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// QueueDepth returns the current FIFO queue length.
func (m *RequestManager) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
