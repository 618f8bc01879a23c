package vfsprovider

import (
	"context"

	"github.com/marmos91/vfsprovider/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// internalErrorCode is the small set of error codes the coordinator
// itself manufactures (as opposed to codes that originate from the
// scripted consumer). The error-code space past these values belongs
// entirely to the producer/consumer contract (spec §7) and is never
// interpreted here.
const (
	internalErrorCodeInvalidArgument uint32 = 1
	internalErrorCodeNotImplemented  uint32 = 2
)

// Dispatcher is the dispatcher interface RequestManager consumes
// (spec §6): given a request id, kind, and options, fire the
// corresponding typed event. EventDispatch is the canonical
// implementation; tests may supply a fake.
type Dispatcher interface {
	Dispatch(requestID uint32, kind RequestKind, options RequestOptions)
}

// Event is the typed payload delivered to the scripted handler for one
// dispatched request (spec §4.2). Success/Error tie back to the
// request id and ultimately call RequestManager.Fulfill/Reject.
type Event struct {
	RequestID uint32
	Kind      RequestKind
	Options   RequestOptions

	manager *RequestManager
}

// Success reports a (possibly partial) successful result. hasMore
// indicates whether further chunks will follow for this request; see
// RequestManager.Fulfill for the accumulation contract.
func (e *Event) Success(value RequestValue, hasMore bool) error {
	return e.manager.Fulfill(e.RequestID, value, hasMore)
}

// Error reports a terminal failure with an opaque, producer/consumer
// defined error code.
func (e *Event) Error(errorCode uint32) error {
	return e.manager.Reject(e.RequestID, errorCode)
}

// EventTarget receives events fired by EventDispatch. The provider
// facade is the canonical implementation, fanning eventName out to its
// per-kind handler slots (spec §4.5).
type EventTarget interface {
	HandleEvent(eventName string, event *Event)
}

// TargetResolver resolves the current EventTarget at dispatch time. It
// models the re-architected back-reference from spec §9: the source's
// cyclic RefPtr from a scheduled task to the owning provider is
// replaced here by a resolver the manager's dispatch task calls when
// it actually runs; if the provider is gone, Dispatch becomes a no-op
// instead of reviving a dead reference.
type TargetResolver func() (EventTarget, bool)

// EventDispatch is the typed fan-out from CreateRequest's generic
// dispatch task to one of the seven named events (spec §4.2).
type EventDispatch struct {
	manager *RequestManager
	resolve TargetResolver
}

// NewEventDispatch creates an EventDispatch that fires events at
// whatever EventTarget resolve returns, tying their callbacks back to
// manager.
func NewEventDispatch(manager *RequestManager, resolve TargetResolver) *EventDispatch {
	return &EventDispatch{manager: manager, resolve: resolve}
}

// Dispatch fires the event for requestID/kind/options at the current
// target. Mount is handled directly by the provider facade and
// produces no event (spec §4.2); a request of a kind with no event
// name that reaches here is rejected with the internal
// invalid-argument code. Dispatch itself
// never blocks; the handler may resolve Success/Error on any later
// turn of the consumer's task loop.
func (d *EventDispatch) Dispatch(requestID uint32, kind RequestKind, options RequestOptions) {
	_, span := telemetry.StartSpan(context.Background(), telemetry.SpanDispatch,
		trace.WithAttributes(telemetry.RequestID(requestID), telemetry.Kind(kind.String())))
	defer span.End()

	name, hasEvent := EventName(kind)
	if !hasEvent {
		d.manager.Reject(requestID, internalErrorCodeInvalidArgument)
		span.SetAttributes(telemetry.Outcome("no_event"))
		return
	}

	target, ok := d.resolve()
	if !ok {
		span.SetAttributes(telemetry.Outcome("target_gone"))
		return
	}

	target.HandleEvent(name, &Event{
		RequestID: requestID,
		Kind:      kind,
		Options:   options,
		manager:   d.manager,
	})
}
