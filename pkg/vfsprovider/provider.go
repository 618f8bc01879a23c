package vfsprovider

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/marmos91/vfsprovider/internal/logger"
	"github.com/marmos91/vfsprovider/internal/telemetry"
	vfserrors "github.com/marmos91/vfsprovider/pkg/errors"
	"github.com/marmos91/vfsprovider/pkg/metrics"
)

// MountService is the native service interface this core consumes for
// provider-lifecycle operations (spec §6). It is asynchronous: Mount
// and Unmount complete later via the Provider's OnSuccess/OnError,
// not via their own return value (a synchronous error means the call
// could not even be started).
type MountService interface {
	Mount(opts MountOptions, manager *RequestManager, provider *Provider) error
	Unmount(opts UnmountOptions, provider *Provider) error
}

// MountRequest is what scripts supply to Provider.Mount. FileSystemId
// uniqueness is the caller's responsibility; it is not enforced here
// (spec §3). An empty FileSystemID gets a generated one.
type MountRequest struct {
	FileSystemID     string
	DisplayName      string
	Writable         bool
	OpenedFilesLimit uint32
}

// UnmountRequest is what scripts supply to Provider.Unmount.
type UnmountRequest struct {
	FileSystemID string
}

// HandlerSlots holds one event-handler slot per event name from spec
// §4.2, following the host engine's standard event-target contract.
// A nil slot means no handler is registered for that event.
type HandlerSlots struct {
	OnUnmountRequested       func(*Event)
	OnGetMetadataRequested   func(*Event)
	OnReadDirectoryRequested func(*Event)
	OnOpenFileRequested      func(*Event)
	OnCloseFileRequested     func(*Event)
	OnReadFileRequested      func(*Event)
	OnAbortRequested         func(*Event)
}

// ServiceError wraps an opaque error code reported by the native
// mount/unmount service back to the provider.
type ServiceError struct {
	RequestID uint32
	Code      uint32
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error %d for request %d", e.Code, e.RequestID)
}

// Provider is the front door scripts use: it exposes Mount/Unmount/Get
// (spec §4.5), returns Deferred handles keyed by a provider-global id
// space distinct from the per-RequestManager id space, owns exactly
// one RequestManager for its lifetime, and is itself the EventTarget
// that RequestManager's events are fired at.
type Provider struct {
	mu             sync.Mutex
	nextHandleID   uint32
	pendingHandles map[uint32]*pendingHandle
	destroyed      bool

	service  MountService
	manager  *RequestManager
	metrics  metrics.ProviderMetrics
	Handlers HandlerSlots
}

// NewProvider creates a Provider backed by service, dispatching events
// via loop and recording optional metrics (nil disables instrumentation).
func NewProvider(service MountService, loop TaskLoop, m metrics.ProviderMetrics) *Provider {
	p := &Provider{
		pendingHandles: make(map[uint32]*pendingHandle),
		service:        service,
		metrics:        m,
	}
	p.manager = NewRequestManager(loop, m)
	p.manager.SetDispatcher(NewEventDispatch(p.manager, p.resolveTarget))
	return p
}

// Manager returns the RequestManager this provider owns.
func (p *Provider) Manager() *RequestManager {
	return p.manager
}

// resolveTarget implements TargetResolver: once the provider is
// destroyed, in-flight dispatch tasks become no-ops instead of
// reviving a torn-down event target (spec §9).
func (p *Provider) resolveTarget() (EventTarget, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return nil, false
	}
	return p, true
}

// Destroy tears the provider down: subsequent event dispatches become
// no-ops. Outstanding requests already queued in the RequestManager
// are not explicitly completed; callers observe this only via their
// completion never firing, matching spec §3's lifecycle note that
// destroying the provider destroys the manager without completing
// outstanding requests.
func (p *Provider) Destroy() {
	p.mu.Lock()
	p.destroyed = true
	p.mu.Unlock()
}

// pendingHandle pairs a Deferred with the operation name it was
// created for, so settle() can report it to metrics.
type pendingHandle struct {
	op     string
	handle *Deferred
}

func (p *Provider) nextHandle(op string) (uint32, *Deferred) {
	handle := NewDeferred()
	p.mu.Lock()
	p.nextHandleID++
	id := p.nextHandleID
	p.pendingHandles[id] = &pendingHandle{op: op, handle: handle}
	p.mu.Unlock()
	return id, handle
}

// Mount assigns a provider-global request id, stores the returned
// Deferred keyed by it, and calls the service's Mount. The service
// later invokes OnSuccess or OnError with this id to settle the
// handle.
func (p *Provider) Mount(req MountRequest) *Deferred {
	id, handle := p.nextHandle("mount")
	fsID := req.FileSystemID
	if fsID == "" {
		fsID = uuid.NewString()
	}
	opts := MountOptions{
		base:             base{fsID: fsID, reqID: id},
		DisplayName:      req.DisplayName,
		Writable:         req.Writable,
		OpenedFilesLimit: req.OpenedFilesLimit,
	}

	ctx, span := telemetry.StartRequestSpan(context.Background(), telemetry.SpanMount, id, fsID, "mount")
	defer span.End()

	logCtx := logger.WithContext(ctx, logger.NewLogContext(id, fsID).WithKind("mount"))
	logger.DebugCtx(logCtx, "vfsprovider: mount requested", logger.RequestID(id), logger.FileSystemID(fsID))

	if err := p.service.Mount(opts, p.manager, p); err != nil {
		telemetry.RecordError(ctx, err)
		p.settle(id, err)
	}
	return handle
}

// Unmount is the symmetric operation for Provider.Unmount.
func (p *Provider) Unmount(req UnmountRequest) *Deferred {
	id, handle := p.nextHandle("unmount")
	opts := UnmountOptions{base{fsID: req.FileSystemID, reqID: id}}

	ctx, span := telemetry.StartRequestSpan(context.Background(), telemetry.SpanUnmount, id, req.FileSystemID, "unmount")
	defer span.End()

	logCtx := logger.WithContext(ctx, logger.NewLogContext(id, req.FileSystemID).WithKind("unmount"))
	logger.DebugCtx(logCtx, "vfsprovider: unmount requested", logger.RequestID(id), logger.FileSystemID(req.FileSystemID))

	if err := p.service.Unmount(opts, p); err != nil {
		telemetry.RecordError(ctx, err)
		p.settle(id, err)
	}
	return handle
}

// Get is reserved (spec §4.5, §9: "the source returns a null handle;
// this specification marks it NotImplemented"). It always returns an
// already-rejected handle.
func (p *Provider) Get(fileSystemID string) *Deferred {
	handle := NewDeferred()
	handle.Reject(vfserrors.New(vfserrors.ErrNotImplemented, "Provider.Get is not implemented"))
	return handle
}

// OnSuccess settles the deferred handle for requestID. hasMore is
// accepted for symmetry with the RequestManager completion shape but
// mount/unmount never stream; a true value is treated defensively as
// "not yet final" and ignored rather than settling early.
func (p *Provider) OnSuccess(requestID uint32, value RequestValue, hasMore bool) {
	if hasMore {
		return
	}
	p.settle(requestID, nil)
}

// OnError rejects the deferred handle for requestID with errorCode.
func (p *Provider) OnError(requestID uint32, errorCode uint32) {
	p.settle(requestID, &ServiceError{RequestID: requestID, Code: errorCode})
}

func (p *Provider) settle(id uint32, err error) {
	p.mu.Lock()
	entry, ok := p.pendingHandles[id]
	if ok {
		delete(p.pendingHandles, id)
	}
	p.mu.Unlock()
	if !ok {
		return
	}

	outcome := "resolved"
	if err != nil {
		outcome = "rejected"
	}
	if p.metrics != nil {
		p.metrics.RecordMountOutcome(entry.op, outcome)
	}

	if err != nil {
		entry.handle.Reject(err)
		return
	}
	entry.handle.Resolve()
}

// HandleEvent implements EventTarget, fanning eventName out to the
// matching slot in Handlers. A request whose event has no registered
// handler is rejected synchronously with an internal "not implemented"
// code: there is no consumer able to ever answer it.
func (p *Provider) HandleEvent(eventName string, event *Event) {
	var slot func(*Event)
	switch eventName {
	case "unmountrequested":
		slot = p.Handlers.OnUnmountRequested
	case "getmetadatarequested":
		slot = p.Handlers.OnGetMetadataRequested
	case "readdirectoryrequested":
		slot = p.Handlers.OnReadDirectoryRequested
	case "openfilerequested":
		slot = p.Handlers.OnOpenFileRequested
	case "closefilerequested":
		slot = p.Handlers.OnCloseFileRequested
	case "readfilerequested":
		slot = p.Handlers.OnReadFileRequested
	case "abortrequested":
		slot = p.Handlers.OnAbortRequested
	}

	if slot == nil {
		event.Error(internalErrorCodeNotImplemented)
		return
	}
	slot(event)
}
