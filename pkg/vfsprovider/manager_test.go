package vfsprovider

import (
	"testing"

	vfserrors "github.com/marmos91/vfsprovider/pkg/errors"
)

// noopDispatcher never fires an event; tests drive Fulfill/Reject
// directly to control ordering precisely.
type noopDispatcher struct{}

func (noopDispatcher) Dispatch(uint32, RequestKind, RequestOptions) {}

func newTestManager() *RequestManager {
	m := NewRequestManager(InlineTaskLoop{}, nil)
	m.SetDispatcher(noopDispatcher{})
	return m
}

func mustCreate(t *testing.T, m *RequestManager, kind RequestKind, opts RequestOptions, onSuccess func(uint32, RequestValue), onError func(uint32, uint32)) uint32 {
	t.Helper()
	if onSuccess == nil {
		onSuccess = func(uint32, RequestValue) {}
	}
	if onError == nil {
		onError = func(uint32, uint32) {}
	}
	id, err := m.CreateRequest(kind, opts, CompletionCallback{OnSuccess: onSuccess, OnError: onError})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	return id
}

func TestCreateRequest_IDMonotonicity(t *testing.T) {
	m := newTestManager()

	var ids []uint32
	for i := 0; i < 5; i++ {
		id := mustCreate(t, m, RequestGetMetadata, NewGetMetadataOptions("fs1", "/a", 0), nil, nil)
		ids = append(ids, id)
	}

	for i, id := range ids {
		want := uint32(i + 1)
		if id != want {
			t.Errorf("ids[%d] = %d, want %d", i, id, want)
		}
	}
}

func TestCreateRequest_RejectsInvalidKind(t *testing.T) {
	m := newTestManager()
	if _, err := m.CreateRequest(RequestUnknown, NewGetMetadataOptions("fs1", "/a", 0), CompletionCallback{
		OnSuccess: func(uint32, RequestValue) {},
		OnError:   func(uint32, uint32) {},
	}); !vfserrors.IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestCreateRequest_RejectsMismatchedOptions(t *testing.T) {
	m := newTestManager()
	_, err := m.CreateRequest(RequestGetMetadata, NewReadDirectoryOptions("fs1", "/a", 0), CompletionCallback{
		OnSuccess: func(uint32, RequestValue) {},
		OnError:   func(uint32, uint32) {},
	})
	if !vfserrors.IsTypeMismatch(err) {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
}

func TestCreateRequest_RequiresBothCallbacks(t *testing.T) {
	m := newTestManager()
	_, err := m.CreateRequest(RequestGetMetadata, NewGetMetadataOptions("fs1", "/a", 0), CompletionCallback{
		OnSuccess: func(uint32, RequestValue) {},
	})
	if !vfserrors.IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgument for missing OnError, got %v", err)
	}
}

func TestCreateRequest_NoDispatcherConfigured(t *testing.T) {
	m := NewRequestManager(InlineTaskLoop{}, nil)
	_, err := m.CreateRequest(RequestGetMetadata, NewGetMetadataOptions("fs1", "/a", 0), CompletionCallback{
		OnSuccess: func(uint32, RequestValue) {},
		OnError:   func(uint32, uint32) {},
	})
	if !vfserrors.IsNotInitialized(err) {
		t.Fatalf("expected NotInitialized, got %v", err)
	}
}

// TestInOrderSuccessDelivery is property 2 / scenario S2: terminal
// fulfills delivered out of submission order still surface onSuccess
// to native callers in ID order.
func TestInOrderSuccessDelivery(t *testing.T) {
	m := newTestManager()

	var order []uint32
	id1 := mustCreate(t, m, RequestReadFile, NewReadFileOptions("fs1", 0, 0, 4, 0), func(id uint32, v RequestValue) {
		order = append(order, id)
	}, nil)
	id2 := mustCreate(t, m, RequestGetMetadata, NewGetMetadataOptions("fs1", "/a", 0), func(id uint32, v RequestValue) {
		order = append(order, id)
	}, nil)

	// Fulfill id2 (later in submission order) first.
	if err := m.Fulfill(id2, MetadataValue{Metadata: EntryMetadata{Name: "a"}}, false); err != nil {
		t.Fatalf("Fulfill id2: %v", err)
	}
	if len(order) != 0 {
		t.Fatalf("id2 fulfilled out of turn should not yet deliver, got order=%v", order)
	}

	if err := m.Fulfill(id1, ReadFileValue{Data: []byte{0x41, 0x42, 0x43, 0x44}}, false); err != nil {
		t.Fatalf("Fulfill id1: %v", err)
	}

	if len(order) != 2 || order[0] != id1 || order[1] != id2 {
		t.Fatalf("expected delivery order [%d %d], got %v", id1, id2, order)
	}
}

// TestOutOfOrderRejectAllowed is property 3 / scenario S3: reject does
// not wait behind an earlier, still-pending success.
func TestOutOfOrderRejectAllowed(t *testing.T) {
	m := newTestManager()

	var order []string
	id1 := mustCreate(t, m, RequestReadFile, NewReadFileOptions("fs1", 0, 0, 4, 0), func(id uint32, v RequestValue) {
		order = append(order, "success:1")
	}, nil)
	id2 := mustCreate(t, m, RequestGetMetadata, NewGetMetadataOptions("fs1", "/a", 0), nil, func(id uint32, code uint32) {
		order = append(order, "error:2")
	})

	if err := m.Reject(id2, 7); err != nil {
		t.Fatalf("Reject id2: %v", err)
	}
	if err := m.Fulfill(id1, ReadFileValue{Data: []byte("abcd")}, false); err != nil {
		t.Fatalf("Fulfill id1: %v", err)
	}

	if len(order) != 2 || order[0] != "error:2" || order[1] != "success:1" {
		t.Fatalf("expected [error:2 success:1], got %v", order)
	}
}

// TestStreamingConcatenation_ReadDirectory is property 4 / scenario S1.
func TestStreamingConcatenation_ReadDirectory(t *testing.T) {
	m := newTestManager()

	var got ReadDirectoryValue
	id := mustCreate(t, m, RequestReadDirectory, NewReadDirectoryOptions("fs1", "/a", 0), func(_ uint32, v RequestValue) {
		got = v.(ReadDirectoryValue)
	}, nil)

	a := EntryMetadata{IsDirectory: true, Name: "x"}
	b := EntryMetadata{Name: "y", Size: 10}
	if err := m.Fulfill(id, ReadDirectoryValue{Entries: []EntryMetadata{a}}, true); err != nil {
		t.Fatalf("Fulfill (chunk 1): %v", err)
	}
	if err := m.Fulfill(id, ReadDirectoryValue{Entries: []EntryMetadata{b}}, false); err != nil {
		t.Fatalf("Fulfill (terminal): %v", err)
	}

	if len(got.Entries) != 2 || got.Entries[0].Name != "x" || got.Entries[1].Name != "y" {
		t.Fatalf("expected entries [x y], got %+v", got.Entries)
	}
}

// TestStreamingConcatenation_ReadFile is scenario S4.
func TestStreamingConcatenation_ReadFile(t *testing.T) {
	m := newTestManager()

	var got ReadFileValue
	id := mustCreate(t, m, RequestReadFile, NewReadFileOptions("fs1", 0, 0, 5, 0), func(_ uint32, v RequestValue) {
		got = v.(ReadFileValue)
	}, nil)

	if err := m.Fulfill(id, ReadFileValue{Data: []byte{0x41, 0x42}}, true); err != nil {
		t.Fatalf("chunk 1: %v", err)
	}
	if err := m.Fulfill(id, ReadFileValue{Data: []byte{0x43}}, true); err != nil {
		t.Fatalf("chunk 2: %v", err)
	}
	if err := m.Fulfill(id, ReadFileValue{Data: []byte{0x44, 0x45}}, false); err != nil {
		t.Fatalf("terminal: %v", err)
	}

	want := []byte{0x41, 0x42, 0x43, 0x44, 0x45}
	if string(got.Data) != string(want) {
		t.Fatalf("got bytes %v, want %v", got.Data, want)
	}
}

// TestStreamingConcatenation_Metadata is property 4's metadata case:
// concat is a no-op, so the first chunk adopted wins.
func TestStreamingConcatenation_Metadata(t *testing.T) {
	m := newTestManager()

	var got MetadataValue
	id := mustCreate(t, m, RequestGetMetadata, NewGetMetadataOptions("fs1", "/a", 0), func(_ uint32, v RequestValue) {
		got = v.(MetadataValue)
	}, nil)

	meta1 := EntryMetadata{Name: "first"}
	meta2 := EntryMetadata{Name: "second"}
	if err := m.Fulfill(id, MetadataValue{Metadata: meta1}, true); err != nil {
		t.Fatalf("chunk 1: %v", err)
	}
	if err := m.Fulfill(id, MetadataValue{Metadata: meta2}, false); err != nil {
		t.Fatalf("terminal: %v", err)
	}

	if got.Metadata.Name != "first" {
		t.Fatalf("expected first chunk to win, got %q", got.Metadata.Name)
	}
}

// TestFulfill_TypeMismatch is property 6.
func TestFulfill_TypeMismatch(t *testing.T) {
	m := newTestManager()
	id := mustCreate(t, m, RequestReadFile, NewReadFileOptions("fs1", 0, 0, 4, 0), nil, nil)

	err := m.Fulfill(id, ReadDirectoryValue{}, false)
	if !vfserrors.IsTypeMismatch(err) {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}

	// Accumulator must not be corrupted: a correctly typed fulfill still
	// succeeds afterward.
	if err := m.Fulfill(id, ReadFileValue{Data: []byte("ok")}, false); err != nil {
		t.Fatalf("recovery fulfill should succeed, got %v", err)
	}
}

// TestFulfillReject_UnknownID is property 7.
func TestFulfillReject_UnknownID(t *testing.T) {
	m := newTestManager()

	if err := m.Fulfill(9999, NewUnitValue(RequestMount), false); !vfserrors.IsNotFound(err) {
		t.Fatalf("Fulfill unknown id: expected NotFound, got %v", err)
	}
	if err := m.Reject(9999, 1); !vfserrors.IsNotFound(err) {
		t.Fatalf("Reject unknown id: expected NotFound, got %v", err)
	}
}

// TestIdempotentTerminal is property 8.
func TestIdempotentTerminal(t *testing.T) {
	m := newTestManager()
	id := mustCreate(t, m, RequestGetMetadata, NewGetMetadataOptions("fs1", "/a", 0), nil, nil)

	if err := m.Fulfill(id, MetadataValue{Metadata: EntryMetadata{Name: "a"}}, false); err != nil {
		t.Fatalf("first terminal fulfill: %v", err)
	}
	if err := m.Fulfill(id, MetadataValue{Metadata: EntryMetadata{Name: "b"}}, false); !vfserrors.IsNotFound(err) {
		t.Fatalf("second fulfill: expected NotFound, got %v", err)
	}
	if err := m.Reject(id, 1); !vfserrors.IsNotFound(err) {
		t.Fatalf("reject after terminal: expected NotFound, got %v", err)
	}
}

// TestAbortDoesNotRemoveTarget is property 9 / scenario S6: Abort
// completing does not remove its target request, and a pending target
// still holds up later-queued successors until it terminates itself.
func TestAbortDoesNotRemoveTarget(t *testing.T) {
	m := newTestManager()

	var order []string
	id1 := mustCreate(t, m, RequestReadFile, NewReadFileOptions("fs1", 0, 0, 4, 0), func(uint32, RequestValue) {
		order = append(order, "success:1")
	}, func(uint32, uint32) {
		order = append(order, "error:1")
	})
	id2 := mustCreate(t, m, RequestAbort, NewAbortOptions("fs1", id1, 0), func(uint32, RequestValue) {
		order = append(order, "success:2")
	}, nil)

	if err := m.Fulfill(id2, NewUnitValue(RequestAbort), false); err != nil {
		t.Fatalf("fulfill abort: %v", err)
	}
	if len(order) != 0 {
		t.Fatalf("abort's own completion must wait behind still-pending id1, got %v", order)
	}
	// id1 is still pending (not yet terminal) and id2 is completed but
	// undelivered, blocked behind it at the head of the queue — both
	// remain tracked until id1 drains.
	if m.PendingCount() != 2 {
		t.Fatalf("expected both id1 and id2 still tracked, pendingCount=%d", m.PendingCount())
	}

	const cancelledCode uint32 = 99
	if err := m.Reject(id1, cancelledCode); err != nil {
		t.Fatalf("reject id1: %v", err)
	}

	if len(order) != 2 || order[0] != "error:1" || order[1] != "success:2" {
		t.Fatalf("expected [error:1 success:2], got %v", order)
	}
}

func TestQueueDepth(t *testing.T) {
	m := newTestManager()
	if m.QueueDepth() != 0 {
		t.Fatalf("expected empty queue, got %d", m.QueueDepth())
	}

	id1 := mustCreate(t, m, RequestGetMetadata, NewGetMetadataOptions("fs1", "/a", 0), nil, nil)
	mustCreate(t, m, RequestGetMetadata, NewGetMetadataOptions("fs1", "/b", 0), nil, nil)

	if m.QueueDepth() != 2 {
		t.Fatalf("expected queue depth 2, got %d", m.QueueDepth())
	}

	if err := m.Fulfill(id1, MetadataValue{Metadata: EntryMetadata{Name: "a"}}, false); err != nil {
		t.Fatalf("Fulfill: %v", err)
	}
	if m.QueueDepth() != 1 {
		t.Fatalf("expected queue depth 1 after drain, got %d", m.QueueDepth())
	}
}
