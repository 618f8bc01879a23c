package vfsprovider

import (
	"context"
	"sync"

	vfserrors "github.com/marmos91/vfsprovider/pkg/errors"
)

// TaskLoop abstracts "the consumer's task loop" (spec §9): the engine
// generalizes "dispatch to current thread" into enqueueing a task that
// runs later, in order, on whatever scheduler the host provides — a
// browser event loop, a single-thread scheduler, or a channel-backed
// goroutine. The coordinator never blocks on it and never inspects
// what runs it.
type TaskLoop interface {
	// Post enqueues task to run later, in the order Post was called.
	// It returns ErrSchedulingFailed if the loop has been stopped or
	// its queue is saturated; task is never run in that case.
	Post(task func()) error
}

// SerialTaskLoop is the default TaskLoop: a single goroutine draining
// a FIFO channel of tasks, so posted work always runs in post order
// and never concurrently with itself. Grounded on the start/stop/
// context/WaitGroup shape of the teacher's background workers (e.g.
// the cache flusher).
type SerialTaskLoop struct {
	tasks chan func()

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

// NewSerialTaskLoop creates a SerialTaskLoop with the given queue
// capacity and starts its worker goroutine. queueSize <= 0 means an
// unbuffered queue.
func NewSerialTaskLoop(queueSize int) *SerialTaskLoop {
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &SerialTaskLoop{
		tasks:  make(chan func(), queueSize),
		cancel: cancel,
	}
	l.wg.Add(1)
	go l.run(ctx)
	return l
}

func (l *SerialTaskLoop) run(ctx context.Context) {
	defer l.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-l.tasks:
			task()
		}
	}
}

// Post implements TaskLoop.
func (l *SerialTaskLoop) Post(task func()) error {
	l.mu.Lock()
	stopped := l.stopped
	l.mu.Unlock()
	if stopped {
		return vfserrors.New(vfserrors.ErrSchedulingFailed, "task loop stopped")
	}

	select {
	case l.tasks <- task:
		return nil
	default:
	}
	return vfserrors.New(vfserrors.ErrSchedulingFailed, "task loop queue full")
}

// Stop halts the worker goroutine. Queued-but-not-yet-run tasks are
// not guaranteed to run: the worker may still pick up some of them
// before it observes the cancellation, and the rest are dropped,
// matching the spec's note that destroying the provider drops
// outstanding requests without completion. Stop blocks until the
// worker has exited.
func (l *SerialTaskLoop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
}

// InlineTaskLoop runs posted tasks synchronously, on the calling
// goroutine, before Post returns. It is useful for tests that want to
// assert on ordering without coordinating against a background
// goroutine; it is not suitable for production use since it reenters
// the caller's stack and can deadlock if a task tries to Post back
// into a manager call already holding the manager's lock.
type InlineTaskLoop struct{}

// Post implements TaskLoop by running task immediately.
func (InlineTaskLoop) Post(task func()) error {
	task()
	return nil
}
