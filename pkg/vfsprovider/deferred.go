package vfsprovider

import "sync"

// Deferred is a one-shot settable completion handle returned by the
// provider facade's Mount/Unmount/Get calls (spec §9: "coroutine/
// promise-like deferred handles for mount/unmount... model as a
// one-shot completion value, settable exactly once, observable either
// by callback or by a future-like adapter").
//
// Resolve and Reject are each safe to call from any goroutine; only
// the first call (whichever arrives first) has any effect.
type Deferred struct {
	mu       sync.Mutex
	once     sync.Once
	done     chan struct{}
	err      error
	settled  bool
	onSettle []func(error)
}

// NewDeferred returns an unsettled Deferred.
func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// Resolve settles d successfully. A Resolve or Reject after the first
// settlement is a no-op.
func (d *Deferred) Resolve() {
	d.settle(nil)
}

// Reject settles d with err. err must be non-nil.
func (d *Deferred) Reject(err error) {
	d.settle(err)
}

func (d *Deferred) settle(err error) {
	d.once.Do(func() {
		d.mu.Lock()
		d.err = err
		d.settled = true
		callbacks := d.onSettle
		d.onSettle = nil
		d.mu.Unlock()

		close(d.done)
		for _, cb := range callbacks {
			cb(err)
		}
	})
}

// OnSettle registers a callback invoked once d settles, with the
// resolved (nil) or rejected (non-nil) error. If d has already
// settled, the callback runs synchronously before OnSettle returns.
func (d *Deferred) OnSettle(cb func(err error)) {
	d.mu.Lock()
	if d.settled {
		err := d.err
		d.mu.Unlock()
		cb(err)
		return
	}
	d.onSettle = append(d.onSettle, cb)
	d.mu.Unlock()
}

// Done returns a channel closed once d settles.
func (d *Deferred) Done() <-chan struct{} {
	return d.done
}

// Wait blocks until d settles and returns its error (nil on success).
func (d *Deferred) Wait() error {
	<-d.done
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Settled reports whether d has already settled.
func (d *Deferred) Settled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}
