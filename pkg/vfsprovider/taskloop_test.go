package vfsprovider

import (
	"sync"
	"testing"
	"time"
)

func TestSerialTaskLoop_RunsTasksInPostOrder(t *testing.T) {
	loop := NewSerialTaskLoop(8)
	defer loop.Stop()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(5)

	for i := 0; i < 5; i++ {
		n := i
		if err := loop.Post(func() {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			wg.Done()
		}); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}

	waitWithTimeout(t, &wg, time.Second)

	mu.Lock()
	defer mu.Unlock()
	for i, n := range order {
		if n != i {
			t.Fatalf("expected in-order execution, got %v", order)
		}
	}
}

func TestSerialTaskLoop_PostAfterStopFails(t *testing.T) {
	loop := NewSerialTaskLoop(1)
	loop.Stop()

	if err := loop.Post(func() {}); err == nil {
		t.Fatal("expected an error posting to a stopped loop")
	}
}

func TestSerialTaskLoop_QueueFullFailsFast(t *testing.T) {
	loop := NewSerialTaskLoop(0)
	defer loop.Stop()

	block := make(chan struct{})
	if err := loop.Post(func() { <-block }); err != nil {
		t.Fatalf("first Post: %v", err)
	}

	// The worker is now blocked draining the first task, and an
	// unbuffered channel has no room for a second queued task.
	deadline := time.Now().Add(200 * time.Millisecond)
	var err error
	for time.Now().Before(deadline) {
		if err = loop.Post(func() {}); err != nil {
			break
		}
	}
	close(block)
	if err == nil {
		t.Fatal("expected scheduling failure on a saturated unbuffered queue")
	}
}

func TestInlineTaskLoop_RunsImmediately(t *testing.T) {
	var ran bool
	loop := InlineTaskLoop{}
	if err := loop.Post(func() { ran = true }); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if !ran {
		t.Fatal("InlineTaskLoop should run the task before Post returns")
	}
}

func waitWithTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for tasks to complete")
	}
}
