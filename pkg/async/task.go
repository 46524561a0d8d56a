// Package async runs units of work on their own goroutine behind a Task
// handle. The completion callback fires exactly once after the work finishes,
// on both the success and the failure path, and the work's error is exposed
// through the handle instead of being swallowed.
package async

import "sync"

// Task is a handle to a unit of work running in the background.
type Task struct {
	done chan struct{}

	mu        sync.Mutex
	err       error
	finished  bool
	completes []func(error)
}

// Go starts fn on a new goroutine and returns its Task handle.
func Go(fn func() error) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		err := fn()
		t.finish(err)
	}()
	return t
}

func (t *Task) finish(err error) {
	t.mu.Lock()
	t.err = err
	t.finished = true
	callbacks := t.completes
	t.completes = nil
	t.mu.Unlock()

	for _, cb := range callbacks {
		cb(err)
	}
	close(t.done)
}

// OnComplete registers a callback invoked exactly once with the work's error
// (nil on success) after the work finishes. A callback registered after
// completion is invoked immediately.
func (t *Task) OnComplete(cb func(error)) {
	if cb == nil {
		return
	}
	t.mu.Lock()
	if !t.finished {
		t.completes = append(t.completes, cb)
		t.mu.Unlock()
		return
	}
	err := t.err
	t.mu.Unlock()
	cb(err)
}

// Wait blocks until the work finishes and returns its error.
func (t *Task) Wait() error {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Done returns a channel closed when the work has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the work's error, or nil if it succeeded or has not finished.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
