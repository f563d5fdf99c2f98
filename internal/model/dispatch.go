package model

import "sync"

// Dispatcher runs functions on the UI goroutine. Implementations must not run
// fn synchronously when called from another goroutine.
type Dispatcher interface {
	CallAfter(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// CallAfter calls f(fn).
func (f DispatcherFunc) CallAfter(fn func()) {
	f(fn)
}

// Immediate runs every function right away. Only valid when all notifications
// already happen on the UI goroutine, as in tests.
var Immediate Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// OnUI wraps a subscriber so that it always runs through d.
func OnUI[T any](d Dispatcher, fn func(T)) func(T) {
	return func(v T) {
		d.CallAfter(func() { fn(v) })
	}
}

// Queue is a Dispatcher that defers functions until Flush is called.
type Queue struct {
	mu      sync.Mutex
	pending []func()
}

// CallAfter queues fn.
func (q *Queue) CallAfter(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Len returns the number of queued functions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush runs the queued functions in order, including those queued while
// flushing.
func (q *Queue) Flush() {
	for {
		q.mu.Lock()
		pending := q.pending
		q.pending = nil
		q.mu.Unlock()
		if len(pending) == 0 {
			return
		}
		for _, fn := range pending {
			fn()
		}
	}
}
