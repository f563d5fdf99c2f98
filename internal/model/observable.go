// Package model provides observable values shared between the hardware side
// and the user interface.
package model

import (
	"sync"
)

// Subscription identifies a subscriber of an Observable.
type Subscription uint64

type subscriber[T any] struct {
	id Subscription
	fn func(T)
}

// Observable holds a value and notifies subscribers when it is set.
//
// Subscribers are called synchronously, in subscription order, on the
// goroutine calling SetValue. No ordering is guaranteed across different
// Observables. Subscribers that touch UI state must be wrapped with OnUI.
type Observable[T any] struct {
	mu    sync.Mutex
	value T
	subs  []subscriber[T]
	next  Subscription
}

// NewObservable returns an Observable holding v.
func NewObservable[T any](v T) *Observable[T] {
	return &Observable[T]{value: v}
}

// Value returns the current value.
func (o *Observable[T]) Value() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// SetValue stores v and notifies every subscriber.
func (o *Observable[T]) SetValue(v T) {
	o.mu.Lock()
	o.value = v
	subs := make([]subscriber[T], len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Subscribe registers fn. If init is true, fn is also called once right away
// with the current value.
func (o *Observable[T]) Subscribe(fn func(T), init bool) Subscription {
	o.mu.Lock()
	o.next++
	id := o.next
	o.subs = append(o.subs, subscriber[T]{id: id, fn: fn})
	v := o.value
	o.mu.Unlock()

	if init {
		fn(v)
	}
	return id
}

// Unsubscribe removes a subscriber. Unknown subscriptions are ignored.
func (o *Observable[T]) Unsubscribe(id Subscription) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, s := range o.subs {
		if s.id == id {
			o.subs = append(o.subs[:i], o.subs[i+1:]...)
			return
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (o *Observable[T]) Subscribers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}
