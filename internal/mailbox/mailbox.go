// Package mailbox provides a single-slot, latest-wins handoff between
// triggers and the worker.
package mailbox

import (
	"context"
	"sync"
)

// Mailbox holds at most one pending value. Put overwrites whatever is
// waiting, so bursts of triggers collapse into one.
type Mailbox[T any] struct {
	mu     sync.Mutex
	val    *T
	signal chan struct{}
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{signal: make(chan struct{}, 1)}
}

// Put stores v, replacing any pending value. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.val = &v
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Ready is signalled when a value may be waiting. Receivers must follow
// up with TryTake, which can come back empty.
func (m *Mailbox[T]) Ready() <-chan struct{} { return m.signal }

// Take blocks until a value is available or ctx is done.
func (m *Mailbox[T]) Take(ctx context.Context) (T, bool) {
	for {
		if v, ok := m.TryTake(); ok {
			return v, true
		}
		select {
		case <-m.signal:
		case <-ctx.Done():
			var zero T
			return zero, false
		}
	}
}

// TryTake returns the pending value and clears the slot.
func (m *Mailbox[T]) TryTake() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.val == nil {
		var zero T
		return zero, false
	}
	v := *m.val
	m.val = nil
	return v, true
}

// Pending reports whether a value is waiting.
func (m *Mailbox[T]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.val != nil
}
