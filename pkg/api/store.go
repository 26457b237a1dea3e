package api

import (
	"context"
	"time"
)

// Store holds the complete state of one machine instance (AllState)
// together with the configured retry policy.
//
// A Store is exclusively owned by a single machine instance and performs no
// internal locking: the run loop is strictly sequential within one Resume
// call, and serializing concurrent Resume calls on the same instance ID is
// a caller responsibility. Nested sub-machines own their own Store,
// related to the parent only by value snapshots, never shared references.
type Store[C any] struct {
	state      AllState[C]
	maxRetries int
	retryDelay func(attempt int) time.Duration
}

// NewStore creates a Store with the given initial context and retry
// policy. maxRetries counts additional attempts after the first failure;
// zero means fail immediately.
func NewStore[C any](initial C, maxRetries int, retryDelay func(attempt int) time.Duration) *Store[C] {
	return &Store[C]{
		state:      AllState[C]{Context: initial},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Retry invokes fn, retrying on error according to the configured policy.
// After the final attempt the last error is returned. The attempt counter
// is local to this call, so wrapping two phases in independent Retry calls
// gives each phase its own budget.
//
// The wait between attempts honors ctx; cancellation surfaces as ctx.Err()
// and follows the normal escalation path at the call site.
func (s *Store[C]) Retry(ctx context.Context, fn func() error) error {
	var last error
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		last = err
		if attempt >= s.maxRetries {
			return last
		}
		if s.retryDelay == nil {
			continue
		}
		delay := s.retryDelay(attempt + 1)
		if delay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Context returns the machine's application context value.
func (s *Store[C]) Context() C { return s.state.Context }

// SetContext replaces the machine's application context value. Nodes call
// this from Post before returning a committing result.
func (s *Store[C]) SetContext(c C) { s.state.Context = c }

// Scratchpad returns the transient per-step working data, or nil.
func (s *Store[C]) Scratchpad() any { return s.state.Scratchpad }

// SetScratchpad replaces the scratchpad. The run loop calls this with the
// value returned by Exec; the scratchpad is cleared again on every
// committed transition or terminal result.
func (s *Store[C]) SetScratchpad(v any) { s.state.Scratchpad = v }

// ClearScratchpad drops the scratchpad.
func (s *Store[C]) ClearScratchpad() { s.state.Scratchpad = nil }

// CurrentState returns the name of the state whose node runs next.
func (s *Store[C]) CurrentState() StateName { return s.state.CurrentState }

// SetCurrentState records a committed transition target. It is called by
// the run loop; nodes transition by returning a StateResult instead.
func (s *Store[C]) SetCurrentState(n StateName) { s.state.CurrentState = n }

// Completed reports whether a terminal result has been committed.
func (s *Store[C]) Completed() bool { return s.state.Completed }

// SetCompleted marks the instance terminal. Further Resume calls will not
// advance it.
func (s *Store[C]) SetCompleted() { s.state.Completed = true }

// PendingEvents returns a copy of the FIFO queue of unconsumed events.
func (s *Store[C]) PendingEvents() []Event {
	return append([]Event(nil), s.state.PendingEvents...)
}

// Enqueue appends events to the pending queue, preserving order.
// Enqueue and the Take methods are the only mutation paths for the queue.
func (s *Store[C]) Enqueue(events ...Event) {
	s.state.PendingEvents = append(s.state.PendingEvents, events...)
}

// TakeAll dequeues and returns every pending event in FIFO order.
func (s *Store[C]) TakeAll() []Event {
	taken := s.state.PendingEvents
	s.state.PendingEvents = nil
	return taken
}

// TakeMatching dequeues the events for which keep returns true, preserving
// the relative order of both the taken events and the remainder.
func (s *Store[C]) TakeMatching(keep func(Event) bool) []Event {
	var taken, rest []Event
	for _, ev := range s.state.PendingEvents {
		if keep(ev) {
			taken = append(taken, ev)
		} else {
			rest = append(rest, ev)
		}
	}
	s.state.PendingEvents = rest
	return taken
}

// ExecutionTrace returns a copy of the append-only history of committed
// steps, ordered by commit time.
func (s *Store[C]) ExecutionTrace() []HistoryEntry[C] {
	return append([]HistoryEntry[C](nil), s.state.History...)
}

// AppendHistory records one committed step. Called by the run loop exactly
// once per commit.
func (s *Store[C]) AppendHistory(e HistoryEntry[C]) {
	s.state.History = append(s.state.History, e)
}

// Snapshot returns a value copy of the complete state, safe to hand across
// a persistence boundary. Slice fields are copied; the context is copied
// by value.
func (s *Store[C]) Snapshot() AllState[C] {
	snap := s.state
	snap.PendingEvents = append([]Event(nil), s.state.PendingEvents...)
	snap.History = append([]HistoryEntry[C](nil), s.state.History...)
	return snap
}

// Restore replaces the in-memory state wholesale, including context,
// scratchpad, pending events and history.
func (s *Store[C]) Restore(st AllState[C]) { s.state = st }
