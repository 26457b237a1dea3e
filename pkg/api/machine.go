package api

import (
	"context"
	"fmt"
)

// PersistenceAdapter stores machine snapshots and input events durably.
// The machine calls WriteEvents before enqueueing new input events and
// Write after every committed step. Durability guarantees are entirely the
// adapter's responsibility; the core assumes nothing else about the
// backing store.
type PersistenceAdapter[C any] interface {
	Write(ctx context.Context, instanceID string, state AllState[C]) error
	WriteEvents(ctx context.Context, instanceID string, events []Event) error
	// Read returns the stored snapshot for the instance; ok is false when
	// none exists.
	Read(ctx context.Context, instanceID string) (state AllState[C], ok bool, err error)
}

// Machine drives one resumable workflow instance. Implementations are
// constructed through the root package.
type Machine[C any] interface {
	// Initialize performs one-time setup. It is idempotent: repeated or
	// concurrent calls run the setup exactly once.
	Initialize(ctx context.Context) error

	// LoadPersistedState reads the adapter's snapshot for this instance
	// and, when present, replaces the in-memory state wholesale. It
	// reports whether a snapshot was found.
	LoadPersistedState(ctx context.Context) (bool, error)

	// Resume persists and enqueues newEvents, then drives the run loop
	// until a node reaches a non-transitioning result. It returns that
	// result, or an error when an unhandled failure propagates.
	Resume(ctx context.Context, newEvents []Event) (StateResult, error)

	// Store exposes the shared store owned by this machine.
	Store() *Store[C]

	InstanceID() string
	CurrentState() StateName
}

// UnknownStateError reports a current state or transition target that does
// not name any configured node. It is escalated through the machine-level
// error handler only, since there is no node to consult.
type UnknownStateError struct {
	State StateName
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("Unknown state: %s", e.State)
}
