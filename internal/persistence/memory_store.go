package persistence

import (
	"context"
	"sync"

	"github.com/ratchetfsm/ratchet/pkg/api"
)

// MemoryAdapter is a goroutine-safe in-memory PersistenceAdapter backed by
// maps. It is non-durable and intended for tests, local development, and
// as the snapshot arena for nested sub-machines.
type MemoryAdapter[C any] struct {
	mu     sync.RWMutex
	states map[string]api.AllState[C]
	events map[string][]api.Event
}

var _ api.PersistenceAdapter[any] = (*MemoryAdapter[any])(nil)

// NewMemoryAdapter creates an empty MemoryAdapter.
func NewMemoryAdapter[C any]() *MemoryAdapter[C] {
	return &MemoryAdapter[C]{
		states: make(map[string]api.AllState[C]),
		events: make(map[string][]api.Event),
	}
}

func (a *MemoryAdapter[C]) Write(ctx context.Context, instanceID string, state api.AllState[C]) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	state.PendingEvents = append([]api.Event(nil), state.PendingEvents...)
	state.History = append([]api.HistoryEntry[C](nil), state.History...)
	a.states[instanceID] = state
	return nil
}

func (a *MemoryAdapter[C]) WriteEvents(ctx context.Context, instanceID string, events []api.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.events[instanceID] = append(a.events[instanceID], events...)
	return nil
}

func (a *MemoryAdapter[C]) Read(ctx context.Context, instanceID string) (api.AllState[C], bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st, ok := a.states[instanceID]
	if !ok {
		return api.AllState[C]{}, false, nil
	}
	st.PendingEvents = append([]api.Event(nil), st.PendingEvents...)
	st.History = append([]api.HistoryEntry[C](nil), st.History...)
	return st, true, nil
}

// Events returns the append-only event log for an instance, in write
// order. Test helper; not part of the adapter interface.
func (a *MemoryAdapter[C]) Events(instanceID string) []api.Event {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return append([]api.Event(nil), a.events[instanceID]...)
}
