package api

import "time"

// HistoryEntry records one committed step. Entries are append-only and are
// kept for audit and debugging; the run loop never reads them back for
// control flow.
type HistoryEntry[C any] struct {
	State      StateName
	Context    C
	Scratchpad any
	Events     []Event
	Timestamp  time.Time
}

// AllState is the complete persisted snapshot of one machine instance:
// everything a process needs to resume the instance after a restart.
//
// Context is arbitrary application state owned exclusively by the machine
// instance. Scratchpad holds transient per-step working data and is cleared
// on every committed transition or terminal result. PendingEvents is a FIFO
// queue of events not yet consumed by a node's Prep phase.
type AllState[C any] struct {
	CurrentState  StateName
	Context       C
	Scratchpad    any
	PendingEvents []Event
	History       []HistoryEntry[C]
	Completed     bool
}
