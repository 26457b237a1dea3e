// Package ratchet provides a generic, persistent, retryable finite-state
// machine engine for long-running, resumable workflows.
//
// A workflow is a set of named states, each backed by a Node with a
// uniform three-phase lifecycle: Prep reads durable state and picks the
// pending events to consume, Exec does the work from those inputs alone,
// and Post commits by returning a StateResult (waiting, transition, or
// terminal). The machine drives the current node in a loop, wraps Prep and
// Exec in independent retry budgets, checkpoints the full state snapshot
// through a pluggable PersistenceAdapter after every committed step, and
// escalates fatal failures through a layered policy: per-node handler,
// then machine-level handler, then a fallback transition to a configured
// error state.
//
// # Core Concepts
//
//  1. Machine — the run loop, built from a Config plus a PersistenceAdapter,
//     an initial context value, and an instance ID.
//  2. Node — one state's prep/exec/post implementation; build one from
//     closures with NewNode or implement the interface directly.
//  3. Store — the shared state container handed to Prep and Post: context,
//     scratchpad, the FIFO pending-event queue, the execution trace, and
//     the generic Retry helper.
//  4. PersistenceAdapter — durable storage. Memory, SQLite, Postgres and
//     Redis adapters ship in this module; any implementation of the
//     three-method interface works.
//  5. Hooks — optional observers for transitions and errors (logging,
//     metrics, composite).
//
// # A minimal machine
//
//	cfg := ratchet.New[Counter]("initial", "error").
//		Node(initialNode, processingNode, finalNode, errorNode).
//		MaxRetries(3).
//		RetryDelay(ratchet.ExponentialDelay(100*time.Millisecond, 2.0, 2*time.Second)).
//		MustBuild()
//
//	m, err := ratchet.NewMachine(cfg, ratchet.NewMemoryAdapter[Counter](), Counter{}, "job-42", nil)
//	...
//	_ = m.Initialize(ctx)
//	res, err := m.Resume(ctx, []ratchet.Event{ratchet.NewEvent("start", nil)})
//
// Resume drives the loop until a node returns a waiting or terminal
// result. Later Resume calls — in the same process or after a restart
// preceded by LoadPersistedState — pick up exactly where the last
// checkpoint left off.
//
// # Composition
//
// A state can host a fully independent nested machine via SubMachineNode:
// parent events are translated into child events, the child is advanced
// with its own Resume, child actions are translated back, and the child's
// complete serialized state rides in the parent's scratchpad so a parent
// checkpoint preserves sub-workflow progress across restarts.
//
// # What ratchet does not do
//
// The engine does not decide when to run: callers invoke Resume from
// whatever triggers suit them (webhook, cron, CLI). It also provides no
// cross-process locking; concurrent Resume calls against the same instance
// ID must be serialized by the caller.
package ratchet
