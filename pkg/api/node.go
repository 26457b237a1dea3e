package api

import "context"

// PrepResult is what a node's Prep phase hands to Exec: the arguments to
// operate on and the pending events it chose to consume for this step.
type PrepResult struct {
	Args   any
	Events []Event
}

// ExecInput bundles the inputs to a node's Exec phase. Exec must work from
// these inputs alone; it does not see the store.
type ExecInput struct {
	Args       any
	Events     []Event
	Scratchpad any
}

// ExecResult is the output of a node's Exec phase: a result payload for
// Post and the new scratchpad value.
type ExecResult struct {
	Result     any
	Scratchpad any
}

// Node encapsulates the work of exactly one named state. The contract is
// uniform across all states so the machine can orchestrate them
// generically:
//
//   - Prep reads current durable state and decides what to operate on and
//     which pending events to consume. It may fail and is wrapped in the
//     store's retry helper.
//   - Exec performs the (potentially side-effecting) work using only the
//     inputs from Prep. It may fail and is retried independently of Prep.
//   - Post commits: it decides whether to stay (Waiting), move on
//     (Transition), or finish (Terminal). Post is never retried; an error
//     here escalates like an Exec failure that exhausted its retries.
//
// A Node may additionally implement FailureHandler to override the
// machine-level error handling for failures of its own lifecycle.
type Node[C any] interface {
	ID() StateName
	Prep(ctx context.Context, store *Store[C]) (PrepResult, error)
	Exec(ctx context.Context, in ExecInput) (ExecResult, error)
	Post(ctx context.Context, result any, store *Store[C]) (StateResult, error)
}

// FailureHandler is optionally implemented by nodes. When the implementing
// node's step fails fatally, OnError fully replaces both the machine-level
// handler and the default error-state fallback; its result is applied
// exactly as if Post had returned it.
type FailureHandler[C any] interface {
	OnError(ctx context.Context, cause error, store *Store[C]) (StateResult, error)
}
