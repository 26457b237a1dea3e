package ratchet

import "context"

// NodeFuncs assembles a Node from closures, the lightweight alternative to
// implementing the interface on a struct.
//
// NodeID and PostFn are required. A nil PrepFn consumes every pending
// event; a nil ExecFn passes the prep args through as the result and
// leaves the scratchpad untouched. Setting OnErrorFn makes the node a
// FailureHandler, which fully replaces the machine-level error handling
// for this node's failures.
type NodeFuncs[C any] struct {
	NodeID    StateName
	PrepFn    func(ctx context.Context, store *Store[C]) (PrepResult, error)
	ExecFn    func(ctx context.Context, in ExecInput) (ExecResult, error)
	PostFn    func(ctx context.Context, result any, store *Store[C]) (StateResult, error)
	OnErrorFn func(ctx context.Context, cause error, store *Store[C]) (StateResult, error)
}

// NewNode builds a Node from fns. It panics when NodeID or PostFn is
// missing; node sets are statically known program structure.
func NewNode[C any](fns NodeFuncs[C]) Node[C] {
	if fns.NodeID == "" {
		panic("ratchet: NewNode requires a NodeID")
	}
	if fns.PostFn == nil {
		panic("ratchet: NewNode requires a PostFn")
	}
	base := funcNode[C]{fns: fns}
	if fns.OnErrorFn != nil {
		return &funcErrorNode[C]{funcNode: base}
	}
	return &base
}

type funcNode[C any] struct {
	fns NodeFuncs[C]
}

func (n *funcNode[C]) ID() StateName { return n.fns.NodeID }

func (n *funcNode[C]) Prep(ctx context.Context, store *Store[C]) (PrepResult, error) {
	if n.fns.PrepFn == nil {
		return PrepResult{Events: store.TakeAll()}, nil
	}
	return n.fns.PrepFn(ctx, store)
}

func (n *funcNode[C]) Exec(ctx context.Context, in ExecInput) (ExecResult, error) {
	if n.fns.ExecFn == nil {
		return ExecResult{Result: in.Args, Scratchpad: in.Scratchpad}, nil
	}
	return n.fns.ExecFn(ctx, in)
}

func (n *funcNode[C]) Post(ctx context.Context, result any, store *Store[C]) (StateResult, error) {
	return n.fns.PostFn(ctx, result, store)
}

// funcErrorNode adds the FailureHandler behavior; it is a distinct type so
// the machine's type assertion only succeeds when OnErrorFn was provided.
type funcErrorNode[C any] struct {
	funcNode[C]
}

func (n *funcErrorNode[C]) OnError(ctx context.Context, cause error, store *Store[C]) (StateResult, error) {
	return n.fns.OnErrorFn(ctx, cause, store)
}
