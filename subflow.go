package ratchet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ratchetfsm/ratchet/internal/machine"
	"github.com/ratchetfsm/ratchet/internal/persistence"
)

// ChildOutcome is the translated result of advancing a nested machine by
// one parent step. Actions are the child's emitted actions, already
// translated into parent shape.
type ChildOutcome struct {
	Result  StateResult
	Actions []Event
	State   StateName
}

// SubMachineConfig describes a SubMachineNode: a parent state that hosts a
// fully independent nested machine.
//
// The child machine owns its own context, states and events. Its complete
// serialized state rides in the parent's scratchpad, so a parent-level
// checkpoint preserves sub-workflow progress across process restarts. The
// two machines never share live references across a checkpoint boundary:
// the child is rebuilt from the snapshot on every Exec.
type SubMachineConfig[PC, CC any] struct {
	// ID is the parent state this node backs.
	ID StateName

	// Child is the nested machine's config; it is validated when the node
	// is constructed.
	Child Config[CC]

	// ChildInstanceID scopes the nested machine's snapshot inside the
	// parent scratchpad.
	ChildInstanceID string

	// ChildContext is the initial context for a fresh child.
	ChildContext CC

	// ChildHooks observes the nested machine; may be nil.
	ChildHooks Hooks[CC]

	// TranslateEvents maps the parent events consumed this step into
	// child events. Nil passes them through unchanged.
	TranslateEvents func(parent []Event) []Event

	// TranslateActions maps child actions back into parent-shaped events.
	// Nil passes them through unchanged.
	TranslateActions func(child []Event) []Event

	// OnChild decides the parent's StateResult from the child outcome.
	// When nil, a terminal child transitions the parent to Completion
	// carrying the translated actions, and anything else keeps the parent
	// waiting.
	OnChild func(ctx context.Context, child ChildOutcome, store *Store[PC]) (StateResult, error)

	// Completion is the parent state entered when the child finishes and
	// no OnChild override is set.
	Completion StateName
}

// SubMachineNode is a Node whose Exec phase advances a nested machine.
type SubMachineNode[PC, CC any] struct {
	cfg SubMachineConfig[PC, CC]
}

// NewSubMachineNode validates cfg and returns the composition node.
func NewSubMachineNode[PC, CC any](cfg SubMachineConfig[PC, CC]) (*SubMachineNode[PC, CC], error) {
	if cfg.ID == "" {
		return nil, errors.New("submachine node requires an ID")
	}
	if cfg.ChildInstanceID == "" {
		return nil, errors.New("submachine node requires a child instance id")
	}
	if cfg.OnChild == nil && cfg.Completion == "" {
		return nil, errors.New("submachine node requires OnChild or a Completion state")
	}
	if err := cfg.Child.Validate(); err != nil {
		return nil, fmt.Errorf("invalid child config: %w", err)
	}
	return &SubMachineNode[PC, CC]{cfg: cfg}, nil
}

func (n *SubMachineNode[PC, CC]) ID() StateName { return n.cfg.ID }

// Prep consumes every pending parent event for translation into the child.
func (n *SubMachineNode[PC, CC]) Prep(ctx context.Context, store *Store[PC]) (PrepResult, error) {
	return PrepResult{Events: store.TakeAll()}, nil
}

// Exec rebuilds the child from the scratchpad snapshot (when present),
// advances it with the translated events, and returns the child outcome
// together with a fresh snapshot as the new scratchpad.
func (n *SubMachineNode[PC, CC]) Exec(ctx context.Context, in ExecInput) (ExecResult, error) {
	arena := persistence.NewMemoryAdapter[CC]()

	if data, ok := in.Scratchpad.([]byte); ok && len(data) > 0 {
		snap, err := persistence.DecodeState[CC](data)
		if err != nil {
			return ExecResult{}, fmt.Errorf("decode child state: %w", err)
		}
		if err := arena.Write(ctx, n.cfg.ChildInstanceID, snap); err != nil {
			return ExecResult{}, err
		}
	}

	child, err := machine.New(n.cfg.Child, arena, n.cfg.ChildContext, n.cfg.ChildInstanceID, n.cfg.ChildHooks)
	if err != nil {
		return ExecResult{}, fmt.Errorf("build child machine: %w", err)
	}
	if err := child.Initialize(ctx); err != nil {
		return ExecResult{}, err
	}
	if _, err := child.LoadPersistedState(ctx); err != nil {
		return ExecResult{}, err
	}

	events := in.Events
	if n.cfg.TranslateEvents != nil {
		events = n.cfg.TranslateEvents(events)
	}

	res, err := child.Resume(ctx, events)
	if err != nil {
		return ExecResult{}, fmt.Errorf("child resume: %w", err)
	}

	actions := res.Actions
	if n.cfg.TranslateActions != nil {
		actions = n.cfg.TranslateActions(actions)
	}

	snapshot, err := persistence.EncodeState(child.Store().Snapshot())
	if err != nil {
		return ExecResult{}, fmt.Errorf("encode child state: %w", err)
	}

	return ExecResult{
		Result: ChildOutcome{
			Result:  res,
			Actions: actions,
			State:   child.CurrentState(),
		},
		Scratchpad: snapshot,
	}, nil
}

// Post turns the child outcome into the parent's StateResult.
func (n *SubMachineNode[PC, CC]) Post(ctx context.Context, result any, store *Store[PC]) (StateResult, error) {
	out, ok := result.(ChildOutcome)
	if !ok {
		return StateResult{}, fmt.Errorf("unexpected submachine result type %T", result)
	}
	if n.cfg.OnChild != nil {
		return n.cfg.OnChild(ctx, out, store)
	}
	if out.Result.Outcome == OutcomeTerminal {
		return Transition(n.cfg.Completion, out.Actions...), nil
	}
	return Waiting(), nil
}
