package ratchet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type reviewCtx struct {
	DocID string
}

type checklistCtx struct {
	ItemsChecked int
}

// childChecklistConfig builds a nested machine that waits in "collect"
// until an "approve" event arrives, then finishes and emits a
// "checklist_done" action.
func childChecklistConfig() Config[checklistCtx] {
	collect := NewNode(NodeFuncs[checklistCtx]{
		NodeID: "collect",
		ExecFn: func(ctx context.Context, in ExecInput) (ExecResult, error) {
			return ExecResult{Result: in.Events, Scratchpad: in.Scratchpad}, nil
		},
		PostFn: func(ctx context.Context, result any, store *Store[checklistCtx]) (StateResult, error) {
			events, _ := result.([]Event)
			for _, ev := range events {
				if ev.Type == "approve" {
					return Terminal(NewEvent("checklist_done", "all-clear")), nil
				}
			}
			return Waiting(), nil
		},
	})
	failed := NewNode(NodeFuncs[checklistCtx]{
		NodeID: "failed",
		PostFn: func(ctx context.Context, result any, store *Store[checklistCtx]) (StateResult, error) {
			return Waiting(), nil
		},
	})
	return New[checklistCtx]("collect", "failed").Node(collect, failed).MustBuild()
}

func reviewParentConfig(t *testing.T) Config[reviewCtx] {
	t.Helper()

	sub, err := NewSubMachineNode(SubMachineConfig[reviewCtx, checklistCtx]{
		ID:              "review",
		Child:           childChecklistConfig(),
		ChildInstanceID: "review-checklist",
		Completion:      "published",
		TranslateEvents: func(parent []Event) []Event {
			out := make([]Event, 0, len(parent))
			for _, ev := range parent {
				if ev.Type == "editor_approval" {
					out = append(out, NewEvent("approve", ev.Payload))
					continue
				}
				out = append(out, ev)
			}
			return out
		},
		TranslateActions: func(child []Event) []Event {
			out := make([]Event, 0, len(child))
			for _, ev := range child {
				if ev.Type == "checklist_done" {
					out = append(out, NewEvent("review_complete", ev.Payload))
					continue
				}
				out = append(out, ev)
			}
			return out
		},
	})
	require.NoError(t, err)

	// published keeps its queue intact so the test can observe the
	// translated actions.
	published := NewNode(NodeFuncs[reviewCtx]{
		NodeID: "published",
		PrepFn: func(ctx context.Context, store *Store[reviewCtx]) (PrepResult, error) {
			return PrepResult{}, nil
		},
		PostFn: func(ctx context.Context, result any, store *Store[reviewCtx]) (StateResult, error) {
			return Waiting(), nil
		},
	})
	failed := NewNode(NodeFuncs[reviewCtx]{
		NodeID: "failed",
		PostFn: func(ctx context.Context, result any, store *Store[reviewCtx]) (StateResult, error) {
			return Waiting(), nil
		},
	})

	return New[reviewCtx]("review", "failed").Node(sub, published, failed).MustBuild()
}

func TestSubMachine_WaitingChildKeepsParentWaiting(t *testing.T) {
	ctx := context.Background()

	m, err := NewLocalMachine(reviewParentConfig(t), reviewCtx{DocID: "doc-1"}, "rev-1")
	require.NoError(t, err)

	res, err := m.Resume(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeWaiting, res.Outcome)
	require.Equal(t, StateName("review"), m.CurrentState())

	// The child's full snapshot rides in the parent scratchpad.
	snap, ok := m.Store().Scratchpad().([]byte)
	require.True(t, ok)
	require.NotEmpty(t, snap)
}

func TestSubMachine_TerminalChildTransitionsParent(t *testing.T) {
	ctx := context.Background()

	m, err := NewLocalMachine(reviewParentConfig(t), reviewCtx{DocID: "doc-1"}, "rev-2")
	require.NoError(t, err)

	// First step: the child starts and waits.
	_, err = m.Resume(ctx, nil)
	require.NoError(t, err)

	// The approval event is translated for the child, which finishes; its
	// action comes back translated for the parent.
	res, err := m.Resume(ctx, []Event{NewEvent("editor_approval", "lgtm")})
	require.NoError(t, err)
	require.Equal(t, OutcomeWaiting, res.Outcome)
	require.Equal(t, StateName("published"), m.CurrentState())

	pending := m.Store().PendingEvents()
	require.Len(t, pending, 1)
	require.Equal(t, "review_complete", pending[0].Type)
	require.Equal(t, "all-clear", pending[0].Payload)

	// Completion cleared the sub-workflow's scratchpad.
	require.Nil(t, m.Store().Scratchpad())
}

func TestSubMachine_ChildSurvivesParentRestart(t *testing.T) {
	ctx := context.Background()
	cfg := reviewParentConfig(t)
	adapter := NewMemoryAdapter[reviewCtx]()

	m1, err := NewMachine(cfg, adapter, reviewCtx{DocID: "doc-1"}, "rev-3", nil)
	require.NoError(t, err)
	_, err = m1.Resume(ctx, nil)
	require.NoError(t, err)

	// A fresh process resumes the same instance from its checkpoint; the
	// nested machine picks up from the persisted scratchpad.
	m2, err := NewMachine(cfg, adapter, reviewCtx{}, "rev-3", nil)
	require.NoError(t, err)
	found, err := m2.LoadPersistedState(ctx)
	require.NoError(t, err)
	require.True(t, found)

	res, err := m2.Resume(ctx, []Event{NewEvent("editor_approval", "lgtm")})
	require.NoError(t, err)
	require.Equal(t, OutcomeWaiting, res.Outcome)
	require.Equal(t, StateName("published"), m2.CurrentState())
}

func TestSubMachine_OnChildOverride(t *testing.T) {
	ctx := context.Background()

	sub, err := NewSubMachineNode(SubMachineConfig[reviewCtx, checklistCtx]{
		ID:              "review",
		Child:           childChecklistConfig(),
		ChildInstanceID: "review-checklist",
		OnChild: func(ctx context.Context, child ChildOutcome, store *Store[reviewCtx]) (StateResult, error) {
			if child.Result.Outcome == OutcomeTerminal {
				return Terminal(child.Actions...), nil
			}
			return Waiting(), nil
		},
	})
	require.NoError(t, err)

	failed := NewNode(NodeFuncs[reviewCtx]{
		NodeID: "failed",
		PostFn: func(ctx context.Context, result any, store *Store[reviewCtx]) (StateResult, error) {
			return Waiting(), nil
		},
	})
	cfg := New[reviewCtx]("review", "failed").Node(sub, failed).MustBuild()

	m, err := NewLocalMachine(cfg, reviewCtx{}, "rev-4")
	require.NoError(t, err)

	res, err := m.Resume(ctx, []Event{NewEvent("approve", nil)})
	require.NoError(t, err)
	require.Equal(t, OutcomeTerminal, res.Outcome)
}

func TestNewSubMachineNode_Validation(t *testing.T) {
	child := childChecklistConfig()

	_, err := NewSubMachineNode(SubMachineConfig[reviewCtx, checklistCtx]{
		Child: child, ChildInstanceID: "c", Completion: "done",
	})
	require.Error(t, err, "missing ID")

	_, err = NewSubMachineNode(SubMachineConfig[reviewCtx, checklistCtx]{
		ID: "review", Child: child, Completion: "done",
	})
	require.Error(t, err, "missing child instance id")

	_, err = NewSubMachineNode(SubMachineConfig[reviewCtx, checklistCtx]{
		ID: "review", Child: child, ChildInstanceID: "c",
	})
	require.Error(t, err, "missing OnChild and Completion")

	_, err = NewSubMachineNode(SubMachineConfig[reviewCtx, checklistCtx]{
		ID: "review", ChildInstanceID: "c", Completion: "done",
	})
	require.Error(t, err, "invalid child config")
}
