package ratchet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type shipCtx struct {
	Parcels int
}

func testNode(id StateName) Node[shipCtx] {
	return NewNode(NodeFuncs[shipCtx]{
		NodeID: id,
		PostFn: func(ctx context.Context, result any, store *Store[shipCtx]) (StateResult, error) {
			return Waiting(), nil
		},
	})
}

func TestBuilder_Build(t *testing.T) {
	delay := ConstantDelay(time.Second)

	cfg, err := New[shipCtx]("created", "failed").
		Node(testNode("created"), testNode("failed")).
		MaxRetries(3).
		RetryDelay(delay).
		Build()
	require.NoError(t, err)

	require.Equal(t, StateName("created"), cfg.InitialState)
	require.Equal(t, StateName("failed"), cfg.ErrorState)
	require.Len(t, cfg.Nodes, 2)
	require.Equal(t, 3, cfg.MaxRetries)
	require.NotNil(t, cfg.RetryDelay)
}

func TestBuilder_BuildRejectsInvalidConfig(t *testing.T) {
	_, err := New[shipCtx]("created", "missing").
		Node(testNode("created")).
		Build()
	require.Error(t, err)
}

func TestBuilder_NegativeRetriesClampToZero(t *testing.T) {
	cfg, err := New[shipCtx]("created", "failed").
		Node(testNode("created"), testNode("failed")).
		MaxRetries(-5).
		Build()
	require.NoError(t, err)
	require.Equal(t, 0, cfg.MaxRetries)
}

func TestBuilder_MustBuildPanics(t *testing.T) {
	require.Panics(t, func() {
		New[shipCtx]("created", "failed").MustBuild()
	})
}

func TestNewLocalMachine(t *testing.T) {
	cfg := New[shipCtx]("created", "failed").
		Node(testNode("created"), testNode("failed")).
		MustBuild()

	m, err := NewLocalMachine(cfg, shipCtx{}, "local-1")
	require.NoError(t, err)
	require.NoError(t, m.Initialize(context.Background()))

	res, err := m.Resume(context.Background(), []Event{NewEvent("ping", nil)})
	require.NoError(t, err)
	require.Equal(t, OutcomeWaiting, res.Outcome)
	require.Equal(t, StateName("created"), m.CurrentState())
}
