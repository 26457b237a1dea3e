package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingHooks struct {
	NoopHooks[string]

	transitions []string
	errs        []error
}

func (r *recordingHooks) OnTransition(ctx context.Context, from, to StateName, c string) {
	r.transitions = append(r.transitions, string(from)+"->"+string(to))
}

func (r *recordingHooks) OnError(ctx context.Context, err error, c string) {
	r.errs = append(r.errs, err)
}

func TestCompositeHooks_FansOut(t *testing.T) {
	ctx := context.Background()
	a := &recordingHooks{}
	b := &recordingHooks{}

	h := NewCompositeHooks[string](a, nil, b)
	h.OnTransition(ctx, "one", "two", "ctx")
	h.OnError(ctx, errors.New("boom"), "ctx")

	for _, r := range []*recordingHooks{a, b} {
		require.Equal(t, []string{"one->two"}, r.transitions)
		require.Len(t, r.errs, 1)
	}
}

func TestCompositeHooks_EmptyIsNoop(t *testing.T) {
	h := NewCompositeHooks[string]()
	require.IsType(t, NoopHooks[string]{}, h)
}

func TestCompositeHooks_SingleIsUnwrapped(t *testing.T) {
	a := &recordingHooks{}
	require.Same(t, any(a), any(NewCompositeHooks[string](a)))
}

func TestMetricsHooks_Counters(t *testing.T) {
	ctx := context.Background()
	m := &MetricsHooks[string]{}

	m.OnTransition(ctx, "a", "b", "")
	m.OnTransition(ctx, "b", "c", "")
	m.OnError(ctx, errors.New("boom"), "")

	snap := m.Snapshot()
	require.Equal(t, int64(2), snap.Transitions)
	require.Equal(t, int64(1), snap.Errors)
}

func TestUnknownStateError_Message(t *testing.T) {
	err := &UnknownStateError{State: "ghost"}
	require.Equal(t, "Unknown state: ghost", err.Error())

	var target *UnknownStateError
	require.True(t, errors.As(err, &target))
}
