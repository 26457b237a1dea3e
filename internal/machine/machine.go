// Package machine contains the run-loop implementation behind api.Machine.
// External callers construct machines via the root ratchet package.
package machine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ratchetfsm/ratchet/pkg/api"
)

// StateMachine drives one workflow instance: it owns the shared store,
// runs the prep/exec/post lifecycle of the current node in a loop, applies
// the layered error escalation, and checkpoints through the persistence
// adapter after every committed step.
type StateMachine[C any] struct {
	cfg     api.Config[C]
	nodes   map[api.StateName]api.Node[C]
	adapter api.PersistenceAdapter[C]
	store   *api.Store[C]
	hooks   api.Hooks[C]
	id      string
	logger  *slog.Logger

	initOnce sync.Once
}

var _ api.Machine[any] = (*StateMachine[any])(nil)

// New validates cfg and constructs a machine for the given instance ID.
// hooks may be nil.
func New[C any](cfg api.Config[C], adapter api.PersistenceAdapter[C], initialContext C, instanceID string, hooks api.Hooks[C]) (*StateMachine[C], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid machine config: %w", err)
	}
	if adapter == nil {
		return nil, errors.New("persistence adapter is required")
	}
	if instanceID == "" {
		return nil, errors.New("instance id is required")
	}
	if hooks == nil {
		hooks = api.NoopHooks[C]{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := api.NewStore(initialContext, cfg.MaxRetries, cfg.RetryDelay)
	store.SetCurrentState(cfg.InitialState)

	return &StateMachine[C]{
		cfg:     cfg,
		nodes:   cfg.NodeIndex(),
		adapter: adapter,
		store:   store,
		hooks:   hooks,
		id:      instanceID,
		logger:  logger,
	}, nil
}

// Initialize performs one-time telemetry wiring. Repeated or concurrent
// calls run the setup exactly once.
func (m *StateMachine[C]) Initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.logger.InfoContext(ctx, "machine_initialized",
			slog.String("instance_id", m.id),
			slog.String("initial_state", string(m.cfg.InitialState)),
		)
	})
	return nil
}

// LoadPersistedState reads the adapter's snapshot for this instance and
// replaces the in-memory state wholesale when one exists.
func (m *StateMachine[C]) LoadPersistedState(ctx context.Context) (bool, error) {
	st, ok, err := m.adapter.Read(ctx, m.id)
	if err != nil {
		return false, fmt.Errorf("read persisted state: %w", err)
	}
	if !ok {
		return false, nil
	}
	m.store.Restore(st)
	return true, nil
}

// Store returns the shared store owned by this machine.
func (m *StateMachine[C]) Store() *api.Store[C] { return m.store }

func (m *StateMachine[C]) InstanceID() string { return m.id }

func (m *StateMachine[C]) CurrentState() api.StateName { return m.store.CurrentState() }

// Resume persists and enqueues newEvents, then drives the run loop until
// the machine reaches a waiting or terminal result. Exactly one step is in
// flight at any instant; the loop is strictly sequential.
func (m *StateMachine[C]) Resume(ctx context.Context, newEvents []api.Event) (api.StateResult, error) {
	if m.store.Completed() {
		return api.Terminal(), nil
	}

	if len(newEvents) > 0 {
		if err := m.adapter.WriteEvents(ctx, m.id, newEvents); err != nil {
			return api.StateResult{}, fmt.Errorf("write events: %w", err)
		}
		m.store.Enqueue(newEvents...)
	}

	for {
		current := m.store.CurrentState()
		node, ok := m.nodes[current]
		if !ok {
			// A committed transition named a state with no node. Only the
			// machine-level handler applies; there is no node to consult.
			done, out, err := m.recover(ctx, current, nil, nil, &api.UnknownStateError{State: current})
			if err != nil {
				return api.StateResult{}, err
			}
			if done {
				return out, nil
			}
			continue
		}

		var prep api.PrepResult
		if err := m.store.Retry(ctx, func() error {
			var perr error
			prep, perr = node.Prep(ctx, m.store)
			return perr
		}); err != nil {
			done, out, rerr := m.recover(ctx, current, node, nil, err)
			if rerr != nil {
				return api.StateResult{}, rerr
			}
			if done {
				return out, nil
			}
			continue
		}

		var exec api.ExecResult
		if err := m.store.Retry(ctx, func() error {
			var xerr error
			exec, xerr = node.Exec(ctx, api.ExecInput{
				Args:       prep.Args,
				Events:     prep.Events,
				Scratchpad: m.store.Scratchpad(),
			})
			return xerr
		}); err != nil {
			// Post is not called when Exec exhausts its retries.
			done, out, rerr := m.recover(ctx, current, node, prep.Events, err)
			if rerr != nil {
				return api.StateResult{}, rerr
			}
			if done {
				return out, nil
			}
			continue
		}

		m.store.SetScratchpad(exec.Scratchpad)

		res, err := node.Post(ctx, exec.Result, m.store)
		if err != nil {
			done, out, rerr := m.recover(ctx, current, node, prep.Events, err)
			if rerr != nil {
				return api.StateResult{}, rerr
			}
			if done {
				return out, nil
			}
			continue
		}

		done, out, err := m.commit(ctx, current, prep.Events, res)
		if err != nil {
			return api.StateResult{}, err
		}
		if done {
			return out, nil
		}
	}
}

// recover routes a fatal step failure through the escalation chain and
// commits the resulting StateResult. node is nil for unknown-state
// failures.
func (m *StateMachine[C]) recover(ctx context.Context, from api.StateName, node api.Node[C], consumed []api.Event, cause error) (bool, api.StateResult, error) {
	res, err := m.escalate(ctx, node, cause)
	if err != nil {
		return false, api.StateResult{}, err
	}
	return m.commit(ctx, from, consumed, res)
}

// escalate applies the error policy for a fatal step failure: node-level
// handler first, then the machine-level handler, then the default fallback
// transition to the configured error state. The cause is used only to
// select the fallback path; it is not handed to the error-state node.
func (m *StateMachine[C]) escalate(ctx context.Context, node api.Node[C], cause error) (api.StateResult, error) {
	m.hooks.OnError(ctx, cause, m.store.Context())
	m.logger.ErrorContext(ctx, "step_failed",
		slog.String("instance_id", m.id),
		slog.String("state", string(m.store.CurrentState())),
		slog.Any("error", cause),
	)

	if node != nil {
		if h, ok := node.(api.FailureHandler[C]); ok {
			return h.OnError(ctx, cause, m.store)
		}
	}
	if m.cfg.OnError != nil {
		return m.cfg.OnError(ctx, cause, m.store)
	}
	if m.store.CurrentState() == m.cfg.ErrorState {
		// The error-state node itself failed with no handler configured;
		// falling back again would loop forever, so surface the failure.
		return api.StateResult{}, cause
	}
	return api.Transition(m.cfg.ErrorState), nil
}

// commit applies a StateResult produced by Post or by an error handler:
// it appends the history entry, applies scratchpad and queue effects,
// checkpoints the full snapshot through the adapter, and reports whether
// the run loop should stop.
func (m *StateMachine[C]) commit(ctx context.Context, from api.StateName, consumed []api.Event, res api.StateResult) (bool, api.StateResult, error) {
	m.store.AppendHistory(api.HistoryEntry[C]{
		State:      from,
		Context:    m.store.Context(),
		Scratchpad: m.store.Scratchpad(),
		Events:     consumed,
		Timestamp:  time.Now().UTC(),
	})

	switch res.Outcome {
	case api.OutcomeTransition:
		m.store.ClearScratchpad()
		m.store.Enqueue(res.Actions...)
		m.store.SetCurrentState(res.To)
		if err := m.checkpoint(ctx); err != nil {
			return false, res, err
		}
		m.hooks.OnTransition(ctx, from, res.To, m.store.Context())
		// The loop head validates the target; an unknown name becomes an
		// UnknownStateError on the next iteration.
		return false, res, nil

	case api.OutcomeTerminal:
		m.store.ClearScratchpad()
		m.store.Enqueue(res.Actions...)
		m.store.SetCompleted()
		if err := m.checkpoint(ctx); err != nil {
			return false, res, err
		}
		return true, res, nil

	case api.OutcomeWaiting:
		// Scratchpad survives a waiting result so the next step of this
		// same state can pick up where it left off.
		if err := m.checkpoint(ctx); err != nil {
			return false, res, err
		}
		return true, res, nil

	default:
		return false, res, fmt.Errorf("invalid state result outcome %q from state %q", res.Outcome, from)
	}
}

func (m *StateMachine[C]) checkpoint(ctx context.Context) error {
	if err := m.adapter.Write(ctx, m.id, m.store.Snapshot()); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
