package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrorHandler is a machine-level fallback invoked when a step fails
// fatally and the failing node does not handle the error itself. Its
// result is applied exactly as if Post had returned it.
type ErrorHandler[C any] func(ctx context.Context, cause error, store *Store[C]) (StateResult, error)

// Config describes one machine: its node set, entry and error states, and
// the retry policy applied independently to each Prep and Exec phase.
type Config[C any] struct {
	InitialState StateName
	ErrorState   StateName
	Nodes        []Node[C]

	// MaxRetries is the number of additional attempts after the first
	// failed call of a phase. Zero means fail immediately.
	MaxRetries int

	// RetryDelay returns the wait before the given retry attempt
	// (1-based). Nil means retry immediately.
	RetryDelay func(attempt int) time.Duration

	// OnError, if set, handles fatal step failures for nodes that do not
	// implement FailureHandler, and unknown-state failures.
	OnError ErrorHandler[C]

	// Logger receives machine lifecycle logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Validate checks structural invariants: a non-empty node set with unique
// IDs, and initial/error states that name configured nodes.
func (c Config[C]) Validate() error {
	if len(c.Nodes) == 0 {
		return errors.New("machine must have at least one node")
	}
	seen := make(map[StateName]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if n == nil {
			return errors.New("nil node in node set")
		}
		id := n.ID()
		if id == "" {
			return errors.New("node with empty state name")
		}
		if seen[id] {
			return fmt.Errorf("duplicate node for state %q", id)
		}
		seen[id] = true
	}
	if c.InitialState == "" {
		return errors.New("initial state is required")
	}
	if !seen[c.InitialState] {
		return fmt.Errorf("initial state %q does not name a configured node", c.InitialState)
	}
	if c.ErrorState == "" {
		return errors.New("error state is required")
	}
	if !seen[c.ErrorState] {
		return fmt.Errorf("error state %q does not name a configured node", c.ErrorState)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0, got %d", c.MaxRetries)
	}
	return nil
}

// NodeIndex builds the state-name lookup used by the run loop.
func (c Config[C]) NodeIndex() map[StateName]Node[C] {
	idx := make(map[StateName]Node[C], len(c.Nodes))
	for _, n := range c.Nodes {
		idx[n.ID()] = n
	}
	return idx
}
