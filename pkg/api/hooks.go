package api

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Phase names one lifecycle phase of a step, for hook callbacks.
type Phase string

const (
	PhasePrep Phase = "prep"
	PhaseExec Phase = "exec"
	PhasePost Phase = "post"
)

// Hooks receives callbacks from the machine for logging and metrics. Hooks
// are pure side-effect observers: they are invoked synchronously and are
// never consulted for control decisions.
//
// Implementations should be fast and non-blocking; heavy work should be
// done asynchronously so as not to delay the run loop.
type Hooks[C any] interface {
	// OnTransition is called after a transition commits, with the
	// post-commit context.
	OnTransition(ctx context.Context, from, to StateName, context C)

	// OnActions is reserved: the run loop does not currently invoke it.
	OnActions(ctx context.Context, actions []Event)

	// OnError is called when a fatal step failure enters the escalation
	// chain, before any handler runs.
	OnError(ctx context.Context, err error, context C)

	// OnRetry is reserved: the retry helper does not currently invoke it.
	OnRetry(ctx context.Context, err error, phase Phase, attempt int)
}

// NoopHooks is a Hooks implementation that does nothing. It is the default
// when no hooks are configured.
type NoopHooks[C any] struct{}

func (NoopHooks[C]) OnTransition(ctx context.Context, from, to StateName, c C)    {}
func (NoopHooks[C]) OnActions(ctx context.Context, actions []Event)               {}
func (NoopHooks[C]) OnError(ctx context.Context, err error, c C)                  {}
func (NoopHooks[C]) OnRetry(ctx context.Context, err error, p Phase, attempt int) {}

// CompositeHooks fans out callbacks to multiple Hooks.
type CompositeHooks[C any] struct {
	hooks []Hooks[C]
}

// NewCompositeHooks creates a Hooks that forwards callbacks to each
// non-nil entry in hooks.
func NewCompositeHooks[C any](hooks ...Hooks[C]) Hooks[C] {
	filtered := make([]Hooks[C], 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	if len(filtered) == 0 {
		return NoopHooks[C]{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeHooks[C]{hooks: filtered}
}

func (c *CompositeHooks[C]) OnTransition(ctx context.Context, from, to StateName, cv C) {
	for _, h := range c.hooks {
		h.OnTransition(ctx, from, to, cv)
	}
}

func (c *CompositeHooks[C]) OnActions(ctx context.Context, actions []Event) {
	for _, h := range c.hooks {
		h.OnActions(ctx, actions)
	}
}

func (c *CompositeHooks[C]) OnError(ctx context.Context, err error, cv C) {
	for _, h := range c.hooks {
		h.OnError(ctx, err, cv)
	}
}

func (c *CompositeHooks[C]) OnRetry(ctx context.Context, err error, p Phase, attempt int) {
	for _, h := range c.hooks {
		h.OnRetry(ctx, err, p, attempt)
	}
}

// LoggingHooks writes structured logs using log/slog.
type LoggingHooks[C any] struct {
	Logger     *slog.Logger
	InstanceID string
}

// NewLoggingHooks creates a Hooks that logs machine lifecycle events using
// the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingHooks[C any](logger *slog.Logger, instanceID string) Hooks[C] {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHooks[C]{Logger: logger, InstanceID: instanceID}
}

func (o *LoggingHooks[C]) OnTransition(ctx context.Context, from, to StateName, c C) {
	o.Logger.InfoContext(ctx, "state_transition",
		slog.String("instance_id", o.InstanceID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}

func (o *LoggingHooks[C]) OnActions(ctx context.Context, actions []Event) {
	o.Logger.DebugContext(ctx, "actions_emitted",
		slog.String("instance_id", o.InstanceID),
		slog.Int("count", len(actions)),
	)
}

func (o *LoggingHooks[C]) OnError(ctx context.Context, err error, c C) {
	o.Logger.ErrorContext(ctx, "step_error",
		slog.String("instance_id", o.InstanceID),
		slog.Any("error", err),
	)
}

func (o *LoggingHooks[C]) OnRetry(ctx context.Context, err error, p Phase, attempt int) {
	o.Logger.WarnContext(ctx, "step_retry",
		slog.String("instance_id", o.InstanceID),
		slog.String("phase", string(p)),
		slog.Int("attempt", attempt),
		slog.Any("error", err),
	)
}

// MetricsHooks collects simple counters. It can be combined with
// LoggingHooks via NewCompositeHooks.
type MetricsHooks[C any] struct {
	NoopHooks[C]

	transitions atomic.Int64
	errors      atomic.Int64
}

// MetricsSnapshot is an immutable snapshot of MetricsHooks.
type MetricsSnapshot struct {
	Transitions int64
	Errors      int64
}

func (m *MetricsHooks[C]) OnTransition(ctx context.Context, from, to StateName, c C) {
	m.transitions.Add(1)
}

func (m *MetricsHooks[C]) OnError(ctx context.Context, err error, c C) {
	m.errors.Add(1)
}

// Snapshot returns the current counter values.
func (m *MetricsHooks[C]) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Transitions: m.transitions.Load(),
		Errors:      m.errors.Load(),
	}
}
