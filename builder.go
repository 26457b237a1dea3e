package ratchet

import (
	"log/slog"
	"time"
)

// Builder provides a fluent way to assemble a Config.
//
//	cfg := ratchet.New[MyContext]("initial", "error").
//		Node(initialNode, workNode, errorNode).
//		MaxRetries(3).
//		RetryDelay(ratchet.ConstantDelay(time.Second)).
//		MustBuild()
type Builder[C any] struct {
	cfg Config[C]
}

// New starts a Builder with the given initial and error state names. Both
// must name nodes added before Build.
func New[C any](initialState, errorState StateName) *Builder[C] {
	return &Builder[C]{
		cfg: Config[C]{
			InitialState: initialState,
			ErrorState:   errorState,
		},
	}
}

// Node adds nodes to the machine's node set.
func (b *Builder[C]) Node(nodes ...Node[C]) *Builder[C] {
	b.cfg.Nodes = append(b.cfg.Nodes, nodes...)
	return b
}

// MaxRetries sets the number of additional attempts after the first
// failure of a Prep or Exec phase. Negative values are treated as 0
// (fail immediately).
func (b *Builder[C]) MaxRetries(n int) *Builder[C] {
	if n < 0 {
		n = 0
	}
	b.cfg.MaxRetries = n
	return b
}

// RetryDelay sets the wait computed before each retry attempt; see the
// ConstantDelay and ExponentialDelay helpers.
func (b *Builder[C]) RetryDelay(fn func(attempt int) time.Duration) *Builder[C] {
	b.cfg.RetryDelay = fn
	return b
}

// OnError sets the machine-level error handler.
func (b *Builder[C]) OnError(h ErrorHandler[C]) *Builder[C] {
	b.cfg.OnError = h
	return b
}

// Logger sets the logger used by the machine for lifecycle logs.
func (b *Builder[C]) Logger(l *slog.Logger) *Builder[C] {
	b.cfg.Logger = l
	return b
}

// Build validates and returns the assembled Config.
func (b *Builder[C]) Build() (Config[C], error) {
	if err := b.cfg.Validate(); err != nil {
		return Config[C]{}, err
	}
	return b.cfg, nil
}

// MustBuild is like Build but panics on an invalid config. Intended for
// statically known machine definitions.
func (b *Builder[C]) MustBuild() Config[C] {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}
