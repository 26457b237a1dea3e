package ratchet

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ratchetfsm/ratchet/internal/machine"
	"github.com/ratchetfsm/ratchet/internal/persistence"
	"github.com/ratchetfsm/ratchet/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Event       = api.Event
	StateName   = api.StateName
	Outcome     = api.Outcome
	StateResult = api.StateResult
	PrepResult  = api.PrepResult
	ExecInput   = api.ExecInput
	ExecResult  = api.ExecResult
	Phase       = api.Phase

	AllState[C any]           = api.AllState[C]
	HistoryEntry[C any]       = api.HistoryEntry[C]
	Node[C any]               = api.Node[C]
	FailureHandler[C any]     = api.FailureHandler[C]
	Config[C any]             = api.Config[C]
	ErrorHandler[C any]       = api.ErrorHandler[C]
	Store[C any]              = api.Store[C]
	Machine[C any]            = api.Machine[C]
	PersistenceAdapter[C any] = api.PersistenceAdapter[C]
	Hooks[C any]              = api.Hooks[C]
	NoopHooks[C any]          = api.NoopHooks[C]
	MetricsHooks[C any]       = api.MetricsHooks[C]
	MetricsSnapshot           = api.MetricsSnapshot
	UnknownStateError         = api.UnknownStateError
)

// Re-export result constructors and event helper.

var (
	NewEvent   = api.NewEvent
	Waiting    = api.Waiting
	Transition = api.Transition
	Terminal   = api.Terminal
)

// Re-export outcome values for convenience.

const (
	OutcomeWaiting    = api.OutcomeWaiting
	OutcomeTransition = api.OutcomeTransition
	OutcomeTerminal   = api.OutcomeTerminal

	PhasePrep = api.PhasePrep
	PhaseExec = api.PhaseExec
	PhasePost = api.PhasePost
)

// Hook constructors.

// NewCompositeHooks fans callbacks out to each non-nil hooks value.
func NewCompositeHooks[C any](hooks ...Hooks[C]) Hooks[C] {
	return api.NewCompositeHooks(hooks...)
}

// NewLoggingHooks logs machine lifecycle events with slog.
func NewLoggingHooks[C any](logger *slog.Logger, instanceID string) Hooks[C] {
	return api.NewLoggingHooks[C](logger, instanceID)
}

// Machine constructors
// These wrap the internal packages so external callers never need to
// import them.

// NewMachine constructs a machine for one workflow instance. hooks may be
// nil. The config is validated; the error state must name a configured
// node.
func NewMachine[C any](cfg Config[C], adapter PersistenceAdapter[C], initialContext C, instanceID string, hooks Hooks[C]) (Machine[C], error) {
	return machine.New(cfg, adapter, initialContext, instanceID, hooks)
}

// NewLocalMachine bundles a machine with a fresh in-memory adapter. It is
// intended for tests, local development, and simple single-process use;
// state does not survive the process.
func NewLocalMachine[C any](cfg Config[C], initialContext C, instanceID string) (Machine[C], error) {
	return machine.New(cfg, persistence.NewMemoryAdapter[C](), initialContext, instanceID, nil)
}

// Adapter constructors

// NewMemoryAdapter returns a non-durable in-memory PersistenceAdapter,
// best for tests.
func NewMemoryAdapter[C any]() PersistenceAdapter[C] {
	return persistence.NewMemoryAdapter[C]()
}

// NewSQLiteAdapter returns a PersistenceAdapter that stores snapshots and
// event logs in a SQLite database. The caller imports a SQLite driver,
// e.g. modernc.org/sqlite.
func NewSQLiteAdapter[C any](db *sql.DB) (PersistenceAdapter[C], error) {
	return persistence.NewSQLiteAdapter[C](db)
}

// NewPostgresAdapter returns a PersistenceAdapter backed by PostgreSQL.
func NewPostgresAdapter[C any](db *sql.DB) (PersistenceAdapter[C], error) {
	return persistence.NewPostgresAdapter[C](db)
}

// NewRedisAdapter returns a PersistenceAdapter backed by Redis. prefix
// namespaces the keys (defaults to "ratchet:").
func NewRedisAdapter[C any](client *redis.Client, prefix string) PersistenceAdapter[C] {
	return persistence.NewRedisAdapter[C](client, prefix)
}
