package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ratchetfsm/ratchet/pkg/api"
)

// PostgresAdapter is a PersistenceAdapter backed by PostgreSQL.
//
// It expects an *sql.DB using a Postgres driver; the pgx stdlib driver is
// the one exercised by the test suite:
//
//	import _ "github.com/jackc/pgx/v5/stdlib"
type PostgresAdapter[C any] struct {
	db *sql.DB
}

var _ api.PersistenceAdapter[any] = (*PostgresAdapter[any])(nil)

// NewPostgresAdapter initializes the required schema in the given database
// and returns a new PostgresAdapter.
func NewPostgresAdapter[C any](db *sql.DB) (*PostgresAdapter[C], error) {
	a := &PostgresAdapter[C]{db: db}
	if err := a.initSchema(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *PostgresAdapter[C]) initSchema() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS machine_states (
			instance_id TEXT PRIMARY KEY,
			current_state TEXT NOT NULL,
			completed BOOLEAN NOT NULL,
			snapshot BYTEA NOT NULL
		);
		CREATE TABLE IF NOT EXISTS machine_events (
			seq BIGSERIAL PRIMARY KEY,
			instance_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload BYTEA
		);
		CREATE INDEX IF NOT EXISTS idx_machine_events_instance
			ON machine_events (instance_id, seq);`,
	)
	return err
}

func (a *PostgresAdapter[C]) Write(ctx context.Context, instanceID string, state api.AllState[C]) error {
	snapshot, err := EncodeState(state)
	if err != nil {
		return err
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO machine_states (instance_id, current_state, completed, snapshot)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (instance_id) DO UPDATE SET
			current_state = EXCLUDED.current_state,
			completed = EXCLUDED.completed,
			snapshot = EXCLUDED.snapshot`,
		instanceID,
		string(state.CurrentState),
		state.Completed,
		snapshot,
	)
	return err
}

func (a *PostgresAdapter[C]) WriteEvents(ctx context.Context, instanceID string, events []api.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ev := range events {
		payload, err := encodeValue(ev.Payload)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO machine_events (instance_id, event_id, event_type, payload)
			VALUES ($1, $2, $3, $4)`,
			instanceID, ev.ID, ev.Type, payload,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (a *PostgresAdapter[C]) Read(ctx context.Context, instanceID string) (api.AllState[C], bool, error) {
	var snapshot []byte
	err := a.db.QueryRowContext(ctx, `
		SELECT snapshot FROM machine_states WHERE instance_id = $1`,
		instanceID,
	).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return api.AllState[C]{}, false, nil
	}
	if err != nil {
		return api.AllState[C]{}, false, err
	}

	st, err := DecodeState[C](snapshot)
	if err != nil {
		return api.AllState[C]{}, false, err
	}
	return st, true, nil
}

// Events returns the append-only event log for an instance in write order.
func (a *PostgresAdapter[C]) Events(ctx context.Context, instanceID string) ([]api.Event, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT event_id, event_type, payload
		FROM machine_events
		WHERE instance_id = $1
		ORDER BY seq`,
		instanceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []api.Event
	for rows.Next() {
		var ev api.Event
		var payload []byte
		if err := rows.Scan(&ev.ID, &ev.Type, &payload); err != nil {
			return nil, err
		}
		ev.Payload, err = decodeValue(payload)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
