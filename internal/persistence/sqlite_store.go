package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ratchetfsm/ratchet/pkg/api"
)

// SQLiteAdapter is a PersistenceAdapter backed by SQLite.
//
// It expects an *sql.DB using a SQLite driver (for example
// "modernc.org/sqlite"). The caller imports the driver:
//
//	import _ "modernc.org/sqlite"
type SQLiteAdapter[C any] struct {
	db *sql.DB
}

var _ api.PersistenceAdapter[any] = (*SQLiteAdapter[any])(nil)

// NewSQLiteAdapter initializes the required schema in the given database
// and returns a new SQLiteAdapter.
func NewSQLiteAdapter[C any](db *sql.DB) (*SQLiteAdapter[C], error) {
	a := &SQLiteAdapter[C]{db: db}
	if err := a.initSchema(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *SQLiteAdapter[C]) initSchema() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS machine_states (
			instance_id TEXT PRIMARY KEY,
			current_state TEXT NOT NULL,
			completed INTEGER NOT NULL,
			snapshot BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS machine_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			instance_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload BLOB
		);
		CREATE INDEX IF NOT EXISTS idx_machine_events_instance
			ON machine_events (instance_id, seq);`,
	)
	return err
}

func (a *SQLiteAdapter[C]) Write(ctx context.Context, instanceID string, state api.AllState[C]) error {
	snapshot, err := EncodeState(state)
	if err != nil {
		return err
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO machine_states (instance_id, current_state, completed, snapshot)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (instance_id) DO UPDATE SET
			current_state = excluded.current_state,
			completed = excluded.completed,
			snapshot = excluded.snapshot`,
		instanceID,
		string(state.CurrentState),
		boolToInt(state.Completed),
		snapshot,
	)
	return err
}

func (a *SQLiteAdapter[C]) WriteEvents(ctx context.Context, instanceID string, events []api.Event) error {
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
			VALUES (?, ?, ?, ?)`,
			instanceID, ev.ID, ev.Type, payload,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (a *SQLiteAdapter[C]) Read(ctx context.Context, instanceID string) (api.AllState[C], bool, error) {
	var snapshot []byte
	err := a.db.QueryRowContext(ctx, `
		SELECT snapshot FROM machine_states WHERE instance_id = ?`,
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
func (a *SQLiteAdapter[C]) Events(ctx context.Context, instanceID string) ([]api.Event, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT event_id, event_type, payload
		FROM machine_events
		WHERE instance_id = ?
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
