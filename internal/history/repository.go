package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-netfsm/internal/status"
)

// timeFormat sorts lexically in time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Query limits.
const (
	defaultLimit = 50
	maxLimit     = 500
)

// Entry is one recorded transition.
type Entry struct {
	ID         int64         `json:"id"`
	CycleID    string        `json:"cycle_id"`
	From       string        `json:"from"`
	To         string        `json:"to"`
	Phase      string        `json:"phase"`
	Reason     string        `json:"reason"`
	Attempt    int           `json:"attempt"`
	Backoff    time.Duration `json:"backoff"`
	Elapsed    time.Duration `json:"elapsed"`
	StatusCode int           `json:"status_code"`
	CreatedAt  time.Time     `json:"created_at"`
}

// EntryFromEvent converts a reporter event into an Entry stamped at now.
func EntryFromEvent(ev status.Event, now time.Time) *Entry {
	return &Entry{
		CycleID:    ev.CycleID,
		From:       ev.From.String(),
		To:         ev.To.String(),
		Phase:      ev.Phase.String(),
		Reason:     ev.Reason.String(),
		Attempt:    ev.Attempt,
		Backoff:    ev.Backoff,
		Elapsed:    ev.Elapsed,
		StatusCode: int(ev.Code),
		CreatedAt:  now.UTC(),
	}
}

// Repository defines the transition history operations.
type Repository interface {
	Record(ctx context.Context, e *Entry) error
	ListCycle(ctx context.Context, cycleID string) ([]Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// SQLiteRepository stores transitions in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts e and sets its ID. CreatedAt defaults to now.
func (r *SQLiteRepository) Record(ctx context.Context, e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transitions
		   (cycle_id, from_state, to_state, phase, reason, attempt, backoff_ms, elapsed_ms, status_code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CycleID, e.From, e.To, e.Phase, e.Reason, e.Attempt,
		e.Backoff.Milliseconds(), e.Elapsed.Milliseconds(), e.StatusCode,
		e.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting transition: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading transition id: %w", err)
	}
	e.ID = id
	return nil
}

// ListCycle returns every transition of one cycle in the order taken.
func (r *SQLiteRepository) ListCycle(ctx context.Context, cycleID string) ([]Entry, error) {
	return r.query(ctx,
		selectColumns+" WHERE cycle_id = ? ORDER BY id",
		cycleID,
	)
}

// ListRecent returns the newest transitions first. limit defaults to 50 and
// is capped at 500.
func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return r.query(ctx,
		selectColumns+" ORDER BY id DESC LIMIT ?",
		limit,
	)
}

// Prune deletes transitions recorded before the cutoff and returns how many
// rows were removed.
func (r *SQLiteRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transitions WHERE created_at < ?",
		before.UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning transitions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned transitions: %w", err)
	}
	return n, nil
}

const selectColumns = `SELECT id, cycle_id, from_state, to_state, phase, reason,
	attempt, backoff_ms, elapsed_ms, status_code, created_at FROM transitions`

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transitions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var backoffMS, elapsedMS int64
		var createdAt string

		if err := rows.Scan(&e.ID, &e.CycleID, &e.From, &e.To, &e.Phase, &e.Reason,
			&e.Attempt, &backoffMS, &elapsedMS, &e.StatusCode, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}

		e.Backoff = time.Duration(backoffMS) * time.Millisecond
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond

		t, err := time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing transition timestamp %q: %w", createdAt, err)
		}
		e.CreatedAt = t

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transitions: %w", err)
	}
	return entries, nil
}
