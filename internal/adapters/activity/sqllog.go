package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/wardflow/internal/adapters/sqldb"
)

// SQLLog writes entries to the activity table.
type SQLLog struct {
	db *sqldb.DB
}

// NewSQLLog creates a log over an opened database.
func NewSQLLog(db *sqldb.DB) *SQLLog {
	return &SQLLog{db: db}
}

// Append implements Sink.
func (l *SQLLog) Append(ctx context.Context, e Entry) error {
	_, err := l.db.ExecContext(ctx, l.db.Q(`INSERT INTO activity (id, ts, actor, action, details) VALUES (?, ?, ?, ?, ?)`),
		e.ID, e.Time.UTC().Format(time.RFC3339Nano), e.Actor, e.Action, e.Detail)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Recent implements Reader.
func (l *SQLLog) Recent(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT id, ts, actor, action, details FROM activity ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := l.db.QueryContext(ctx, l.db.Q(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Actor, &e.Action, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Time, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
