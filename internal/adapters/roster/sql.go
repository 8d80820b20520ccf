package roster

import (
	"context"
	"fmt"

	"github.com/okian/wardflow/internal/adapters/sqldb"
	"github.com/okian/wardflow/internal/domain/model"
)

// SQL keeps the roster in the doctors table, seeded by migration.
type SQL struct {
	db *sqldb.DB
}

// NewSQL creates a roster over an opened database.
func NewSQL(db *sqldb.DB) *SQL {
	return &SQL{db: db}
}

// List implements Roster.
func (s *SQL) List(ctx context.Context) ([]model.Doctor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, specialty, room, keywords FROM doctors ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query doctors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Doctor{}
	for rows.Next() {
		var d model.Doctor
		var keywords string
		if err := rows.Scan(&d.Name, &d.Specialty, &d.Room, &keywords); err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		d.Keywords = model.ParseKeywords(keywords)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doctors: %w", err)
	}
	return out, nil
}

// Add implements Roster.
func (s *SQL) Add(ctx context.Context, d model.Doctor) error {
	d, err := Normalize(d)
	if err != nil {
		return err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, s.db.Q(`SELECT COUNT(*) FROM doctors WHERE LOWER(name) = LOWER(?)`), d.Name).Scan(&n); err != nil {
		return fmt.Errorf("check doctor: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateDoctor, d.Name)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Q(`INSERT INTO doctors (name, specialty, room, keywords) VALUES (?, ?, ?, ?)`),
		d.Name, d.Specialty, d.Room, model.JoinKeywords(d.Keywords)); err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}
