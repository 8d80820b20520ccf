package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/okian/wardflow/internal/adapters/sqldb"
	"github.com/okian/wardflow/internal/domain/model"
)

// SQLStore keeps patients in the patients table. Row order is preserved via
// the seq column; SaveAll replaces the table inside one transaction.
type SQLStore struct {
	db *sqldb.DB
	settings
}

// NewSQLStore creates a store over an opened database.
func NewSQLStore(db *sqldb.DB, opts ...Option) *SQLStore {
	return &SQLStore{db: db, settings: newSettings(opts)}
}

// LoadAll implements Store.
func (s *SQLStore) LoadAll(ctx context.Context) ([]model.Patient, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, age, disease, status, priority, room, severity, doctor, time, est_days FROM patients ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Patient{}
	for rows.Next() {
		var (
			id, age, days                                          int
			name, disease, status, priority, room, sev, doc, slot string
		)
		if err := rows.Scan(&id, &name, &age, &disease, &status, &priority, &room, &sev, &doc, &slot, &days); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		vals := map[string]string{
			"ID": strconv.Itoa(id), "Name": name, "Age": strconv.Itoa(age), "Disease": disease,
			"Status": status, "Priority": priority, "Room": room, "Severity": sev,
			"Doctor": doc, "Time": slot, "EstDays": strconv.Itoa(days),
		}
		p, err := decodeRow(func(col string) (string, bool) {
			v, ok := vals[col]
			return v, ok
		}, s.scorer)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	if err := checkUnique(out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveAll implements Store.
func (s *SQLStore) SaveAll(ctx context.Context, patients []model.Patient) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM patients`); err != nil {
		return fmt.Errorf("clear patients: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, s.db.Q(`INSERT INTO patients (seq, id, name, age, disease, status, priority, room, severity, doctor, time, est_days) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, p := range patients {
		if _, err = stmt.ExecContext(ctx, i, p.ID, p.Name, p.Age, p.Condition, string(p.Status), string(p.Urgency),
			p.Unit.String(), string(p.Severity), p.Doctor, p.Time, p.EstDays); err != nil {
			return fmt.Errorf("insert patient %d: %w", p.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
