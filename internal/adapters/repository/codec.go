package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/wardflow/internal/domain/model"
	"github.com/okian/wardflow/internal/domain/scoring"
)

// Columns is the fixed column order of a patient row.
var Columns = []string{"ID", "Name", "Age", "Disease", "Status", "Priority", "Room", "Severity", "Doctor", "Time", "EstDays"}

// encodeRow renders p in Columns order.
func encodeRow(p model.Patient) []string {
	return []string{
		strconv.Itoa(p.ID),
		p.Name,
		strconv.Itoa(p.Age),
		p.Condition,
		string(p.Status),
		string(p.Urgency),
		p.Unit.String(),
		string(p.Severity),
		p.Doctor,
		p.Time,
		strconv.Itoa(p.EstDays),
	}
}

// rowGetter returns the value of a named column and whether it exists.
type rowGetter func(col string) (string, bool)

// decodeRow rebuilds a patient from named columns. Optional columns fall
// back to the same defaults a freshly registered row would have. The score
// is recomputed with sc.
func decodeRow(get rowGetter, sc scoring.Scorer) (model.Patient, error) {
	str := func(col, def string) string {
		if v, ok := get(col); ok && strings.TrimSpace(v) != "" {
			return v
		}
		return def
	}
	num := func(col string, def int) (int, error) {
		v, ok := get(col)
		if !ok || strings.TrimSpace(v) == "" {
			return def, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: column %s: %q", ErrCorruptRecord, col, v)
		}
		return n, nil
	}

	idStr, ok := get("ID")
	if !ok {
		return model.Patient{}, fmt.Errorf("%w: missing ID", ErrCorruptRecord)
	}
	id, err := strconv.Atoi(strings.TrimSpace(idStr))
	if err != nil {
		return model.Patient{}, fmt.Errorf("%w: column ID: %q", ErrCorruptRecord, idStr)
	}
	age, err := num("Age", 0)
	if err != nil {
		return model.Patient{}, err
	}
	days, err := num("EstDays", 1)
	if err != nil {
		return model.Patient{}, err
	}
	unit, err := model.ParseUnit(str("Room", "-"))
	if err != nil {
		return model.Patient{}, fmt.Errorf("%w: patient %d: %w", ErrCorruptRecord, id, err)
	}
	status := model.Status(str("Status", string(model.StatusWaiting)))
	if !status.Valid() {
		return model.Patient{}, fmt.Errorf("%w: patient %d: status %q", ErrCorruptRecord, id, status)
	}

	urgency := model.Urgency(str("Priority", string(model.UrgencyNormal)))
	if !urgency.Valid() {
		return model.Patient{}, fmt.Errorf("%w: patient %d: priority %q", ErrCorruptRecord, id, urgency)
	}
	severity := model.Severity(str("Severity", string(model.SeverityLow)))
	if !severity.Valid() {
		return model.Patient{}, fmt.Errorf("%w: patient %d: severity %q", ErrCorruptRecord, id, severity)
	}

	name, _ := get("Name")
	disease, _ := get("Disease")
	p := model.Patient{
		ID:        id,
		Name:      name,
		Age:       age,
		Condition: disease,
		Status:    status,
		Urgency:   urgency,
		Unit:      unit,
		Severity:  severity,
		Doctor:    str("Doctor", "-"),
		Time:      str("Time", "-"),
		EstDays:   days,
	}
	p.Score = sc.Score(p.Urgency, p.Severity, p.Age)
	return p, nil
}

// checkUnique rejects a loaded set that repeats an id. Every transition
// addresses patients by id, so a repeat cannot be applied safely.
func checkUnique(patients []model.Patient) error {
	seen := make(map[int]struct{}, len(patients))
	for i, p := range patients {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: patient %d repeated at record %d", ErrCorruptRecord, p.ID, i+1)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// clonePatients copies a slice so callers cannot alias store state.
func clonePatients(in []model.Patient) []model.Patient {
	if in == nil {
		return []model.Patient{}
	}
	out := make([]model.Patient, len(in))
	copy(out, in)
	return out
}
