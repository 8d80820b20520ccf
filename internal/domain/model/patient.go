// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Status is the lifecycle state of a patient. Discharged is terminal.
type Status string

// Patient statuses as stored.
const (
	StatusWaiting    Status = "Waiting"
	StatusAdmitted   Status = "Admitted"
	StatusDischarged Status = "Discharged"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusAdmitted, StatusDischarged:
		return true
	}
	return false
}

// Urgency is the caller- or triage-asserted priority flag.
type Urgency string

// Urgency levels as stored in the Priority column.
const (
	UrgencyNormal   Urgency = "Normal"
	UrgencyCritical Urgency = "Critical"
)

// Valid reports whether u is a known urgency.
func (u Urgency) Valid() bool {
	return u == UrgencyNormal || u == UrgencyCritical
}

// Severity is the triage classification of a condition.
type Severity string

// Severity classes.
const (
	SeverityLow      Severity = "Low"
	SeverityModerate Severity = "Moderate"
	SeverityCritical Severity = "Critical"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityModerate, SeverityCritical:
		return true
	}
	return false
}

// Unit is a 1-based bed index. NoUnit means the patient holds no bed.
type Unit int

// NoUnit is the "none" sentinel, stored as "-".
const NoUnit Unit = 0

const (
	unitNone   = "-"
	unitPrefix = "Bed-"
)

// ErrBadUnit reports a room value that is neither "-" nor "Bed-N".
var ErrBadUnit = errors.New("malformed unit")

// String renders the stored form: "-" or "Bed-N".
func (u Unit) String() string {
	if u == NoUnit {
		return unitNone
	}
	return unitPrefix + strconv.Itoa(int(u))
}

// ParseUnit parses the stored room form. Out-of-range indices are accepted
// here; the bed pool ignores them.
func ParseUnit(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == unitNone {
		return NoUnit, nil
	}
	if !strings.HasPrefix(s, unitPrefix) {
		return NoUnit, fmt.Errorf("%w: %q", ErrBadUnit, s)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, unitPrefix))
	if err != nil {
		return NoUnit, fmt.Errorf("%w: %q", ErrBadUnit, s)
	}
	return Unit(n), nil
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(b []byte) error {
	v, err := ParseUnit(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Patient is one admission request. ID is unique across live records and
// immutable. Score is derived from Urgency, Severity and Age.
type Patient struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	Condition string   `json:"condition"`
	Status    Status   `json:"status"`
	Urgency   Urgency  `json:"urgency"`
	Unit      Unit     `json:"room"`
	Severity  Severity `json:"severity"`
	Doctor    string   `json:"doctor"`
	Time      string   `json:"time"`
	EstDays   int      `json:"est_days"`
	Score     int      `json:"priority_score"`
}

// Active reports whether the patient still counts against the census.
func (p Patient) Active() bool { return p.Status != StatusDischarged }
