// Package activity records one audit entry per successful ward operation.
// Sinks are append-only; some can also read back recent entries.
package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Action names written by the scheduler.
const (
	ActionRegister  = "Register"
	ActionAdmit     = "Admit"
	ActionDischarge = "Discharge"
	ActionDelete    = "Delete"
	ActionLogin     = "Login"
	ActionHiring    = "Hiring"
)

// TimeLayout is the stored timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// Entry is one audit line.
type Entry struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Detail string    `json:"detail"`
}

// NewEntry stamps an entry with a fresh id and the current time.
func NewEntry(actor, action, detail string) Entry {
	if actor == "" {
		actor = "System"
	}
	return Entry{
		ID:     uuid.NewString(),
		Time:   time.Now().Truncate(time.Second),
		Actor:  actor,
		Action: action,
		Detail: detail,
	}
}

// Sink appends entries.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// Reader returns the newest entries first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// ErrNoReader is returned when no configured sink can be read back.
var ErrNoReader = errors.New("activity log is write-only")

// Discard drops every entry.
type Discard struct{}

// Append implements Sink.
func (Discard) Append(context.Context, Entry) error { return nil }

// Multi fans an entry out to every sink. Recent is served by the first
// sink that implements Reader.
type Multi []Sink

// Append implements Sink. All sinks are attempted; errors are joined.
func (m Multi) Append(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recent implements Reader.
func (m Multi) Recent(ctx context.Context, limit int) ([]Entry, error) {
	for _, s := range m {
		if r, ok := s.(Reader); ok {
			return r.Recent(ctx, limit)
		}
	}
	return nil, ErrNoReader
}
