// Package repository persists the authoritative patient set. Every store
// supports exactly two operations: load everything and replace everything.
package repository

import (
	"context"

	"github.com/okian/wardflow/internal/domain/model"
)

// Store is the record store behind the reload-mutate-persist cycle.
type Store interface {
	// LoadAll returns every patient in record order. A store with no data
	// returns an empty slice and no error.
	LoadAll(ctx context.Context) ([]model.Patient, error)

	// SaveAll replaces the whole set. Implementations must be all-or-nothing:
	// after a failed SaveAll, LoadAll still returns the previous set.
	SaveAll(ctx context.Context, patients []model.Patient) error
}
