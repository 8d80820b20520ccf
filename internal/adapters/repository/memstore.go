package repository

import (
	"context"
	"sync"

	"github.com/okian/wardflow/internal/domain/model"
)

// MemoryStore keeps the patient set in process memory. Both directions copy,
// so callers never share the backing slice.
type MemoryStore struct {
	mu       sync.RWMutex
	patients []model.Patient
	settings
}

// NewMemoryStore creates a store seeded with patients. Seeded scores are
// recomputed the same way a file-backed store would on load.
func NewMemoryStore(patients []model.Patient, opts ...Option) *MemoryStore {
	s := &MemoryStore{settings: newSettings(opts)}
	s.patients = s.rescore(patients)
	return s
}

func (s *MemoryStore) rescore(in []model.Patient) []model.Patient {
	out := clonePatients(in)
	for i := range out {
		out[i].Score = s.scorer.Score(out[i].Urgency, out[i].Severity, out[i].Age)
	}
	return out
}

// LoadAll implements Store.
func (s *MemoryStore) LoadAll(ctx context.Context) ([]model.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := checkUnique(s.patients); err != nil {
		return nil, err
	}
	return clonePatients(s.patients), nil
}

// SaveAll implements Store.
func (s *MemoryStore) SaveAll(ctx context.Context, patients []model.Patient) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := s.rescore(patients)
	s.mu.Lock()
	s.patients = next
	s.mu.Unlock()
	return nil
}
