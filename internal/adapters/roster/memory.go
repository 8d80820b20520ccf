package roster

import (
	"context"
	"sync"

	"github.com/okian/wardflow/internal/domain/model"
)

// Memory keeps the roster in process memory.
type Memory struct {
	mu      sync.RWMutex
	doctors []model.Doctor
}

// NewMemory creates a roster holding seed.
func NewMemory(seed []model.Doctor) *Memory {
	return &Memory{doctors: cloneDoctors(seed)}
}

// List implements Roster.
func (m *Memory) List(ctx context.Context) ([]model.Doctor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneDoctors(m.doctors), nil
}

// Add implements Roster.
func (m *Memory) Add(ctx context.Context, d model.Doctor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, err := Normalize(d)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkNew(m.doctors, d); err != nil {
		return err
	}
	m.doctors = append(m.doctors, d)
	return nil
}
