// Package admission holds the scheduler state rebuilt from the record set
// and the single-step transitions applied to it. Nothing here performs I/O.
package admission

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/wardflow/internal/domain/beds"
	"github.com/okian/wardflow/internal/domain/model"
	"github.com/okian/wardflow/internal/domain/scoring"
	"github.com/okian/wardflow/internal/domain/waitqueue"
)

// Classifier assigns severity and expected stay from a condition.
type Classifier interface {
	Classify(condition string, age int) (model.Severity, int)
}

// RegisterInput is the caller-supplied part of a new patient.
type RegisterInput struct {
	ID        int
	Name      string
	Age       int
	Condition string
	Critical  bool
	Doctor    string
	Time      string
}

// Validate checks the caller-supplied fields.
func (in RegisterInput) Validate() error {
	switch {
	case in.ID <= 0:
		return fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: missing name", ErrInvalidInput)
	case in.Age < 0:
		return fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	}
	return nil
}

// State is one operation's view of the ward: the authoritative patient set
// plus the queue and pool derived from it. Build a fresh State per
// operation; it is not safe for concurrent use.
type State struct {
	patients []model.Patient
	queue    *waitqueue.Heap
	pool     *beds.Pool
}

// Rebuild derives queue and pool from patients. Waiting patients enter the
// heap in record order, which makes the reconstruction deterministic.
func Rebuild(patients []model.Patient, bedCount int) *State {
	s := &State{
		patients: patients,
		queue:    waitqueue.New(len(patients)),
		pool:     beds.New(bedCount),
	}
	for _, p := range patients {
		if p.Status == model.StatusWaiting {
			s.queue.Insert(p)
		}
	}
	s.pool.Rebuild(patients)
	return s
}

// Records returns the authoritative set in record order, for persisting.
func (s *State) Records() []model.Patient { return s.patients }

// Queue exposes the waiting heap.
func (s *State) Queue() *waitqueue.Heap { return s.queue }

// Pool exposes the bed pool.
func (s *State) Pool() *beds.Pool { return s.pool }

// Patients returns a copy of the set ordered by id ascending.
func (s *State) Patients() []model.Patient {
	out := make([]model.Patient, len(s.patients))
	copy(out, s.patients)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *State) index(id int) int {
	for i := range s.patients {
		if s.patients[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the patient with id.
func (s *State) Find(id int) (model.Patient, bool) {
	if i := s.index(id); i >= 0 {
		return s.patients[i], true
	}
	return model.Patient{}, false
}

// Register classifies, scores and appends a new Waiting patient.
func (s *State) Register(in RegisterInput, c Classifier, sc scoring.Scorer) (model.Patient, error) {
	if err := in.Validate(); err != nil {
		return model.Patient{}, err
	}
	if s.index(in.ID) >= 0 {
		return model.Patient{}, fmt.Errorf("%w: %d", ErrDuplicateID, in.ID)
	}

	severity, days := c.Classify(in.Condition, in.Age)
	urgency := model.UrgencyNormal
	if in.Critical || severity == model.SeverityCritical {
		urgency = model.UrgencyCritical
	}
	p := model.Patient{
		ID:        in.ID,
		Name:      strings.TrimSpace(in.Name),
		Age:       in.Age,
		Condition: in.Condition,
		Status:    model.StatusWaiting,
		Urgency:   urgency,
		Unit:      model.NoUnit,
		Severity:  severity,
		Doctor:    in.Doctor,
		Time:      in.Time,
		EstDays:   days,
		Score:     sc.Score(urgency, severity, in.Age),
	}
	s.patients = append(s.patients, p)
	s.queue.Insert(p)
	return p, nil
}

// AdmitToUnit admits the highest-priority waiting patient to bed u.
func (s *State) AdmitToUnit(u model.Unit) (model.Patient, error) {
	if !s.pool.InRange(u) {
		return model.Patient{}, fmt.Errorf("%w: %s of %d", ErrInvalidUnit, u, s.pool.Capacity())
	}
	if !s.pool.IsFree(u) {
		return model.Patient{}, fmt.Errorf("%w: %s", ErrUnitOccupied, u)
	}
	next, ok := s.queue.ExtractMax()
	if !ok {
		return model.Patient{}, ErrEmptyQueue
	}
	i := s.index(next.ID)
	if i < 0 {
		// queue is built from patients, so this means a caller mutated them
		return model.Patient{}, fmt.Errorf("%w: %d", ErrNotFound, next.ID)
	}
	s.patients[i].Status = model.StatusAdmitted
	s.patients[i].Unit = u
	s.pool.Occupy(u, s.patients[i])
	return s.patients[i], nil
}

// AdmitNext admits the highest-priority waiting patient to the lowest free bed.
func (s *State) AdmitNext() (model.Patient, error) {
	u, ok := s.pool.FirstFree()
	if !ok {
		return model.Patient{}, ErrPoolFull
	}
	return s.AdmitToUnit(u)
}

// Discharge moves a patient to the terminal Discharged state and frees its
// bed. A waiting patient leaves the queue.
func (s *State) Discharge(id int) (model.Patient, error) {
	i := s.index(id)
	if i < 0 {
		return model.Patient{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	p := &s.patients[i]
	switch p.Status {
	case model.StatusDischarged:
		return model.Patient{}, fmt.Errorf("%w: %d", ErrAlreadyDischarged, id)
	case model.StatusAdmitted:
		if occ, ok := s.pool.Occupant(p.Unit); ok && occ == p.ID {
			s.pool.Release(p.Unit)
		}
	case model.StatusWaiting:
		s.rebuildQueueWithout(id)
	}
	p.Status = model.StatusDischarged
	p.Unit = model.NoUnit
	return *p, nil
}

// Delete removes a patient from the set entirely. The id becomes reusable.
func (s *State) Delete(id int) (model.Patient, error) {
	i := s.index(id)
	if i < 0 {
		return model.Patient{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	removed := s.patients[i]
	s.patients = append(s.patients[:i:i], s.patients[i+1:]...)
	switch removed.Status {
	case model.StatusWaiting:
		s.rebuildQueueWithout(id)
	case model.StatusAdmitted:
		if occ, ok := s.pool.Occupant(removed.Unit); ok && occ == removed.ID {
			s.pool.Release(removed.Unit)
		}
	}
	return removed, nil
}

func (s *State) rebuildQueueWithout(id int) {
	q := waitqueue.New(s.queue.Len())
	for _, p := range s.patients {
		if p.Status == model.StatusWaiting && p.ID != id {
			q.Insert(p)
		}
	}
	s.queue = q
}
