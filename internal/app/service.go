// Package service runs the admission scheduler: every mutating operation
// reloads the ward from the record store, applies one transition and
// persists the result while holding the cycle lock.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/wardflow/internal/adapters/activity"
	"github.com/okian/wardflow/internal/adapters/lock"
	"github.com/okian/wardflow/internal/adapters/repository"
	"github.com/okian/wardflow/internal/adapters/roster"
	"github.com/okian/wardflow/internal/domain/admission"
	"github.com/okian/wardflow/internal/domain/beds"
	"github.com/okian/wardflow/internal/domain/model"
	"github.com/okian/wardflow/internal/domain/scoring"
	"github.com/okian/wardflow/internal/domain/triage"
	"github.com/okian/wardflow/internal/domain/types"
	"github.com/okian/wardflow/pkg/logger"
	"github.com/okian/wardflow/pkg/metrics"
)

// DefaultDoctor is assigned when registration names no doctor and no
// roster keyword matches the condition.
const DefaultDoctor = "General Physician"

// SystemActor is recorded when an operation has no authenticated actor.
const SystemActor = "System"

// activityTimeout bounds one activity append after a committed transition.
const activityTimeout = 5 * time.Second

// Operation names used in logs and metrics.
const (
	opRegister    = "register"
	opAdmitToUnit = "admit_to_unit"
	opAdmitNext   = "admit_next"
	opDischarge   = "discharge"
	opDelete      = "delete"
	opAddDoctor   = "add_doctor"
)

// Service implements the scheduler operations used by the HTTP API.
type Service struct {
	store      repository.Store
	doctors    roster.Roster
	activity   activity.Sink
	locker     lock.Locker
	classifier admission.Classifier
	scorer     scoring.Scorer
	bedCount   int
	slot       func() string
	logger     logger.Logger
}

// New constructs a Service. Without options it keeps records in memory.
func New(opts ...Option) *Service {
	s := &Service{
		doctors:    roster.NewMemory(roster.Defaults()),
		activity:   activity.Discard{},
		locker:     lock.NewLocal(),
		classifier: triage.New(),
		scorer:     scoring.NewPolicy(),
		bedCount:   beds.DefaultCapacity,
		slot:       randomSlot,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(nil, repository.WithScorer(s.scorer))
	}
	if s.logger == nil {
		s.logger = logger.Named("scheduler")
	}
	metrics.UpdateBeds(0, s.bedCount)
	return s
}

// BedCount returns the size of the bed pool.
func (s *Service) BedCount() int { return s.bedCount }

// randomSlot picks a half-hour morning slot between 9:00 and 12:30.
func randomSlot() string {
	hour := 9 + rand.IntN(4)
	minute := "00"
	if rand.IntN(2) == 1 {
		minute = "30"
	}
	suffix := "AM"
	if hour == 12 {
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%s %s", hour, minute, suffix)
}

// Register adds a new Waiting patient.
func (s *Service) Register(ctx context.Context, actor string, in admission.RegisterInput) (model.Patient, error) {
	if in.Doctor == "" {
		in.Doctor = s.suggestDoctor(ctx, in.Condition)
	}
	if in.Time == "" {
		in.Time = s.slot()
	}
	p, err := s.mutate(ctx, opRegister, func(st *admission.State) (model.Patient, error) {
		return st.Register(in, s.classifier, s.scorer)
	})
	if err != nil {
		return model.Patient{}, err
	}
	s.record(ctx, actor, activity.ActionRegister, fmt.Sprintf("Added %s (Priority: %d)", p.Name, p.Score))
	return p, nil
}

// AdmitToUnit admits the highest-priority waiting patient into bed u.
func (s *Service) AdmitToUnit(ctx context.Context, actor string, u model.Unit) (model.Patient, error) {
	p, err := s.mutate(ctx, opAdmitToUnit, func(st *admission.State) (model.Patient, error) {
		return st.AdmitToUnit(u)
	})
	if err != nil {
		return model.Patient{}, err
	}
	metrics.RecordAdmission()
	s.record(ctx, actor, activity.ActionAdmit, fmt.Sprintf("Admitted %s to %s", p.Name, p.Unit))
	return p, nil
}

// AdmitNext admits the highest-priority waiting patient into the lowest free bed.
func (s *Service) AdmitNext(ctx context.Context, actor string) (model.Patient, error) {
	p, err := s.mutate(ctx, opAdmitNext, func(st *admission.State) (model.Patient, error) {
		return st.AdmitNext()
	})
	if err != nil {
		return model.Patient{}, err
	}
	metrics.RecordAdmission()
	s.record(ctx, actor, activity.ActionAdmit, fmt.Sprintf("Admitted %s to %s", p.Name, p.Unit))
	return p, nil
}

// Discharge releases a patient's bed and marks them Discharged.
func (s *Service) Discharge(ctx context.Context, actor string, id int, privileged bool) (model.Patient, error) {
	if !privileged {
		metrics.RecordOperation(opDischarge, metrics.OutcomeRejected, 0)
		return model.Patient{}, ErrNotAuthorized
	}
	p, err := s.mutate(ctx, opDischarge, func(st *admission.State) (model.Patient, error) {
		return st.Discharge(id)
	})
	if err != nil {
		return model.Patient{}, err
	}
	s.record(ctx, actor, activity.ActionDischarge, fmt.Sprintf("Discharged %d", p.ID))
	return p, nil
}

// Delete removes a patient record entirely.
func (s *Service) Delete(ctx context.Context, actor string, id int, privileged bool) (model.Patient, error) {
	if !privileged {
		metrics.RecordOperation(opDelete, metrics.OutcomeRejected, 0)
		return model.Patient{}, ErrNotAuthorized
	}
	p, err := s.mutate(ctx, opDelete, func(st *admission.State) (model.Patient, error) {
		return st.Delete(id)
	})
	if err != nil {
		return model.Patient{}, err
	}
	s.record(ctx, actor, activity.ActionDelete, fmt.Sprintf("Deleted ID %d", p.ID))
	return p, nil
}

// suggestDoctor names the first roster doctor whose keywords match
// condition. A roster that cannot be read falls back to DefaultDoctor.
func (s *Service) suggestDoctor(ctx context.Context, condition string) string {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		s.logger.Warn(ctx, "roster unavailable for doctor suggestion", logger.Error(err))
		return DefaultDoctor
	}
	if d, ok := roster.Suggest(doctors, condition); ok {
		return d.Name
	}
	return DefaultDoctor
}

// Doctors returns the roster in the order doctors were added.
func (s *Service) Doctors(ctx context.Context) ([]model.Doctor, error) {
	return s.doctors.List(ctx)
}

// AddDoctor puts a doctor on the roster. It runs under the cycle lock so
// the name check and the write are not interleaved with another instance.
func (s *Service) AddDoctor(ctx context.Context, actor string, d model.Doctor, privileged bool) (model.Doctor, error) {
	if !privileged {
		metrics.RecordOperation(opAddDoctor, metrics.OutcomeRejected, 0)
		return model.Doctor{}, ErrNotAuthorized
	}
	start := time.Now()
	d, err := roster.Normalize(d)
	if err == nil {
		err = s.addDoctor(ctx, d)
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	switch {
	case err == nil:
		metrics.RecordOperation(opAddDoctor, metrics.OutcomeOK, elapsed)
	case errors.Is(err, roster.ErrInvalidDoctor), errors.Is(err, roster.ErrDuplicateDoctor):
		metrics.RecordOperation(opAddDoctor, metrics.OutcomeRejected, elapsed)
		return model.Doctor{}, err
	default:
		metrics.RecordOperation(opAddDoctor, metrics.OutcomeError, elapsed)
		s.logger.Error(ctx, "operation failed", logger.String("op", opAddDoctor), logger.Error(err))
		return model.Doctor{}, err
	}
	s.record(ctx, actor, activity.ActionHiring, "Added "+d.Name)
	return d, nil
}

func (s *Service) addDoctor(ctx context.Context, d model.Doctor) error {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return fmt.Errorf("acquire cycle lock: %w", err)
	}
	defer unlock()
	return s.doctors.Add(ctx, d)
}

// RecordLogin appends a Login entry for actor.
func (s *Service) RecordLogin(ctx context.Context, actor, detail string) {
	s.record(ctx, actor, activity.ActionLogin, detail)
}

type transition func(st *admission.State) (model.Patient, error)

// mutate runs one reload-transition-persist cycle under the cycle lock.
func (s *Service) mutate(ctx context.Context, op string, fn transition) (model.Patient, error) {
	start := time.Now()
	p, st, err := s.cycle(ctx, fn)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	switch {
	case err == nil:
		metrics.RecordOperation(op, metrics.OutcomeOK, elapsed)
		metrics.UpdateQueueLength(st.Queue().Len())
		metrics.UpdateBeds(st.Pool().Occupied(), st.Pool().Capacity())
		s.logger.Debug(ctx, "operation applied",
			logger.String("op", op),
			logger.Int("patient_id", p.ID),
			logger.String("status", string(p.Status)),
		)
	case isRejection(err):
		metrics.RecordOperation(op, metrics.OutcomeRejected, elapsed)
		s.logger.Debug(ctx, "operation rejected", logger.String("op", op), logger.Error(err))
	default:
		metrics.RecordOperation(op, metrics.OutcomeError, elapsed)
		s.logger.Error(ctx, "operation failed", logger.String("op", op), logger.Error(err))
	}
	return p, err
}

func (s *Service) cycle(ctx context.Context, fn transition) (model.Patient, *admission.State, error) {
	waitStart := time.Now()
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return model.Patient{}, nil, fmt.Errorf("acquire cycle lock: %w", err)
	}
	defer unlock()
	metrics.RecordLockWait(float64(time.Since(waitStart).Microseconds()) / 1000)

	st, err := s.load(ctx)
	if err != nil {
		return model.Patient{}, nil, err
	}
	p, err := fn(st)
	if err != nil {
		return model.Patient{}, nil, err
	}

	saveStart := time.Now()
	if err := s.store.SaveAll(ctx, st.Records()); err != nil {
		metrics.RecordErrorByComponent("store", "save")
		return model.Patient{}, nil, fmt.Errorf("persist records: %w", err)
	}
	metrics.RecordStoreSave(float64(time.Since(saveStart).Microseconds()) / 1000)
	return p, st, nil
}

func (s *Service) load(ctx context.Context) (*admission.State, error) {
	start := time.Now()
	patients, err := s.store.LoadAll(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("store", "load")
		return nil, fmt.Errorf("load records: %w", err)
	}
	metrics.RecordStoreLoad(float64(time.Since(start).Microseconds()) / 1000)
	return admission.Rebuild(patients, s.bedCount), nil
}

// record appends an activity entry. Failures are logged, never returned:
// the transition is already persisted. The append outlives a cancelled
// request so a committed transition is still audited.
func (s *Service) record(ctx context.Context, actor, action, detail string) {
	if actor == "" {
		actor = SystemActor
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activityTimeout)
	defer cancel()
	if err := s.activity.Append(actx, activity.NewEntry(actor, action, detail)); err != nil {
		metrics.RecordActivityError()
		s.logger.Warn(ctx, "activity append failed",
			logger.String("action", action),
			logger.String("actor", actor),
			logger.Error(err),
		)
	}
}

func isRejection(err error) bool {
	for _, target := range []error{
		admission.ErrDuplicateID,
		admission.ErrEmptyQueue,
		admission.ErrPoolFull,
		admission.ErrNotFound,
		admission.ErrInvalidUnit,
		admission.ErrUnitOccupied,
		admission.ErrAlreadyDischarged,
		admission.ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ListPatients returns every record ordered by id.
func (s *Service) ListPatients(ctx context.Context) ([]model.Patient, error) {
	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return st.Patients(), nil
}

// Patient returns one record.
func (s *Service) Patient(ctx context.Context, id int) (model.Patient, error) {
	st, err := s.load(ctx)
	if err != nil {
		return model.Patient{}, err
	}
	p, ok := st.Find(id)
	if !ok {
		return model.Patient{}, fmt.Errorf("%w: %d", admission.ErrNotFound, id)
	}
	return p, nil
}

// Beds returns the bed map in index order.
func (s *Service) Beds(ctx context.Context) ([]types.Bed, error) {
	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return st.Pool().Beds(), nil
}

// Queue returns waiting patients in admission order.
func (s *Service) Queue(ctx context.Context) ([]types.QueueEntry, error) {
	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	ordered := st.Queue().Drain()
	out := make([]types.QueueEntry, len(ordered))
	for i, p := range ordered {
		out[i] = types.QueueEntry{
			Position: i + 1,
			ID:       p.ID,
			Name:     p.Name,
			Score:    p.Score,
			Severity: string(p.Severity),
		}
	}
	return out, nil
}

// Dashboard summarizes beds and patient counts.
func (s *Service) Dashboard(ctx context.Context) (types.Dashboard, error) {
	st, err := s.load(ctx)
	if err != nil {
		return types.Dashboard{}, err
	}
	d := types.Dashboard{
		Beds:         st.Pool().Beds(),
		BedCount:     st.Pool().Capacity(),
		BedsOccupied: st.Pool().Occupied(),
		Waiting:      st.Queue().Len(),
		Total:        len(st.Records()),
	}
	for _, p := range st.Records() {
		if p.Active() {
			d.Active++
		}
	}
	return d, nil
}

// Activity returns up to limit recent entries, newest first.
func (s *Service) Activity(ctx context.Context, limit int) ([]activity.Entry, error) {
	r, ok := s.activity.(activity.Reader)
	if !ok {
		return nil, activity.ErrNoReader
	}
	return r.Recent(ctx, limit)
}
