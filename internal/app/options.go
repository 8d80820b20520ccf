package service

import (
	"github.com/okian/wardflow/internal/adapters/activity"
	"github.com/okian/wardflow/internal/adapters/lock"
	"github.com/okian/wardflow/internal/adapters/repository"
	"github.com/okian/wardflow/internal/adapters/roster"
	"github.com/okian/wardflow/internal/domain/admission"
	"github.com/okian/wardflow/internal/domain/scoring"
	"github.com/okian/wardflow/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the authoritative record store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRoster sets the doctor roster used for listing, hiring and
// registration suggestions.
func WithRoster(r roster.Roster) Option {
	return func(s *Service) {
		if r != nil {
			s.doctors = r
		}
	}
}

// WithActivity sets the activity sink. If it also implements
// activity.Reader, Activity serves from it.
func WithActivity(sink activity.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.activity = sink
		}
	}
}

// WithLocker sets the cycle lock.
func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithClassifier sets the triage classifier.
func WithClassifier(c admission.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithScorer sets the priority scorer used at registration.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithBedCount sets the fixed size of the bed pool.
func WithBedCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.bedCount = n
		}
	}
}

// WithSlotFunc sets the generator for appointment slots given to patients
// registered without one.
func WithSlotFunc(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.slot = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
