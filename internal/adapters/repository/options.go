package repository

import "github.com/okian/wardflow/internal/domain/scoring"

// Option applies a configuration option to a store.
type Option func(*settings)

type settings struct {
	scorer scoring.Scorer
}

func newSettings(opts []Option) settings {
	s := settings{scorer: scoring.NewPolicy()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithScorer sets the scorer used to rebuild priority scores on load.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *settings) {
		if sc != nil {
			s.scorer = sc
		}
	}
}
