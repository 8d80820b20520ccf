// Package scoring computes the priority score that orders the waiting queue.
package scoring

import "github.com/okian/wardflow/internal/domain/model"

// Default scoring configuration constants.
const (
	defaultCriticalBase = 100
	defaultModerateBase = 50
	defaultBase         = 10
	defaultSeniorAge    = 60
	defaultSeniorBonus  = 5
)

// Scorer maps urgency, severity and age to a priority score.
type Scorer interface {
	Score(urgency model.Urgency, severity model.Severity, age int) int
}

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithCriticalBase sets the base score for urgency Critical.
func WithCriticalBase(v int) Option {
	return func(p *Policy) {
		if v > 0 {
			p.criticalBase = v
		}
	}
}

// WithModerateBase sets the base score for severity Moderate.
func WithModerateBase(v int) Option {
	return func(p *Policy) {
		if v > 0 {
			p.moderateBase = v
		}
	}
}

// WithBase sets the base score for everything else.
func WithBase(v int) Option {
	return func(p *Policy) {
		if v > 0 {
			p.base = v
		}
	}
}

// WithSeniorBonus adds bonus to patients strictly older than age.
func WithSeniorBonus(age, bonus int) Option {
	return func(p *Policy) {
		if age >= 0 && bonus >= 0 {
			p.seniorAge = age
			p.seniorBonus = bonus
		}
	}
}

// Policy is the additive scoring rule.
//
// Only urgency lifts a patient to the critical base. Severity Critical on a
// Normal-urgency record falls through to the plain base; registration never
// produces that combination because it derives urgency from severity.
type Policy struct {
	criticalBase int
	moderateBase int
	base         int
	seniorAge    int
	seniorBonus  int
}

// NewPolicy creates a Policy with the default weights.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		criticalBase: defaultCriticalBase,
		moderateBase: defaultModerateBase,
		base:         defaultBase,
		seniorAge:    defaultSeniorAge,
		seniorBonus:  defaultSeniorBonus,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Score computes the priority score.
func (p *Policy) Score(urgency model.Urgency, severity model.Severity, age int) int {
	var score int
	switch {
	case urgency == model.UrgencyCritical:
		score = p.criticalBase
	case severity == model.SeverityModerate:
		score = p.moderateBase
	default:
		score = p.base
	}
	if age > p.seniorAge {
		score += p.seniorBonus
	}
	return score
}
