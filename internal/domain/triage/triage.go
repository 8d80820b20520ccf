// Package triage maps a free-text condition to a severity class and an
// expected length of stay.
package triage

import (
	"strings"

	"github.com/okian/wardflow/internal/domain/model"
)

// Bucket is one keyword group. A condition matches when it contains any
// keyword, compared case-insensitively.
type Bucket struct {
	Keywords []string
	Severity model.Severity
	EstDays  int
}

// DefaultBuckets are evaluated in order; the first match wins.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Keywords: []string{"heart", "stroke", "trauma"}, Severity: model.SeverityCritical, EstDays: 15},
		{Keywords: []string{"flu", "fever"}, Severity: model.SeverityLow, EstDays: 2},
		{Keywords: []string{"fracture", "dengue"}, Severity: model.SeverityModerate, EstDays: 7},
	}
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithBuckets replaces the keyword table. Keywords are lower-cased.
func WithBuckets(buckets []Bucket) Option {
	return func(c *Classifier) {
		if len(buckets) > 0 {
			c.buckets = normalize(buckets)
		}
	}
}

// WithFallback sets the result when no bucket matches.
func WithFallback(sev model.Severity, estDays int) Option {
	return func(c *Classifier) {
		if estDays > 0 {
			c.fallback = Bucket{Severity: sev, EstDays: estDays}
		}
	}
}

// Classifier is a pure, deterministic keyword classifier.
type Classifier struct {
	buckets  []Bucket
	fallback Bucket
}

// New creates a Classifier with the default table.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		buckets:  normalize(DefaultBuckets()),
		fallback: Bucket{Severity: model.SeverityLow, EstDays: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the severity and estimated stay in days. Age is part of
// the contract but does not influence the result.
func (c *Classifier) Classify(condition string, _ int) (model.Severity, int) {
	text := strings.ToLower(condition)
	for _, b := range c.buckets {
		for _, kw := range b.Keywords {
			if kw != "" && strings.Contains(text, kw) {
				return b.Severity, b.EstDays
			}
		}
	}
	return c.fallback.Severity, c.fallback.EstDays
}

func normalize(in []Bucket) []Bucket {
	out := make([]Bucket, len(in))
	for i, b := range in {
		kws := make([]string, len(b.Keywords))
		for j, kw := range b.Keywords {
			kws[j] = strings.ToLower(strings.TrimSpace(kw))
		}
		out[i] = Bucket{Keywords: kws, Severity: b.Severity, EstDays: b.EstDays}
	}
	return out
}
