// Package lock serializes reload-mutate-persist cycles. Local covers a single
// process; Redis covers several replicas sharing one store.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when the lock could not be taken before the
// context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out an exclusive critical section. The returned unlock must
// be called exactly once.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// Local is an in-process mutex that honours context cancellation.
type Local struct {
	ch chan struct{}
}

// NewLocal creates an unlocked Local.
func NewLocal() *Local {
	return &Local{ch: make(chan struct{}, 1)}
}

// Lock implements Locker.
func (l *Local) Lock(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrNotAcquired, err)
	}
	select {
	case l.ch <- struct{}{}:
		return func() { <-l.ch }, nil
	case <-ctx.Done():
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}
}
