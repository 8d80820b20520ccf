package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKey  = "wardflow:cycle"
	defaultTTL  = 10 * time.Second
	defaultPoll = 25 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease lock on a single key. A holder that dies loses the
// lease after the TTL.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	poll   time.Duration
}

// RedisOption configures Redis.
type RedisOption func(*Redis)

// WithKey sets the lock key.
func WithKey(key string) RedisOption {
	return func(r *Redis) {
		if key != "" {
			r.key = key
		}
	}
}

// WithTTL sets the lease duration.
func WithTTL(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithPollInterval sets the retry interval while the lock is held elsewhere.
func WithPollInterval(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.poll = d
		}
	}
}

// NewRedis creates a lease lock over client.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: defaultKey, ttl: defaultTTL, poll: defaultPoll}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the lock key.
func (r *Redis) Key() string { return r.key }

// Lock implements Locker. It polls until the key is free or ctx ends.
func (r *Redis) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("acquire %s: %w", r.key, err)
		}
		if ok {
			return func() {
				// the caller's ctx may already be done
				_ = releaseScript.Run(context.WithoutCancel(ctx), r.client, []string{r.key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}
