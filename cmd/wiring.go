package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/wardflow/internal/adapters/activity"
	"github.com/okian/wardflow/internal/adapters/http/auth"
	"github.com/okian/wardflow/internal/adapters/lock"
	"github.com/okian/wardflow/internal/adapters/mq/queue"
	"github.com/okian/wardflow/internal/adapters/mq/worker"
	"github.com/okian/wardflow/internal/adapters/repository"
	"github.com/okian/wardflow/internal/adapters/roster"
	"github.com/okian/wardflow/internal/adapters/sqldb"
	service "github.com/okian/wardflow/internal/app"
	"github.com/okian/wardflow/internal/config"
	"github.com/okian/wardflow/internal/domain/scoring"
	"github.com/okian/wardflow/pkg/logger"
)

const drainTimeout = 10 * time.Second

// components are the adapters built from configuration. close releases them
// in reverse order of construction.
type components struct {
	store    repository.Store
	roster   roster.Roster
	activity activity.Sink
	locker   lock.Locker
	scorer   scoring.Scorer
	closers  []func() error
}

func (c *components) close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// configureLogging re-initializes the global logger with cfg's format and
// level. opts are applied before the format.
func configureLogging(cfg *config.Config, opts ...logger.Option) error {
	if cfg.LogFormat == config.LogFormatJSON {
		opts = append(opts, logger.WithJSON(true))
	}
	if err := logger.Init(opts...); err != nil {
		return err
	}
	return logger.SetLevelString(cfg.LogLevel)
}

func newScorer(cfg config.ScoringConfig) scoring.Scorer {
	return scoring.NewPolicy(
		scoring.WithCriticalBase(cfg.CriticalBase),
		scoring.WithModerateBase(cfg.ModerateBase),
		scoring.WithBase(cfg.Base),
		scoring.WithSeniorBonus(cfg.SeniorAge, cfg.SeniorBonus),
	)
}

// build wires store, roster, activity log and lock for cfg. On error everything
// already opened is closed.
func build(ctx context.Context, cfg *config.Config) (_ *components, err error) {
	c := &components{scorer: newScorer(cfg.Scoring)}
	defer func() {
		if err != nil {
			_ = c.close()
		}
	}()

	var db *sqldb.DB
	switch cfg.Store.Driver {
	case config.StoreSQLite, config.StorePostgres:
		db, err = sqldb.Open(ctx, sqldb.Config{
			Driver:     cfg.Store.Driver,
			SQLitePath: cfg.Store.SQLitePath,
			Postgres: sqldb.PostgresConfig{
				Host:     cfg.Store.Postgres.Host,
				Port:     cfg.Store.Postgres.Port,
				Database: cfg.Store.Postgres.Database,
				User:     cfg.Store.Postgres.User,
				Password: cfg.Store.Postgres.Password,
				SSLMode:  cfg.Store.Postgres.SSLMode,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
		}
		c.closers = append(c.closers, db.Close)
		c.store = repository.NewSQLStore(db, repository.WithScorer(c.scorer))
		c.roster = roster.NewSQL(db)
	case config.StoreMemory:
		c.store = repository.NewMemoryStore(nil, repository.WithScorer(c.scorer))
	default:
		c.store = repository.NewCSVStore(cfg.Store.CSVPath, repository.WithScorer(c.scorer))
		if cfg.Roster.CSVPath != "" {
			c.roster = roster.NewCSV(cfg.Roster.CSVPath)
		}
	}
	if c.roster == nil {
		c.roster = roster.NewMemory(roster.Defaults())
	}

	// The first sink is the one read back by the activity endpoint.
	var sinks activity.Multi
	switch {
	case db != nil:
		sinks = append(sinks, activity.NewSQLLog(db))
	case cfg.Activity.CSVPath != "":
		sinks = append(sinks, activity.NewCSVLog(cfg.Activity.CSVPath))
	}
	if cfg.Activity.Kafka.Enabled() {
		kl := activity.NewKafkaLog(cfg.Activity.Kafka.Brokers, cfg.Activity.Kafka.Topic)
		c.closers = append(c.closers, kl.Close)
		d := cfg.Activity.Delivery
		pool := worker.NewPool(d.Workers,
			queue.NewInMemoryQueue(queue.WithCapacity(d.QueueCapacity)),
			kl,
			worker.WithDeliveryTimeout(d.Timeout()),
		)
		// Started detached from ctx; close drains it before the writer closes.
		pool.Start(context.WithoutCancel(ctx))
		c.closers = append(c.closers, func() error {
			sctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
			return pool.Shutdown(sctx)
		})
		sinks = append(sinks, pool)
	}
	c.activity = sinks

	switch cfg.Lock.Driver {
	case config.LockRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Lock.Redis.Addr,
			Password: cfg.Lock.Redis.Password,
			DB:       cfg.Lock.Redis.DB,
		})
		c.closers = append(c.closers, client.Close)
		if err = client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis %s: %w", cfg.Lock.Redis.Addr, err)
		}
		c.locker = lock.NewRedis(client,
			lock.WithKey(cfg.Lock.Redis.Key),
			lock.WithTTL(cfg.Lock.Redis.TTL()),
			lock.WithPollInterval(cfg.Lock.Redis.Poll()),
		)
	default:
		c.locker = lock.NewLocal()
	}
	return c, nil
}

// newService builds the scheduler over c.
func newService(cfg *config.Config, c *components, log logger.Logger) *service.Service {
	return service.New(
		service.WithLogger(log),
		service.WithStore(c.store),
		service.WithRoster(c.roster),
		service.WithActivity(c.activity),
		service.WithLocker(c.locker),
		service.WithScorer(c.scorer),
		service.WithBedCount(cfg.BedCount),
	)
}

// newAuth maps configured users to login accounts.
func newAuth(cfg *config.Config) *auth.Manager {
	accounts := make(map[string]auth.Account, len(cfg.Users))
	for name, u := range cfg.Users {
		accounts[name] = auth.Account{PasswordHash: u.PasswordHash, Role: u.Role}
	}
	return auth.NewManager([]byte(cfg.Session.Secret), accounts,
		auth.WithMaxAge(cfg.Session.MaxAgeS),
		auth.WithSecureCookie(cfg.Session.Secure),
	)
}
