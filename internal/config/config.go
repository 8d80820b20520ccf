// Package config defines service configuration and its defaults.
//
// Nested sections map to dotted koanf keys (store.driver, lock.redis.addr).
package config

import (
	"fmt"
	"time"
)

// Store drivers.
const (
	StoreCSV      = "csv"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Lock drivers.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Roles.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BedCount is the fixed size of the bed pool.
	BedCount int `koanf:"bed_count"`

	Store    StoreConfig     `koanf:"store"`
	Activity ActivityConfig  `koanf:"activity"`
	Roster   RosterConfig    `koanf:"roster"`
	Lock     LockConfig      `koanf:"lock"`
	Session  SessionConfig   `koanf:"session"`
	Scoring  ScoringConfig   `koanf:"scoring"`
	Users    map[string]User `koanf:"users"`
}

// StoreConfig selects where patient records live.
type StoreConfig struct {
	Driver     string         `koanf:"driver"`
	CSVPath    string         `koanf:"csv_path"`
	SQLitePath string         `koanf:"sqlite_path"`
	Postgres   PostgresConfig `koanf:"postgres"`
}

// PostgresConfig holds connection settings for the postgres driver.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

// ActivityConfig selects activity sinks. Empty values disable a sink.
type ActivityConfig struct {
	CSVPath  string         `koanf:"csv_path"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Delivery DeliveryConfig `koanf:"delivery"`
}

// DeliveryConfig sizes the asynchronous queue in front of the kafka sink.
type DeliveryConfig struct {
	QueueCapacity int `koanf:"queue_capacity"`
	Workers       int `koanf:"workers"`
	TimeoutMS     int `koanf:"timeout_ms"`
}

// Timeout returns the per-entry delivery deadline.
func (d DeliveryConfig) Timeout() time.Duration { return time.Duration(d.TimeoutMS) * time.Millisecond }

// KafkaConfig configures the activity event stream.
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// Enabled reports whether both brokers and a topic are set.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 && k.Topic != "" }

// RosterConfig locates the doctor roster for the csv store driver. The SQL
// drivers keep the roster in the same database as the patients; an empty
// path keeps it in memory.
type RosterConfig struct {
	CSVPath string `koanf:"csv_path"`
}

// LockConfig selects the cycle lock.
type LockConfig struct {
	Driver string      `koanf:"driver"`
	Redis  RedisConfig `koanf:"redis"`
}

// RedisConfig configures the Redis lease lock.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Key      string `koanf:"key"`
	TTLMS    int    `koanf:"ttl_ms"`
	PollMS   int    `koanf:"poll_ms"`
}

// TTL returns the lease duration.
func (r RedisConfig) TTL() time.Duration { return time.Duration(r.TTLMS) * time.Millisecond }

// Poll returns the retry interval.
func (r RedisConfig) Poll() time.Duration { return time.Duration(r.PollMS) * time.Millisecond }

// SessionConfig configures the login cookie.
type SessionConfig struct {
	// Secret signs the cookie. A random key is generated when empty, which
	// invalidates sessions on restart.
	Secret  string `koanf:"secret"`
	MaxAgeS int    `koanf:"max_age_s"`

	// Secure restricts the cookie to HTTPS.
	Secure bool `koanf:"secure"`
}

// ScoringConfig tunes the priority policy.
type ScoringConfig struct {
	CriticalBase int `koanf:"critical_base"`
	ModerateBase int `koanf:"moderate_base"`
	Base         int `koanf:"base"`
	SeniorAge    int `koanf:"senior_age"`
	SeniorBonus  int `koanf:"senior_bonus"`
}

// User is a login account. PasswordHash is a bcrypt hash.
type User struct {
	PasswordHash string `koanf:"password_hash"`
	Role         string `koanf:"role"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: LogFormatText,
		Addr:      ":9080",
		BedCount:  20,
		Store: StoreConfig{
			Driver:     StoreCSV,
			CSVPath:    "hospital_data.csv",
			SQLitePath: "wardflow.db",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "wardflow",
				User:     "wardflow",
				SSLMode:  "disable",
			},
		},
		Activity: ActivityConfig{
			CSVPath: "activity_log.csv",
			Delivery: DeliveryConfig{
				QueueCapacity: 1024,
				Workers:       2,
				TimeoutMS:     5000,
			},
		},
		Roster: RosterConfig{
			CSVPath: "doctors.csv",
		},
		Lock: LockConfig{
			Driver: LockLocal,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Key:    "wardflow:cycle",
				TTLMS:  10_000,
				PollMS: 25,
			},
		},
		Session: SessionConfig{
			MaxAgeS: 8 * 3600,
		},
		Scoring: ScoringConfig{
			CriticalBase: 100,
			ModerateBase: 50,
			Base:         10,
			SeniorAge:    60,
			SeniorBonus:  5,
		},
		Users: map[string]User{},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("%w: log_format must be %s or %s, got %q", ErrInvalidConfig, LogFormatText, LogFormatJSON, c.LogFormat)
	}
	if c.BedCount < 1 {
		return fmt.Errorf("%w: bed_count must be positive, got %d", ErrInvalidConfig, c.BedCount)
	}
	switch c.Store.Driver {
	case StoreCSV:
		if c.Store.CSVPath == "" {
			return fmt.Errorf("%w: store.csv_path required for csv driver", ErrInvalidConfig)
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("%w: store.sqlite_path required for sqlite driver", ErrInvalidConfig)
		}
	case StorePostgres:
		if c.Store.Postgres.Host == "" || c.Store.Postgres.Database == "" {
			return fmt.Errorf("%w: store.postgres host and database required", ErrInvalidConfig)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("%w: unknown store.driver %q", ErrInvalidConfig, c.Store.Driver)
	}
	switch c.Lock.Driver {
	case LockLocal:
	case LockRedis:
		if c.Lock.Redis.Addr == "" {
			return fmt.Errorf("%w: lock.redis.addr required for redis lock", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown lock.driver %q", ErrInvalidConfig, c.Lock.Driver)
	}
	if len(c.Activity.Kafka.Brokers) > 0 && c.Activity.Kafka.Topic == "" {
		return fmt.Errorf("%w: activity.kafka.topic required when brokers are set", ErrInvalidConfig)
	}
	if d := c.Activity.Delivery; d.QueueCapacity < 1 || d.Workers < 1 || d.TimeoutMS < 1 {
		return fmt.Errorf("%w: activity.delivery values must be positive", ErrInvalidConfig)
	}
	for name, u := range c.Users {
		if u.Role != RoleAdmin && u.Role != RoleStaff {
			return fmt.Errorf("%w: user %q has unknown role %q", ErrInvalidConfig, name, u.Role)
		}
		if u.PasswordHash == "" {
			return fmt.Errorf("%w: user %q has no password_hash", ErrInvalidConfig, name)
		}
	}
	return nil
}
