// Package sqldb opens the SQL database shared by the record store, the
// doctor roster and the activity log. SQLite is the default; PostgreSQL is
// reached through pgx.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnsupportedDriver is returned by Open for unknown drivers.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// PostgresConfig holds connection settings for PostgreSQL.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// Config selects and configures a driver.
type Config struct {
	Driver     string
	SQLitePath string
	Postgres   PostgresConfig
}

// DB wraps *sql.DB with the driver name used for placeholder rewriting.
type DB struct {
	*sql.DB
	driver string
}

// Open connects and migrates.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return openSQLite(ctx, cfg.SQLitePath)
	case DriverPostgres:
		return openPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

func openSQLite(ctx context.Context, path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; the cycle lock already serializes mutations
	sqlDB.SetMaxOpenConns(1)
	db := &DB{DB: sqlDB, driver: DriverSQLite}
	if err := db.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

func openPostgres(ctx context.Context, cfg PostgresConfig) (*DB, error) {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, sslmode)
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db := &DB{DB: sqlDB, driver: DriverPostgres}
	if err := db.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return db, nil
}

// Driver returns the driver name.
func (db *DB) Driver() string { return db.driver }

// Q rewrites ? placeholders for PostgreSQL and passes through for SQLite.
func (db *DB) Q(query string) string {
	if db.driver == DriverPostgres {
		return Rebind(query)
	}
	return query
}

// Rebind replaces each ? with $1, $2, ... in order.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) migrate(ctx context.Context) error {
	seq := "seq INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.driver == DriverPostgres {
		seq = "seq BIGSERIAL PRIMARY KEY"
	}
	stmts := append(schema, fmt.Sprintf(activityTable, seq), fmt.Sprintf(doctorsTable, seq), seedDoctors)
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Both dialects accept this DDL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		seq       INTEGER NOT NULL,
		id        INTEGER PRIMARY KEY,
		name      TEXT NOT NULL,
		age       INTEGER NOT NULL,
		disease   TEXT NOT NULL,
		status    TEXT NOT NULL,
		priority  TEXT NOT NULL,
		room      TEXT NOT NULL,
		severity  TEXT NOT NULL,
		doctor    TEXT NOT NULL,
		time      TEXT NOT NULL,
		est_days  INTEGER NOT NULL
	)`,
}

// activityTable orders entries by insertion; the seq column is dialect specific.
const activityTable = `CREATE TABLE IF NOT EXISTS activity (
		%s,
		id       TEXT NOT NULL UNIQUE,
		ts       TEXT NOT NULL,
		actor    TEXT NOT NULL,
		action   TEXT NOT NULL,
		details  TEXT NOT NULL
	)`

// doctorsTable holds the roster in insertion order.
const doctorsTable = `CREATE TABLE IF NOT EXISTS doctors (
		%s,
		name      TEXT NOT NULL UNIQUE,
		specialty TEXT NOT NULL,
		room      TEXT NOT NULL,
		keywords  TEXT NOT NULL
	)`

// seedDoctors gives an empty roster its first entry.
const seedDoctors = `INSERT INTO doctors (name, specialty, room, keywords)
	SELECT 'Dr. Sarah', 'Cardiology', 'Room 101', 'heart,attack'
	WHERE NOT EXISTS (SELECT 1 FROM doctors)`
