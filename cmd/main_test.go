package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/wardflow/internal/adapters/activity"
	"github.com/okian/wardflow/internal/adapters/lock"
	"github.com/okian/wardflow/internal/adapters/mq/worker"
	"github.com/okian/wardflow/internal/adapters/repository"
	"github.com/okian/wardflow/internal/adapters/roster"
	"github.com/okian/wardflow/internal/config"
	"github.com/okian/wardflow/internal/domain/admission"
	"github.com/okian/wardflow/internal/domain/model"
	"github.com/okian/wardflow/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.New()
	cfg.BedCount = 2
	cfg.Store.Driver = driver
	cfg.Store.CSVPath = filepath.Join(dir, "patients.csv")
	cfg.Store.SQLitePath = filepath.Join(dir, "wardflow.db")
	cfg.Activity.CSVPath = filepath.Join(dir, "activity.csv")
	cfg.Roster.CSVPath = filepath.Join(dir, "doctors.csv")
	return cfg
}

func TestBuild(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		ctx := context.Background()

		convey.Convey("When the csv driver is selected", func() {
			c, err := build(ctx, testConfig(t, config.StoreCSV))
			convey.So(err, convey.ShouldBeNil)
			defer c.close()

			convey.Convey("Then records and activity go to csv files", func() {
				_, ok := c.store.(*repository.CSVStore)
				convey.So(ok, convey.ShouldBeTrue)
				sinks := c.activity.(activity.Multi)
				convey.So(sinks, convey.ShouldHaveLength, 1)
				_, ok = sinks[0].(*activity.CSVLog)
				convey.So(ok, convey.ShouldBeTrue)
				_, ok = c.locker.(*lock.Local)
				convey.So(ok, convey.ShouldBeTrue)
				_, ok = c.roster.(*roster.CSV)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the sqlite driver is selected", func() {
			cfg := testConfig(t, config.StoreSQLite)
			c, err := build(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer c.close()

			convey.Convey("Then records and activity share the database", func() {
				_, ok := c.store.(*repository.SQLStore)
				convey.So(ok, convey.ShouldBeTrue)
				sinks := c.activity.(activity.Multi)
				convey.So(sinks, convey.ShouldHaveLength, 1)
				_, ok = sinks[0].(*activity.SQLLog)
				convey.So(ok, convey.ShouldBeTrue)
				_, ok = c.roster.(*roster.SQL)
				convey.So(ok, convey.ShouldBeTrue)
			})

			convey.Convey("Then a scheduler over it persists and audits", func() {
				svc := newService(cfg, c, logger.Named("test"))
				_, err := svc.Register(ctx, "desk", admission.RegisterInput{ID: 1, Name: "Ada", Age: 70, Condition: "heart attack"})
				convey.So(err, convey.ShouldBeNil)
				p, err := svc.AdmitNext(ctx, "desk")
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Unit, convey.ShouldEqual, model.Unit(1))

				stored, err := c.store.LoadAll(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(stored, convey.ShouldHaveLength, 1)
				convey.So(stored[0].Status, convey.ShouldEqual, model.StatusAdmitted)
				convey.So(stored[0].Doctor, convey.ShouldEqual, "Dr. Sarah")

				entries, err := svc.Activity(ctx, 10)
				convey.So(err, convey.ShouldBeNil)
				convey.So(entries, convey.ShouldHaveLength, 2)
				convey.So(entries[0].Action, convey.ShouldEqual, activity.ActionAdmit)
			})
		})

		convey.Convey("When memory storage runs without an activity file", func() {
			cfg := testConfig(t, config.StoreMemory)
			cfg.Activity.CSVPath = ""
			c, err := build(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer c.close()

			convey.Convey("Then no sink is configured", func() {
				_, ok := c.store.(*repository.MemoryStore)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(c.activity.(activity.Multi), convey.ShouldBeEmpty)
				_, ok = c.roster.(*roster.Memory)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a kafka stream is configured", func() {
			cfg := testConfig(t, config.StoreCSV)
			cfg.Activity.Kafka = config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "wardflow.activity"}
			c, err := build(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it is appended behind a delivery pool after the readable sink", func() {
				sinks := c.activity.(activity.Multi)
				convey.So(sinks, convey.ShouldHaveLength, 2)
				_, ok := sinks[1].(*worker.Pool)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(c.closers, convey.ShouldHaveLength, 2)
				convey.So(c.close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the redis lock cannot be reached", func() {
			cfg := testConfig(t, config.StoreCSV)
			cfg.Lock.Driver = config.LockRedis
			cfg.Lock.Redis.Addr = "127.0.0.1:1"
			tctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			c, err := build(tctx, cfg)

			convey.Convey("Then build fails", func() {
				convey.So(c, convey.ShouldBeNil)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "ping redis")
			})
		})
	})
}

func TestNewAuth(t *testing.T) {
	convey.Convey("Given configured users", t, func() {
		cfg := config.New()

		convey.Convey("When none are set", func() {
			convey.So(newAuth(cfg).Enabled(), convey.ShouldBeFalse)
		})

		convey.Convey("When an admin is set", func() {
			cfg.Users = map[string]config.User{"admin": {PasswordHash: "$2a$10$x", Role: config.RoleAdmin}}
			convey.So(newAuth(cfg).Enabled(), convey.ShouldBeTrue)
		})

		convey.Convey("When secure cookies are required", func() {
			hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
			convey.So(err, convey.ShouldBeNil)
			cfg.Users = map[string]config.User{"admin": {PasswordHash: string(hash), Role: config.RoleAdmin}}
			cfg.Session.Secure = true
			rec := httptest.NewRecorder()
			_, err = newAuth(cfg).Login(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil), "admin", "admin123")

			convey.Convey("Then the session cookie is marked Secure", func() {
				convey.So(err, convey.ShouldBeNil)
				cookies := rec.Result().Cookies()
				convey.So(cookies, convey.ShouldHaveLength, 1)
				convey.So(cookies[0].Secure, convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigureLogging(t *testing.T) {
	convey.Convey("Given a logging configuration", t, func() {
		var buf bytes.Buffer
		cfg := config.New()
		convey.Reset(func() { _ = logger.Init() })

		convey.Convey("When json format and debug level are set", func() {
			cfg.LogFormat = config.LogFormatJSON
			cfg.LogLevel = "debug"
			convey.So(configureLogging(cfg, logger.WithWriter(&buf)), convey.ShouldBeNil)
			logger.Get().Debug(context.Background(), "json line")

			convey.Convey("Then records are JSON and debug is enabled", func() {
				convey.So(strings.HasPrefix(buf.String(), "{"), convey.ShouldBeTrue)
				convey.So(buf.String(), convey.ShouldContainSubstring, `"msg":"json line"`)
			})
		})

		convey.Convey("When the text format is kept", func() {
			convey.So(configureLogging(cfg, logger.WithWriter(&buf)), convey.ShouldBeNil)
			logger.Get().Info(context.Background(), "text line")

			convey.Convey("Then records are key=value text", func() {
				convey.So(buf.String(), convey.ShouldContainSubstring, `msg="text line"`)
			})
		})

		convey.Convey("When the level is unknown", func() {
			cfg.LogLevel = "loud"

			convey.Convey("Then an error is returned", func() {
				convey.So(configureLogging(cfg, logger.WithWriter(&buf)), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewScorer(t *testing.T) {
	convey.Convey("Given a tuned scoring section", t, func() {
		cfg := config.New()
		cfg.Scoring.CriticalBase = 500
		sc := newScorer(cfg.Scoring)

		convey.So(sc.Score(model.UrgencyCritical, model.SeverityLow, 30), convey.ShouldEqual, 500)
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("When it is updated directly", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("When its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()

			convey.Convey("Then it returns", func() {
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					t.Fatal("updater did not stop")
				}
			})
		})
	})
}
