package activity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/wardflow/internal/adapters/sqldb"
)

func entryAt(min int, action, detail string) Entry {
	e := NewEntry("admin", action, detail)
	e.Time = time.Date(2026, 3, 1, 9, min, 0, 0, time.Local)
	return e
}

func TestNewEntry(t *testing.T) {
	Convey("Given a new entry", t, func() {
		e := NewEntry("", ActionRegister, "Registered Ann (ID: 1)")

		Convey("Then it has an id, a timestamp and the System actor", func() {
			So(e.ID, ShouldNotBeEmpty)
			So(e.Time.IsZero(), ShouldBeFalse)
			So(e.Actor, ShouldEqual, "System")
		})

		Convey("And two entries never share an id", func() {
			So(NewEntry("a", ActionAdmit, "").ID, ShouldNotEqual, e.ID)
		})
	})
}

func TestCSVLog(t *testing.T) {
	ctx := context.Background()

	Convey("Given a CSV log in a fresh directory", t, func() {
		path := filepath.Join(t.TempDir(), "activity.csv")
		l := NewCSVLog(path)

		Convey("When nothing was written", func() {
			got, err := l.Recent(ctx, 10)

			Convey("Then Recent is empty", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When three entries are appended", func() {
			So(l.Append(ctx, entryAt(0, ActionRegister, "Registered Ann, Jr. (ID: 1)")), ShouldBeNil)
			So(l.Append(ctx, entryAt(1, ActionAdmit, "Admitted Ann to Bed-1")), ShouldBeNil)
			So(l.Append(ctx, entryAt(2, ActionDischarge, "Discharged Ann from Bed-1")), ShouldBeNil)

			Convey("Then the header is written once", func() {
				raw, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(strings.Count(string(raw), "Time,User,Action,Details,ID"), ShouldEqual, 1)
			})

			Convey("Then Recent returns newest first", func() {
				got, err := l.Recent(ctx, 0)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 3)
				So(got[0].Action, ShouldEqual, ActionDischarge)
				So(got[2].Detail, ShouldEqual, "Registered Ann, Jr. (ID: 1)")
				So(got[2].Time.Minute(), ShouldEqual, 0)
			})

			Convey("Then the limit is honoured", func() {
				got, err := l.Recent(ctx, 2)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[1].Action, ShouldEqual, ActionAdmit)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then Append refuses to write", func() {
				So(errors.Is(l.Append(cctx, entryAt(0, ActionLogin, "")), context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestSQLLog(t *testing.T) {
	ctx := context.Background()

	Convey("Given a SQL log on sqlite", t, func() {
		db, err := sqldb.Open(ctx, sqldb.Config{Driver: sqldb.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "a.db")})
		So(err, ShouldBeNil)
		Reset(func() { _ = db.Close() })
		l := NewSQLLog(db)

		Convey("When entries are appended", func() {
			first := entryAt(0, ActionRegister, "Registered Bo (ID: 2)")
			So(l.Append(ctx, first), ShouldBeNil)
			So(l.Append(ctx, entryAt(5, ActionDelete, "Deleted Bo")), ShouldBeNil)

			Convey("Then Recent returns them newest first", func() {
				got, err := l.Recent(ctx, 10)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].Action, ShouldEqual, ActionDelete)
				So(got[1].ID, ShouldEqual, first.ID)
				So(got[1].Time.Equal(first.Time), ShouldBeTrue)
			})

			Convey("Then a duplicate id is rejected", func() {
				So(l.Append(ctx, first), ShouldNotBeNil)
			})
		})
	})
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaLog(t *testing.T) {
	Convey("Given a Kafka log over a recording writer", t, func() {
		w := &fakeWriter{}
		l := &KafkaLog{w: w}
		e := entryAt(3, ActionAdmit, "Admitted Cy to Bed-2")

		Convey("When an entry is appended", func() {
			So(l.Append(context.Background(), e), ShouldBeNil)

			Convey("Then one keyed JSON message is published", func() {
				So(len(w.msgs), ShouldEqual, 1)
				So(string(w.msgs[0].Key), ShouldEqual, e.ID)
				So(string(w.msgs[0].Value), ShouldContainSubstring, `"action":"Admit"`)
				So(string(w.msgs[0].Headers[0].Value), ShouldEqual, ActionAdmit)
			})
		})

		Convey("When the broker fails", func() {
			w.err = errors.New("broker down")

			Convey("Then the error is returned", func() {
				So(l.Append(context.Background(), e), ShouldNotBeNil)
			})
		})

		Convey("When closed", func() {
			So(l.Close(), ShouldBeNil)
			So(w.closed, ShouldBeTrue)
		})
	})
}

type failingSink struct{}

func (failingSink) Append(context.Context, Entry) error { return errors.New("disk full") }

func TestMulti(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fan-out of a failing sink and a CSV log", t, func() {
		csvLog := NewCSVLog(filepath.Join(t.TempDir(), "activity.csv"))
		m := Multi{failingSink{}, Discard{}, csvLog}

		Convey("When an entry is appended", func() {
			err := m.Append(ctx, entryAt(0, ActionLogin, "Logged in"))

			Convey("Then the failure is reported but later sinks still receive it", func() {
				So(err, ShouldNotBeNil)
				got, rerr := m.Recent(ctx, 5)
				So(rerr, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
			})
		})

		Convey("When no sink can be read", func() {
			_, err := Multi{Discard{}}.Recent(ctx, 5)

			Convey("Then ErrNoReader is returned", func() {
				So(errors.Is(err, ErrNoReader), ShouldBeTrue)
			})
		})
	})
}
