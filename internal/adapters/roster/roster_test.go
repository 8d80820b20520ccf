package roster_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/wardflow/internal/adapters/roster"
	"github.com/okian/wardflow/internal/adapters/sqldb"
	"github.com/okian/wardflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func neurologist() model.Doctor {
	return model.Doctor{Name: " Dr. Osei ", Specialty: "Neurology", Room: "Room 204", Keywords: []string{"Stroke", " seizure"}}
}

// exerciseRoster runs the shared contract against any Roster that starts
// from the default roster.
func exerciseRoster(newRoster func() roster.Roster) {
	ctx := context.Background()

	Convey("When nothing was added yet", func() {
		got, err := newRoster().List(ctx)

		Convey("Then the default doctor is listed", func() {
			So(err, ShouldBeNil)
			So(got, ShouldResemble, roster.Defaults())
		})
	})

	Convey("When a doctor is added", func() {
		r := newRoster()
		So(r.Add(ctx, neurologist()), ShouldBeNil)
		got, err := r.List(ctx)

		Convey("Then it follows the existing entries, normalized", func() {
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 2)
			So(got[0].Name, ShouldEqual, "Dr. Sarah")
			So(got[1], ShouldResemble, model.Doctor{
				Name: "Dr. Osei", Specialty: "Neurology", Room: "Room 204", Keywords: []string{"stroke", "seizure"},
			})
		})

		Convey("And the same name in another case is refused", func() {
			err := r.Add(ctx, model.Doctor{Name: "dr. osei", Specialty: "Surgery"})
			So(errors.Is(err, roster.ErrDuplicateDoctor), ShouldBeTrue)
			again, _ := r.List(ctx)
			So(again, ShouldHaveLength, 2)
		})
	})

	Convey("When a doctor without a specialty is added", func() {
		r := newRoster()
		err := r.Add(ctx, model.Doctor{Name: "Dr. Ray"})

		Convey("Then it is refused and the roster is unchanged", func() {
			So(errors.Is(err, roster.ErrInvalidDoctor), ShouldBeTrue)
			got, _ := r.List(ctx)
			So(got, ShouldHaveLength, 1)
		})
	})

	Convey("When a doctor has no room", func() {
		r := newRoster()
		So(r.Add(ctx, model.Doctor{Name: "Dr. Ray", Specialty: "General"}), ShouldBeNil)
		got, _ := r.List(ctx)

		Convey("Then the room is stored as none", func() {
			So(got[1].Room, ShouldEqual, "-")
			So(got[1].Keywords, ShouldBeEmpty)
		})
	})

	Convey("When the context is already cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		Convey("Then Add fails", func() {
			So(newRoster().Add(cctx, neurologist()), ShouldNotBeNil)
		})
	})
}

func TestMemory(t *testing.T) {
	Convey("Given a memory roster", t, func() {
		exerciseRoster(func() roster.Roster { return roster.NewMemory(roster.Defaults()) })

		Convey("When the seed slice is changed afterwards", func() {
			seed := roster.Defaults()
			r := roster.NewMemory(seed)
			seed[0].Keywords[0] = "changed"
			got, _ := r.List(context.Background())
			So(got[0].Keywords[0], ShouldEqual, "heart")
		})
	})
}

func TestCSV(t *testing.T) {
	Convey("Given a CSV roster", t, func() {
		dir := t.TempDir()
		n := 0
		exerciseRoster(func() roster.Roster {
			n++
			return roster.NewCSV(filepath.Join(dir, "doctors"+string(rune('a'+n))+".csv"))
		})
	})

	Convey("Given a CSV roster that was never written", t, func() {
		path := filepath.Join(t.TempDir(), "doctors.csv")
		r := roster.NewCSV(path)

		Convey("When the first doctor is added", func() {
			So(r.Add(context.Background(), neurologist()), ShouldBeNil)

			Convey("Then the file holds the header, the default doctor and the new one", func() {
				b, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, "Name,Specialty,Room,Keywords\n"+
					"Dr. Sarah,Cardiology,Room 101,\"heart,attack\"\n"+
					"Dr. Osei,Neurology,Room 204,\"stroke,seizure\"\n")
			})
		})
	})

	Convey("Given a CSV roster with only a header", t, func() {
		path := filepath.Join(t.TempDir(), "doctors.csv")
		So(os.WriteFile(path, []byte("Name,Specialty,Room,Keywords\n"), 0o600), ShouldBeNil)

		Convey("Then it lists no doctors", func() {
			got, err := roster.NewCSV(path).List(context.Background())
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})
	})

	Convey("Given a CSV roster with a nameless row", t, func() {
		path := filepath.Join(t.TempDir(), "doctors.csv")
		So(os.WriteFile(path, []byte("Name,Specialty,Room,Keywords\n,Cardiology,Room 1,heart\n"), 0o600), ShouldBeNil)

		Convey("Then List reports it as corrupt", func() {
			_, err := roster.NewCSV(path).List(context.Background())
			So(errors.Is(err, roster.ErrCorruptRoster), ShouldBeTrue)
		})
	})
}

func TestSQL(t *testing.T) {
	Convey("Given a SQLite roster", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		n := 0
		var opened []*sqldb.DB
		defer func() {
			for _, db := range opened {
				_ = db.Close()
			}
		}()

		exerciseRoster(func() roster.Roster {
			n++
			db, err := sqldb.Open(ctx, sqldb.Config{Driver: sqldb.DriverSQLite, SQLitePath: filepath.Join(dir, "r"+string(rune('a'+n))+".db")})
			So(err, ShouldBeNil)
			opened = append(opened, db)
			return roster.NewSQL(db)
		})
	})
}

func TestSuggest(t *testing.T) {
	Convey("Given a roster with two matching doctors", t, func() {
		doctors := append(roster.Defaults(),
			model.Doctor{Name: "Dr. Lee", Specialty: "Cardiology", Keywords: []string{"heart"}},
			model.Doctor{Name: "Dr. Osei", Specialty: "Neurology", Keywords: []string{"stroke"}},
		)

		Convey("Then the first match wins", func() {
			d, ok := roster.Suggest(doctors, "Heart failure")
			So(ok, ShouldBeTrue)
			So(d.Name, ShouldEqual, "Dr. Sarah")
		})

		Convey("Then a later keyword is still found", func() {
			d, ok := roster.Suggest(doctors, "mild stroke")
			So(ok, ShouldBeTrue)
			So(d.Name, ShouldEqual, "Dr. Osei")
		})

		Convey("Then an unmatched condition suggests nobody", func() {
			_, ok := roster.Suggest(doctors, "flu")
			So(ok, ShouldBeFalse)
		})
	})
}
