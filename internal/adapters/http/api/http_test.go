package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/wardflow/internal/adapters/activity"
	"github.com/okian/wardflow/internal/adapters/http/api"
	"github.com/okian/wardflow/internal/adapters/http/auth"
	service "github.com/okian/wardflow/internal/app"
	"github.com/okian/wardflow/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type harness struct {
	t      *testing.T
	router http.Handler
}

func newHarness(t *testing.T, beds int) *harness {
	t.Helper()
	mustHash := func(pw string) string {
		b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		return string(b)
	}
	authn := auth.NewManager([]byte("0123456789abcdef0123456789abcdef"), map[string]auth.Account{
		"admin": {PasswordHash: mustHash("admin123"), Role: auth.RoleAdmin},
		"desk":  {PasswordHash: mustHash("staff123"), Role: auth.RoleStaff},
	})
	svc := service.New(
		service.WithBedCount(beds),
		service.WithActivity(activity.NewCSVLog(filepath.Join(t.TempDir(), "activity.csv"))),
		service.WithSlotFunc(func() string { return "10:00 AM" }),
	)
	r := chi.NewRouter()
	api.NewServer(svc, authn, nil).Register(context.Background(), r)
	return &harness{t: t, router: r}
}

func (h *harness) do(method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(user, pw string) []*http.Cookie {
	rec := h.do(http.MethodPost, "/api/login", `{"username":"`+user+`","password":"`+pw+`"}`, nil)
	if rec.Code != http.StatusOK {
		h.t.Fatalf("login %s: %d %s", user, rec.Code, rec.Body.String())
	}
	return rec.Result().Cookies()
}

func decode[T any](rec *httptest.ResponseRecorder) T {
	var v T
	_ = json.Unmarshal(rec.Body.Bytes(), &v)
	return v
}

type errBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestAPI_Public(t *testing.T) {
	Convey("Given the API router", t, func() {
		h := newHarness(t, 2)

		Convey("When /healthz is requested", func() {
			rec := h.do(http.MethodGet, "/healthz", "", nil)

			Convey("Then it answers JSON ok", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				So(decode[map[string]string](rec)["status"], ShouldEqual, "ok")
			})
		})

		Convey("When /metrics is requested", func() {
			rec := h.do(http.MethodGet, "/metrics", "", nil)

			Convey("Then Prometheus text is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "wardflow_scheduler")
			})
		})

		Convey("When an API route is called without a session", func() {
			rec := h.do(http.MethodGet, "/api/queue", "", nil)

			Convey("Then it is rejected with 401", func() {
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
				So(decode[errBody](rec).Code, ShouldEqual, "unauthorized")
			})
		})

		Convey("When the login is wrong", func() {
			rec := h.do(http.MethodPost, "/api/login", `{"username":"admin","password":"x"}`, nil)

			Convey("Then 401 invalid_credentials is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
				So(decode[errBody](rec).Code, ShouldEqual, "invalid_credentials")
			})
		})
	})
}

func TestAPI_Workflow(t *testing.T) {
	Convey("Given a logged-in staff member and admin", t, func() {
		h := newHarness(t, 2)
		staff := h.login("desk", "staff123")
		admin := h.login("admin", "admin123")

		register := func(body string) *httptest.ResponseRecorder {
			return h.do(http.MethodPost, "/api/patients", body, staff)
		}

		Convey("When patients are registered", func() {
			rec := register(`{"id":1,"name":"Ann","age":70,"condition":"Heart attack"}`)
			So(register(`{"id":2,"name":"Bo","age":30,"condition":"flu"}`).Code, ShouldEqual, http.StatusCreated)
			So(register(`{"id":3,"name":"Cy","age":40,"condition":"dengue"}`).Code, ShouldEqual, http.StatusCreated)

			Convey("Then the record carries derived fields", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				p := decode[map[string]any](rec)
				So(p["status"], ShouldEqual, "Waiting")
				So(p["room"], ShouldEqual, "-")
				So(p["priority_score"], ShouldEqual, float64(105))
				So(p["doctor"], ShouldEqual, "Dr. Sarah")
				So(p["time"], ShouldEqual, "10:00 AM")
			})

			Convey("Then a duplicate id gives 409 duplicate_id", func() {
				rec := register(`{"id":1,"name":"Dup","age":1,"condition":"flu"}`)
				So(rec.Code, ShouldEqual, http.StatusConflict)
				So(decode[errBody](rec).Code, ShouldEqual, "duplicate_id")
			})

			Convey("Then the queue is ordered by score", func() {
				q := decode[[]map[string]any](h.do(http.MethodGet, "/api/queue", "", staff))
				So(len(q), ShouldEqual, 3)
				So(q[0]["id"], ShouldEqual, float64(1))
				So(q[1]["id"], ShouldEqual, float64(3))
				So(q[2]["id"], ShouldEqual, float64(2))
			})

			Convey("And admissions fill beds until the pool is full", func() {
				first := h.do(http.MethodPost, "/api/admissions", "", staff)
				So(first.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]any](first)["room"], ShouldEqual, "Bed-1")

				second := h.do(http.MethodPost, "/api/beds/Bed-2/admit", "", staff)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]any](second)["id"], ShouldEqual, float64(3))

				full := h.do(http.MethodPost, "/api/admissions", "", staff)
				So(full.Code, ShouldEqual, http.StatusConflict)
				So(decode[errBody](full).Code, ShouldEqual, "pool_full")

				d := decode[map[string]any](h.do(http.MethodGet, "/api/dashboard", "", staff))
				So(d["beds_occupied"], ShouldEqual, float64(2))
				So(d["waiting"], ShouldEqual, float64(1))

				Convey("And staff cannot discharge", func() {
					rec := h.do(http.MethodPost, "/api/patients/1/discharge", "", staff)
					So(rec.Code, ShouldEqual, http.StatusForbidden)
				})

				Convey("And an admin discharge frees the bed for the next patient", func() {
					rec := h.do(http.MethodPost, "/api/patients/1/discharge", "", admin)
					So(rec.Code, ShouldEqual, http.StatusOK)
					So(decode[map[string]any](rec)["status"], ShouldEqual, "Discharged")

					again := h.do(http.MethodPost, "/api/admissions", "", staff)
					So(again.Code, ShouldEqual, http.StatusOK)
					So(decode[map[string]any](again)["room"], ShouldEqual, "Bed-1")

					empty := h.do(http.MethodPost, "/api/admissions", "", staff)
					So(empty.Code, ShouldEqual, http.StatusConflict)
				})

				Convey("And an occupied bed is refused", func() {
					rec := h.do(http.MethodPost, "/api/beds/1/admit", "", staff)
					So(rec.Code, ShouldEqual, http.StatusConflict)
					So(decode[errBody](rec).Code, ShouldEqual, "unit_occupied")
				})
			})

			Convey("And an admin can delete a record", func() {
				rec := h.do(http.MethodDelete, "/api/patients/2", "", admin)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(h.do(http.MethodGet, "/api/patients/2", "", staff).Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And the admin can read the activity log", func() {
				rec := h.do(http.MethodGet, "/api/activity?limit=2", "", admin)
				So(rec.Code, ShouldEqual, http.StatusOK)
				entries := decode[[]map[string]any](rec)
				So(len(entries), ShouldEqual, 2)
				So(entries[0]["detail"], ShouldEqual, "Added Cy (Priority: 50)")

				So(h.do(http.MethodGet, "/api/activity", "", staff).Code, ShouldEqual, http.StatusForbidden)
			})
		})

		Convey("When the input is malformed", func() {
			Convey("Then bad bodies and params give 400", func() {
				So(register(`{"id":`).Code, ShouldEqual, http.StatusBadRequest)
				So(register(`{"id":0,"name":"x","age":1,"condition":"flu"}`).Code, ShouldEqual, http.StatusBadRequest)
				So(register(`{"id":5,"name":"","age":1,"condition":"flu"}`).Code, ShouldEqual, http.StatusBadRequest)
				So(h.do(http.MethodGet, "/api/patients/abc", "", staff).Code, ShouldEqual, http.StatusBadRequest)
				So(h.do(http.MethodPost, "/api/beds/ward/admit", "", staff).Code, ShouldEqual, http.StatusBadRequest)
				So(h.do(http.MethodGet, "/api/activity?limit=-1", "", admin).Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then an out-of-range bed gives 400 invalid_unit", func() {
				rec := h.do(http.MethodPost, "/api/beds/9/admit", "", staff)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errBody](rec).Code, ShouldEqual, "invalid_unit")
			})

			Convey("Then unknown patients give 404", func() {
				So(h.do(http.MethodPost, "/api/patients/77/discharge", "", admin).Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the roster is managed", func() {
			hire := func(body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
				return h.do(http.MethodPost, "/api/doctors", body, cookies)
			}

			Convey("Then everyone signed in can list it", func() {
				rec := h.do(http.MethodGet, "/api/doctors", "", staff)
				So(rec.Code, ShouldEqual, http.StatusOK)
				doctors := decode[[]map[string]any](rec)
				So(len(doctors), ShouldEqual, 1)
				So(doctors[0]["name"], ShouldEqual, "Dr. Sarah")
				So(doctors[0]["keywords"], ShouldResemble, []any{"heart", "attack"})
			})

			Convey("Then only an admin can hire", func() {
				rec := hire(`{"name":"Dr. Osei","specialty":"Neurology","keywords":"stroke, seizure"}`, staff)
				So(rec.Code, ShouldEqual, http.StatusForbidden)
			})

			Convey("And a hired doctor is suggested for matching registrations", func() {
				rec := hire(`{"name":"Dr. Osei","specialty":"Neurology","room":"Room 204","keywords":"stroke, seizure"}`, admin)
				So(rec.Code, ShouldEqual, http.StatusCreated)
				d := decode[map[string]any](rec)
				So(d["keywords"], ShouldResemble, []any{"stroke", "seizure"})

				p := decode[map[string]any](register(`{"id":9,"name":"Di","age":50,"condition":"Seizure"}`))
				So(p["doctor"], ShouldEqual, "Dr. Osei")

				Convey("And hiring them twice gives 409 duplicate_doctor", func() {
					rec := hire(`{"name":"dr. osei","specialty":"Neurology","keywords":["stroke"]}`, admin)
					So(rec.Code, ShouldEqual, http.StatusConflict)
					So(decode[errBody](rec).Code, ShouldEqual, "duplicate_doctor")
				})
			})

			Convey("Then malformed hires give 400", func() {
				rec := hire(`{"name":"","specialty":"Neurology"}`, admin)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errBody](rec).Code, ShouldEqual, "invalid_doctor")
				So(hire(`{"name":"Dr. X","specialty":"ENT","keywords":7}`, admin).Code, ShouldEqual, http.StatusBadRequest)
				So(hire(`{"name":`, admin).Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When staff logs out", func() {
			rec := h.do(http.MethodPost, "/api/logout", "", staff)

			Convey("Then the expired cookie no longer authenticates", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(h.do(http.MethodGet, "/api/beds", "", rec.Result().Cookies()).Code, ShouldEqual, http.StatusUnauthorized)
			})
		})
	})
}
