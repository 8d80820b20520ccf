// Package api exposes the scheduler over JSON HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/wardflow/internal/adapters/activity"
	"github.com/okian/wardflow/internal/adapters/http/auth"
	"github.com/okian/wardflow/internal/domain/admission"
	"github.com/okian/wardflow/internal/domain/model"
	"github.com/okian/wardflow/internal/domain/types"
	"github.com/okian/wardflow/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Register(ctx context.Context, actor string, in admission.RegisterInput) (model.Patient, error)
	AdmitToUnit(ctx context.Context, actor string, u model.Unit) (model.Patient, error)
	AdmitNext(ctx context.Context, actor string) (model.Patient, error)
	Discharge(ctx context.Context, actor string, id int, privileged bool) (model.Patient, error)
	Delete(ctx context.Context, actor string, id int, privileged bool) (model.Patient, error)
	RecordLogin(ctx context.Context, actor, detail string)
	AddDoctor(ctx context.Context, actor string, d model.Doctor, privileged bool) (model.Doctor, error)

	ListPatients(ctx context.Context) ([]model.Patient, error)
	Patient(ctx context.Context, id int) (model.Patient, error)
	Beds(ctx context.Context) ([]types.Bed, error)
	Queue(ctx context.Context) ([]types.QueueEntry, error)
	Dashboard(ctx context.Context) (types.Dashboard, error)
	Activity(ctx context.Context, limit int) ([]activity.Entry, error)
	Doctors(ctx context.Context) ([]model.Doctor, error)
}

// Server wires HTTP routes for the scheduler API.
type Server struct {
	deps   Dependencies
	auth   *auth.Manager
	logger logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, authn *auth.Manager, log logger.Logger) *Server {
	if log == nil {
		log = logger.Named("api")
	}
	return &Server{deps: deps, auth: authn, logger: log}
}

// Register attaches API, health and metrics routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(middleware.RequestID, middleware.RealIP, s.recoverer, MetricsMiddleware, s.auth.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireUser)

			r.Get("/patients", s.handleListPatients)
			r.Post("/patients", s.handleRegister)
			r.Get("/patients/{id}", s.handleGetPatient)
			r.Post("/patients/{id}/discharge", s.handleDischarge)
			r.Delete("/patients/{id}", s.handleDelete)

			r.Post("/admissions", s.handleAdmitNext)
			r.Post("/beds/{unit}/admit", s.handleAdmitToUnit)
			r.Get("/beds", s.handleBeds)
			r.Get("/queue", s.handleQueue)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/activity", s.handleActivity)

			r.Get("/doctors", s.handleDoctors)
			r.Post("/doctors", s.handleAddDoctor)
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes the mapped error response. Internal errors are logged and
// answered with a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, known := classify(err)
	if !known {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error(r.Context(), "handler panic",
					logger.String("path", r.URL.Path),
					logger.Any("panic", rec),
				)
				writeError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
