package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/wardflow/internal/adapters/http/auth"
	"github.com/okian/wardflow/internal/domain/model"
)

// handleAdmitNext handles POST /api/admissions.
func (s *Server) handleAdmitNext(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.AdmitNext(r.Context(), auth.FromContext(r.Context()).Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleAdmitToUnit handles POST /api/beds/{unit}/admit. The unit is either
// a bed number ("3") or its stored form ("Bed-3").
func (s *Server) handleAdmitToUnit(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "unit")
	var u model.Unit
	if n, err := strconv.Atoi(raw); err == nil {
		u = model.Unit(n)
	} else {
		parsed, perr := model.ParseUnit(raw)
		if perr != nil || parsed == model.NoUnit {
			s.fail(w, r, fmt.Errorf("%w: bad bed %q", ErrBadRequest, raw))
			return
		}
		u = parsed
	}
	p, err := s.deps.AdmitToUnit(r.Context(), auth.FromContext(r.Context()).Name, u)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleBeds handles GET /api/beds.
func (s *Server) handleBeds(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Beds(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleQueue handles GET /api/queue.
func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	q, err := s.deps.Queue(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// handleDashboard handles GET /api/dashboard.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Dashboard(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
