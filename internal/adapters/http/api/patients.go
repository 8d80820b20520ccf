package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/wardflow/internal/adapters/http/auth"
	"github.com/okian/wardflow/internal/domain/admission"
)

// registerRequest is the body of POST /api/patients.
type registerRequest struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Condition string `json:"condition"`
	Critical  bool   `json:"critical"`
	Doctor    string `json:"doctor"`
	Time      string `json:"time"`
}

func (req registerRequest) validate() error {
	switch {
	case req.ID <= 0:
		return fmt.Errorf("%w: id must be a positive integer", ErrBadRequest)
	case strings.TrimSpace(req.Name) == "":
		return fmt.Errorf("%w: missing name", ErrBadRequest)
	case req.Age < 0:
		return fmt.Errorf("%w: age must not be negative", ErrBadRequest)
	case strings.TrimSpace(req.Condition) == "":
		return fmt.Errorf("%w: missing condition", ErrBadRequest)
	}
	return nil
}

func (req registerRequest) input() admission.RegisterInput {
	return admission.RegisterInput{
		ID:        req.ID,
		Name:      strings.TrimSpace(req.Name),
		Age:       req.Age,
		Condition: strings.TrimSpace(req.Condition),
		Critical:  req.Critical,
		Doctor:    strings.TrimSpace(req.Doctor),
		Time:      strings.TrimSpace(req.Time),
	}
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: patient id must be a positive integer", ErrBadRequest)
	}
	return id, nil
}

// handleRegister handles POST /api/patients.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.deps.Register(r.Context(), auth.FromContext(r.Context()).Name, req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleListPatients handles GET /api/patients.
func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.deps.ListPatients(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

// handleGetPatient handles GET /api/patients/{id}.
func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.deps.Patient(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleDischarge handles POST /api/patients/{id}/discharge.
func (s *Server) handleDischarge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	who := auth.FromContext(r.Context())
	p, err := s.deps.Discharge(r.Context(), who.Name, id, who.Admin())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleDelete handles DELETE /api/patients/{id}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	who := auth.FromContext(r.Context())
	p, err := s.deps.Delete(r.Context(), who.Name, id, who.Admin())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
