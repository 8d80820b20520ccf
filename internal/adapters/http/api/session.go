package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/wardflow/internal/adapters/http/auth"
	service "github.com/okian/wardflow/internal/app"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin handles POST /api/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	p, err := s.auth.Login(w, r, req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detail := "Staff Access"
	if p.Admin() {
		detail = "Admin Access"
	}
	s.deps.RecordLogin(r.Context(), p.Name, detail)
	writeJSON(w, http.StatusOK, p)
}

// handleLogout handles POST /api/logout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(w, r); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// handleActivity handles GET /api/activity?limit=N. Admin only.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if !auth.FromContext(r.Context()).Admin() {
		s.fail(w, r, service.ErrNotAuthorized)
		return
	}
	limit := defaultActivityLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			s.fail(w, r, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		limit = min(n, maxActivityLimit)
	}
	entries, err := s.deps.Activity(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
