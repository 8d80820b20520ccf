package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/wardflow/internal/adapters/http/auth"
	"github.com/okian/wardflow/internal/domain/model"
)

// hireRequest is the body of POST /api/doctors. Keywords may be a list or
// one comma-separated string.
type hireRequest struct {
	Name      string          `json:"name"`
	Specialty string          `json:"specialty"`
	Room      string          `json:"room"`
	Keywords  json.RawMessage `json:"keywords"`
}

func (req hireRequest) doctor() (model.Doctor, error) {
	d := model.Doctor{Name: req.Name, Specialty: req.Specialty, Room: req.Room}
	if len(req.Keywords) == 0 || string(req.Keywords) == "null" {
		return d, nil
	}
	var list []string
	if err := json.Unmarshal(req.Keywords, &list); err == nil {
		d.Keywords = list
		return d, nil
	}
	var joined string
	if err := json.Unmarshal(req.Keywords, &joined); err != nil {
		return model.Doctor{}, fmt.Errorf("%w: keywords must be a list or a string", ErrBadRequest)
	}
	d.Keywords = model.ParseKeywords(joined)
	return d, nil
}

// handleDoctors handles GET /api/doctors.
func (s *Server) handleDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := s.deps.Doctors(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doctors)
}

// handleAddDoctor handles POST /api/doctors.
func (s *Server) handleAddDoctor(w http.ResponseWriter, r *http.Request) {
	var req hireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	d, err := req.doctor()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	who := auth.FromContext(r.Context())
	d, err = s.deps.AddDoctor(r.Context(), who.Name, d, who.Admin())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}
