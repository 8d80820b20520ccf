// Package roster keeps the list of doctors patients can be assigned to.
// Entries are only ever added; the first doctor whose keywords match a
// condition is suggested at registration.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/wardflow/internal/domain/model"
)

// Sentinel kinds for roster errors.
var (
	ErrInvalidDoctor   = errors.New("invalid doctor")
	ErrDuplicateDoctor = errors.New("doctor already on roster")
	ErrCorruptRoster   = errors.New("corrupt roster")
)

// Roster lists and extends the doctors on staff.
type Roster interface {
	// List returns every doctor in the order they were added.
	List(ctx context.Context) ([]model.Doctor, error)

	// Add appends d. Names are unique, ignoring case.
	Add(ctx context.Context, d model.Doctor) error
}

// Defaults is the roster a fresh ward starts with.
func Defaults() []model.Doctor {
	return []model.Doctor{
		{Name: "Dr. Sarah", Specialty: "Cardiology", Room: "Room 101", Keywords: []string{"heart", "attack"}},
	}
}

// Normalize trims d and checks its required fields.
func Normalize(d model.Doctor) (model.Doctor, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Specialty = strings.TrimSpace(d.Specialty)
	d.Room = strings.TrimSpace(d.Room)
	d.Keywords = model.ParseKeywords(model.JoinKeywords(d.Keywords))
	switch {
	case d.Name == "":
		return model.Doctor{}, fmt.Errorf("%w: missing name", ErrInvalidDoctor)
	case d.Specialty == "":
		return model.Doctor{}, fmt.Errorf("%w: missing specialty", ErrInvalidDoctor)
	case strings.ContainsAny(d.Name, "\r\n"):
		return model.Doctor{}, fmt.Errorf("%w: name spans lines", ErrInvalidDoctor)
	}
	if d.Room == "" {
		d.Room = "-"
	}
	return d, nil
}

// Suggest returns the first doctor that treats condition.
func Suggest(doctors []model.Doctor, condition string) (model.Doctor, bool) {
	for _, d := range doctors {
		if d.Treats(condition) {
			return d, true
		}
	}
	return model.Doctor{}, false
}

func checkNew(existing []model.Doctor, d model.Doctor) error {
	for _, e := range existing {
		if strings.EqualFold(e.Name, d.Name) {
			return fmt.Errorf("%w: %s", ErrDuplicateDoctor, d.Name)
		}
	}
	return nil
}

func cloneDoctors(in []model.Doctor) []model.Doctor {
	out := make([]model.Doctor, len(in))
	for i, d := range in {
		d.Keywords = append([]string(nil), d.Keywords...)
		out[i] = d
	}
	return out
}
