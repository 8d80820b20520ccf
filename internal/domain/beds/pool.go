// Package beds models the fixed-size bed pool as a view derived from the
// admitted patients.
package beds

import (
	"github.com/okian/wardflow/internal/domain/model"
	"github.com/okian/wardflow/internal/domain/types"
)

// DefaultCapacity is the ward size used when none is configured.
const DefaultCapacity = 20

type slot struct {
	occupied bool
	id       int
	name     string
}

// Pool is a fixed array of beds, each free or held by one patient id.
type Pool struct {
	slots []slot
}

// New creates a pool of n free beds. Non-positive n falls back to
// DefaultCapacity.
func New(n int) *Pool {
	if n <= 0 {
		n = DefaultCapacity
	}
	return &Pool{slots: make([]slot, n)}
}

// Capacity returns the number of beds.
func (p *Pool) Capacity() int { return len(p.slots) }

// Rebuild frees every bed and then occupies the bed of each Admitted
// patient. Units outside [1, Capacity] are ignored.
func (p *Pool) Rebuild(patients []model.Patient) {
	clear(p.slots)
	for _, pt := range patients {
		if pt.Status != model.StatusAdmitted {
			continue
		}
		if !p.inRange(pt.Unit) {
			continue
		}
		p.slots[pt.Unit-1] = slot{occupied: true, id: pt.ID, name: pt.Name}
	}
}

func (p *Pool) inRange(u model.Unit) bool {
	return u >= 1 && int(u) <= len(p.slots)
}

// InRange reports whether u names a bed in this pool.
func (p *Pool) InRange(u model.Unit) bool { return p.inRange(u) }

// FirstFree returns the lowest-index free bed.
func (p *Pool) FirstFree() (model.Unit, bool) {
	for i, s := range p.slots {
		if !s.occupied {
			return model.Unit(i + 1), true
		}
	}
	return model.NoUnit, false
}

// IsFree reports whether u is in range and unoccupied.
func (p *Pool) IsFree(u model.Unit) bool {
	return p.inRange(u) && !p.slots[u-1].occupied
}

// Occupant returns the patient id holding u.
func (p *Pool) Occupant(u model.Unit) (int, bool) {
	if !p.inRange(u) || !p.slots[u-1].occupied {
		return 0, false
	}
	return p.slots[u-1].id, true
}

// Occupy marks u as held by pt. It is a no-op for out-of-range units.
func (p *Pool) Occupy(u model.Unit, pt model.Patient) {
	if p.inRange(u) {
		p.slots[u-1] = slot{occupied: true, id: pt.ID, name: pt.Name}
	}
}

// Release frees u.
func (p *Pool) Release(u model.Unit) {
	if p.inRange(u) {
		p.slots[u-1] = slot{}
	}
}

// Occupied returns the number of held beds.
func (p *Pool) Occupied() int {
	n := 0
	for _, s := range p.slots {
		if s.occupied {
			n++
		}
	}
	return n
}

// Beds returns the bed map in unit order.
func (p *Pool) Beds() []types.Bed {
	out := make([]types.Bed, len(p.slots))
	for i, s := range p.slots {
		out[i] = types.Bed{Unit: model.Unit(i + 1), Free: !s.occupied, PatientID: s.id, Patient: s.name}
	}
	return out
}
