package simulate

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	maxAge         = 95
	criticalPerMil = 150
)

// conditions spans every triage bucket plus unmatched text.
var conditions = []string{
	"heart failure",
	"stroke",
	"head trauma",
	"flu",
	"high fever",
	"wrist fracture",
	"dengue",
	"migraine",
	"routine checkup",
}

var surnames = []string{"Rao", "Okafor", "Silva", "Novak", "Haddad", "Tanaka", "Moreau", "Kowalski"}

func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// generatePatients builds n registrations with consecutive IDs from firstID.
func generatePatients(n, firstID int) []registration {
	out := make([]registration, n)
	for i := range out {
		id := firstID + i
		out[i] = registration{
			ID:        id,
			Name:      "Sim " + surnames[randomInt(len(surnames))] + " " + strconv.Itoa(id),
			Age:       randomInt(maxAge + 1),
			Condition: conditions[randomInt(len(conditions))],
			Critical:  randomInt(1000) < criticalPerMil,
		}
	}
	return out
}
