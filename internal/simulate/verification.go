package simulate

import (
	"fmt"

	"github.com/okian/wardflow/internal/domain/model"
)

// verifyBatch checks that a run of consecutive admissions, with no
// registration in between, never admitted a lower score before a higher one.
func verifyBatch(batch []model.Patient) error {
	for i := 1; i < len(batch); i++ {
		if batch[i].Score > batch[i-1].Score {
			return fmt.Errorf("%w: patient %d (score %d) admitted after patient %d (score %d)",
				ErrOrderViolation, batch[i].ID, batch[i].Score, batch[i-1].ID, batch[i-1].Score)
		}
	}
	return nil
}
