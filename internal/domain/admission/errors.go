package admission

import "errors"

// Sentinel kinds for admission transitions. None of them mutate state.
var (
	ErrDuplicateID       = errors.New("patient id already registered")
	ErrEmptyQueue        = errors.New("no patients waiting")
	ErrPoolFull          = errors.New("no free bed")
	ErrNotFound          = errors.New("patient not found")
	ErrInvalidUnit       = errors.New("bed out of range")
	ErrUnitOccupied      = errors.New("bed already occupied")
	ErrAlreadyDischarged = errors.New("patient already discharged")
	ErrInvalidInput      = errors.New("invalid registration")
)
