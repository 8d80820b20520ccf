package repository

import "errors"

// ErrCorruptRecord reports a stored row that cannot be turned back into a
// valid patient, including a repeated id.
var ErrCorruptRecord = errors.New("corrupt patient record")
