package api

import (
	"errors"
	"net/http"

	"github.com/okian/wardflow/internal/adapters/activity"
	"github.com/okian/wardflow/internal/adapters/lock"
	"github.com/okian/wardflow/internal/adapters/roster"
	service "github.com/okian/wardflow/internal/app"
	"github.com/okian/wardflow/internal/domain/admission"
)

// ErrBadRequest marks malformed input rejected before reaching the scheduler.
var ErrBadRequest = errors.New("bad request")

type errorMapping struct {
	target error
	status int
	code   string
}

var errorTable = []errorMapping{
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{admission.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{admission.ErrInvalidUnit, http.StatusBadRequest, "invalid_unit"},
	{roster.ErrInvalidDoctor, http.StatusBadRequest, "invalid_doctor"},
	{service.ErrNotAuthorized, http.StatusForbidden, "forbidden"},
	{admission.ErrNotFound, http.StatusNotFound, "not_found"},
	{admission.ErrDuplicateID, http.StatusConflict, "duplicate_id"},
	{admission.ErrEmptyQueue, http.StatusConflict, "empty_queue"},
	{admission.ErrPoolFull, http.StatusConflict, "pool_full"},
	{admission.ErrUnitOccupied, http.StatusConflict, "unit_occupied"},
	{admission.ErrAlreadyDischarged, http.StatusConflict, "already_discharged"},
	{roster.ErrDuplicateDoctor, http.StatusConflict, "duplicate_doctor"},
	{lock.ErrNotAcquired, http.StatusServiceUnavailable, "busy"},
	{activity.ErrNoReader, http.StatusNotImplemented, "activity_unavailable"},
}

// classify maps an error to a status and stable code. Unknown errors are
// internal and their text is not exposed.
func classify(err error) (int, string, bool) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.code, true
		}
	}
	return http.StatusInternalServerError, "internal_error", false
}
