package http

import (
	"errors"
	"net/http"

	"github.com/aulalabs/academico/internal/academic"
)

// statusFor maps engine errors to HTTP status codes. Unknown errors are the
// caller's fault until proven otherwise.
func statusFor(err error) int {
	var cfgErr *academic.ConfigInvariantError
	var rangeErr *academic.OutOfRangeError
	var windowErr *academic.WindowClosedError
	switch {
	case errors.Is(err, academic.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, academic.ErrInsufficientData):
		return http.StatusNotFound
	case errors.Is(err, academic.ErrApprovalLocked):
		return http.StatusConflict
	case errors.As(err, &windowErr):
		return http.StatusConflict
	case errors.As(err, &cfgErr), errors.As(err, &rangeErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func writeErr(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}
