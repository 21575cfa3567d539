package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/parlakisik/event-escrow/internal/middleware"
	"github.com/parlakisik/event-escrow/internal/service"
)

// errorCodes is checked in order; the first match wins, so specific
// sentinels come before the class they wrap.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrVerificationRequired, http.StatusForbidden, "verification_required"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrTerminalState, http.StatusConflict, "terminal_state"},
	{service.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{service.ErrTooFarFromVenue, http.StatusConflict, "too_far_from_venue"},
	{service.ErrAlreadyDisputed, http.StatusConflict, "already_disputed"},
	{service.ErrNotDisputed, http.StatusConflict, "not_disputed"},
	{service.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},
	{service.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
	{service.ErrAlreadyDecided, http.StatusConflict, "already_decided"},
	{service.ErrProjectLocked, http.StatusConflict, "project_locked"},
	{service.ErrSlotOccupied, http.StatusConflict, "slot_occupied"},
	{service.ErrPrecondition, http.StatusConflict, "precondition_failed"},
	{service.ErrValidation, http.StatusBadRequest, "validation_failed"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrTransient, http.StatusServiceUnavailable, "temporarily_unavailable"},
}

func statusFor(err error) (int, string) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request_failed", "path", r.URL.Path, "error", err)
		msg = "An internal error occurred"
	} else {
		slog.DebugContext(r.Context(), "request_rejected", "path", r.URL.Path, "code", code, "error", err)
	}
	middleware.WriteError(w, r, status, code, msg)
}
