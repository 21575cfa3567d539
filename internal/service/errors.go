package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/parlakisik/event-escrow/internal/httpclient"
	"github.com/parlakisik/event-escrow/internal/store"
)

// Error classes. Every error returned by Service wraps exactly one of these.
var (
	ErrPrecondition = errors.New("precondition violated")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrTransient    = errors.New("temporarily unavailable")
)

// Precondition violations.
var (
	ErrInvalidTransition    = fmt.Errorf("%w: transition not allowed", ErrPrecondition)
	ErrTerminalState        = fmt.Errorf("%w: terminal state", ErrInvalidTransition)
	ErrAlreadyDisputed      = fmt.Errorf("%w: booking already disputed", ErrPrecondition)
	ErrNotDisputed          = fmt.Errorf("%w: booking is not disputed", ErrPrecondition)
	ErrForbidden            = fmt.Errorf("%w: not permitted for this actor", ErrPrecondition)
	ErrVerificationRequired = fmt.Errorf("%w: verification required", ErrPrecondition)
	ErrTooFarFromVenue      = fmt.Errorf("%w: too far from venue", ErrPrecondition)
	ErrConcurrentUpdate     = fmt.Errorf("%w: record changed concurrently", ErrPrecondition)
	ErrInsufficientBalance  = fmt.Errorf("%w: insufficient balance", ErrPrecondition)
	ErrAlreadyDecided       = fmt.Errorf("%w: already decided", ErrPrecondition)
	ErrProjectLocked        = fmt.Errorf("%w: project surplus already refunded", ErrPrecondition)
	ErrSlotOccupied         = fmt.Errorf("%w: slot already has a vendor", ErrPrecondition)
)

// storeErr maps store failures onto the service error classes.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %v: %w", op, err, ErrNotFound)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%s: %v: %w", op, err, ErrConcurrentUpdate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// remoteErr classifies a collaborator failure.
func remoteErr(op string, err error) error {
	if httpclient.IsTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// validationErr flattens validator output into one message.
func validationErr(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: field %s failed %q", ErrValidation, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
