package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the entity, or some link in its ownership chain, does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller is authenticated but not a member of the
	// owning project. The HTTP layer may present this as a not-found to avoid
	// leaking existence; the distinction stays intact here.
	ErrForbidden = errors.New("forbidden")

	// ErrStatusConflict means a status transition lost a concurrent race or
	// contradicts an already-terminal record.
	ErrStatusConflict = errors.New("status conflict")

	// ErrUserSyncFailed means identity resolution produced no usable user for
	// an authenticated principal. Nothing proceeds without a resolved user.
	ErrUserSyncFailed = errors.New("user sync failed")
)

// ValidationError is malformed input to a value object or operation. Code is
// stable across releases so callers can match on it.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Code, e.Message)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransitionError is a rejected qa status transition.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// IsInvalidTransition reports whether err is (or wraps) a TransitionError.
func IsInvalidTransition(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}
