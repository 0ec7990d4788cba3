package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("validation error")
	ErrReasonRequired         = errors.New("reason_required")
	ErrNotFound               = errors.New("not_found")
	ErrInvalidTransition      = errors.New("invalid_status_transition")
	ErrConcurrentModification = errors.New("concurrent_modification")
)

// TransitionError carries enough context for the caller to build a precise
// user-facing message. Err is one of ErrNotFound, ErrInvalidTransition or
// ErrConcurrentModification. Current is the status this call observed when
// it loaded the booking. Reference is set instead of BookingID when a
// lookup by reference found nothing.
type TransitionError struct {
	Err       error
	BookingID int64
	Reference string
	Current   Status
	Attempted Status
}

func (e *TransitionError) Error() string {
	switch {
	case errors.Is(e.Err, ErrNotFound) && e.Reference != "":
		return fmt.Sprintf("booking %s: %v", e.Reference, e.Err)
	case errors.Is(e.Err, ErrNotFound):
		return fmt.Sprintf("booking %d: %v", e.BookingID, e.Err)
	case errors.Is(e.Err, ErrConcurrentModification):
		return fmt.Sprintf("booking %d: %v: %s -> %s lost to a concurrent transition",
			e.BookingID, e.Err, e.Current, e.Attempted)
	default:
		return fmt.Sprintf("booking %d: %v: %s -> %s", e.BookingID, e.Err, e.Current, e.Attempted)
	}
}

func (e *TransitionError) Unwrap() error { return e.Err }

func notFound(id int64) error {
	return &TransitionError{Err: ErrNotFound, BookingID: id}
}

func notFoundByReference(ref string) error {
	return &TransitionError{Err: ErrNotFound, Reference: ref}
}
