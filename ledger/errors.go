package ledger

import "errors"

// ValidationError marks an attempted illegal state transition or invariant
// violation. It surfaces to the caller as a 422 and is never swallowed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(reason string) error { return &ValidationError{Reason: reason} }

// ErrNotFound is returned when a referenced payment or chargeable does not
// exist or is not owned by the requesting user.
var ErrNotFound = errors.New("payment or chargeable not found")
