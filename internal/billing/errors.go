package billing

import "errors"

var (
	// ErrNotFound is returned when the referenced payment, charge or stay
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyPaid is returned by manual marking when the charge is
	// already settled.
	ErrAlreadyPaid = errors.New("charge already paid")
	// ErrUnauthorized is returned when the actor lacks owner or object
	// admin rights. Callers must keep the user-facing message generic.
	ErrUnauthorized = errors.New("no permission")
	// ErrInvalidState is returned when an operation is attempted from a
	// payment status it is not legal in.
	ErrInvalidState = errors.New("invalid payment state")
)
