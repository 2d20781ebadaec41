package entity

import "errors"

// Error taxonomy shared by the services and the HTTP layer. Handlers map
// these onto status codes; everything else is treated as internal.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("actor is not allowed to perform this action")
	ErrInvalidState = errors.New("operation is not valid for the current state")
	ErrConflict     = errors.New("conflicting concurrent modification")
	ErrTimeout      = errors.New("store operation timed out")
	ErrValidation   = errors.New("invalid input")
)
