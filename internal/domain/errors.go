package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// place (or slug) does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing name, coordinates or address).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the acting user does not own the place they
// are trying to edit. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("you must own a place in order to edit it")

// ErrConflict is returned when a write collides with a uniqueness constraint
// (a slug taken by a concurrent writer). Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrUnauthenticated is returned when an operation needs an acting user and
// none was supplied. Handlers should map this to HTTP 401.
var ErrUnauthenticated = errors.New("authentication required")
