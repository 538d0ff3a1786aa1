package domain

import "errors"

// Sentinel errors shared across layers. Repositories translate driver errors
// into these so the HTTP layer can map them to status codes with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrRateLimited        = errors.New("too many attempts")
	ErrUnknownLevel       = errors.New("unknown log level")
	ErrUnknownRole        = errors.New("unknown role")
)
