package domain

import "errors"

// Caller-facing auth outcomes. None of them is retried internally.
var (
	// ErrInvalidCredentials covers both an unknown email and a wrong secret.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account inactive")
	ErrDuplicateIdentity  = errors.New("identity already exists")
	ErrMissingToken       = errors.New("missing bearer token")
	// ErrInvalidToken covers malformed, expired and tampered tokens, and tokens
	// whose subject no longer exists or has been deactivated.
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("access forbidden")
)

var (
	ErrInvalidProfile    = errors.New("invalid profile")
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrTooManyAttempts   = errors.New("too many login attempts")
	ErrReportNotFound    = errors.New("report not found")
	ErrInvalidReport     = errors.New("invalid report")
)
