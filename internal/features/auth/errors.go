package auth

import "errors"

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveAccount    = errors.New("account is deactivated")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
