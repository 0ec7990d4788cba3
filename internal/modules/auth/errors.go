package auth

import "errors"

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionRevoked = errors.New("session revoked")
	ErrSessionExpired = errors.New("session expired")

	ErrAccountSuspended = errors.New("account suspended")
)
