package auth

import (
	"fmt"

	"github.com/fletcher-oaas/fletcher/internal/domain"
)

// InvalidKeyError is returned when a login's key does not match the
// registered service's stored hash.
type InvalidKeyError struct{}

func (e *InvalidKeyError) Error() string {
	return "attempting to log in with an invalid key"
}

// InvalidServiceError is returned when a login or a bearer token names a
// service absent from the remote-auth table.
type InvalidServiceError struct {
	Service string
}

func (e *InvalidServiceError) Error() string {
	return fmt.Sprintf("attempting to log in as an unknown service: %q", e.Service)
}

// RoleError is returned when an authenticated service lacks a role a
// request requires.
type RoleError struct {
	Service string
	Role    domain.Role
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("service account %q is missing the following role: %q", e.Service, e.Role)
}

// TokenError wraps a bearer token that failed parsing or signature
// verification.
type TokenError struct {
	cause error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("invalid bearer token: %s", e.cause)
}

func (e *TokenError) Unwrap() error {
	return e.cause
}
