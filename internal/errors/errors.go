package errors

import (
	"errors"
	"fmt"
)

// Common error types for the identity server
var (
	// Authentication errors
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountDisabled      = errors.New("account is disabled")
	ErrUserNotFound         = errors.New("user not found")
	ErrForbidden            = errors.New("forbidden")

	// Registration errors
	ErrEmailTaken     = errors.New("email is already registered")
	ErrWeakPassword   = errors.New("password does not meet strength requirements")
	ErrInvalidRequest = errors.New("invalid request")

	// Token errors
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrMalformedToken   = errors.New("token is malformed")
	ErrInactiveIdentity = errors.New("token subject is not an active identity")

	// Role errors. A missing seeded role is a configuration defect.
	ErrMissingRole  = errors.New("required role is not configured")
	ErrRoleNotFound = errors.New("role not found")

	// Federation errors
	ErrMissingIdentityAttribute = errors.New("identity provider returned no usable email attribute")
	ErrUnknownProvider          = errors.New("unknown identity provider")
	ErrStateNotFound            = errors.New("auth flow state not found")
	ErrStateExpired             = errors.New("auth flow state expired")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
