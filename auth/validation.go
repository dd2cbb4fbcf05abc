package auth

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/jrsteele09/go-identity-server/users"
)

// RegisterRequest is the body of a local registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest is the body of a local login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
}

// Validator checks request bodies before they reach the reconciler or the
// credential verifier.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateRegistration checks field presence and format, then password strength
func (v *Validator) ValidateRegistration(req RegisterRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := v.validate.Struct(req); err != nil {
		return describe(err)
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return errors.Wrapf(errors.ErrWeakPassword, "%s", err.Error())
	}
	return nil
}

// ValidateLogin only checks presence. Neither the email format nor the password
// length is checked, so a bad value fails like any other wrong credential.
func (v *Validator) ValidateLogin(req LoginRequest) error {
	if err := v.validate.Struct(req); err != nil {
		return describe(err)
	}
	return nil
}

// ValidateAccessToken validates access token format and presence
func (v *Validator) ValidateAccessToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.Wrapf(errors.ErrMalformedToken, "access token is required")
	}

	// Basic format check - should be a JWT (3 parts separated by dots)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return errors.Wrapf(errors.ErrMalformedToken, "invalid token format")
	}
	for i, part := range parts {
		if len(part) == 0 {
			return errors.Wrapf(errors.ErrMalformedToken, "invalid token format: part %d is empty", i+1)
		}
	}
	return nil
}

func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrapf(errors.ErrInvalidRequest, "%s", err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return errors.Wrapf(errors.ErrInvalidRequest, "%s", strings.Join(msgs, "; "))
}
