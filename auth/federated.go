package auth

import (
	"strings"

	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/jrsteele09/go-identity-server/users"
)

// Registration ids of the external identity providers
const (
	RegistrationGoogle    = "google"
	RegistrationAzure     = "azure"
	RegistrationMicrosoft = "microsoft"
)

// ProviderForRegistration maps a provider registration id to the provider
// recorded on identities it creates.
func ProviderForRegistration(registrationID string) (users.Provider, error) {
	switch strings.ToLower(registrationID) {
	case RegistrationAzure, RegistrationMicrosoft:
		return users.ProviderMicrosoft, nil
	case RegistrationGoogle:
		return users.ProviderGoogle, nil
	default:
		return "", errors.Wrapf(errors.ErrUnknownProvider, "registration %q", registrationID)
	}
}

// firstAttribute returns the first non-empty string attribute among keys
func firstAttribute(attrs map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := attrs[k].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}
