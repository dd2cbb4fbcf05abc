package auth

// Outcomes reported to Metrics
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeDisabled           = "disabled"
	OutcomeInvalidRequest     = "invalid_request"
	OutcomeEmailTaken         = "email_taken"
	OutcomeCreated            = "created"
	OutcomeExisting           = "existing"
	OutcomeExpired            = "expired"
	OutcomeInvalidSignature   = "invalid_signature"
	OutcomeMalformed          = "malformed"
	OutcomeUnknownSubject     = "unknown_subject"
	OutcomeError              = "error"
)

// UnknownProviderLabel stands in for any registration id that is not a known provider
const UnknownProviderLabel = "unknown"

// ProviderLabel maps a registration id onto a bounded metrics label
func ProviderLabel(registrationID string) string {
	provider, err := ProviderForRegistration(registrationID)
	if err != nil {
		return UnknownProviderLabel
	}
	return string(provider)
}

// Metrics receives authentication outcomes. See metrics.Collector.
type Metrics interface {
	LoginAttempt(outcome string)
	Registration(outcome string)
	FederatedLogin(provider, outcome string)
	TokenVerification(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) LoginAttempt(string)           {}
func (noopMetrics) Registration(string)           {}
func (noopMetrics) FederatedLogin(string, string) {}
func (noopMetrics) TokenVerification(string)      {}
