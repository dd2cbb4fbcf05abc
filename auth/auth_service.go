package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-identity-server/authority"
	"github.com/jrsteele09/go-identity-server/internal/errors"
	"github.com/jrsteele09/go-identity-server/token"
	"github.com/jrsteele09/go-identity-server/users"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultFrontendURL is the client application that receives federated login results
const DefaultFrontendURL = "http://localhost:5173"

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users users.UserRepo // Repository for identities
	Roles users.RoleRepo // Repository for seeded roles
}

// Service composes credential verification, reconciliation and token issuing
// into the login, registration, federated callback and introspection flows.
type Service struct {
	repos       Repos
	credentials *CredentialVerifier
	reconciler  *Reconciler
	codec       *token.Codec
	validator   *Validator
	metrics     Metrics
	frontendURL string
	reconOpts   []ReconcilerOption
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithFrontendURL sets the base URL of the client application, e.g. http://localhost:5173
func WithFrontendURL(frontendURL string) ServiceOption {
	return func(s *Service) {
		s.frontendURL = strings.TrimRight(frontendURL, "/")
	}
}

// WithReconcilerOptions passes options through to the internal Reconciler
func WithReconcilerOptions(opts ...ReconcilerOption) ServiceOption {
	return func(s *Service) {
		s.reconOpts = append(s.reconOpts, opts...)
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, hasher users.SecretHasher, codec *token.Codec, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, pkgerrors.New("[NewService] Users repo is required")
	}
	if repos.Roles == nil {
		return nil, pkgerrors.New("[NewService] Roles repo is required")
	}
	if codec == nil {
		return nil, pkgerrors.New("[NewService] token codec is required")
	}

	s := &Service{
		repos:       repos,
		codec:       codec,
		validator:   NewValidator(),
		metrics:     noopMetrics{},
		frontendURL: DefaultFrontendURL,
	}
	for _, opt := range options {
		opt(s)
	}

	var err error
	if s.credentials, err = NewCredentialVerifier(repos.Users, hasher); err != nil {
		return nil, pkgerrors.Wrap(err, "[NewService]")
	}
	if s.reconciler, err = NewReconciler(repos.Users, repos.Roles, hasher, s.reconOpts...); err != nil {
		return nil, pkgerrors.Wrap(err, "[NewService]")
	}
	return s, nil
}

// Login verifies local credentials and issues a session token. Every credential
// failure is reported as ErrAuthenticationFailed; the wrapped cause is kept for
// errors.Is but must not be shown to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (string, error) {
	if err := s.validator.ValidateLogin(req); err != nil {
		s.metrics.LoginAttempt(OutcomeInvalidRequest)
		return "", err
	}

	user, err := s.credentials.Verify(ctx, req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrInvalidCredentials):
		s.metrics.LoginAttempt(OutcomeInvalidCredentials)
		return "", fmt.Errorf("%w: %w", errors.ErrAuthenticationFailed, err)
	case errors.Is(err, errors.ErrAccountDisabled):
		s.metrics.LoginAttempt(OutcomeDisabled)
		log.Info().Str("email", users.NormaliseEmail(req.Email)).Msg("login attempt for disabled identity")
		return "", fmt.Errorf("%w: %w", errors.ErrAuthenticationFailed, err)
	default:
		s.metrics.LoginAttempt(OutcomeError)
		return "", pkgerrors.Wrap(err, "[Service.Login]")
	}

	signed, err := s.codec.Issue(user.Email, authority.FromRoles(user.Roles))
	if err != nil {
		s.metrics.LoginAttempt(OutcomeError)
		return "", pkgerrors.Wrap(err, "[Service.Login]")
	}
	s.metrics.LoginAttempt(OutcomeSuccess)
	return signed, nil
}

// Register creates a LOCAL identity. No token is issued; the caller logs in afterwards.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	if err := s.validator.ValidateRegistration(req); err != nil {
		s.metrics.Registration(OutcomeInvalidRequest)
		return err
	}

	_, err := s.reconciler.Register(ctx, req.Email, req.Username, req.Password)
	switch {
	case err == nil:
		s.metrics.Registration(OutcomeSuccess)
		return nil
	case errors.Is(err, errors.ErrEmailTaken):
		s.metrics.Registration(OutcomeEmailTaken)
		return err
	default:
		s.metrics.Registration(OutcomeError)
		return pkgerrors.Wrap(err, "[Service.Register]")
	}
}

// FederatedCallback turns the verified attributes of an external login into a
// session token and the redirect that hands it to the client application.
func (s *Service) FederatedCallback(ctx context.Context, attrs map[string]any, registrationID string) (*FederatedResult, error) {
	provider, err := ProviderForRegistration(registrationID)
	if err != nil {
		s.metrics.FederatedLogin(UnknownProviderLabel, OutcomeInvalidRequest)
		return nil, err
	}

	email := users.NormaliseEmail(firstAttribute(attrs, "email", "preferred_username"))
	if email == "" {
		s.metrics.FederatedLogin(string(provider), OutcomeInvalidRequest)
		return nil, errors.Wrapf(errors.ErrMissingIdentityAttribute, "[Service.FederatedCallback] %s", registrationID)
	}
	name := firstAttribute(attrs, "name")
	if name == "" {
		name = email
	}

	user, created, err := s.reconciler.ReconcileFederated(ctx, email, name, provider)
	if err != nil {
		s.metrics.FederatedLogin(string(provider), OutcomeError)
		return nil, pkgerrors.Wrap(err, "[Service.FederatedCallback]")
	}
	if !user.Enabled {
		s.metrics.FederatedLogin(string(provider), OutcomeDisabled)
		log.Info().Str("email", email).Str("provider", string(provider)).Msg("federated login for disabled identity")
		return nil, fmt.Errorf("%w: %w", errors.ErrAuthenticationFailed, errors.ErrAccountDisabled)
	}

	signed, err := s.codec.Issue(user.Email, authority.FromRoles(user.Roles))
	if err != nil {
		s.metrics.FederatedLogin(string(provider), OutcomeError)
		return nil, pkgerrors.Wrap(err, "[Service.FederatedCallback]")
	}

	outcome := OutcomeExisting
	if created {
		outcome = OutcomeCreated
	}
	s.metrics.FederatedLogin(string(provider), outcome)

	return &FederatedResult{
		Token:       signed,
		Provider:    provider,
		RedirectURL: s.callbackURL(signed, provider),
		Created:     created,
	}, nil
}

// Authenticate verifies a bearer token and resolves the caller from the identity
// store. The principal carries the stored roles, so a removed or disabled
// identity loses access before its token expires.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (authority.Principal, error) {
	if err := s.validator.ValidateAccessToken(rawToken); err != nil {
		s.metrics.TokenVerification(OutcomeMalformed)
		return authority.Principal{}, err
	}

	claims, err := s.codec.Verify(strings.TrimSpace(rawToken))
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrTokenExpired):
			s.metrics.TokenVerification(OutcomeExpired)
		case errors.Is(err, errors.ErrInvalidSignature):
			s.metrics.TokenVerification(OutcomeInvalidSignature)
		default:
			s.metrics.TokenVerification(OutcomeMalformed)
		}
		return authority.Principal{}, err
	}

	user, err := s.repos.Users.GetByEmail(ctx, users.NormaliseEmail(claims.Subject))
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrUserNotFound):
		s.metrics.TokenVerification(OutcomeUnknownSubject)
		return authority.Principal{}, fmt.Errorf("%w: %w", errors.ErrInactiveIdentity, err)
	default:
		s.metrics.TokenVerification(OutcomeError)
		return authority.Principal{}, pkgerrors.Wrap(err, "[Service.Authenticate]")
	}
	if !user.Enabled {
		s.metrics.TokenVerification(OutcomeDisabled)
		return authority.Principal{}, fmt.Errorf("%w: %w", errors.ErrInactiveIdentity, errors.ErrAccountDisabled)
	}

	s.metrics.TokenVerification(OutcomeSuccess)
	return authority.Principal{Subject: user.Email, Authorities: authority.FromRoles(user.Roles)}, nil
}

// Me looks up the identity behind a verified token subject
func (s *Service) Me(ctx context.Context, subject string) (*UserView, error) {
	user, err := s.repos.Users.GetByEmail(ctx, users.NormaliseEmail(subject))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Service.Me]")
	}
	view := NewUserView(user)
	return &view, nil
}

// ListUsers returns every identity. The caller must hold ROLE_ADMIN.
func (s *Service) ListUsers(ctx context.Context, caller authority.Principal) ([]UserView, error) {
	if !caller.Can(users.RoleAdmin) {
		return nil, errors.ErrForbidden
	}

	const pageSize = 100
	views := make([]UserView, 0)
	for offset := 0; ; offset += pageSize {
		page, err := s.repos.Users.List(ctx, offset, pageSize)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "[Service.ListUsers]")
		}
		for _, u := range page {
			views = append(views, NewUserView(u))
		}
		if len(page) < pageSize {
			break
		}
	}
	return views, nil
}

// SetEnabled enables or disables an identity. The caller must hold ROLE_ADMIN.
func (s *Service) SetEnabled(ctx context.Context, caller authority.Principal, email string, enabled bool) error {
	if !caller.Can(users.RoleAdmin) {
		return errors.ErrForbidden
	}
	email = users.NormaliseEmail(email)
	if err := s.repos.Users.SetEnabled(ctx, email, enabled); err != nil {
		return pkgerrors.Wrap(err, "[Service.SetEnabled]")
	}
	log.Info().Str("email", email).Bool("enabled", enabled).Str("by", caller.Subject).Msg("identity enabled flag changed")
	return nil
}

// GrantRole adds a seeded role to an identity. Granting a held role is a no-op.
func (s *Service) GrantRole(ctx context.Context, caller authority.Principal, email, roleName string) error {
	if !caller.Can(users.RoleAdmin) {
		return errors.ErrForbidden
	}

	role, err := s.repos.Roles.GetByName(ctx, roleName)
	if err != nil {
		return pkgerrors.Wrap(err, "[Service.GrantRole]")
	}
	email = users.NormaliseEmail(email)
	if err := s.repos.Users.AddRole(ctx, email, *role); err != nil {
		return pkgerrors.Wrap(err, "[Service.GrantRole]")
	}
	log.Info().Str("email", email).Str("role", roleName).Str("by", caller.Subject).Msg("role granted")
	return nil
}

// LoginFailureURL is where the browser goes when a federated login can't complete
func (s *Service) LoginFailureURL(reason string) string {
	return s.frontendURL + "/#/login?error=" + url.QueryEscape(reason)
}

func (s *Service) callbackURL(signed string, provider users.Provider) string {
	return s.frontendURL + "/#/oauth/callback?token=" + url.QueryEscape(signed) +
		"&provider=" + url.QueryEscape(string(provider))
}
