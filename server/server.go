package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-identity-server/auth"
	"github.com/jrsteele09/go-identity-server/federation"
	"github.com/jrsteele09/go-identity-server/federation/flowstate"
	"github.com/jrsteele09/go-identity-server/internal/config"
	"github.com/jrsteele09/go-identity-server/metrics"
	"github.com/jrsteele09/go-identity-server/token"
	"github.com/jrsteele09/go-identity-server/users"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	auth     *auth.Service
	repos    auth.Repos
	hasher   users.SecretHasher
	flow     *federation.Flow
	metrics  *metrics.Collector
	gatherer prometheus.Gatherer
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithHasher replaces the bcrypt hasher built from BCRYPT_COST
func WithHasher(hasher users.SecretHasher) Option {
	return func(s *Server) {
		s.hasher = hasher
	}
}

// WithFederation sets the federated login flow. Without it no provider is configured.
func WithFederation(flow *federation.Flow) Option {
	return func(s *Server) {
		s.flow = flow
	}
}

// WithMetricsRegistry registers the server's metrics on reg and serves reg on /metrics
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = metrics.NewCollector(reg)
		s.gatherer = reg
	}
}

func New(ctx context.Context, config config.Config, repos auth.Repos, options ...Option) (*Server, error) {
	s := &Server{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		config: config,
		repos:  repos,
	}
	for _, opt := range options {
		opt(s)
	}

	if s.hasher == nil {
		s.hasher = users.NewBcryptHasher(users.WithCost(config.GetBcryptCost()))
	}
	if s.flow == nil {
		states := flowstate.NewInMemoryRepo(flowstate.WithTTL(config.GetAuthFlowTTL()))
		s.flow = federation.NewFlow(federation.NewRegistry(), states)
	}
	if s.metrics == nil {
		WithMetricsRegistry(prometheus.NewRegistry())(s)
	}

	signer, err := token.NewHMACSigner(string(config.GetJWTSecret()))
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] token signer")
	}
	codec, err := token.NewCodec(signer,
		token.WithIssuer(config.GetJWTIssuer()),
		token.WithLifetime(config.GetTokenLifetime()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] token codec")
	}

	s.auth, err = auth.NewService(repos, s.hasher, codec,
		auth.WithMetrics(s.metrics),
		auth.WithFrontendURL(config.GetFrontendURL()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create auth service")
	}

	if err := s.InitialiseSystem(ctx); err != nil {
		return nil, errors.Wrap(err, "[Server New] Failed to initialise the system")
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Auth exposes the service behind the HTTP handlers
func (s *Server) Auth() *auth.Service {
	return s.auth
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
	if names := s.flow.Registry().Names(); len(names) > 0 {
		log.Info().Strs("providers", names).Msg("federated login enabled")
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func padMethod(method string) string {
	return fmt.Sprintf(" %-7s", method)
}
