// Package api is the HTTP surface: login, logout and validate for sessions,
// and the time-clock QR hand-off endpoints.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	credservice "github.com/yuriscavalcante/rh360/internal/credential/service"
	handoffservice "github.com/yuriscavalcante/rh360/internal/handoff/service"
	identityservice "github.com/yuriscavalcante/rh360/internal/identity/service"
	"github.com/yuriscavalcante/rh360/internal/logging"
)

const (
	readTimeout             = 10 * time.Second
	writeTimeout            = 15 * time.Second
	idleTimeout             = 60 * time.Second
	gracefulShutdownTimeout = 10 * time.Second
)

// Authenticator is the password login service.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*identityservice.AuthResult, error)
	Logout(ctx context.Context, token string) error
}

// SessionValidator validates session credentials.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (credservice.Result, error)
}

// Handoffs is the hand-off authority.
type Handoffs interface {
	Validate(ctx context.Context, token string) (credservice.Result, error)
	Redeem(ctx context.Context, token string) (credservice.Result, error)
	GenerateQR(ctx context.Context, principalID, id, path string) (*handoffservice.QRCode, error)
}

// UserAdmin disables principals.
type UserAdmin interface {
	Disable(ctx context.Context, actorID, userID string) error
}

// Deps holds the services behind the HTTP routes. Auth, Sessions and Handoffs are required.
type Deps struct {
	Addr     string
	Auth     Authenticator
	Sessions SessionValidator
	Handoffs Handoffs
	// Users enables POST /api/users/{id}/disable for admins when set.
	Users UserAdmin
	// Health serves GET /health when set.
	Health http.Handler
}

// Server is the HTTP API server.
type Server struct {
	addr     string
	auth     Authenticator
	sessions SessionValidator
	handoffs Handoffs
	users    UserAdmin
	health   http.Handler
	server   *http.Server
}

// New validates deps and returns a Server.
func New(deps Deps) (*Server, error) {
	if deps.Auth == nil {
		return nil, errors.New("api: auth service is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("api: session validator is required")
	}
	if deps.Handoffs == nil {
		return nil, errors.New("api: hand-off authority is required")
	}
	return &Server{
		addr:     deps.Addr,
		auth:     deps.Auth,
		sessions: deps.Sessions,
		handoffs: deps.Handoffs,
		users:    deps.Users,
		health:   deps.Health,
	}, nil
}

// Start begins listening in a goroutine. Listen errors other than a clean shutdown are logged.
func (s *Server) Start() {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	go func() {
		logging.Log().WithField("addr", s.addr).Info("http server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Log().WithError(err).Error("http server error")
		}
	}()
}

// Close shuts the server down, waiting for in-flight requests up to the graceful timeout.
func (s *Server) Close(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, gracefulShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
