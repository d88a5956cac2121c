package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yuriscavalcante/rh360/internal/guard"
)

// Handler builds the chi router with every route and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(clientIPMiddleware)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(bodySizeLimitMiddleware)

	if s.health != nil {
		r.Method(http.MethodGet, "/health", s.health)
	}

	sessionGuard := guard.Session(s.sessions)
	handoffGuard := guard.Handoff(s.handoffs)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Get("/auth/validate", s.handleValidate)

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireSession(sessionGuard))

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)
			r.Get("/time-clock/qr-code", s.handleQRCode)
			if s.users != nil {
				r.Post("/users/{id}/disable", s.handleDisableUser)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireHandoff(handoffGuard))

			r.Post("/time-clock/qr/redeem", s.handleRedeem)
		})
	})

	return r
}
