package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clearline/authd/internal/http/handlers"
	"github.com/clearline/authd/internal/http/middlewares"
	"github.com/clearline/authd/internal/rate"
)

// RouterConfig wires the handler set and the cross-cutting middleware.
type RouterConfig struct {
	Auth   *handlers.Auth
	Health *handlers.Health

	// ForgotLimiter guards only the forgot-password entry point.
	ForgotLimiter     rate.Limiter
	TrustProxyHeaders bool

	CORSAllowedOrigins []string

	// Metrics is the /metrics handler; nil disables the route.
	Metrics http.Handler
}

// NewRouter assembles the full HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middlewares.WithRequestID(),
		middlewares.WithLogging(),
		middlewares.WithRecover(),
		middlewares.WithCORS(cfg.CORSAllowedOrigins),
	)

	forgotLimit := middlewares.WithRateLimit(middlewares.RateLimitConfig{
		Limiter:           cfg.ForgotLimiter,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/user/signup", cfg.Auth.UserSignup)
		r.Post("/admin/signup", cfg.Auth.AdminSignup)
		r.Post("/user/login", cfg.Auth.UserLogin)
		r.Post("/admin/login", cfg.Auth.AdminLogin)
		r.Get("/validate-session", cfg.Auth.ValidateSession)
		r.Post("/logout", cfg.Auth.Logout)
		r.With(forgotLimit).Post("/forgot-password", cfg.Auth.ForgotPassword)
		r.Post("/reset-password", cfg.Auth.ResetPassword)
	})

	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	return r
}
