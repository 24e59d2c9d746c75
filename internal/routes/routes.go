package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vicbox/starterkit/internal/auth"
	"github.com/vicbox/starterkit/internal/handlers"
	"github.com/vicbox/starterkit/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	LoginActivity *handlers.LoginActivityHandler
	Projects      *handlers.ProjectHandler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokenManager *auth.TokenManager,
	revocations auth.RevocationChecker,
	userRepo auth.UserRepository,
	rateLimitConfig middleware.RateLimitConfig,
) {
	router.Handle("/metrics", promhttp.Handler())

	// Public routes - no authentication required. Each endpoint gets its own bucket.
	router.Group(func(r chi.Router) {
		r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", h.Auth.Login)
		r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/register", h.Auth.Register)
		r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/refresh", h.Auth.RefreshToken)
	})

	// Sign-out only needs a live token, so blocked accounts can still end their sessions
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(tokenManager, revocations))

		r.Post("/auth/logout", h.Auth.Logout)
		r.Post("/auth/logout-all", h.Auth.LogoutAll)
	})

	// Protected routes - a valid access token for an active account
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(tokenManager, revocations))
		r.Use(auth.RequireActiveAccount(userRepo))

		r.Get("/me", h.Users.GetMe)
		r.Put("/me", h.Users.UpdateMe)
		r.Put("/me/password", h.Users.ChangePassword)

		h.LoginActivity.RegisterRoutes(r)
		h.Projects.RegisterRoutes(r)
	})
}
