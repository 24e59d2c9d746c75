package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vicbox/starterkit/internal/auth"
	"github.com/vicbox/starterkit/internal/background"
	"github.com/vicbox/starterkit/internal/config"
	"github.com/vicbox/starterkit/internal/database"
	"github.com/vicbox/starterkit/internal/geolocation"
	"github.com/vicbox/starterkit/internal/handlers"
	middlewareCustom "github.com/vicbox/starterkit/internal/middleware"
	"github.com/vicbox/starterkit/internal/repositories"
	"github.com/vicbox/starterkit/internal/routes"
	"github.com/vicbox/starterkit/internal/services"
	"github.com/vicbox/starterkit/migrations"
	pkgauth "github.com/vicbox/starterkit/pkg/auth"
	pkghttp "github.com/vicbox/starterkit/pkg/http"
	pkglogger "github.com/vicbox/starterkit/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.SlogLevel()}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := database.Migrate(ctx, db, migrations.FS, logger)
		cancel()
		if err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	loginRepo := repositories.NewUserLoginRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	revocationRepo := repositories.NewTokenRevocationRepository(db)

	// Initialize token manager and password hashing
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	hasher := pkgauth.NewHasher(cfg.Auth.BcryptCost)
	auditLogger := pkglogger.NewAuditLogger(logger)
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	// Initialize services
	geoClient := geolocation.NewClient(cfg.Geolocation, logger)
	identity := auth.ContextIdentity{}
	loginActivityService := services.NewLoginActivityService(loginRepo, geoClient, identity, cfg.Activity, logger)
	rateLimitService := services.NewRateLimitService(loginRepo, services.RateLimitConfig{
		MaxFailedPerEmail: cfg.Activity.MaxFailedPerEmail,
		MaxFailedPerIP:    cfg.Activity.MaxFailedPerIP,
		Window:            cfg.Activity.LockoutWindow,
	}, logger)
	authService := services.NewAuthService(userRepo, hasher, tokenManager, loginActivityService, rateLimitService, revocationRepo, logger, auditLogger)
	userService := services.NewUserService(userRepo, hasher, logger, auditLogger)
	projectService := services.NewProjectService(projectRepo, identity, logger, auditLogger)

	// Expired revocations are trimmed in the background
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	revocationCleanup := background.NewRevocationCleanup(revocationRepo, logger, cfg.Auth.RevocationCleanupInterval)
	go revocationCleanup.Start(cleanupCtx)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.CORSConfig{AllowedOrigins: cfg.Server.AllowedOrigins}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middlewareCustom.Metrics)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, ipConfig),
		Users:         handlers.NewUserHandler(userService, ipConfig),
		LoginActivity: handlers.NewLoginActivityHandler(loginActivityService),
		Projects:      handlers.NewProjectHandler(projectService),
	}, tokenManager, revocationRepo, userRepo, middlewareCustom.RateLimitConfig{
		RequestsPerMinute: cfg.Auth.RateLimitPerMinute,
		IPConfig:          ipConfig,
	})

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")
	revocationCleanup.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
