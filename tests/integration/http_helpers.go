package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/vicbox/starterkit/internal/auth"
	"github.com/vicbox/starterkit/internal/config"
	"github.com/vicbox/starterkit/internal/database"
	"github.com/vicbox/starterkit/internal/geolocation"
	"github.com/vicbox/starterkit/internal/handlers"
	middlewareCustom "github.com/vicbox/starterkit/internal/middleware"
	"github.com/vicbox/starterkit/internal/repositories"
	"github.com/vicbox/starterkit/internal/routes"
	"github.com/vicbox/starterkit/internal/services"
	pkgauth "github.com/vicbox/starterkit/pkg/auth"
	pkghttp "github.com/vicbox/starterkit/pkg/http"
	pkglogger "github.com/vicbox/starterkit/pkg/logger"
)

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server *httptest.Server
	DB     *database.DB
	Config *config.Config
}

// NewTestLogger returns a JSON logger that only reports warnings and errors
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// NewTestServer wires the production router over a real database. Geolocation
// is disabled so tests never leave the host.
func NewTestServer(db *database.DB) *TestServer {
	logger := NewTestLogger()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			AllowedOrigins: []string{},
			TrustedProxies: []string{},
		},
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret-32-characters-long-for-testing",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
			RateLimitPerMinute: 1000,
			BcryptCost:         bcrypt.MinCost,
		},
		Geolocation: config.GeolocationConfig{
			Enabled:   false,
			Timeout:   500 * time.Millisecond,
			CacheSize: 16,
			CacheTTL:  time.Minute,
		},
		Activity: config.ActivityConfig{
			SuspiciousMaxIPs:       3,
			SuspiciousMaxCountries: 2,
			HistoryMaxLimit:        100,
			MaxFailedPerEmail:      3,
			MaxFailedPerIP:         50,
			LockoutWindow:          15 * time.Minute,
		},
	}

	userRepo := repositories.NewUserRepository(db)
	loginRepo := repositories.NewUserLoginRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	revocationRepo := repositories.NewTokenRevocationRepository(db)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry, cfg.Auth.RefreshTokenExpiry)
	hasher := pkgauth.NewHasher(cfg.Auth.BcryptCost)
	auditLogger := pkglogger.NewAuditLogger(logger)
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	identity := auth.ContextIdentity{}

	loginActivityService := services.NewLoginActivityService(loginRepo, geolocation.NewClient(cfg.Geolocation, logger), identity, cfg.Activity, logger)
	rateLimitService := services.NewRateLimitService(loginRepo, services.RateLimitConfig{
		MaxFailedPerEmail: cfg.Activity.MaxFailedPerEmail,
		MaxFailedPerIP:    cfg.Activity.MaxFailedPerIP,
		Window:            cfg.Activity.LockoutWindow,
	}, logger)
	authService := services.NewAuthService(userRepo, hasher, tokenManager, loginActivityService, rateLimitService, revocationRepo, logger, auditLogger)
	userService := services.NewUserService(userRepo, hasher, logger, auditLogger)
	projectService := services.NewProjectService(projectRepo, identity, logger, auditLogger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)

	routes.RegisterRoutes(r, routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, ipConfig),
		Users:         handlers.NewUserHandler(userService, ipConfig),
		LoginActivity: handlers.NewLoginActivityHandler(loginActivityService),
		Projects:      handlers.NewProjectHandler(projectService),
	}, tokenManager, revocationRepo, userRepo, middlewareCustom.RateLimitConfig{
		RequestsPerMinute: cfg.Auth.RateLimitPerMinute,
		IPConfig:          ipConfig,
	})

	return &TestServer{
		Server: httptest.NewServer(r),
		DB:     db,
		Config: cfg,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body any, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body any) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
}

// Login posts credentials from the given client address and user agent
func (ts *TestServer) Login(email, password, ip, userAgent string) (*http.Response, error) {
	return ts.Request(http.MethodPost, "/auth/login", handlers.LoginRequest{
		Email:    email,
		Password: password,
	}, map[string]string{
		"X-Forwarded-For": ip,
		"User-Agent":      userAgent,
	})
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// ExtractTokensFromResponse extracts access/refresh tokens from auth response
func ExtractTokensFromResponse(resp *http.Response) (accessToken, refreshToken string, err error) {
	var authResp services.AuthResponse
	if err := ParseJSONResponse(resp, &authResp); err != nil {
		return "", "", fmt.Errorf("failed to parse response: %w", err)
	}
	return authResp.AccessToken, authResp.RefreshToken, nil
}

// GetErrorMessage extracts error message from error response
func GetErrorMessage(resp *http.Response) (string, error) {
	var errResp pkghttp.ErrorResponse
	if err := ParseJSONResponse(resp, &errResp); err != nil {
		return "", err
	}
	return errResp.Message, nil
}
