package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vicbox/starterkit/internal/auth"
	"github.com/vicbox/starterkit/internal/models"
	pkgauth "github.com/vicbox/starterkit/pkg/auth"
	pkglogger "github.com/vicbox/starterkit/pkg/logger"
)

// FailureInvalidCredentials is the failure reason recorded for unknown emails
// and wrong passwords alike
const FailureInvalidCredentials = "Invalid login credentials"

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// PasswordHasher hashes and verifies account passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
	CompareDummy(password string) error
}

// LoginRecorder stores one record per authentication attempt
type LoginRecorder interface {
	RecordLoginAttempt(ctx context.Context, attempt models.LoginAttempt) (*models.UserLogin, error)
}

// LoginLimiter decides whether a login attempt may proceed
type LoginLimiter interface {
	Allow(ctx context.Context, email, ipAddress string) bool
}

// TokenRevoker keeps the list of signed-out tokens
type TokenRevoker interface {
	Revoke(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error
	RevokeAllForUser(ctx context.Context, userID string, expiresAt time.Time, reason string) error
	IsRevoked(ctx context.Context, jti, userID string, issuedAt time.Time) (bool, error)
}

// AuthService handles registration, login, token refresh and sign-out
type AuthService struct {
	repo        UserRepository
	hasher      PasswordHasher
	tm          *auth.TokenManager
	recorder    LoginRecorder
	limiter     LoginLimiter
	revocations TokenRevoker
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewAuthService creates an AuthService. recorder and limiter may be nil.
func NewAuthService(repo UserRepository, hasher PasswordHasher, tm *auth.TokenManager, recorder LoginRecorder, limiter LoginLimiter, revocations TokenRevoker, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		tm:          tm,
		recorder:    recorder,
		limiter:     limiter,
		revocations: revocations,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    time.Time     `json:"expires_at"`
	User         *UserResponse `json:"user"`
}

// Login authenticates a user and returns tokens. Every outcome is recorded as
// a login attempt; a recording failure never changes the outcome.
func (s *AuthService) Login(ctx context.Context, email, password string, client models.ClientInfo) (*AuthResponse, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		s.logger.Warn("login attempt with empty email")
		return nil, models.ErrUnauthorized
	}

	if s.limiter != nil && !s.limiter.Allow(ctx, email, client.IPAddress) {
		// The row is attached to the account so its owner sees the lockout
		// among their failed attempts. The password is never checked.
		var owner *models.User
		if user, err := s.repo.GetByEmail(ctx, email); err == nil {
			owner = user
		}
		s.recordFailure(ctx, owner, email, models.LoginStatusBlocked, FailureTooManyAttempts, client)
		return nil, models.ErrRateLimitExceeded
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			_ = s.hasher.CompareDummy(password)
			s.logger.Info("login failed: invalid credentials")
			s.recordFailure(ctx, nil, email, models.LoginStatusFailed, FailureInvalidCredentials, client)
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := validateAccountState(user); err != nil {
		s.logger.Info("login blocked due to account state",
			slog.String("user_id", user.ID),
			slog.String("status", user.Status))
		s.recordFailure(ctx, user, email, models.LoginStatusBlocked, err.Error(), client)
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials", slog.String("user_id", user.ID))
		s.recordFailure(ctx, user, email, models.LoginStatusFailed, FailureInvalidCredentials, client)
		return nil, models.ErrUnauthorized
	}

	resp, access, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.record(ctx, models.LoginAttempt{
		UserID:    &user.ID,
		UserName:  displayName(user, email),
		Email:     email,
		Status:    models.LoginStatusSuccess,
		SessionID: &access.ID,
		Client:    client,
	})
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventLogin,
		UserID:    user.ID,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Success:   true,
	})
	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	return resp, nil
}

func (s *AuthService) recordFailure(ctx context.Context, user *models.User, email string, status models.LoginStatus, reason string, client models.ClientInfo) {
	attempt := models.LoginAttempt{
		UserName:      displayName(user, email),
		Email:         email,
		Status:        status,
		FailureReason: &reason,
		Client:        client,
	}
	event := pkglogger.AuditEvent{
		EventType:     pkglogger.EventLogin,
		Email:         email,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		FailureReason: reason,
	}
	if user != nil {
		attempt.UserID = &user.ID
		event.UserID = user.ID
	}

	s.record(ctx, attempt)
	s.auditLogger.LogAuthAttempt(ctx, event)
}

func (s *AuthService) record(ctx context.Context, attempt models.LoginAttempt) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.RecordLoginAttempt(ctx, attempt); err != nil {
		s.logger.Warn("login attempt not recorded", slog.String("status", string(attempt.Status)), slog.Any("error", err))
	}
}

// RefreshToken generates a new token pair from a refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken = strings.TrimSpace(refreshToken); refreshToken == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := s.tm.ValidateToken(refreshToken, models.TokenTypeRefresh)
	if err != nil {
		s.logger.Info("refresh token validation failed", slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}

	revoked, err := s.isRevoked(ctx, claims)
	if err != nil {
		s.logger.Error("failed to check refresh token revocation", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if revoked {
		s.logger.Info("revoked refresh token presented", slog.String("user_id", claims.UserID))
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found for token refresh", slog.String("user_id", claims.UserID))
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for token refresh", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := validateAccountState(user); err != nil {
		s.logger.Info("token refresh blocked due to account state",
			slog.String("user_id", user.ID),
			slog.String("status", user.Status))
		return nil, models.ErrUnauthorized
	}

	resp, _, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventTokenRefresh,
		UserID:    user.ID,
		Success:   true,
	})
	return resp, nil
}

// Logout signs out the caller's session. The access token in use is revoked,
// along with the refresh token issued next to it when the client sends one.
// A refresh token that no longer validates has nothing left to revoke and is
// ignored; one belonging to another account is refused.
func (s *AuthService) Logout(ctx context.Context, identity models.Identity, refreshToken string) error {
	if identity.UserID == "" || identity.SessionID == "" {
		return models.ErrUnauthorized
	}
	if s.revocations == nil {
		s.logger.Error("logout requested without a revocation store")
		return models.ErrInternalServer
	}

	var refreshClaims *models.TokenClaims
	if refreshToken = strings.TrimSpace(refreshToken); refreshToken != "" {
		claims, err := s.tm.ValidateToken(refreshToken, models.TokenTypeRefresh)
		switch {
		case err != nil:
			s.logger.Info("logout with unusable refresh token", slog.String("user_id", identity.UserID))
		case claims.UserID != identity.UserID:
			s.logger.Warn("logout with another account's refresh token", slog.String("user_id", identity.UserID))
			return models.ErrForbidden
		default:
			refreshClaims = claims
		}
	}

	if err := s.revocations.Revoke(ctx, identity.SessionID, identity.UserID, models.TokenTypeAccess, identity.ExpiresAt, "logout"); err != nil {
		s.logger.Error("failed to revoke access token", slog.String("jti", identity.SessionID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if refreshClaims != nil {
		if err := s.revocations.Revoke(ctx, refreshClaims.ID, identity.UserID, models.TokenTypeRefresh, refreshClaims.ExpiresAt.Time, "logout"); err != nil {
			s.logger.Error("failed to revoke refresh token", slog.String("jti", refreshClaims.ID), slog.Any("error", err))
			return models.ErrInternalServer
		}
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventLogout,
		UserID:    identity.UserID,
		Success:   true,
	})
	s.logger.Info("user logged out", slog.String("user_id", identity.UserID))
	return nil
}

// LogoutAll signs the user out on every device by rejecting all tokens
// issued up to now
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if userID == "" {
		return models.ErrUnauthorized
	}
	if s.revocations == nil {
		s.logger.Error("logout requested without a revocation store")
		return models.ErrInternalServer
	}

	until := s.now().Add(s.tm.MaxLifetime())
	if err := s.revocations.RevokeAllForUser(ctx, userID, until, "logout_all"); err != nil {
		s.logger.Error("failed to revoke all user tokens", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventLogoutAll,
		UserID:    userID,
		Success:   true,
	})
	s.logger.Info("user logged out from all devices", slog.String("user_id", userID))
	return nil
}

func (s *AuthService) isRevoked(ctx context.Context, claims *models.TokenClaims) (bool, error) {
	if s.revocations == nil {
		return false, nil
	}
	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	return s.revocations.IsRevoked(ctx, claims.ID, claims.UserID, issuedAt)
}

// Register creates a new user account and signs it in
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrBadRequest)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrBadRequest)
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("registration failed: user already exists")
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check if user exists", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	createdUser, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
		Role:         "user",
		Status:       models.UserStatusActive,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resp, _, err := s.issueTokens(createdUser)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", createdUser.ID))
	s.auditLogger.LogAccountAction(ctx, pkglogger.EventRegister, createdUser.ID, nil)

	return resp, nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, *auth.IssuedToken, error) {
	access, err := s.tm.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	refresh, err := s.tm.IssueRefreshToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	return &AuthResponse{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		ExpiresAt:    access.ExpiresAt,
		User:         userModelToResponse(user),
	}, access, nil
}

// validateAccountState checks if user account is in valid state for authentication
func validateAccountState(user *models.User) error {
	switch user.Status {
	case models.UserStatusActive:
		return nil
	case models.UserStatusDisabled:
		return models.ErrAccountDisabled
	case models.UserStatusSuspended:
		return models.ErrAccountSuspended
	default:
		return fmt.Errorf("unknown account status: %s", user.Status)
	}
}

// displayName is the account name, or the local part of the email when no
// account matched
func displayName(user *models.User, email string) string {
	if user != nil && user.Name != "" {
		return user.Name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Phone:     user.Phone,
		Bio:       user.Bio,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}
