package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vicbox/starterkit/internal/models"
	pkgauth "github.com/vicbox/starterkit/pkg/auth"
	pkglogger "github.com/vicbox/starterkit/pkg/logger"
)

// profileRules mirrors the settings form limits
type profileRules struct {
	Name  *string `validate:"omitempty,min=1,max=50"`
	Phone *string `validate:"omitempty,max=32"`
	Bio   *string `validate:"omitempty,max=200"`
}

// UserService handles the caller's own account settings
type UserService struct {
	repo        UserRepository
	hasher      PasswordHasher
	validate    *validator.Validate
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewUserService(repo UserRepository, hasher PasswordHasher, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		hasher:      hasher,
		validate:    validator.New(),
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// GetProfile retrieves a user by ID
func (s *UserService) GetProfile(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return userModelToResponse(user), nil
}

// UpdateProfile applies the non-nil profile fields
func (s *UserService) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*UserResponse, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", models.ErrBadRequest)
		}
		update.Name = &name
	}

	if err := s.validate.Struct(profileRules{Name: update.Name, Phone: update.Phone, Bio: update.Bio}); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	user, err := s.repo.UpdateProfile(ctx, id, update)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update profile", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction(ctx, pkglogger.EventProfileUpdate, id, nil)
	return userModelToResponse(user), nil
}

// ChangePassword replaces the password after verifying the current one
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword, ipAddress string) error {
	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.hasher.Compare(user.PasswordHash, currentPassword); err != nil {
		s.auditLogger.LogPasswordChange(ctx, id, ipAddress, false)
		return models.ErrUnauthorized
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		s.logger.Error("failed to update password", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogPasswordChange(ctx, id, ipAddress, true)
	return nil
}
