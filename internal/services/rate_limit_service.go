package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/vicbox/starterkit/internal/models"
)

// FailureTooManyAttempts is the failure reason recorded for throttled logins
const FailureTooManyAttempts = "Too many failed login attempts"

// FailedLoginCounter counts recent failed login records
type FailedLoginCounter interface {
	CountFailedByEmailSince(ctx context.Context, email string, since time.Time) (int, error)
	CountFailedByIPSince(ctx context.Context, ipAddress string, since time.Time) (int, error)
}

// RateLimitConfig holds the failed-login thresholds
type RateLimitConfig struct {
	MaxFailedPerEmail int
	MaxFailedPerIP    int
	Window            time.Duration
}

// RateLimitService throttles logins for an email or client IP that has
// accumulated too many failed attempts in the trailing window. It reads the
// same login records the activity analyzer writes.
type RateLimitService struct {
	repo   FailedLoginCounter
	config RateLimitConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewRateLimitService(repo FailedLoginCounter, config RateLimitConfig, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		repo:   repo,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Allow reports whether a login attempt may proceed. Store errors fail open
// so a database problem does not lock every account out.
func (s *RateLimitService) Allow(ctx context.Context, email, ipAddress string) bool {
	since := s.now().Add(-s.config.Window)

	if s.config.MaxFailedPerEmail > 0 {
		count, err := s.repo.CountFailedByEmailSince(ctx, email, since)
		if err != nil {
			s.logger.Error("failed to check email rate limit", slog.Any("error", err))
			return true
		}
		if count >= s.config.MaxFailedPerEmail {
			s.logger.Warn("login throttled by email", slog.Int("failed_attempts", count))
			return false
		}
	}

	if s.config.MaxFailedPerIP > 0 && ipAddress != "" && ipAddress != models.UnknownIP {
		count, err := s.repo.CountFailedByIPSince(ctx, ipAddress, since)
		if err != nil {
			s.logger.Error("failed to check IP rate limit", slog.Any("error", err))
			return true
		}
		if count >= s.config.MaxFailedPerIP {
			s.logger.Warn("login throttled by IP",
				slog.String("ip_address", ipAddress),
				slog.Int("failed_attempts", count))
			return false
		}
	}

	return true
}
