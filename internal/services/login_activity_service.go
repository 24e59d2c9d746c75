package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vicbox/starterkit/internal/config"
	"github.com/vicbox/starterkit/internal/metrics"
	"github.com/vicbox/starterkit/internal/models"
)

const (
	DefaultHistoryLimit        = 20
	DefaultRecentActivityLimit = 10
	DefaultStatsDaysBack       = 30
	DefaultFailedHoursBack     = 24
	DefaultSuspiciousHoursBack = 1
)

// UserLoginRepository is the append-only login record store
type UserLoginRepository interface {
	Insert(ctx context.Context, login *models.UserLogin) (*models.UserLogin, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.UserLogin, error)
	ListRecentActivity(ctx context.Context, userID string, limit int) ([]*models.RecentLoginActivity, error)
	LoginStats(ctx context.Context, userID string, daysBack int) ([]models.LoginStats, error)
	ListByStatusSince(ctx context.Context, userID string, statuses []models.LoginStatus, since time.Time) ([]*models.UserLogin, error)
	ListSuccessfulDevices(ctx context.Context, userID string) ([]*models.UserLogin, error)
	ListSuccessfulLocationsSince(ctx context.Context, userID string, since time.Time) ([]models.LoginLocation, error)
}

// GeoLocator resolves an IP address to a location
type GeoLocator interface {
	Lookup(ctx context.Context, ip string) (*models.LocationInfo, error)
}

// IdentityProvider returns the authenticated caller of the current request
type IdentityProvider interface {
	CurrentIdentity(ctx context.Context) (models.Identity, bool)
}

// LoginActivityService records login attempts and answers read queries over
// a single account's login history. Every read is restricted to the caller's
// own account.
type LoginActivityService struct {
	repo     UserLoginRepository
	geo      GeoLocator
	identity IdentityProvider
	cfg      config.ActivityConfig
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewLoginActivityService creates a LoginActivityService. geo may be nil, in
// which case locations are never resolved.
func NewLoginActivityService(repo UserLoginRepository, geo GeoLocator, identity IdentityProvider, cfg config.ActivityConfig, logger *slog.Logger) *LoginActivityService {
	if cfg.HistoryMaxLimit <= 0 {
		cfg.HistoryMaxLimit = 100
	}
	return &LoginActivityService{
		repo:     repo,
		geo:      geo,
		identity: identity,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// RecordLoginAttempt persists one login record. Callers on the authentication
// path must treat a returned error as non-fatal.
func (s *LoginActivityService) RecordLoginAttempt(ctx context.Context, attempt models.LoginAttempt) (*models.UserLogin, error) {
	if err := s.validateAttempt(&attempt); err != nil {
		s.logger.Warn("rejected login attempt record", slog.String("status", string(attempt.Status)), slog.Any("error", err))
		metrics.LoginRecordFailuresTotal.Inc()
		return nil, err
	}

	ip := strings.TrimSpace(attempt.Client.IPAddress)
	if ip == "" {
		ip = models.UnknownIP
	}

	login := &models.UserLogin{
		UserID:        attempt.UserID,
		UserName:      attempt.UserName,
		Email:         attempt.Email,
		IPAddress:     ip,
		DeviceInfo:    ParseUserAgent(attempt.Client.UserAgent),
		Status:        attempt.Status,
		FailureReason: attempt.FailureReason,
		SessionID:     attempt.SessionID,
		Location:      s.locate(ctx, ip),
	}

	stored, err := s.repo.Insert(ctx, login)
	if err != nil {
		s.logger.Error("failed to record login attempt",
			slog.String("status", string(attempt.Status)),
			slog.Any("error", err))
		metrics.LoginRecordFailuresTotal.Inc()
		return nil, models.ErrInternalServer
	}

	metrics.LoginAttemptsTotal.WithLabelValues(string(stored.Status)).Inc()
	return stored, nil
}

func (s *LoginActivityService) validateAttempt(attempt *models.LoginAttempt) error {
	if err := s.validate.Struct(attempt); err != nil {
		return fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	if attempt.Status == models.LoginStatusSuccess {
		if attempt.UserID == nil {
			return fmt.Errorf("%w: successful login requires a user id", models.ErrBadRequest)
		}
		attempt.FailureReason = nil
	}

	return nil
}

// locate never fails; any lookup problem yields a nil location
func (s *LoginActivityService) locate(ctx context.Context, ip string) *models.LocationInfo {
	if s.geo == nil || ip == models.UnknownIP {
		return nil
	}

	location, err := s.geo.Lookup(ctx, ip)
	if err != nil {
		s.logger.Debug("login location unavailable", slog.String("ip", ip), slog.Any("error", err))
		return nil
	}
	return location
}

// authorize checks that the caller is the owner of userID
func (s *LoginActivityService) authorize(ctx context.Context, userID string) error {
	identity, ok := s.identity.CurrentIdentity(ctx)
	if !ok || identity.UserID != userID {
		s.logger.Warn("login activity access denied", slog.String("target_user_id", userID))
		return models.ErrUnauthorized
	}
	return nil
}

// GetUserLoginHistory returns one page of the account's logins, newest first
func (s *LoginActivityService) GetUserLoginHistory(ctx context.Context, userID string, page, limit int) (*models.LoginHistory, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > s.cfg.HistoryMaxLimit:
		limit = s.cfg.HistoryMaxLimit
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count login history", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	logins, err := s.repo.ListByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		s.logger.Error("failed to list login history", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &models.LoginHistory{Logins: logins, Total: total}, nil
}

func (s *LoginActivityService) GetRecentLoginActivity(ctx context.Context, userID string, limit int) ([]*models.RecentLoginActivity, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultRecentActivityLimit
	}
	if limit > s.cfg.HistoryMaxLimit {
		limit = s.cfg.HistoryMaxLimit
	}

	activity, err := s.repo.ListRecentActivity(ctx, userID, limit)
	if err != nil {
		s.logger.Error("failed to list recent login activity", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return activity, nil
}

// GetUserLoginStats aggregates the trailing daysBack days. The stored
// procedure must answer with exactly one well-formed row.
func (s *LoginActivityService) GetUserLoginStats(ctx context.Context, userID string, daysBack int) (*models.LoginStats, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return nil, err
	}

	if daysBack <= 0 {
		daysBack = DefaultStatsDaysBack
	}

	rows, err := s.repo.LoginStats(ctx, userID, daysBack)
	if err != nil {
		s.logger.Error("failed to load login stats", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	stats, err := validateStats(rows)
	if err != nil {
		s.logger.Error("login stats procedure returned malformed result",
			slog.String("user_id", userID),
			slog.Int("rows", len(rows)),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return stats, nil
}

func validateStats(rows []models.LoginStats) (*models.LoginStats, error) {
	if len(rows) != 1 {
		return nil, fmt.Errorf("%w: expected 1 row, got %d", models.ErrMalformedStats, len(rows))
	}

	stats := rows[0]
	if stats.TotalLogins < 0 || stats.SuccessfulLogins < 0 || stats.FailedLogins < 0 || stats.UniqueIPs < 0 {
		return nil, fmt.Errorf("%w: negative counter", models.ErrMalformedStats)
	}
	if stats.SuccessfulLogins+stats.FailedLogins > stats.TotalLogins {
		return nil, fmt.Errorf("%w: outcomes exceed total", models.ErrMalformedStats)
	}
	if stats.UniqueIPs > stats.TotalLogins {
		return nil, fmt.Errorf("%w: unique ips exceed total", models.ErrMalformedStats)
	}

	return &stats, nil
}

// GetFailedLoginAttempts returns failed, blocked and suspicious attempts in the
// trailing hoursBack hours, newest first
func (s *LoginActivityService) GetFailedLoginAttempts(ctx context.Context, userID string, hoursBack int) ([]*models.UserLogin, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return nil, err
	}

	if hoursBack <= 0 {
		hoursBack = DefaultFailedHoursBack
	}

	since := s.now().Add(-time.Duration(hoursBack) * time.Hour)
	logins, err := s.repo.ListByStatusSince(ctx, userID, models.FailedLoginStatuses, since)
	if err != nil {
		s.logger.Error("failed to list failed login attempts", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return logins, nil
}

// GetUserDevices groups successful logins by browser and OS
func (s *LoginActivityService) GetUserDevices(ctx context.Context, userID string) ([]models.DeviceUsage, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return nil, err
	}

	logins, err := s.repo.ListSuccessfulDevices(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list user devices", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return groupDevices(logins), nil
}

// groupDevices keys on "browser-os"; OS versions collapse into one group.
// Groups keep the order in which they are first seen and the device info of
// that first row.
func groupDevices(logins []*models.UserLogin) []models.DeviceUsage {
	index := make(map[string]int)
	devices := make([]models.DeviceUsage, 0)

	for _, login := range logins {
		key := login.DeviceInfo.Browser + "-" + login.DeviceInfo.OS

		i, ok := index[key]
		if !ok {
			index[key] = len(devices)
			devices = append(devices, models.DeviceUsage{
				DeviceInfo: login.DeviceInfo,
				LastUsed:   login.LoginTime,
				LoginCount: 1,
			})
			continue
		}

		devices[i].LoginCount++
		if login.LoginTime.After(devices[i].LastUsed) {
			devices[i].LastUsed = login.LoginTime
		}
	}

	return devices
}

// CheckSuspiciousActivity flags an account whose successful logins in the
// trailing window came from too many IPs or countries
func (s *LoginActivityService) CheckSuspiciousActivity(ctx context.Context, userID string, hoursBack int) (*models.SuspiciousActivity, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return nil, err
	}

	if hoursBack <= 0 {
		hoursBack = DefaultSuspiciousHoursBack
	}

	since := s.now().Add(-time.Duration(hoursBack) * time.Hour)
	locations, err := s.repo.ListSuccessfulLocationsSince(ctx, userID, since)
	if err != nil {
		s.logger.Error("failed to load recent login locations", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	result := analyzeSuspicious(locations, s.cfg.SuspiciousMaxIPs, s.cfg.SuspiciousMaxCountries)
	if result.IsSuspicious {
		metrics.SuspiciousActivityTotal.Inc()
		s.logger.Warn("suspicious login activity detected",
			slog.String("user_id", userID),
			slog.Int("distinct_ips", len(result.RecentIPs)))
	}

	return result, nil
}

func analyzeSuspicious(locations []models.LoginLocation, maxIPs, maxCountries int) *models.SuspiciousActivity {
	seenIPs := make(map[string]bool)
	countries := make(map[string]bool)
	ips := make([]string, 0)

	for _, l := range locations {
		if !seenIPs[l.IPAddress] {
			seenIPs[l.IPAddress] = true
			ips = append(ips, l.IPAddress)
		}
		if l.Location != nil && l.Location.Country != "" {
			countries[l.Location.Country] = true
		}
	}

	result := &models.SuspiciousActivity{
		IsSuspicious: len(ips) > maxIPs || len(countries) > maxCountries,
		RecentIPs:    ips,
	}
	if result.IsSuspicious {
		result.Reason = fmt.Sprintf("Multiple IPs (%d) or countries (%d) detected", len(ips), len(countries))
	}
	return result
}
