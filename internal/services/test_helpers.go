package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/vicbox/starterkit/internal/models"
	pkgauth "github.com/vicbox/starterkit/pkg/auth"
	pkglogger "github.com/vicbox/starterkit/pkg/logger"
)

// Fixed ids used across the service tests
const (
	testUserID  = "6f1c9b1e-2d4a-4b8e-9c3f-1a2b3c4d5e6f"
	otherUserID = "0e9d8c7b-6a5f-4e3d-8c2b-1a0f9e8d7c6b"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(newTestLogger())
}

// NewTestUser builds an active account
func NewTestUser(id, email, name string) *models.User {
	return &models.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      "user",
		Status:    models.UserStatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// StaticIdentity is an IdentityProvider that always answers with the same caller
type StaticIdentity struct {
	UserID string
}

func (s StaticIdentity) CurrentIdentity(ctx context.Context) (models.Identity, bool) {
	if s.UserID == "" {
		return models.Identity{}, false
	}
	return models.Identity{UserID: s.UserID}, true
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	CreateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateProfileFunc  func(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, id, passwordHash string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, update)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

// FakeHasher is a PasswordHasher that stores passwords with a visible prefix
type FakeHasher struct {
	DummyCalls int
}

func (h *FakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (h *FakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return pkgauth.ErrPasswordMismatch
	}
	return nil
}

func (h *FakeHasher) CompareDummy(password string) error {
	h.DummyCalls++
	return pkgauth.ErrPasswordMismatch
}

// MockLoginRecorder captures recorded attempts
type MockLoginRecorder struct {
	Attempts []models.LoginAttempt
	Err      error
}

func (m *MockLoginRecorder) RecordLoginAttempt(ctx context.Context, attempt models.LoginAttempt) (*models.UserLogin, error) {
	m.Attempts = append(m.Attempts, attempt)
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.UserLogin{UserID: attempt.UserID, Email: attempt.Email, Status: attempt.Status}, nil
}

// MockLoginLimiter implements LoginLimiter with a fixed answer
type MockLoginLimiter struct {
	Blocked bool
}

func (m *MockLoginLimiter) Allow(ctx context.Context, email, ipAddress string) bool {
	return !m.Blocked
}

// MockUserLoginRepository implements UserLoginRepository and FailedLoginCounter for testing
type MockUserLoginRepository struct {
	InsertFunc                       func(ctx context.Context, login *models.UserLogin) (*models.UserLogin, error)
	CountByUserFunc                  func(ctx context.Context, userID string) (int, error)
	ListByUserFunc                   func(ctx context.Context, userID string, limit, offset int) ([]*models.UserLogin, error)
	ListRecentActivityFunc           func(ctx context.Context, userID string, limit int) ([]*models.RecentLoginActivity, error)
	LoginStatsFunc                   func(ctx context.Context, userID string, daysBack int) ([]models.LoginStats, error)
	ListByStatusSinceFunc            func(ctx context.Context, userID string, statuses []models.LoginStatus, since time.Time) ([]*models.UserLogin, error)
	ListSuccessfulDevicesFunc        func(ctx context.Context, userID string) ([]*models.UserLogin, error)
	ListSuccessfulLocationsSinceFunc func(ctx context.Context, userID string, since time.Time) ([]models.LoginLocation, error)
	CountFailedByEmailSinceFunc      func(ctx context.Context, email string, since time.Time) (int, error)
	CountFailedByIPSinceFunc         func(ctx context.Context, ipAddress string, since time.Time) (int, error)

	Calls int
}

func (m *MockUserLoginRepository) Insert(ctx context.Context, login *models.UserLogin) (*models.UserLogin, error) {
	m.Calls++
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, login)
	}
	stored := *login
	stored.ID = "login-1"
	stored.LoginTime = time.Now()
	return &stored, nil
}

func (m *MockUserLoginRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	m.Calls++
	if m.CountByUserFunc != nil {
		return m.CountByUserFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockUserLoginRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.UserLogin, error) {
	m.Calls++
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	return []*models.UserLogin{}, nil
}

func (m *MockUserLoginRepository) ListRecentActivity(ctx context.Context, userID string, limit int) ([]*models.RecentLoginActivity, error) {
	m.Calls++
	if m.ListRecentActivityFunc != nil {
		return m.ListRecentActivityFunc(ctx, userID, limit)
	}
	return []*models.RecentLoginActivity{}, nil
}

func (m *MockUserLoginRepository) LoginStats(ctx context.Context, userID string, daysBack int) ([]models.LoginStats, error) {
	m.Calls++
	if m.LoginStatsFunc != nil {
		return m.LoginStatsFunc(ctx, userID, daysBack)
	}
	return []models.LoginStats{{}}, nil
}

func (m *MockUserLoginRepository) ListByStatusSince(ctx context.Context, userID string, statuses []models.LoginStatus, since time.Time) ([]*models.UserLogin, error) {
	m.Calls++
	if m.ListByStatusSinceFunc != nil {
		return m.ListByStatusSinceFunc(ctx, userID, statuses, since)
	}
	return []*models.UserLogin{}, nil
}

func (m *MockUserLoginRepository) ListSuccessfulDevices(ctx context.Context, userID string) ([]*models.UserLogin, error) {
	m.Calls++
	if m.ListSuccessfulDevicesFunc != nil {
		return m.ListSuccessfulDevicesFunc(ctx, userID)
	}
	return []*models.UserLogin{}, nil
}

func (m *MockUserLoginRepository) ListSuccessfulLocationsSince(ctx context.Context, userID string, since time.Time) ([]models.LoginLocation, error) {
	m.Calls++
	if m.ListSuccessfulLocationsSinceFunc != nil {
		return m.ListSuccessfulLocationsSinceFunc(ctx, userID, since)
	}
	return nil, nil
}

func (m *MockUserLoginRepository) CountFailedByEmailSince(ctx context.Context, email string, since time.Time) (int, error) {
	m.Calls++
	if m.CountFailedByEmailSinceFunc != nil {
		return m.CountFailedByEmailSinceFunc(ctx, email, since)
	}
	return 0, nil
}

func (m *MockUserLoginRepository) CountFailedByIPSince(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	m.Calls++
	if m.CountFailedByIPSinceFunc != nil {
		return m.CountFailedByIPSinceFunc(ctx, ipAddress, since)
	}
	return 0, nil
}

// MockGeoLocator implements GeoLocator for testing
type MockGeoLocator struct {
	LookupFunc func(ctx context.Context, ip string) (*models.LocationInfo, error)
	Calls      int
}

func (m *MockGeoLocator) Lookup(ctx context.Context, ip string) (*models.LocationInfo, error) {
	m.Calls++
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, ip)
	}
	return nil, models.ErrNotFound
}

// MockProjectRepository implements ProjectRepository for testing
type MockProjectRepository struct {
	ListByOwnerFunc func(ctx context.Context, ownerID string) ([]*models.Project, error)
	GetByIDFunc     func(ctx context.Context, ownerID, id string) (*models.Project, error)
	CreateFunc      func(ctx context.Context, p *models.Project) (*models.Project, error)
	UpdateFunc      func(ctx context.Context, ownerID string, p *models.Project) (*models.Project, error)
	DeleteFunc      func(ctx context.Context, ownerID, id string) error
	DeleteManyFunc  func(ctx context.Context, ownerID string, ids []string) (int64, error)
}

func (m *MockProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Project, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	return []*models.Project{}, nil
}

func (m *MockProjectRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Project, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, ownerID, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockProjectRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	created := *p
	created.ID = "7d3f6c2a-1b4e-4f5a-9c8d-2e1f0a9b8c7d"
	return &created, nil
}

func (m *MockProjectRepository) Update(ctx context.Context, ownerID string, p *models.Project) (*models.Project, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, ownerID, p)
	}
	updated := *p
	return &updated, nil
}

func (m *MockProjectRepository) Delete(ctx context.Context, ownerID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, ownerID, id)
	}
	return nil
}

func (m *MockProjectRepository) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error) {
	if m.DeleteManyFunc != nil {
		return m.DeleteManyFunc(ctx, ownerID, ids)
	}
	return int64(len(ids)), nil
}

// MockTokenRevoker implements TokenRevoker and remembers the revoked token ids
type MockTokenRevoker struct {
	RevokeFunc           func(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error
	RevokeAllForUserFunc func(ctx context.Context, userID string, expiresAt time.Time, reason string) error
	IsRevokedFunc        func(ctx context.Context, jti, userID string, issuedAt time.Time) (bool, error)

	Revoked []string
}

func (m *MockTokenRevoker) Revoke(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error {
	if m.RevokeFunc != nil {
		if err := m.RevokeFunc(ctx, jti, userID, tokenType, expiresAt, reason); err != nil {
			return err
		}
	}
	m.Revoked = append(m.Revoked, jti)
	return nil
}

func (m *MockTokenRevoker) RevokeAllForUser(ctx context.Context, userID string, expiresAt time.Time, reason string) error {
	if m.RevokeAllForUserFunc != nil {
		return m.RevokeAllForUserFunc(ctx, userID, expiresAt, reason)
	}
	return nil
}

func (m *MockTokenRevoker) IsRevoked(ctx context.Context, jti, userID string, issuedAt time.Time) (bool, error) {
	if m.IsRevokedFunc != nil {
		return m.IsRevokedFunc(ctx, jti, userID, issuedAt)
	}
	for _, revoked := range m.Revoked {
		if revoked == jti {
			return true, nil
		}
	}
	return false, nil
}
