package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/vicbox/starterkit/internal/auth"
	"github.com/vicbox/starterkit/internal/models"
	"github.com/vicbox/starterkit/internal/services"
	pkghttp "github.com/vicbox/starterkit/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds the caller's identity to the request context for
// testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, email string) *http.Request {
	ctx := auth.WithIdentity(req.Context(), models.Identity{UserID: userID, Email: email})
	return req.WithContext(ctx)
}

// WithSessionContext adds a full identity, session included, to the request context
func WithSessionContext(req *http.Request, identity models.Identity) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), identity))
}

// WithURLParams sets chi route parameters on the request
func WithURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc        func(ctx context.Context, email, password string, client models.ClientInfo) (*services.AuthResponse, error)
	RegisterFunc     func(ctx context.Context, email, password, name string) (*services.AuthResponse, error)
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	LogoutFunc       func(ctx context.Context, identity models.Identity, refreshToken string) error
	LogoutAllFunc    func(ctx context.Context, userID string) error
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, client models.ClientInfo) (*services.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password, client)
}

func (m *MockAuthService) Register(ctx context.Context, email, password, name string) (*services.AuthResponse, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, email, password, name)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	if m.RefreshTokenFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.RefreshTokenFunc(ctx, refreshToken)
}

func (m *MockAuthService) Logout(ctx context.Context, identity models.Identity, refreshToken string) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, identity, refreshToken)
}

func (m *MockAuthService) LogoutAll(ctx context.Context, userID string) error {
	if m.LogoutAllFunc == nil {
		return nil
	}
	return m.LogoutAllFunc(ctx, userID)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	GetProfileFunc     func(ctx context.Context, id string) (*services.UserResponse, error)
	UpdateProfileFunc  func(ctx context.Context, id string, update models.ProfileUpdate) (*services.UserResponse, error)
	ChangePasswordFunc func(ctx context.Context, id, currentPassword, newPassword, ipAddress string) error
}

func (m *MockUserService) GetProfile(ctx context.Context, id string) (*services.UserResponse, error) {
	if m.GetProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetProfileFunc(ctx, id)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*services.UserResponse, error) {
	if m.UpdateProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateProfileFunc(ctx, id, update)
}

func (m *MockUserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword, ipAddress string) error {
	if m.ChangePasswordFunc == nil {
		return nil
	}
	return m.ChangePasswordFunc(ctx, id, currentPassword, newPassword, ipAddress)
}

// MockLoginActivityService implements LoginActivityService for testing
type MockLoginActivityService struct {
	HistoryFunc    func(ctx context.Context, userID string, page, limit int) (*models.LoginHistory, error)
	RecentFunc     func(ctx context.Context, userID string, limit int) ([]*models.RecentLoginActivity, error)
	StatsFunc      func(ctx context.Context, userID string, daysBack int) (*models.LoginStats, error)
	FailedFunc     func(ctx context.Context, userID string, hoursBack int) ([]*models.UserLogin, error)
	DevicesFunc    func(ctx context.Context, userID string) ([]models.DeviceUsage, error)
	SuspiciousFunc func(ctx context.Context, userID string, hoursBack int) (*models.SuspiciousActivity, error)
}

func (m *MockLoginActivityService) GetUserLoginHistory(ctx context.Context, userID string, page, limit int) (*models.LoginHistory, error) {
	if m.HistoryFunc == nil {
		return &models.LoginHistory{Logins: []*models.UserLogin{}}, nil
	}
	return m.HistoryFunc(ctx, userID, page, limit)
}

func (m *MockLoginActivityService) GetRecentLoginActivity(ctx context.Context, userID string, limit int) ([]*models.RecentLoginActivity, error) {
	if m.RecentFunc == nil {
		return []*models.RecentLoginActivity{}, nil
	}
	return m.RecentFunc(ctx, userID, limit)
}

func (m *MockLoginActivityService) GetUserLoginStats(ctx context.Context, userID string, daysBack int) (*models.LoginStats, error) {
	if m.StatsFunc == nil {
		return &models.LoginStats{}, nil
	}
	return m.StatsFunc(ctx, userID, daysBack)
}

func (m *MockLoginActivityService) GetFailedLoginAttempts(ctx context.Context, userID string, hoursBack int) ([]*models.UserLogin, error) {
	if m.FailedFunc == nil {
		return []*models.UserLogin{}, nil
	}
	return m.FailedFunc(ctx, userID, hoursBack)
}

func (m *MockLoginActivityService) GetUserDevices(ctx context.Context, userID string) ([]models.DeviceUsage, error) {
	if m.DevicesFunc == nil {
		return []models.DeviceUsage{}, nil
	}
	return m.DevicesFunc(ctx, userID)
}

func (m *MockLoginActivityService) CheckSuspiciousActivity(ctx context.Context, userID string, hoursBack int) (*models.SuspiciousActivity, error) {
	if m.SuspiciousFunc == nil {
		return &models.SuspiciousActivity{}, nil
	}
	return m.SuspiciousFunc(ctx, userID, hoursBack)
}

// MockProjectService implements ProjectService for testing
type MockProjectService struct {
	ListProjectsFunc       func(ctx context.Context) ([]*models.Project, error)
	GetProjectFunc         func(ctx context.Context, id string) (*models.Project, error)
	CreateProjectFunc      func(ctx context.Context, input models.ProjectInput) (*models.Project, error)
	UpdateProjectFunc      func(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error)
	DeleteProjectFunc      func(ctx context.Context, id string) error
	BulkDeleteProjectsFunc func(ctx context.Context, ids []string) (int64, error)
}

func (m *MockProjectService) ListProjects(ctx context.Context) ([]*models.Project, error) {
	if m.ListProjectsFunc == nil {
		return []*models.Project{}, nil
	}
	return m.ListProjectsFunc(ctx)
}

func (m *MockProjectService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	if m.GetProjectFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetProjectFunc(ctx, id)
}

func (m *MockProjectService) CreateProject(ctx context.Context, input models.ProjectInput) (*models.Project, error) {
	if m.CreateProjectFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateProjectFunc(ctx, input)
}

func (m *MockProjectService) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	if m.UpdateProjectFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateProjectFunc(ctx, id, patch)
}

func (m *MockProjectService) DeleteProject(ctx context.Context, id string) error {
	if m.DeleteProjectFunc == nil {
		return nil
	}
	return m.DeleteProjectFunc(ctx, id)
}

func (m *MockProjectService) BulkDeleteProjects(ctx context.Context, ids []string) (int64, error) {
	if m.BulkDeleteProjectsFunc == nil {
		return int64(len(ids)), nil
	}
	return m.BulkDeleteProjectsFunc(ctx, ids)
}
