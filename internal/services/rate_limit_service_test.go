package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vicbox/starterkit/internal/models"
)

func TestRateLimitService_Allow(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	cfg := RateLimitConfig{MaxFailedPerEmail: 5, MaxFailedPerIP: 20, Window: 15 * time.Minute}

	tests := []struct {
		name        string
		emailCount  int
		ipCount     int
		emailErr    error
		ip          string
		want        bool
		wantIPCheck bool
	}{
		{name: "below thresholds", emailCount: 4, ipCount: 19, ip: "203.0.113.1", want: true, wantIPCheck: true},
		{name: "email threshold reached", emailCount: 5, ip: "203.0.113.1", want: false},
		{name: "ip threshold reached", emailCount: 0, ipCount: 20, ip: "203.0.113.1", want: false, wantIPCheck: true},
		{name: "unknown ip not counted", ipCount: 100, ip: models.UnknownIP, want: true},
		{name: "empty ip not counted", ipCount: 100, ip: "", want: true},
		{name: "store error fails open", emailErr: errors.New("down"), ip: "203.0.113.1", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ipChecked := false
			repo := &MockUserLoginRepository{
				CountFailedByEmailSinceFunc: func(ctx context.Context, email string, since time.Time) (int, error) {
					assert.Equal(t, "alice@example.com", email)
					assert.Equal(t, now.Add(-15*time.Minute), since)
					return tt.emailCount, tt.emailErr
				},
				CountFailedByIPSinceFunc: func(ctx context.Context, ipAddress string, since time.Time) (int, error) {
					ipChecked = true
					return tt.ipCount, nil
				},
			}
			svc := NewRateLimitService(repo, cfg, newTestLogger())
			svc.now = func() time.Time { return now }

			assert.Equal(t, tt.want, svc.Allow(context.Background(), "alice@example.com", tt.ip))
			assert.Equal(t, tt.wantIPCheck, ipChecked)
		})
	}
}

func TestRateLimitService_DisabledThresholds(t *testing.T) {
	repo := &MockUserLoginRepository{}
	svc := NewRateLimitService(repo, RateLimitConfig{Window: time.Minute}, newTestLogger())

	assert.True(t, svc.Allow(context.Background(), "alice@example.com", "203.0.113.1"))
	assert.Equal(t, 0, repo.Calls)
}
