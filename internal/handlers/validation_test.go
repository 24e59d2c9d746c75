package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vicbox/starterkit/internal/handlers"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     any
		wantErr string
	}{
		{
			name: "valid login",
			req:  handlers.LoginRequest{Email: "user@example.com", Password: "secret"},
		},
		{
			name:    "reports json field name",
			req:     handlers.LoginRequest{Email: "nope", Password: "secret"},
			wantErr: "validation failed: email: must be a valid email address",
		},
		{
			name:    "missing field",
			req:     handlers.RefreshTokenRequest{},
			wantErr: "validation failed: refresh_token: this field is required",
		},
		{
			name:    "empty id list",
			req:     handlers.BulkDeleteRequest{IDs: []string{}},
			wantErr: "validation failed: ids: must contain at least 1 item(s)",
		},
		{
			name:    "malformed id",
			req:     handlers.BulkDeleteRequest{IDs: []string{"not-a-uuid"}},
			wantErr: "validation failed: ids[0]: must be a valid UUID",
		},
		{
			name:    "closed enumeration",
			req:     handlers.CreateProjectRequest{Name: "alpha", Visibility: "secret", Status: "active"},
			wantErr: "validation failed: visibility: must be one of: private public",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handlers.ValidateRequest(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}
