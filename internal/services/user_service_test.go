package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vicbox/starterkit/internal/models"
)

func newUserService(repo *MockUserRepository) *UserService {
	return NewUserService(repo, &FakeHasher{}, newTestLogger(), newTestAuditLogger())
}

func TestGetProfile(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if id == testUserID {
				return storedUser(), nil
			}
			return nil, models.ErrNotFound
		},
	}
	svc := newUserService(repo)

	profile, err := svc.GetProfile(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)

	_, err = svc.GetProfile(context.Background(), otherUserID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	strp := func(s string) *string { return &s }

	tests := []struct {
		name    string
		update  models.ProfileUpdate
		wantErr error
	}{
		{"name and bio", models.ProfileUpdate{Name: strp(" Alicia "), Bio: strp("Gardener")}, nil},
		{"blank name", models.ProfileUpdate{Name: strp("  ")}, models.ErrBadRequest},
		{"name too long", models.ProfileUpdate{Name: strp(strings.Repeat("a", 51))}, models.ErrBadRequest},
		{"bio too long", models.ProfileUpdate{Bio: strp(strings.Repeat("b", 201))}, models.ErrBadRequest},
		{"phone too long", models.ProfileUpdate{Phone: strp(strings.Repeat("1", 33))}, models.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.ProfileUpdate
			repo := &MockUserRepository{
				UpdateProfileFunc: func(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
					got = update
					user := storedUser()
					if update.Name != nil {
						user.Name = *update.Name
					}
					return user, nil
				},
			}
			svc := newUserService(repo)

			profile, err := svc.UpdateProfile(context.Background(), testUserID, tt.update)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Alicia", *got.Name)
			assert.Equal(t, "Alicia", profile.Name)
		})
	}
}

func TestChangePassword(t *testing.T) {
	const newPassword = "N3w$ecretPhrase"

	t.Run("success", func(t *testing.T) {
		var storedHash string
		repo := &MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return storedUser(), nil
			},
			UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
				storedHash = passwordHash
				return nil
			},
		}

		err := newUserService(repo).ChangePassword(context.Background(), testUserID, testPassword, newPassword, "203.0.113.9")

		require.NoError(t, err)
		assert.Equal(t, "hashed:"+newPassword, storedHash)
	})

	t.Run("wrong current password", func(t *testing.T) {
		repo := &MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return storedUser(), nil
			},
			UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
				t.Fatal("password must not be updated")
				return nil
			},
		}

		err := newUserService(repo).ChangePassword(context.Background(), testUserID, "Wr0ng$password", newPassword, "")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("weak new password", func(t *testing.T) {
		err := newUserService(&MockUserRepository{}).ChangePassword(context.Background(), testUserID, testPassword, "weak", "")
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := &MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return storedUser(), nil
			},
			UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
				return errors.New("disk full")
			},
		}

		err := newUserService(repo).ChangePassword(context.Background(), testUserID, testPassword, newPassword, "")
		assert.ErrorIs(t, err, models.ErrInternalServer)
	})
}
