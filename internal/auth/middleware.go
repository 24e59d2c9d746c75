package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vicbox/starterkit/internal/models"
	pkghttp "github.com/vicbox/starterkit/pkg/http"
)

type contextKey string

const identityContextKey contextKey = "identity"

// UserRepository is the account lookup used to reject tokens of blocked accounts
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RevocationChecker reports whether a token has been signed out
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti, userID string, issuedAt time.Time) (bool, error)
}

// Authenticate validates the bearer access token and stores the caller's
// identity in the request context. Signed-out tokens are rejected; when the
// revocation list cannot be read the request fails closed. A nil checker
// skips the lookup.
func Authenticate(tm *TokenManager, revocations RevocationChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(parts[1], models.TokenTypeAccess)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			identity := models.Identity{
				UserID:    claims.UserID,
				Email:     claims.Email,
				SessionID: claims.ID,
			}
			if claims.IssuedAt != nil {
				identity.IssuedAt = claims.IssuedAt.Time
			}
			if claims.ExpiresAt != nil {
				identity.ExpiresAt = claims.ExpiresAt.Time
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(r.Context(), claims.ID, claims.UserID, identity.IssuedAt)
				if err != nil {
					pkghttp.WriteError(w, http.StatusServiceUnavailable, "service_unavailable", "unable to verify token status")
					return
				}
				if revoked {
					pkghttp.WriteUnauthorized(w, "token has been revoked")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireActiveAccount rejects requests whose account has been suspended or
// disabled after the token was issued. Must run after Authenticate.
func RequireActiveAccount(users UserRepository) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			user, err := users.GetByID(r.Context(), identity.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "unauthorized")
					return
				}
				pkghttp.WriteInternalError(w, "internal server error")
				return
			}

			if user.Status != models.UserStatusActive {
				pkghttp.WriteForbidden(w, "account is not active")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the authenticated caller stored by Authenticate
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(models.Identity)
	if !ok || identity.UserID == "" {
		return models.Identity{}, false
	}
	return identity, true
}

// ContextIdentity resolves the current caller from the request context
type ContextIdentity struct{}

func (ContextIdentity) CurrentIdentity(ctx context.Context) (models.Identity, bool) {
	return IdentityFromContext(ctx)
}
