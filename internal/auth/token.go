package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vicbox/starterkit/internal/models"
)

// IssuedToken is a signed token plus the claims a caller may need to record
type IssuedToken struct {
	Token     string
	ID        string // jti, used as the login session id
	ExpiresAt time.Time
}

// TokenManager handles JWT token generation and validation
type TokenManager struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	now                func() time.Time
}

func NewTokenManager(secret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:             []byte(secret),
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
		now:                time.Now,
	}
}

// MaxLifetime is the longest validity of any token this manager issues
func (tm *TokenManager) MaxLifetime() time.Duration {
	return max(tm.accessTokenExpiry, tm.refreshTokenExpiry)
}

// IssueAccessToken creates a short-lived access token
func (tm *TokenManager) IssueAccessToken(userID, email string) (*IssuedToken, error) {
	return tm.issue(models.TokenTypeAccess, userID, email, tm.accessTokenExpiry)
}

// IssueRefreshToken creates a long-lived refresh token
func (tm *TokenManager) IssueRefreshToken(userID, email string) (*IssuedToken, error) {
	return tm.issue(models.TokenTypeRefresh, userID, email, tm.refreshTokenExpiry)
}

func (tm *TokenManager) issue(tokenType, userID, email string, ttl time.Duration) (*IssuedToken, error) {
	now := tm.now()
	jti := uuid.New().String()
	expiresAt := now.Add(ttl)

	claims := &models.TokenClaims{
		Type:   tokenType,
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return &IssuedToken{Token: signed, ID: jti, ExpiresAt: expiresAt}, nil
}

// ValidateToken verifies signature, expiry and token type
func (tm *TokenManager) ValidateToken(tokenString, expectedType string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Type != expectedType {
		return nil, fmt.Errorf("%w: expected %s token, got %q", models.ErrUnauthorized, expectedType, claims.Type)
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", models.ErrUnauthorized)
	}

	return claims, nil
}
