package auth

import (
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "saphira"
	tokenAudience = "saphira-api"
	clockLeeway   = 5 * time.Second
)

// JWTManager signs short-lived HS256 access tokens. Roles are never put in
// the token; they are read from the profile on every request.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

type accessTokenClaims struct {
	jwt.RegisteredClaims
	SID   string `json:"sid"`
	Email string `json:"email,omitempty"`
}

func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL, now: time.Now}
}

func (m *JWTManager) GenerateAccessToken(userID, sid, email string) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt secret is empty")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return "", time.Time{}, fmt.Errorf("access token subject %q: %w", userID, err)
	}
	if strings.TrimSpace(sid) == "" {
		return "", time.Time{}, fmt.Errorf("access token without session id")
	}

	issued := m.now().UTC().Truncate(time.Second)
	expires := issued.Add(m.accessTTL)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		SID:   sid,
		Email: email,
	}).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expires, nil
}

// ParseAccessToken verifies raw and returns its claims. Every failure is
// reported as ErrUnauthorized.
func (m *JWTManager) ParseAccessToken(raw string) (AccessClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AccessClaims{}, ErrUnauthorized
	}

	var claims accessTokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, m.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockLeeway),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}
	if _, err := uuid.Parse(claims.Subject); err != nil || claims.SID == "" {
		return AccessClaims{}, ErrUnauthorized
	}

	return AccessClaims{
		UserID:    claims.Subject,
		SID:       claims.SID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (m *JWTManager) key(*jwt.Token) (interface{}, error) {
	return m.secret, nil
}
