package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testUserID = "7b0d2c1e-5a4f-4a53-9f0e-3a0f6c7e2d11"

func TestJWTManagerRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	raw, expires, err := m.GenerateAccessToken(testUserID, "sid-1", "ana@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.ParseAccessToken(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != testUserID || claims.SID != "sid-1" || claims.Email != "ana@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Equal(expires) {
		t.Fatalf("expiry mismatch: %s vs %s", claims.ExpiresAt, expires)
	}
}

func TestJWTManagerRejects(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewJWTManager("secret", time.Minute)
	m.now = func() time.Time { return base }
	raw, _, err := m.GenerateAccessToken(testUserID, "sid-1", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	other := NewJWTManager("other-secret", time.Minute)
	other.now = m.now

	expired := NewJWTManager("secret", time.Minute)
	expired.now = func() time.Time { return base.Add(2 * time.Minute) }

	tests := []struct {
		name  string
		m     *JWTManager
		token string
	}{
		{name: "empty", m: m, token: " "},
		{name: "garbage", m: m, token: "not.a.jwt"},
		{name: "wrong secret", m: other, token: raw},
		{name: "expired", m: expired, token: raw},
		{name: "tampered", m: m, token: raw[:strings.LastIndex(raw, ".")] + ".c2lnbmF0dXJl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.m.ParseAccessToken(tt.token); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestJWTManagerRequiresUUIDSubject(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	if _, _, err := m.GenerateAccessToken("admin", "sid-1", ""); err == nil {
		t.Fatalf("expected error for non-uuid subject")
	}
}
