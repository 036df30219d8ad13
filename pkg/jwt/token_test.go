package jwtPkg

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignSession_RoundTrip(t *testing.T) {
	t.Setenv(SessionTokenSecret, "test-secret")

	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	raw, err := SignSession(42, expires)
	if err != nil {
		t.Fatalf("SignSession failed: %v", err)
	}

	token, err := VerifyToken(raw, SessionTokenSecret)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}

	claims, err := SessionClaimsFromToken(token)
	if err != nil {
		t.Fatalf("SessionClaimsFromToken failed: %v", err)
	}
	if claims.SessionID != 42 {
		t.Errorf("SessionID = %d, want 42", claims.SessionID)
	}
	if !claims.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, expires)
	}
}

func TestSign_RequiresSecret(t *testing.T) {
	t.Setenv(SessionTokenSecret, "")

	if _, err := SignSession(1, time.Now().Add(time.Hour)); err == nil {
		t.Error("SignSession should fail without a secret")
	}
}

func TestVerifyToken_Rejects(t *testing.T) {
	t.Setenv(SessionTokenSecret, "test-secret")

	expired, err := SignSession(7, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("SignSession failed: %v", err)
	}

	t.Setenv(SessionTokenSecret, "other-secret")
	foreign, err := SignSession(7, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("SignSession failed: %v", err)
	}
	t.Setenv(SessionTokenSecret, "test-secret")

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not.a.token",
		"expired":      expired,
		"wrong secret": foreign,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := VerifyToken(raw, SessionTokenSecret); err == nil {
				t.Error("VerifyToken should fail")
			}
		})
	}
}

func TestSessionClaimsFromToken_MissingSessionID(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := SessionClaimsFromToken(token); err != ErrInvalidClaims {
		t.Errorf("err = %v, want %v", err, ErrInvalidClaims)
	}
}
