// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/pollpocket/models"
)

func TestSignAndParseAccessToken(t *testing.T) {
	secret := []byte("test-secret")
	user := models.User{ID: "user-1", Email: "alice@example.com", IsAnonymous: false}

	token, expiresAt, err := SignAccessToken(secret, user, time.Now())
	if err != nil {
		t.Fatalf("SignAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("SignAccessToken() returned empty token")
	}
	if expiresAt <= time.Now().Unix() {
		t.Errorf("expected expiry in the future, got %d", expiresAt)
	}

	claims, err := ParseAccessToken(secret, token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("expected sub user-1, got %s", claims.Subject)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("expected email claim, got %s", claims.Email)
	}
	if claims.IsAnonymous {
		t.Error("expected is_anonymous=false")
	}
}

func TestSignAccessToken_Unique(t *testing.T) {
	secret := []byte("test-secret")
	user := models.User{ID: "user-1", IsAnonymous: true}
	now := time.Now()

	// Two tokens issued for the same user at the same instant must still
	// differ; iat/exp alone cannot distinguish them within one second.
	t1, _, err := SignAccessToken(secret, user, now)
	if err != nil {
		t.Fatal(err)
	}
	t2, _, err := SignAccessToken(secret, user, now)
	if err != nil {
		t.Fatal(err)
	}
	if t1 == t2 {
		t.Error("expected distinct tokens for back-to-back issuance")
	}

	claims, err := ParseAccessToken(secret, t1)
	if err != nil {
		t.Fatal(err)
	}
	if claims.ID == "" {
		t.Error("expected a jti claim on issued tokens")
	}
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	user := models.User{ID: "user-1", IsAnonymous: true}
	token, _, err := SignAccessToken([]byte("secret-a"), user, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseAccessToken([]byte("secret-b"), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	user := models.User{ID: "user-1"}
	issued := time.Now().Add(-2 * AccessTokenTTL)
	token, _, err := SignAccessToken([]byte("secret"), user, issued)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseAccessToken([]byte("secret"), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestPeekClaims(t *testing.T) {
	user := models.User{ID: "anon-1", IsAnonymous: true}
	token, _, err := SignAccessToken([]byte("secret"), user, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	// PeekClaims must work without knowing the secret.
	claims, err := PeekClaims(token)
	if err != nil {
		t.Fatalf("PeekClaims() error = %v", err)
	}
	if claims.Subject != "anon-1" {
		t.Errorf("expected sub anon-1, got %s", claims.Subject)
	}
	if !claims.IsAnonymous {
		t.Error("expected is_anonymous=true")
	}

	if _, err := PeekClaims("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for garbage input, got %v", err)
	}
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid password", "hunter22", nil},
		{"exactly six chars", "sixxed", nil},
		{"too short", "five5", ErrWeakPassword},
		{"empty", "", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("HashPassword() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if !CheckPassword(hash, tt.password) {
				t.Error("CheckPassword() rejected the original password")
			}
			if CheckPassword(hash, tt.password+"x") {
				t.Error("CheckPassword() accepted a wrong password")
			}
		})
	}
}

func TestNewRefreshToken(t *testing.T) {
	t1, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken() error = %v", err)
	}
	t2, _ := NewRefreshToken()
	if t1 == t2 {
		t.Error("NewRefreshToken() produced duplicate tokens (extremely unlikely)")
	}
	if len(t1) < 30 {
		t.Errorf("refresh token suspiciously short: %q", t1)
	}
}
