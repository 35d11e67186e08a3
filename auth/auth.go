// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/pollpocket/models"
)

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrWeakPassword = errors.New("password too short")
)

// MinPasswordLen matches the user-facing "at least 6 characters" rule.
const MinPasswordLen = 6

// AccessTokenTTL is how long an access token stays valid before the client
// must exchange its refresh token.
const AccessTokenTTL = time.Hour

// Claims is the access token payload. The sub claim is the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Email       string `json:"email,omitempty"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// SignAccessToken issues an HS256 access token for the user and returns the
// token with its expiry as unix seconds.
func SignAccessToken(secret []byte, user models.User, now time.Time) (string, int64, error) {
	expires := now.Add(AccessTokenTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps tokens distinct even when two are issued for
			// the same user within one second (iat/exp have second
			// granularity).
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email:       user.Email,
		IsAnonymous: user.IsAnonymous,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expires.Unix(), nil
}

// ParseAccessToken verifies signature and expiry and returns the claims.
func ParseAccessToken(secret []byte, raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// PeekClaims decodes claims without verifying the signature. Clients use it
// to inspect expiry of a persisted session; it must never gate server-side
// authorization.
func PeekClaims(raw string) (*Claims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// HashPassword enforces the minimum length and returns a bcrypt hash.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLen {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewRefreshToken creates a random opaque refresh token.
func NewRefreshToken() (string, error) {
	b := make([]byte, 24) // 192 bits of entropy
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}
