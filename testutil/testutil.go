// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/pollpocket/auth"
	"github.com/danielhkuo/pollpocket/cliparse"
	"github.com/danielhkuo/pollpocket/db"
	"github.com/danielhkuo/pollpocket/middleware"
	"github.com/danielhkuo/pollpocket/models"
	"github.com/danielhkuo/pollpocket/router"
)

// TestAPIKey is the public API key the in-process backend expects.
const TestAPIKey = "test-anon-key"

// TestJWTSecret signs access tokens in tests.
const TestJWTSecret = "test-jwt-secret"

// Backend is a fully wired serve-mode instance on in-memory sqlite, listening
// on a real loopback port so client packages exercise the same HTTP path as
// production.
type Backend struct {
	DB     *sql.DB
	Config cliparse.Config
	Server *httptest.Server
}

// StartBackend boots the backend and registers cleanup with t.
func StartBackend(t *testing.T) *Backend {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// One in-memory sqlite connection is one database; more would each see
	// their own empty schema.
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	cfg := cliparse.Config{
		DatabaseURL:  ":memory:",
		DatabaseType: "sqlite",
		APIKey:       TestAPIKey,
		JWTSecret:    TestJWTSecret,
	}

	srv := httptest.NewServer(middleware.CORS(router.NewRouter(conn, cfg)))
	t.Cleanup(func() {
		srv.Close()
		conn.Close()
	})

	cfg.ServiceURL = srv.URL
	return &Backend{DB: conn, Config: cfg, Server: srv}
}

// RequireVerification flips the backend into require-email-verification mode.
// Must be called before the first request that depends on it.
func (b *Backend) RequireVerification(t *testing.T) *Backend {
	t.Helper()
	cfg := b.Config
	cfg.RequireEmailVerif = true
	srv := httptest.NewServer(middleware.CORS(router.NewRouter(b.DB, cfg)))
	t.Cleanup(srv.Close)
	cfg.ServiceURL = srv.URL
	return &Backend{DB: b.DB, Config: cfg, Server: srv}
}

// CreateUser inserts a confirmed, credentialed user directly and returns it.
func (b *Backend) CreateUser(t *testing.T, email, password string) models.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	_, err = b.DB.Exec(`
		INSERT INTO app_user (id, email, password_hash, is_anonymous, email_confirmed, created_at)
		VALUES ($1, $2, $3, FALSE, TRUE, $4)
	`, user.ID, user.Email, hash, user.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateAnonymousUser inserts an anonymous user row directly.
func (b *Backend) CreateAnonymousUser(t *testing.T) models.User {
	t.Helper()

	user := models.User{
		ID:          uuid.NewString(),
		IsAnonymous: true,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := b.DB.Exec(`
		INSERT INTO app_user (id, is_anonymous, email_confirmed, created_at)
		VALUES ($1, TRUE, FALSE, $2)
	`, user.ID, user.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create anonymous test user: %v", err)
	}
	return user
}

// IssueSession signs an access token and records a refresh token for the
// user, mirroring what the auth endpoints do.
func (b *Backend) IssueSession(t *testing.T, user models.User) *models.Session {
	t.Helper()

	access, expiresAt, err := auth.SignAccessToken([]byte(b.Config.JWTSecret), user, time.Now())
	if err != nil {
		t.Fatalf("Failed to sign access token: %v", err)
	}
	refresh, err := auth.NewRefreshToken()
	if err != nil {
		t.Fatalf("Failed to generate refresh token: %v", err)
	}
	_, err = b.DB.Exec(`
		INSERT INTO refresh_token (token, user_id, created_at)
		VALUES ($1, $2, $3)
	`, refresh, user.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to insert refresh token: %v", err)
	}

	return &models.Session{
		AccessToken:  access,
		TokenType:    "bearer",
		ExpiresAt:    expiresAt,
		RefreshToken: refresh,
		User:         user,
	}
}

// CreatePoll inserts a poll directly and returns it.
func (b *Backend) CreatePoll(t *testing.T, question string, options ...string) models.Poll {
	t.Helper()

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		t.Fatalf("Failed to marshal options: %v", err)
	}

	poll := models.Poll{
		ID:        uuid.NewString(),
		Question:  question,
		Options:   options,
		CreatedAt: time.Now().UTC(),
	}
	_, err = b.DB.Exec(`
		INSERT INTO poll (id, question, options, created_at)
		VALUES ($1, $2, $3, $4)
	`, poll.ID, poll.Question, string(optionsJSON), poll.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	return poll
}

// CountVotes returns the number of vote rows for (poll, user).
func (b *Backend) CountVotes(t *testing.T, pollID, userID string) int {
	t.Helper()

	var n int
	err := b.DB.QueryRow(`
		SELECT COUNT(*) FROM vote WHERE poll_id = $1 AND user_id = $2
	`, pollID, userID).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request carrying the test API key.
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	req.Header.Set("apikey", TestAPIKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
