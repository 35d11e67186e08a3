// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/pollpocket/auth"
	"github.com/danielhkuo/pollpocket/cliparse"
	"github.com/danielhkuo/pollpocket/middleware"
	"github.com/danielhkuo/pollpocket/models"
)

type AuthHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAuthHandler(db *sql.DB, cfg cliparse.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

// SignInAnonymously handles POST /auth/v1/anonymous
// Creates a fresh anonymous user and issues a session for it.
func (h *AuthHandler) SignInAnonymously(w http.ResponseWriter, r *http.Request) {
	user := models.User{
		ID:          uuid.NewString(),
		IsAnonymous: true,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := h.db.Exec(`
		INSERT INTO app_user (id, is_anonymous, email_confirmed, created_at)
		VALUES ($1, TRUE, FALSE, $2)
	`, user.ID, user.CreatedAt)
	if err != nil {
		slog.Error("failed to insert anonymous user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign in anonymously")
		return
	}

	session, err := h.issueSession(user)
	if err != nil {
		slog.Error("failed to issue session", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign in anonymously")
		return
	}

	slog.Info("anonymous sign-in", "user_id", user.ID)
	middleware.JSONResponse(w, http.StatusCreated, session)
}

// Token handles POST /auth/v1/token for the password and refresh_token grants.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	switch req.GrantType {
	case models.GrantPassword:
		h.passwordGrant(w, r, req)
	case models.GrantRefreshToken:
		h.refreshGrant(w, req)
	default:
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeInvalidGrant,
			"grant_type must be password or refresh_token")
	}
}

func (h *AuthHandler) passwordGrant(w http.ResponseWriter, r *http.Request, req models.TokenRequest) {
	var user models.User
	var passwordHash sql.NullString
	var confirmed bool
	err := h.db.QueryRow(`
		SELECT id, email, password_hash, email_confirmed, created_at
		FROM app_user WHERE email = $1 AND is_anonymous = FALSE
	`, req.Email).Scan(&user.ID, &user.Email, &passwordHash, &confirmed, &user.CreatedAt)

	if err == sql.ErrNoRows {
		slog.Info("sign-in rejected", "reason", "unknown email", "remote", middleware.GetClientIP(r))
		middleware.CodedErrorResponse(w, http.StatusUnauthorized, models.CodeInvalidCredentials,
			"Invalid login credentials")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !passwordHash.Valid || !auth.CheckPassword(passwordHash.String, req.Password) {
		slog.Info("sign-in rejected", "reason", "bad password", "user_id", user.ID,
			"remote", middleware.GetClientIP(r))
		middleware.CodedErrorResponse(w, http.StatusUnauthorized, models.CodeInvalidCredentials,
			"Invalid login credentials")
		return
	}

	if !confirmed {
		middleware.CodedErrorResponse(w, http.StatusForbidden, models.CodeEmailNotConfirmed,
			"Email not confirmed")
		return
	}

	session, err := h.issueSession(user)
	if err != nil {
		slog.Error("failed to issue session", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	slog.Info("password sign-in", "user_id", user.ID)
	middleware.JSONResponse(w, http.StatusOK, session)
}

func (h *AuthHandler) refreshGrant(w http.ResponseWriter, req models.TokenRequest) {
	var userID string
	var revokedAt sql.NullTime
	err := h.db.QueryRow(`
		SELECT user_id, revoked_at FROM refresh_token WHERE token = $1
	`, req.RefreshToken).Scan(&userID, &revokedAt)

	if err == sql.ErrNoRows || (err == nil && revokedAt.Valid) {
		middleware.CodedErrorResponse(w, http.StatusUnauthorized, models.CodeInvalidGrant,
			"Invalid refresh token")
		return
	}
	if err != nil {
		slog.Error("failed to query refresh token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	user, err := h.userByID(userID)
	if err != nil {
		slog.Error("failed to load user for refresh", "error", err, "user_id", userID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Rotate: the old token is single use.
	_, err = h.db.Exec(`
		UPDATE refresh_token SET revoked_at = $1 WHERE token = $2
	`, time.Now().UTC(), req.RefreshToken)
	if err != nil {
		slog.Error("failed to revoke refresh token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	session, err := h.issueSession(user)
	if err != nil {
		slog.Error("failed to issue session", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to refresh session")
		return
	}

	slog.Info("session refreshed", "user_id", user.ID)
	middleware.JSONResponse(w, http.StatusOK, session)
}

// SignUp handles POST /auth/v1/signup
// When email verification is required the response carries the new user with
// a null session: the account exists but is not yet usable.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeInvalidEmail,
			"Unable to validate email address")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeWeakPassword,
			"Password should be at least 6 characters")
		return
	}

	confirmed := !h.cfg.RequireEmailVerif
	user := models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}

	_, err = h.db.Exec(`
		INSERT INTO app_user (id, email, password_hash, is_anonymous, email_confirmed, created_at)
		VALUES ($1, $2, $3, FALSE, $4, $5)
	`, user.ID, user.Email, passwordHash, confirmed, user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			middleware.CodedErrorResponse(w, http.StatusUnprocessableEntity, models.CodeUserAlreadyExists,
				"User already registered")
			return
		}
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign up")
		return
	}

	resp := models.SignUpResponse{User: user}
	if confirmed {
		session, err := h.issueSession(user)
		if err != nil {
			slog.Error("failed to issue session", "error", err, "user_id", user.ID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign up")
			return
		}
		resp.Session = session
	}

	slog.Info("sign-up", "user_id", user.ID, "verification_pending", !confirmed)
	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// SignOut handles POST /auth/v1/logout
// Revokes every refresh token for the calling user.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireClaims(w, r)
	if !ok {
		return
	}

	_, err := h.db.Exec(`
		UPDATE refresh_token SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL
	`, time.Now().UTC(), claims.Subject)
	if err != nil {
		slog.Error("failed to revoke refresh tokens", "error", err, "user_id", claims.Subject)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign out")
		return
	}

	slog.Info("sign-out", "user_id", claims.Subject)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateUser handles PUT /auth/v1/user
// Attaches credentials to the calling anonymous account in place: the user ID
// is preserved, so any votes already cast stay attached to the identity.
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireClaims(w, r)
	if !ok {
		return
	}

	if !claims.IsAnonymous {
		middleware.CodedErrorResponse(w, http.StatusUnprocessableEntity, models.CodeNotAnonymous,
			"Not an anonymous account")
		return
	}

	var req models.UpdateUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeInvalidEmail,
			"Unable to validate email address")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, models.CodeWeakPassword,
			"Password should be at least 6 characters")
		return
	}

	res, err := h.db.Exec(`
		UPDATE app_user
		SET email = $1, password_hash = $2, is_anonymous = FALSE, email_confirmed = TRUE
		WHERE id = $3 AND is_anonymous = TRUE
	`, req.Email, passwordHash, claims.Subject)

	if err != nil {
		if isUniqueViolation(err) {
			middleware.CodedErrorResponse(w, http.StatusUnprocessableEntity, models.CodeUserAlreadyExists,
				"User already registered")
			return
		}
		slog.Error("failed to upgrade account", "error", err, "user_id", claims.Subject)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to upgrade account")
		return
	}

	if n, _ := res.RowsAffected(); n == 0 {
		// Token said anonymous but the row disagrees; the row wins.
		middleware.CodedErrorResponse(w, http.StatusUnprocessableEntity, models.CodeNotAnonymous,
			"Not an anonymous account")
		return
	}

	user, err := h.userByID(claims.Subject)
	if err != nil {
		slog.Error("failed to load upgraded user", "error", err, "user_id", claims.Subject)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to upgrade account")
		return
	}

	// Issue a fresh session so the caller's token reflects the new identity.
	session, err := h.issueSession(user)
	if err != nil {
		slog.Error("failed to issue session", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to upgrade account")
		return
	}

	slog.Info("anonymous account upgraded", "user_id", user.ID)
	middleware.JSONResponse(w, http.StatusOK, session)
}

// issueSession signs an access token and records a refresh token row.
func (h *AuthHandler) issueSession(user models.User) (*models.Session, error) {
	access, expiresAt, err := auth.SignAccessToken([]byte(h.cfg.JWTSecret), user, time.Now())
	if err != nil {
		return nil, err
	}

	refresh, err := auth.NewRefreshToken()
	if err != nil {
		return nil, err
	}

	_, err = h.db.Exec(`
		INSERT INTO refresh_token (token, user_id, created_at)
		VALUES ($1, $2, $3)
	`, refresh, user.ID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return &models.Session{
		AccessToken:  access,
		TokenType:    "bearer",
		ExpiresAt:    expiresAt,
		RefreshToken: refresh,
		User:         user,
	}, nil
}

func (h *AuthHandler) userByID(id string) (models.User, error) {
	var user models.User
	var email sql.NullString
	err := h.db.QueryRow(`
		SELECT id, email, is_anonymous, created_at FROM app_user WHERE id = $1
	`, id).Scan(&user.ID, &email, &user.IsAnonymous, &user.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	user.Email = email.String
	return user, nil
}

// requireClaims parses and verifies the bearer token, writing a 401 when it
// is missing or invalid.
func (h *AuthHandler) requireClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	return requireClaims(w, r, h.cfg)
}

func requireClaims(w http.ResponseWriter, r *http.Request, cfg cliparse.Config) (*auth.Claims, bool) {
	token := middleware.BearerToken(r)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authorization bearer token required")
		return nil, false
	}
	claims, err := auth.ParseAccessToken([]byte(cfg.JWTSecret), token)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired access token")
		return nil, false
	}
	return claims, true
}

// isUniqueViolation matches the duplicate-key error text of both supported
// drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
