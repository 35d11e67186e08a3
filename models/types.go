package models

import "time"

// Auth error codes returned by the backend. Clients should branch on these
// rather than on message text; messages exist for display only.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotConfirmed  = "email_not_confirmed"
	CodeUserAlreadyExists  = "user_already_exists"
	CodeWeakPassword       = "weak_password"
	CodeInvalidEmail       = "invalid_email"
	CodeNotAnonymous       = "not_anonymous"
	CodeAnonymousForbidden = "anonymous_forbidden"
	CodeInvalidGrant       = "invalid_grant"
)

// Token grant types accepted by POST /auth/v1/token
const (
	GrantPassword     = "password"
	GrantRefreshToken = "refresh_token"
)

// Request types

type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	Email        string `json:"email,omitempty"`
	Password     string `json:"password,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreatePollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// UpsertVoteRequest carries the voter's choice. The voter identity is always
// taken from the access token, never from the request body.
type UpsertVoteRequest struct {
	ID     string `json:"id,omitempty"`
	PollID string `json:"poll_id"`
	Option string `json:"option"`
}

// Response types

// SignUpResponse distinguishes "account created, verification pending"
// (Session == nil) from "account created and immediately usable".
type SignUpResponse struct {
	User    User     `json:"user"`
	Session *Session `json:"session"`
}

type PollResults struct {
	PollID string         `json:"poll_id"`
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}

// Domain types

// User is the identity derived from a session: who is using this process.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session is the credential bundle issued by the auth endpoints. The client
// never constructs one; it only holds ones the backend issued.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type Poll struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Options   []string  `json:"options"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Vote is one identity's choice on one poll. At most one row exists per
// (poll, user) pair; revoting updates the row in place.
type Vote struct {
	ID        string    `json:"id"`
	PollID    string    `json:"poll_id"`
	UserID    string    `json:"user_id"`
	Option    string    `json:"option"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
