// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/pollpocket/models"
)

// Client is a typed HTTP client for the /auth/v1 endpoints.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SignInAnonymously creates a fresh anonymous identity and session.
func (c *Client) SignInAnonymously(ctx context.Context) (*models.Session, error) {
	var session models.Session
	if err := c.do(ctx, http.MethodPost, "/auth/v1/anonymous", "", nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	req := models.TokenRequest{
		GrantType: models.GrantPassword,
		Email:     email,
		Password:  password,
	}
	var session models.Session
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token", "", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// RefreshSession exchanges a refresh token for a new session. The old
// refresh token is revoked server side.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	req := models.TokenRequest{
		GrantType:    models.GrantRefreshToken,
		RefreshToken: refreshToken,
	}
	var session models.Session
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token", "", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignUp requests account creation. A nil Session in a non-error response
// means the account exists but awaits email verification - that is a normal
// outcome, not a failure.
func (c *Client) SignUp(ctx context.Context, email, password string) (*models.SignUpResponse, error) {
	req := models.SignUpRequest{Email: email, Password: password}
	var resp models.SignUpResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignOut invalidates the session behind the access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

// UpdateUser attaches credentials to the (anonymous) account behind the
// access token and returns the refreshed session.
func (c *Client) UpdateUser(ctx context.Context, accessToken, email, password string) (*models.Session, error) {
	req := models.UpdateUserRequest{Email: email, Password: password}
	var session models.Session
	if err := c.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
			errBody.Message = resp.Status
		}
		return classify(errBody.Code, errBody.Message, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
