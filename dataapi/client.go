// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dataapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielhkuo/pollpocket/models"
)

// ErrNotFound reports that no row matched. Callers treat it as a distinct
// state, not a failure.
var ErrNotFound = errors.New("not found")

// TokenSource yields the current access token, or "" when there is none.
// session.Manager satisfies this.
type TokenSource interface {
	AccessToken() string
}

// Client is a typed HTTP client for the /rest/v1 endpoints.
type Client struct {
	baseURL string
	apiKey  string
	tokens  TokenSource
	http    *http.Client
}

func New(baseURL, apiKey string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		tokens:  tokens,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ListPolls returns all polls, newest first.
func (c *Client) ListPolls(ctx context.Context) ([]models.Poll, error) {
	var polls []models.Poll
	if err := c.do(ctx, http.MethodGet, "/rest/v1/polls", nil, &polls); err != nil {
		return nil, err
	}
	return polls, nil
}

// GetPoll fetches one poll by ID. Returns ErrNotFound when no poll matches.
func (c *Client) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	var poll models.Poll
	if err := c.do(ctx, http.MethodGet, "/rest/v1/polls/"+url.PathEscape(id), nil, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// GetResults fetches vote counts per option for one poll.
func (c *Client) GetResults(ctx context.Context, id string) (*models.PollResults, error) {
	var results models.PollResults
	path := "/rest/v1/polls/" + url.PathEscape(id) + "/results"
	if err := c.do(ctx, http.MethodGet, path, nil, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// CreatePoll inserts a new poll and returns the server-assigned row.
func (c *Client) CreatePoll(ctx context.Context, question string, options []string) (*models.Poll, error) {
	req := models.CreatePollRequest{Question: question, Options: options}
	var poll models.Poll
	if err := c.do(ctx, http.MethodPost, "/rest/v1/polls", req, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// UserVote returns the calling user's vote on the poll, or (nil, nil) when
// the user has not voted. Absence of a vote is a normal state.
func (c *Client) UserVote(ctx context.Context, pollID string) (*models.Vote, error) {
	var vote models.Vote
	path := "/rest/v1/votes?poll_id=" + url.QueryEscape(pollID)
	err := c.do(ctx, http.MethodGet, path, nil, &vote)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// UpsertVote records the user's choice: insert on first vote, in-place
// update on revote. The backend keys the upsert on (poll, user) taken from
// the access token.
func (c *Client) UpsertVote(ctx context.Context, pollID, option, existingID string) (*models.Vote, error) {
	req := models.UpsertVoteRequest{ID: existingID, PollID: pollID, Option: option}
	var vote models.Vote
	if err := c.do(ctx, http.MethodPost, "/rest/v1/votes", req, &vote); err != nil {
		return nil, err
	}
	return &vote, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
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
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("data request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var errBody models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
			errBody.Message = resp.Status
		}
		return fmt.Errorf("data request failed: %s", errBody.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
