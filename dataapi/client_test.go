// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dataapi

import (
	"context"
	"errors"
	"testing"

	"github.com/danielhkuo/pollpocket/models"
	"github.com/danielhkuo/pollpocket/testutil"
)

// staticToken is a fixed-token TokenSource for tests.
type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

func TestListPolls(t *testing.T) {
	backend := testutil.StartBackend(t)
	client := New(backend.Config.ServiceURL, backend.Config.APIKey, nil)

	polls, err := client.ListPolls(context.Background())
	if err != nil {
		t.Fatalf("ListPolls failed: %v", err)
	}
	if len(polls) != 0 {
		t.Fatalf("Expected no polls, got %d", len(polls))
	}

	backend.CreatePoll(t, "Lunch?", "Pizza", "Sushi")
	backend.CreatePoll(t, "Dinner?", "Ramen", "Curry")

	polls, err = client.ListPolls(context.Background())
	if err != nil {
		t.Fatalf("ListPolls failed: %v", err)
	}
	if len(polls) != 2 {
		t.Fatalf("Expected 2 polls, got %d", len(polls))
	}
}

func TestGetPoll(t *testing.T) {
	backend := testutil.StartBackend(t)
	client := New(backend.Config.ServiceURL, backend.Config.APIKey, nil)

	created := backend.CreatePoll(t, "Lunch?", "Pizza", "Sushi")

	poll, err := client.GetPoll(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetPoll failed: %v", err)
	}
	if poll.Question != "Lunch?" {
		t.Errorf("Expected question 'Lunch?', got %q", poll.Question)
	}
	if len(poll.Options) != 2 {
		t.Errorf("Expected 2 options, got %d", len(poll.Options))
	}

	// Missing polls are a sentinel, not a generic failure
	_, err = client.GetPoll(context.Background(), "no-such-poll")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreatePoll(t *testing.T) {
	backend := testutil.StartBackend(t)
	user := backend.CreateUser(t, "alice@example.com", "hunter22")
	session := backend.IssueSession(t, user)
	client := New(backend.Config.ServiceURL, backend.Config.APIKey, staticToken(session.AccessToken))

	poll, err := client.CreatePoll(context.Background(), "Lunch?", []string{"Pizza", "Sushi"})
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}
	if poll.ID == "" {
		t.Error("Expected a server-assigned poll id")
	}
	if poll.CreatedBy != user.ID {
		t.Errorf("Expected created_by %q, got %q", user.ID, poll.CreatedBy)
	}

	// Without a token the backend rejects creation
	anon := New(backend.Config.ServiceURL, backend.Config.APIKey, nil)
	if _, err := anon.CreatePoll(context.Background(), "Q?", []string{"A", "B"}); err == nil {
		t.Error("Expected an error creating a poll with no session")
	}
}

func TestUserVote(t *testing.T) {
	backend := testutil.StartBackend(t)
	user := backend.CreateUser(t, "alice@example.com", "hunter22")
	session := backend.IssueSession(t, user)
	client := New(backend.Config.ServiceURL, backend.Config.APIKey, staticToken(session.AccessToken))

	poll := backend.CreatePoll(t, "Lunch?", "Pizza", "Sushi")

	// No vote yet: (nil, nil), not an error
	vote, err := client.UserVote(context.Background(), poll.ID)
	if err != nil {
		t.Fatalf("UserVote failed: %v", err)
	}
	if vote != nil {
		t.Fatalf("Expected no vote, got %+v", vote)
	}

	created, err := client.UpsertVote(context.Background(), poll.ID, "Pizza", "")
	if err != nil {
		t.Fatalf("UpsertVote failed: %v", err)
	}

	vote, err = client.UserVote(context.Background(), poll.ID)
	if err != nil {
		t.Fatalf("UserVote failed: %v", err)
	}
	if vote == nil || vote.ID != created.ID {
		t.Fatalf("Expected vote %q, got %+v", created.ID, vote)
	}
}

func TestUpsertVote(t *testing.T) {
	backend := testutil.StartBackend(t)
	user := backend.CreateUser(t, "alice@example.com", "hunter22")
	session := backend.IssueSession(t, user)
	client := New(backend.Config.ServiceURL, backend.Config.APIKey, staticToken(session.AccessToken))

	poll := backend.CreatePoll(t, "Lunch?", "Pizza", "Sushi")

	first, err := client.UpsertVote(context.Background(), poll.ID, "Pizza", "")
	if err != nil {
		t.Fatalf("First vote failed: %v", err)
	}

	// Revote updates the same row
	second, err := client.UpsertVote(context.Background(), poll.ID, "Sushi", first.ID)
	if err != nil {
		t.Fatalf("Revote failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Revote created a new row: %q -> %q", first.ID, second.ID)
	}
	if second.Option != "Sushi" {
		t.Errorf("Expected option Sushi, got %q", second.Option)
	}
	if n := backend.CountVotes(t, poll.ID, user.ID); n != 1 {
		t.Errorf("Expected exactly 1 vote row, got %d", n)
	}

	// An option the poll does not offer is rejected
	if _, err := client.UpsertVote(context.Background(), poll.ID, "Salad", second.ID); err == nil {
		t.Error("Expected an error voting for an unknown option")
	}

	// Voting on a missing poll maps to ErrNotFound
	if _, err := client.UpsertVote(context.Background(), "no-such-poll", "Pizza", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetResults(t *testing.T) {
	backend := testutil.StartBackend(t)
	poll := backend.CreatePoll(t, "Lunch?", "Pizza", "Sushi")

	alice := backend.CreateUser(t, "alice@example.com", "hunter22")
	bob := backend.CreateUser(t, "bob@example.com", "hunter22")
	for _, voter := range []models.User{alice, bob} {
		session := backend.IssueSession(t, voter)
		c := New(backend.Config.ServiceURL, backend.Config.APIKey, staticToken(session.AccessToken))
		if _, err := c.UpsertVote(context.Background(), poll.ID, "Pizza", ""); err != nil {
			t.Fatalf("Vote by %s failed: %v", voter.Email, err)
		}
	}

	client := New(backend.Config.ServiceURL, backend.Config.APIKey, nil)
	results, err := client.GetResults(context.Background(), poll.ID)
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if results.Total != 2 {
		t.Errorf("Expected 2 total votes, got %d", results.Total)
	}
	if results.Counts["Pizza"] != 2 {
		t.Errorf("Expected 2 votes for Pizza, got %d", results.Counts["Pizza"])
	}
	// Unvoted options still show up with a zero count
	if count, ok := results.Counts["Sushi"]; !ok || count != 0 {
		t.Errorf("Expected Sushi at 0, got %d (present: %v)", count, ok)
	}
}
