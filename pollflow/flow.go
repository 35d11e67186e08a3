// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pollflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/danielhkuo/pollpocket/dataapi"
	"github.com/danielhkuo/pollpocket/models"
	"github.com/danielhkuo/pollpocket/session"
)

// State is where a poll screen instance is in its lifecycle.
type State int

const (
	StateLoading State = iota
	StateReady
	StateSubmitting
	StateNotFound
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

var (
	ErrNotReady       = errors.New("poll is not loaded")
	ErrInvalidOption  = errors.New("option is not one of the poll's options")
	ErrSignInRequired = errors.New("sign in required to vote")
	ErrNoSelection    = errors.New("no option selected")
	ErrSubmitInFlight = errors.New("a vote submission is already in flight")
)

// Flow drives one poll screen: load the poll, track the local selection,
// and submit at most one updatable vote for the current identity.
type Flow struct {
	data     *dataapi.Client
	sessions *session.Manager
	pollID   string

	mu        sync.Mutex
	state     State
	poll      *models.Poll
	selection string
	vote      *models.Vote
}

func New(data *dataapi.Client, sessions *session.Manager, pollID string) *Flow {
	return &Flow{
		data:     data,
		sessions: sessions,
		pollID:   pollID,
		state:    StateLoading,
	}
}

// Load fetches the poll and, for authenticated identities, any vote already
// cast on it. A missing poll lands in StateNotFound, which is terminal and
// not an error. Until the vote fetch completes the selection defaults to
// the poll's first option; an existing vote then replaces it.
func (f *Flow) Load(ctx context.Context) error {
	poll, err := f.data.GetPoll(ctx, f.pollID)
	if errors.Is(err, dataapi.ErrNotFound) {
		f.mu.Lock()
		f.state = StateNotFound
		f.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load poll: %w", err)
	}

	f.mu.Lock()
	f.poll = poll
	f.state = StateReady
	if len(poll.Options) > 0 {
		f.selection = poll.Options[0]
	}
	f.mu.Unlock()

	// Anonymous identities cannot have voted; skip the lookup entirely.
	if !f.sessions.IsAuthenticated() {
		return nil
	}

	vote, err := f.data.UserVote(ctx, f.pollID)
	if err != nil {
		// The screen is still usable without the prior vote; first submit
		// will reconcile against the server's upsert anyway.
		slog.Warn("failed to load existing vote", "poll_id", f.pollID, "error", err)
		return nil
	}
	if vote != nil {
		f.mu.Lock()
		f.vote = vote
		f.selection = vote.Option
		f.mu.Unlock()
	}
	return nil
}

// Select changes the local selection. It never contacts the backend.
func (f *Flow) Select(option string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateReady {
		return ErrNotReady
	}
	if !slices.Contains(f.poll.Options, option) {
		return ErrInvalidOption
	}
	f.selection = option
	return nil
}

// Submit records the current selection as the identity's vote: an insert on
// first vote, an in-place update (same vote ID) on revote. Unauthenticated
// and selection-less submits are rejected before any network call. On
// failure the selection is preserved and the flow returns to StateReady.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	if f.state != StateReady {
		f.mu.Unlock()
		return ErrNotReady
	}
	if !f.sessions.IsAuthenticated() {
		f.mu.Unlock()
		return ErrSignInRequired
	}
	if f.selection == "" {
		f.mu.Unlock()
		return ErrNoSelection
	}

	selection := f.selection
	existingID := ""
	if f.vote != nil {
		existingID = f.vote.ID
	}
	f.state = StateSubmitting
	f.mu.Unlock()

	confirmed, err := f.data.UpsertVote(ctx, f.pollID, selection, existingID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateReady
	if err != nil {
		return fmt.Errorf("failed to submit vote: %w", err)
	}

	// Adopt the server-confirmed row, not what we thought we sent.
	f.vote = confirmed
	f.selection = confirmed.Option
	return nil
}

// State returns the current lifecycle state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Poll returns the loaded poll, or nil before Load completes.
func (f *Flow) Poll() *models.Poll {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.poll == nil {
		return nil
	}
	cp := *f.poll
	cp.Options = slices.Clone(f.poll.Options)
	return &cp
}

// Selection returns the locally selected option.
func (f *Flow) Selection() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selection
}

// HasVoted reports whether the identity has a recorded vote on this poll.
func (f *Flow) HasVoted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vote != nil
}

// Vote returns the identity's recorded vote, or nil in the NotVoted state.
func (f *Flow) Vote() *models.Vote {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.vote == nil {
		return nil
	}
	cp := *f.vote
	return &cp
}
