// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/pollpocket/cliparse"
	"github.com/danielhkuo/pollpocket/middleware"
	"github.com/danielhkuo/pollpocket/models"
)

type VoteHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVoteHandler(db *sql.DB, cfg cliparse.Config) *VoteHandler {
	return &VoteHandler{db: db, cfg: cfg}
}

// GetMyVote handles GET /rest/v1/votes?poll_id={id}
// Returns the calling user's vote on the poll, or 404 when none exists.
// The voter is always the token subject; one user can never read another
// user's vote row through this endpoint.
func (h *VoteHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r, h.cfg)
	if !ok {
		return
	}

	pollID := r.URL.Query().Get("poll_id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id query parameter is required")
		return
	}

	var vote models.Vote
	err := h.db.QueryRow(`
		SELECT id, poll_id, user_id, option, created_at, updated_at
		FROM vote WHERE poll_id = $1 AND user_id = $2
	`, pollID, claims.Subject).Scan(
		&vote.ID, &vote.PollID, &vote.UserID, &vote.Option, &vote.CreatedAt, &vote.UpdatedAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Vote not found")
		return
	}
	if err != nil {
		slog.Error("failed to query vote", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, vote)
}

// UpsertVote handles POST /rest/v1/votes
// Creates the caller's vote on a poll or, when one already exists, updates
// its option in place. The write is a single native upsert on the
// UNIQUE(poll_id, user_id) constraint, so concurrent first votes resolve to
// an in-place update rather than an error.
func (h *VoteHandler) UpsertVote(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r, h.cfg)
	if !ok {
		return
	}

	if claims.IsAnonymous {
		middleware.CodedErrorResponse(w, http.StatusForbidden, models.CodeAnonymousForbidden,
			"Anonymous users cannot vote; sign in first")
		return
	}

	var req models.UpsertVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.PollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}
	if req.Option == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "option is required")
		return
	}

	poll, err := scanPoll(h.db.QueryRow(`
		SELECT id, question, options, created_by, created_at
		FROM poll WHERE id = $1
	`, req.PollID))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err, "poll_id", req.PollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !slices.Contains(poll.Options, req.Option) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "option is not one of the poll's options")
		return
	}

	// On conflict the existing row keeps its id and created_at; RETURNING
	// reports which row actually won so the response never lies about the
	// stored vote.
	now := time.Now().UTC()
	var vote models.Vote
	err = h.db.QueryRow(`
		INSERT INTO vote (id, poll_id, user_id, option, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (poll_id, user_id)
		DO UPDATE SET option = excluded.option, updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at
	`, uuid.NewString(), req.PollID, claims.Subject, req.Option, now).
		Scan(&vote.ID, &vote.CreatedAt, &vote.UpdatedAt)
	if err != nil {
		slog.Error("failed to upsert vote", "error", err, "poll_id", req.PollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit vote")
		return
	}

	vote.PollID = req.PollID
	vote.UserID = claims.Subject
	vote.Option = req.Option

	// Fresh rows come back with created_at == updated_at.
	isUpdate := !vote.CreatedAt.Equal(vote.UpdatedAt)

	slog.Info("vote recorded", "poll_id", req.PollID, "vote_id", vote.ID, "is_update", isUpdate)

	status := http.StatusCreated
	if isUpdate {
		status = http.StatusOK
	}
	middleware.JSONResponse(w, status, vote)
}
