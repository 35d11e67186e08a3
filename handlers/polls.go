// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/pollpocket/cliparse"
	"github.com/danielhkuo/pollpocket/middleware"
	"github.com/danielhkuo/pollpocket/models"
)

type PollHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config) *PollHandler {
	return &PollHandler{db: db, cfg: cfg}
}

// ListPolls handles GET /rest/v1/polls
// Returns all polls ordered by creation time, newest first.
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT id, question, options, created_by, created_at
		FROM poll
		ORDER BY created_at DESC
	`)
	if err != nil {
		slog.Error("failed to query polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			slog.Error("failed to scan poll", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		polls = append(polls, poll)
	}

	middleware.JSONResponse(w, http.StatusOK, polls)
}

// GetPoll handles GET /rest/v1/polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	row := h.db.QueryRow(`
		SELECT id, question, options, created_by, created_at
		FROM poll WHERE id = $1
	`, pollID)

	poll, err := scanPoll(row)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// CreatePoll handles POST /rest/v1/polls
// Any valid session may create a poll, anonymous ones included.
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r, h.cfg)
	if !ok {
		return
	}

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question is required")
		return
	}

	options := make([]string, 0, len(req.Options))
	for _, opt := range req.Options {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	if len(options) < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at least 2 options are required")
		return
	}

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		slog.Error("failed to marshal options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	poll := models.Poll{
		ID:        uuid.NewString(),
		Question:  req.Question,
		Options:   options,
		CreatedBy: claims.Subject,
		CreatedAt: time.Now().UTC(),
	}

	_, err = h.db.Exec(`
		INSERT INTO poll (id, question, options, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, poll.ID, poll.Question, string(optionsJSON), poll.CreatedBy, poll.CreatedAt)

	if err != nil {
		slog.Error("failed to insert poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	slog.Info("poll created", "poll_id", poll.ID, "created_by", poll.CreatedBy)
	middleware.JSONResponse(w, http.StatusCreated, poll)
}

// GetResults handles GET /rest/v1/polls/{id}/results
// Returns vote counts per option.
func (h *PollHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	row := h.db.QueryRow(`
		SELECT id, question, options, created_by, created_at
		FROM poll WHERE id = $1
	`, pollID)

	poll, err := scanPoll(row)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	results := models.PollResults{
		PollID: poll.ID,
		Counts: make(map[string]int, len(poll.Options)),
	}
	for _, opt := range poll.Options {
		results.Counts[opt] = 0
	}

	rows, err := h.db.Query(`
		SELECT option, COUNT(*) FROM vote WHERE poll_id = $1 GROUP BY option
	`, pollID)
	if err != nil {
		slog.Error("failed to query vote counts", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var option string
		var count int
		if err := rows.Scan(&option, &count); err != nil {
			slog.Error("failed to scan vote count", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		results.Counts[option] = count
		results.Total += count
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (models.Poll, error) {
	var poll models.Poll
	var optionsJSON string
	var createdBy sql.NullString

	if err := row.Scan(&poll.ID, &poll.Question, &optionsJSON, &createdBy, &poll.CreatedAt); err != nil {
		return models.Poll{}, err
	}
	poll.CreatedBy = createdBy.String

	if err := json.Unmarshal([]byte(optionsJSON), &poll.Options); err != nil {
		return models.Poll{}, err
	}
	return poll, nil
}
