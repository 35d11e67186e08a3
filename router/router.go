// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/pollpocket/cliparse"
	"github.com/danielhkuo/pollpocket/handlers"
	"github.com/danielhkuo/pollpocket/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	pollHandler := handlers.NewPollHandler(db, cfg)
	voteHandler := handlers.NewVoteHandler(db, cfg)

	// guard composes the standard wrapping for API endpoints.
	guard := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithAPIKey(cfg.APIKey, middleware.WithLogging(h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth
	mux.HandleFunc("POST /auth/v1/anonymous", guard(authHandler.SignInAnonymously))
	mux.HandleFunc("POST /auth/v1/token", guard(authHandler.Token))
	mux.HandleFunc("POST /auth/v1/signup", guard(authHandler.SignUp))
	mux.HandleFunc("POST /auth/v1/logout", guard(authHandler.SignOut))
	mux.HandleFunc("PUT /auth/v1/user", guard(authHandler.UpdateUser))

	// Polls
	mux.HandleFunc("GET /rest/v1/polls", guard(pollHandler.ListPolls))
	mux.HandleFunc("POST /rest/v1/polls", guard(pollHandler.CreatePoll))
	mux.HandleFunc("GET /rest/v1/polls/{id}", guard(pollHandler.GetPoll))
	mux.HandleFunc("GET /rest/v1/polls/{id}/results", guard(pollHandler.GetResults))

	// Votes
	mux.HandleFunc("GET /rest/v1/votes", guard(voteHandler.GetMyVote))
	mux.HandleFunc("POST /rest/v1/votes", guard(voteHandler.UpsertVote))

	// Root endpoint. {$} pins the pattern to exactly "/" so it does not
	// swallow GETs meant for other routes.
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pollpocket API v1"))
	})

	return mux
}
