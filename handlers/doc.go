// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the serve-mode HTTP request handlers.

# Handler Types

Each handler is a struct with database and config dependencies:

  - AuthHandler: anonymous/password sign-in, sign-up, sign-out, account upgrade
  - PollHandler: poll listing, lookup, creation, results
  - VoteHandler: per-user vote lookup and upsert

Handlers are created via constructor functions that accept *sql.DB and Config:

	authHandler := handlers.NewAuthHandler(db, cfg)

# Auth Endpoints

	POST /auth/v1/anonymous → SignInAnonymously (new anonymous user + session)
	POST /auth/v1/token     → Token (password or refresh_token grant)
	POST /auth/v1/signup    → SignUp (session omitted while verification pends)
	POST /auth/v1/logout    → SignOut (revokes refresh tokens)
	PUT  /auth/v1/user      → UpdateUser (in-place anonymous account upgrade)

Classified failures carry a stable code (see models.Code*) next to the
display message.

# Data Endpoints

	GET  /rest/v1/polls              → ListPolls (newest first)
	GET  /rest/v1/polls/{id}         → GetPoll
	GET  /rest/v1/polls/{id}/results → GetResults (counts per option)
	POST /rest/v1/polls              → CreatePoll (any valid session)
	GET  /rest/v1/votes?poll_id=     → GetMyVote (404 when the user has none)
	POST /rest/v1/votes              → UpsertVote (insert or in-place update)

The voter identity for vote operations always comes from the access token,
never from the request body, and anonymous identities are refused.
*/
package handlers
