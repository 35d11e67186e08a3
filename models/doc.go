// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain and wire types shared by the Pollpocket
client packages and the serve-mode backend.

# Domain Types

  - User: the identity behind a session (id, optional email, anonymous flag)
  - Session: backend-issued credential bundle (access + refresh token)
  - Poll: question plus an ordered list of option strings
  - Vote: one user's choice on one poll, unique per (poll, user)

# Wire Types

Request/response structs mirror the JSON bodies of the /auth/v1 and /rest/v1
endpoints. Classified auth failures carry one of the Code* constants so
clients never have to parse message text to know what went wrong.
*/
package models
