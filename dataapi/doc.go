// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package dataapi is the typed client for the backend's /rest/v1 endpoints
(polls and votes). Requests carry the public API key and, when a TokenSource
is wired, the current access token.

Row absence surfaces as ErrNotFound (polls) or a nil vote (UserVote), never
as a generic error.
*/
package dataapi
