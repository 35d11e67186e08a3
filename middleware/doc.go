// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP helpers shared by all serve-mode handlers:
request logging, CORS, public API key enforcement, bearer token extraction,
and JSON request/response plumbing.
*/
package middleware
