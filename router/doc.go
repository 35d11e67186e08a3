// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router wires serve-mode routes to handlers using Go 1.22+ method
patterns. Every endpoint except /health requires the public API key and is
wrapped in request logging.
*/
package router
