// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package cli dispatches the client subcommands and renders their output.
// Each invocation establishes a session (restoring a persisted one when
// possible) before running command logic.
package cli
