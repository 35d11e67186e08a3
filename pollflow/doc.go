// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package pollflow implements the per-poll voting flow as a small state
machine:

	StateLoading → StateNotFound            (terminal)
	StateLoading → StateReady               (selection defaults to first option)
	StateReady   ⇄ StateSubmitting          (one submission in flight at a time)

Within StateReady, HasVoted distinguishes an identity that already has a
vote row (revoting updates it in place) from one that has none yet.
Changing the selection is purely local; only Submit talks to the backend,
and only for authenticated, non-anonymous identities.
*/
package pollflow
