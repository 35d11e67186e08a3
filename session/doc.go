// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session owns the authentication session lifecycle on the client side.

A Manager holds exactly one current Session and guarantees that, once
Initialize settles, there is always an identity - anonymous users get a
backend-issued anonymous account instead of a nil session. Sign-out
immediately re-establishes a fresh anonymous identity for the same reason.

Consumers that need to react to identity changes use Subscribe, which yields
the session after every change and must be unsubscribed on teardown:

	events, cancel := mgr.Subscribe()
	defer cancel()
	for s := range events {
	    ...
	}

Sessions are persisted across process runs through a FileStore; an expired
persisted session is exchanged via its refresh token before falling back to
a new anonymous identity.
*/
package session
