// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package authapi is the typed client for the backend's /auth/v1 endpoints.

Failures come back as *Error with a Kind the caller can branch on:

	session, err := client.SignInWithPassword(ctx, email, password)
	var authErr *authapi.Error
	if errors.As(err, &authErr) && authErr.Kind == authapi.KindInvalidCredentials {
	    ...
	}

Kinds are derived from the backend's stable error codes; substring matching
on the message is kept only as a fallback for backends that return bare text.
*/
package authapi
