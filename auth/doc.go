// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth implements token and credential primitives.

Access tokens are HS256 JWTs carrying the user ID (sub), email, and an
is_anonymous flag. Refresh tokens are opaque random strings stored server
side. Passwords are hashed with bcrypt and must be at least MinPasswordLen
characters.

The server verifies tokens with ParseAccessToken. Clients may read claims
from their own persisted token with PeekClaims, which does not verify the
signature and exists only to check expiry locally.
*/
package auth
