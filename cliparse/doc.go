// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration for the pollpocket binary.

Settings come from CLI flags with environment-variable fallback; a .env file
in the working directory is loaded first when present.

Client commands require POLLPOCKET_URL and POLLPOCKET_ANON_KEY. Serve mode
additionally requires DATABASE_URL, JWT_SECRET and the same
POLLPOCKET_ANON_KEY clients will present. Missing required settings abort
startup.
*/
package cliparse
