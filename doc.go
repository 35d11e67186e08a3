// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the pollpocket binary.

Pollpocket is a small polling service: anyone gets an anonymous identity on
first use, can browse and create polls, and (once signed in) cast a single
changeable vote per poll. The same binary is both the client CLI and the
backend server.

# Client Commands

Client commands talk to a pollpocket backend configured via environment
variables (or a .env file):

	POLLPOCKET_URL=https://polls.example.com \
	POLLPOCKET_ANON_KEY=... \
	pollpocket polls

Available commands: login, signup, logout, upgrade, whoami, polls,
poll <id>, create, vote <poll-id> <option>.

# Running the Backend

	DATABASE_URL=file:polls.db JWT_SECRET=... POLLPOCKET_ANON_KEY=... \
	pollpocket serve

Or with flags:

	pollpocket serve -p 3414 -d "postgres://..." -t postgres

# Architecture

Client side:

  - cli: command dispatch and output
  - session: persisted session state, anonymous bootstrap, upgrades
  - pollflow: the view/select/vote state machine for one poll
  - draft: poll creation drafts
  - authapi, dataapi: HTTP clients for the auth and data endpoints

Server side:

  - handlers: HTTP request handlers (sessions, polls, votes)
  - router: route definitions using Go 1.22+ routing
  - middleware: CORS, logging, API key check, JSON helpers
  - models: request/response types
  - auth: token signing, parsing and password hashing
  - db: schema creation
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
