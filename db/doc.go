// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db owns the serve-mode database schema.

The DDL is written to run unchanged on sqlite (modernc.org/sqlite, the
default) and postgres (lib/pq). CreateSchema is idempotent and runs at every
startup.
*/
package db
