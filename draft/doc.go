// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package draft holds an in-progress poll while the user edits it: a
// question plus a growable list of option slots with a floor of two.
// Nothing touches the backend until Create.
package draft
