// Package repository is the data access layer over MySQL. Sentinel errors
// declared here let handlers distinguish failure classes without inspecting
// driver errors: ErrNotFound maps to 404, ErrConflict to 409. Authorization
// failures use the security package's sentinels instead; store failures
// during permission lookups are returned as-is so callers fail closed.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row. Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update cannot proceed because
// of existing state, such as provisioning a user with a taken email.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
