// Package repository defines storage ports and their Postgres implementations.
// Implementations return the sentinel errors below so that services can tell
// a missing document apart from an I/O failure.
package repository

import "errors"

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique field (user email, product name) is already taken.
var ErrDuplicate = errors.New("duplicate")
