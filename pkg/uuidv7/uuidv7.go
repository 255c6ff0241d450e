// Copyright (c) 2026 Folivafy authors. All rights reserved.

// Package uuidv7 wraps google/uuid to generate time-ordered UUIDv7 values.
//
// Used for server-assigned identifiers that benefit from being
// time-sortable (clustered-index friendliness in PostgreSQL, unlike random
// UUIDv4): new collection ids, and document ids when the client omits one.
// Client-chosen document ids are validated, not generated, here — see
// [pkg/uuid]. Span ids are generated by the middleware directly.
package uuidv7

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
//
// # Safety
//
// It panics only if the OS random source is unavailable (extremely rare).
// This is acceptable as OS entropy failure is an unrecoverable system-level error.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuidv7: failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// Must generates a new UUIDv7 or panics.
//
// This is an alias for [New] kept for readability and consistency with
// Go's "Must" pattern in call sites.
func Must() string {
	return New()
}
