// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package uuid validates UUID strings supplied by a caller — client-chosen
document ids, collection ids on path parameters, and grant subject values.

This package never generates ids; for that see [pkg/uuidv7].
*/
package uuid

import "github.com/google/uuid"

// IsValid reports whether s parses as a UUID in any RFC 4122 variant.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Parse parses s into a [uuid.UUID], returning an error if s is not a
// valid UUID string.
func Parse(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
