// Copyright (c) 2026 Folivafy authors. All rights reserved.

// Package documents holds the reserved envelope fields every document's f
// payload may carry, and the read-through collection-metadata cache hooks
// use instead of opening their own transactions.
package documents

import (
	"maps"
	"time"
)

// Reserved top-level keys inside a document's f object. Their presence
// drives logical deletion; no other code treats any f key specially.
const (
	FieldDeletedAt = "folivafy_deleted_at"
	FieldDeletedBy = "folivafy_deleted_by"
)

// DeletedBy identifies who triggered a logical delete.
type DeletedBy struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// IsDeleted reports whether f carries a non-empty FieldDeletedAt.
func IsDeleted(f map[string]any) bool {
	v, ok := f[FieldDeletedAt]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s != ""
}

// MarkDeleted returns a copy of f with the reserved fields set to record
// a logical deletion at "at" by "by".
func MarkDeleted(f map[string]any, by DeletedBy, at time.Time) map[string]any {
	out := maps.Clone(f)
	if out == nil {
		out = make(map[string]any, 2)
	}
	out[FieldDeletedAt] = at.UTC().Format(time.RFC3339)
	out[FieldDeletedBy] = map[string]any{"id": by.ID, "title": by.Title}
	return out
}
