// Copyright (c) 2026 Folivafy authors. All rights reserved.

package schema

// DocumentTable represents the 'folivafy.collection_document' table.
type DocumentTable struct {
	Table        string
	ID           string
	CollectionID string
	Owner        string
	F            string
	CreatedAt    string
}

// Document is the schema definition for folivafy.collection_document.
//
// CreatedAt is a server-assigned insertion-order column, not part of the
// client-visible f payload; it is the fallback sort key when a document
// has no f.created field and the caller requested no explicit sort.
var Document = DocumentTable{
	Table:        "folivafy.collection_document",
	ID:           "id",
	CollectionID: "collection_id",
	Owner:        "owner_id",
	F:            "f",
	CreatedAt:    "created_at",
}

func (t DocumentTable) Columns() []string {
	return []string{t.ID, t.CollectionID, t.Owner, t.F, t.CreatedAt}
}
