// Copyright (c) 2026 Folivafy authors. All rights reserved.

package store

import "time"

// Collection is a namespace of documents with shared metadata and a
// uniform access mode.
type Collection struct {
	ID     string
	Name   string
	Title  string
	Oao    bool
	Locked bool
}

// Document is a JSON payload plus its envelope. Id is client-chosen at
// create time, or generated when the client omits it; Owner never
// changes after insert.
type Document struct {
	ID           string
	CollectionID string
	Owner        string
	F            map[string]any
}

// Event is an append-only record attached to a document. Id and Timestamp
// are assigned by the store on insert.
type Event struct {
	ID         int64
	Timestamp  time.Time
	DocumentID string
	User       string
	CategoryID int32
	Payload    map[string]any
}

// Grant is a single ACL row: any principal holding (Realm, Grant) in its
// derived grant set may see DocumentID.
type Grant struct {
	ID         int64
	DocumentID string
	Realm      string
	Grant      string
	View       bool
}

// Well-known realms used by [Grant.Realm].
const (
	RealmAuthor            = "author"
	RealmReadCollection    = "read-collection"
	RealmReadAllCollection = "read-all-collection"
)

// GrantPair is one (realm, grant-uuid) tuple from a caller's derived user
// grants, used to build the visibility join predicate.
type GrantPair struct {
	Realm string
	Grant string
}

// SortKey is one parsed element of a "sort" query parameter: a dotted
// path into the document's f object plus a direction.
type SortKey struct {
	Path       []string
	Descending bool
}

// ListParams parameterizes [Tx.CountAndListDocuments].
type ListParams struct {
	CollectionID string
	// ExactTitle, when non-empty, restricts results to documents whose
	// f.title equals this value exactly.
	ExactTitle string
	// VisibilityGrants is the caller's derived user-grants; a document is
	// included only if its stored grants intersect this set.
	VisibilityGrants []GrantPair
	// Filter is an optional structured search predicate; nil means "no
	// filter beyond title/visibility".
	Filter *Filter
	// ExtraFields lists the top-level keys of f to project into the
	// result; the store always adds "title" to this list itself.
	ExtraFields []string
	Sort        []SortKey
	Limit       int
	Offset      int
}

// ProjectedDocument is one row of a listing: the document id plus a
// reduced f object containing only the requested keys.
type ProjectedDocument struct {
	ID string
	F  map[string]any
}
