// Copyright (c) 2026 Folivafy authors. All rights reserved.

package schema

// GrantTable represents the 'folivafy.grant' table.
type GrantTable struct {
	Table      string
	ID         string
	DocumentID string
	Realm      string
	Grant      string
	View       string
}

// Grant is the schema definition for folivafy.grant.
var Grant = GrantTable{
	Table:      "folivafy.grant",
	ID:         "id",
	DocumentID: "document_id",
	Realm:      "realm",
	Grant:      "grant_subject",
	View:       "view",
}

func (t GrantTable) Columns() []string {
	return []string{t.ID, t.DocumentID, t.Realm, t.Grant, t.View}
}
