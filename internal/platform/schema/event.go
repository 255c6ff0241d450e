// Copyright (c) 2026 Folivafy authors. All rights reserved.

package schema

// EventTable represents the 'folivafy.event' table.
type EventTable struct {
	Table      string
	ID         string
	Timestamp  string
	DocumentID string
	UserID     string
	CategoryID string
	Payload    string
}

// Event is the schema definition for folivafy.event.
var Event = EventTable{
	Table:      "folivafy.event",
	ID:         "id",
	Timestamp:  "timestamp",
	DocumentID: "document_id",
	UserID:     "user_id",
	CategoryID: "category_id",
	Payload:    "payload",
}

func (t EventTable) Columns() []string {
	return []string{t.ID, t.Timestamp, t.DocumentID, t.UserID, t.CategoryID, t.Payload}
}
