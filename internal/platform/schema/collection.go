// Copyright (c) 2026 Folivafy authors. All rights reserved.

package schema

// CollectionTable represents the 'folivafy.collection' table.
type CollectionTable struct {
	Table  string
	ID     string
	Name   string
	Title  string
	Oao    string
	Locked string
}

// Collection is the schema definition for folivafy.collection.
var Collection = CollectionTable{
	Table:  "folivafy.collection",
	ID:     "id",
	Name:   "name",
	Title:  "title",
	Oao:    "oao",
	Locked: "locked",
}

func (t CollectionTable) Columns() []string {
	return []string{t.ID, t.Name, t.Title, t.Oao, t.Locked}
}
