// Copyright (c) 2026 Folivafy authors. All rights reserved.

package store_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErikWegner/folivafy-go/internal/mail"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

func newCollection(t *testing.T, s store.Store, name string, oao bool) store.Collection {
	t.Helper()
	tx, err := s.BeginTx(context.Background())
	require.NoError(t, err)
	c := store.Collection{ID: "col-" + name, Name: name, Title: name, Oao: oao}
	require.NoError(t, tx.InsertCollection(context.Background(), c))
	require.NoError(t, tx.Commit(context.Background()))
	return c
}

func TestMemoryStore_CreateAndGetDocument(t *testing.T) {
	s := store.NewMemoryStore()
	c := newCollection(t, s, "shapes", false)

	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	doc := store.Document{ID: "11111111-1111-1111-1111-111111111111", CollectionID: c.ID, Owner: "user-1", F: map[string]any{"title": "Square", "edges": float64(4)}}
	require.NoError(t, tx.InsertDocument(ctx, doc))
	require.NoError(t, tx.Commit(ctx))

	tx, err = s.BeginTx(ctx)
	require.NoError(t, err)
	got, err := tx.FindDocument(ctx, c.ID, doc.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "Square", got.F["title"])
}

func TestMemoryStore_InsertDocument_DuplicateIDIsConflict(t *testing.T) {
	s := store.NewMemoryStore()
	c := newCollection(t, s, "shapes", false)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	doc := store.Document{ID: "dup", CollectionID: c.ID, F: map[string]any{}}
	require.NoError(t, tx.InsertDocument(ctx, doc))
	require.NoError(t, tx.Commit(ctx))

	tx, err = s.BeginTx(ctx)
	require.NoError(t, err)
	err = tx.InsertDocument(ctx, doc)
	require.NoError(t, tx.Rollback(ctx))

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
}

func TestMemoryStore_FindCollectionByName_NotFound(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.FindCollectionByName(ctx, "missing")
	require.NoError(t, tx.Rollback(ctx))

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

func TestMemoryStore_ReplaceGrants_AndVisibility(t *testing.T) {
	s := store.NewMemoryStore()
	c := newCollection(t, s, "secrets", true)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	doc := store.Document{ID: "doc-1", CollectionID: c.ID, Owner: "owner-1", F: map[string]any{"title": "X"}}
	require.NoError(t, tx.InsertDocument(ctx, doc))
	require.NoError(t, tx.ReplaceGrants(ctx, doc.ID, []store.Grant{
		{Realm: store.RealmAuthor, Grant: "owner-1"},
		{Realm: store.RealmReadAllCollection, Grant: c.ID},
	}))
	require.NoError(t, tx.Commit(ctx))

	tx, err = s.BeginTx(ctx)
	require.NoError(t, err)
	items, total, err := tx.CountAndListDocuments(ctx, store.ListParams{
		CollectionID:     c.ID,
		VisibilityGrants: []store.GrantPair{{Realm: store.RealmAuthor, Grant: "someone-else"}},
		Limit:            50,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, 0, total)
	assert.Empty(t, items)

	tx, err = s.BeginTx(ctx)
	require.NoError(t, err)
	items, total, err = tx.CountAndListDocuments(ctx, store.ListParams{
		CollectionID:     c.ID,
		VisibilityGrants: []store.GrantPair{{Realm: store.RealmReadAllCollection, Grant: c.ID}},
		Limit:            50,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "X", items[0].F["title"])
}

func TestMemoryStore_CountAndListDocuments_Pagination(t *testing.T) {
	s := store.NewMemoryStore()
	c := newCollection(t, s, "bulk", false)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	for i := range 5 {
		id := string(rune('a' + i))
		require.NoError(t, tx.InsertDocument(ctx, store.Document{ID: id, CollectionID: c.ID, F: map[string]any{"title": id}}))
	}
	require.NoError(t, tx.Commit(ctx))

	tx, err = s.BeginTx(ctx)
	require.NoError(t, err)
	items, total, err := tx.CountAndListDocuments(ctx, store.ListParams{CollectionID: c.ID, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	assert.Equal(t, 5, total)
	assert.Len(t, items, 2)
}

func TestMemoryStore_CountAndListDocuments_FilterAndOr(t *testing.T) {
	s := store.NewMemoryStore()
	c := newCollection(t, s, "shapes", false)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertDocument(ctx, store.Document{ID: "sq", CollectionID: c.ID, F: map[string]any{"title": "Square", "edges": float64(4)}}))
	require.NoError(t, tx.InsertDocument(ctx, store.Document{ID: "tr", CollectionID: c.ID, F: map[string]any{"title": "Triangle", "edges": float64(3)}}))
	require.NoError(t, tx.Commit(ctx))

	filter := store.Filter{And: []store.Filter{
		{Field: "edges", Op: store.OpEq, Value: float64(4)},
		{Field: "title", Op: store.OpStartsWith, Value: "Sq"},
	}}

	tx, err = s.BeginTx(ctx)
	require.NoError(t, err)
	items, total, err := tx.CountAndListDocuments(ctx, store.ListParams{CollectionID: c.ID, Filter: &filter, Limit: 50})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "sq", items[0].ID)
}

func TestMemoryStore_EnqueueMail_VisibleOnStore(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.EnqueueMail(ctx, []mail.Message{
		{To: []string{"a@example.com"}, Subject: "hi"},
	}))
	require.NoError(t, tx.Commit(ctx))

	outbox := s.Outbox()
	require.Len(t, outbox, 1)
	assert.Equal(t, "hi", outbox[0].Subject)
}

func TestFilter_ParseRoundTrip(t *testing.T) {
	original := store.Filter{And: []store.Filter{
		{Field: "edges", Op: store.OpEq, Value: float64(4)},
		{Field: "title", Op: store.OpStartsWith, Value: "Sq"},
	}}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	parsed, err := store.ParseFilter(data)
	require.NoError(t, err)

	data2, err := json.Marshal(*parsed)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(data2))
}
