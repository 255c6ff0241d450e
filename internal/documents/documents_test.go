// Copyright (c) 2026 Folivafy authors. All rights reserved.

package documents_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

func TestIsDeleted(t *testing.T) {
	assert.False(t, documents.IsDeleted(map[string]any{}))
	assert.False(t, documents.IsDeleted(map[string]any{documents.FieldDeletedAt: ""}))
	assert.True(t, documents.IsDeleted(map[string]any{documents.FieldDeletedAt: "2026-07-30T00:00:00Z"}))
}

func TestMarkDeleted(t *testing.T) {
	f := map[string]any{"title": "Square"}
	at := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	marked := documents.MarkDeleted(f, documents.DeletedBy{ID: "u1", Title: "Square"}, at)

	assert.Equal(t, "Square", marked["title"])
	assert.Equal(t, "2026-07-30T12:00:00Z", marked[documents.FieldDeletedAt])
	assert.True(t, documents.IsDeleted(marked))
	assert.False(t, documents.IsDeleted(f), "original map must not be mutated")
}

func TestService_CollectionByName_CachesAfterFirstLookup(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertCollection(ctx, store.Collection{ID: "c1", Name: "shapes", Title: "Shapes"}))
	require.NoError(t, tx.Commit(ctx))

	svc := documents.New(s)
	c, err := svc.CollectionByName(ctx, "shapes")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)

	svc.Put(store.Collection{ID: "c1", Name: "shapes", Title: "Shapes", Locked: true})
	c, err = svc.CollectionByName(ctx, "shapes")
	require.NoError(t, err)
	assert.True(t, c.Locked)
}

func TestService_Document_NotFound(t *testing.T) {
	s := store.NewMemoryStore()
	svc := documents.New(s)
	_, err := svc.Document(context.Background(), "missing-collection", "missing-doc")
	require.Error(t, err)
}
