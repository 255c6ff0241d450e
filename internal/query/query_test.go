// Copyright (c) 2026 Folivafy authors. All rights reserved.

package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/query"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

func setup(t *testing.T, oao bool) (*query.Engine, store.Store, store.Collection) {
	t.Helper()
	s := store.NewMemoryStore()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	c := store.Collection{ID: "col-1", Name: "widgets", Title: "widgets", Oao: oao}
	require.NoError(t, tx.InsertCollection(ctx, c))
	require.NoError(t, tx.Commit(ctx))
	return query.New(s, documents.New(s)), s, c
}

func insertDoc(t *testing.T, s store.Store, c store.Collection, id, owner string, f map[string]any, grantRows []store.Grant) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertDocument(ctx, store.Document{ID: id, CollectionID: c.ID, Owner: owner, F: f}))
	require.NoError(t, tx.ReplaceGrants(ctx, id, grantRows))
	require.NoError(t, tx.Commit(ctx))
}

func TestEngine_List_RequiresReader(t *testing.T) {
	e, _, _ := setup(t, false)
	caller := identity.New("u1", "nobody", nil)
	_, err := e.List(context.Background(), caller, "widgets", query.ListParams{Limit: 50})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "PERMISSION_DENIED", ae.Code)
}

func TestEngine_List_PublicCollectionVisibleToAnyReader(t *testing.T) {
	e, s, c := setup(t, false)
	insertDoc(t, s, c, "doc-1", "owner", map[string]any{"title": "X"}, []store.Grant{
		{Realm: store.RealmReadCollection, Grant: c.ID},
	})

	caller := identity.New("u1", "reader", []string{identity.ReaderRole("widgets")})
	result, err := e.List(context.Background(), caller, "widgets", query.ListParams{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
}

func TestEngine_List_OaoHidesOthersDocuments(t *testing.T) {
	e, s, c := setup(t, true)
	insertDoc(t, s, c, "doc-1", "owner", map[string]any{"title": "X"}, []store.Grant{
		{Realm: store.RealmAuthor, Grant: "owner"},
		{Realm: store.RealmReadAllCollection, Grant: c.ID},
	})

	stranger := identity.New("stranger", "stranger", []string{identity.ReaderRole("widgets")})
	result, err := e.List(context.Background(), stranger, "widgets", query.ListParams{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)

	owner := identity.New("owner", "owner", []string{identity.ReaderRole("widgets")})
	result, err = e.List(context.Background(), owner, "widgets", query.ListParams{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
}

func TestEngine_List_InvalidSortIsBadRequest(t *testing.T) {
	e, _, _ := setup(t, false)
	caller := identity.New("u1", "reader", []string{identity.ReaderRole("widgets")})
	_, err := e.List(context.Background(), caller, "widgets", query.ListParams{Sort: "not a sort", Limit: 50})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "BAD_REQUEST", ae.Code)
}

func TestEngine_Get_OwnerCanSeeOaoDocument(t *testing.T) {
	e, s, c := setup(t, true)
	insertDoc(t, s, c, "doc-1", "owner", map[string]any{"title": "X"}, []store.Grant{
		{Realm: store.RealmAuthor, Grant: "owner"},
	})

	owner := identity.New("owner", "owner", []string{identity.ReaderRole("widgets")})
	doc, events, err := e.Get(context.Background(), owner, "widgets", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Empty(t, events)

	stranger := identity.New("stranger", "stranger", []string{identity.ReaderRole("widgets")})
	_, _, err = e.Get(context.Background(), stranger, "widgets", "doc-1")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

func TestEngine_Get_RequiresReader(t *testing.T) {
	e, s, c := setup(t, false)
	insertDoc(t, s, c, "doc-1", "owner", map[string]any{"title": "X"}, []store.Grant{
		{Realm: store.RealmReadCollection, Grant: c.ID},
	})

	caller := identity.New("u1", "nobody", nil)
	_, _, err := e.Get(context.Background(), caller, "widgets", "doc-1")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "PERMISSION_DENIED", ae.Code)
}
