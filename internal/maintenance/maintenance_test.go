// Copyright (c) 2026 Folivafy authors. All rights reserved.

package maintenance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/hooks"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/maintenance"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

func setup(t *testing.T, oao, locked bool) (*maintenance.Service, store.Store, store.Collection) {
	t.Helper()
	s := store.NewMemoryStore()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	c := store.Collection{ID: "col-1", Name: "shapes", Title: "shapes", Oao: oao, Locked: locked}
	require.NoError(t, tx.InsertCollection(ctx, c))
	require.NoError(t, tx.Commit(ctx))

	return maintenance.New(s, documents.New(s), hooks.NewRegistry()), s, c
}

func insertDocNoGrants(t *testing.T, s store.Store, c store.Collection, id, owner string) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertDocument(ctx, store.Document{ID: id, CollectionID: c.ID, Owner: owner, F: map[string]any{"title": "x"}}))
	require.NoError(t, tx.Commit(ctx))
}

func TestService_RebuildGrants_RequiresAdminRole(t *testing.T) {
	svc, _, c := setup(t, false, false)
	caller := identity.New("u1", "nobody", nil)
	_, err := svc.RebuildGrants(context.Background(), caller, c.Name)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "PERMISSION_DENIED", ae.Code)
}

func TestService_RebuildGrants_RunsOnLockedCollection(t *testing.T) {
	svc, s, c := setup(t, true, true)
	insertDocNoGrants(t, s, c, "doc-1", "owner-1")

	admin := identity.New("admin", "admin", []string{identity.RoleAdminCollections})
	count, err := svc.RebuildGrants(context.Background(), admin, c.Name)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	tx, err := s.BeginTx(context.Background())
	require.NoError(t, err)
	g, err := tx.DocumentGrants(context.Background(), "doc-1")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))
	require.Len(t, g, 2)
	assert.Equal(t, store.RealmAuthor, g[0].Realm)
	assert.Equal(t, "owner-1", g[0].Grant)
}

func TestService_RebuildGrants_IsIdempotent(t *testing.T) {
	svc, s, c := setup(t, false, false)
	insertDocNoGrants(t, s, c, "doc-1", "owner-1")
	insertDocNoGrants(t, s, c, "doc-2", "owner-2")

	admin := identity.New("admin", "admin", []string{identity.RoleAdminCollections})
	_, err := svc.RebuildGrants(context.Background(), admin, c.Name)
	require.NoError(t, err)

	tx, err := s.BeginTx(context.Background())
	require.NoError(t, err)
	first, err := tx.DocumentGrants(context.Background(), "doc-1")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))

	count, err := svc.RebuildGrants(context.Background(), admin, c.Name)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	tx2, err := s.BeginTx(context.Background())
	require.NoError(t, err)
	second, err := tx2.DocumentGrants(context.Background(), "doc-1")
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback(context.Background()))

	assert.Equal(t, stripIDs(first), stripIDs(second))
}

// stripIDs drops the store-assigned id so two rebuild-grants passes can
// be compared as sets: ReplaceGrants always deletes and re-inserts, so
// ids differ between calls even when the grant content is identical.
func stripIDs(gs []store.Grant) []store.Grant {
	out := make([]store.Grant, len(gs))
	for i, g := range gs {
		g.ID = 0
		out[i] = g
	}
	return out
}
