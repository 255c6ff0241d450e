// Copyright (c) 2026 Folivafy authors. All rights reserved.

package pipeline_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/hooks"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/pipeline"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

func newPipeline(t *testing.T) (*pipeline.Pipeline, store.Store, *hooks.Registry) {
	t.Helper()
	s := store.NewMemoryStore()
	docs := documents.New(s)
	registry := hooks.NewRegistry()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return pipeline.New(s, docs, registry, nil, logger), s, registry
}

func newCollection(t *testing.T, s store.Store, name string, oao, locked bool) store.Collection {
	t.Helper()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	c := store.Collection{ID: "col-" + name, Name: name, Title: name, Oao: oao, Locked: locked}
	require.NoError(t, tx.InsertCollection(ctx, c))
	require.NoError(t, tx.Commit(ctx))
	return c
}

func editorCaller(collection string) identity.Caller {
	return identity.New("u1", "alice", []string{identity.EditorRole(collection)})
}

func TestPipeline_Create_RequiresEditor(t *testing.T) {
	p, s, _ := newPipeline(t)
	newCollection(t, s, "widgets", false, false)

	reader := identity.New("u1", "alice", []string{identity.ReaderRole("widgets")})
	_, err := p.Create(context.Background(), reader, "widgets", "", map[string]any{"title": "x"})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "PERMISSION_DENIED", ae.Code)
}

func TestPipeline_Create_DefaultsGrantsAndSynthEvent(t *testing.T) {
	p, s, _ := newPipeline(t)
	c := newCollection(t, s, "widgets", false, false)
	caller := editorCaller("widgets")

	doc, err := p.Create(context.Background(), caller, "widgets", "", map[string]any{"title": "gizmo"})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)

	tx, err := s.BeginTx(context.Background())
	require.NoError(t, err)
	events, err := tx.ListEvents(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))
	require.Len(t, events, 1)
	assert.EqualValues(t, 1, events[0].CategoryID)

	tx, err = s.BeginTx(context.Background())
	require.NoError(t, err)
	grantRows, err := tx.DocumentGrants(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))
	require.Len(t, grantRows, 1)
	assert.Equal(t, store.RealmReadCollection, grantRows[0].Realm)
	assert.Equal(t, c.ID, grantRows[0].Grant)
}

func TestPipeline_Create_LockedCollectionRejected(t *testing.T) {
	p, s, _ := newPipeline(t)
	newCollection(t, s, "widgets", false, true)
	caller := editorCaller("widgets")

	_, err := p.Create(context.Background(), caller, "widgets", "", map[string]any{"title": "x"})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "BAD_REQUEST", ae.Code)
}

func TestPipeline_Create_HookVetoIsBadRequest(t *testing.T) {
	p, s, registry := newPipeline(t)
	newCollection(t, s, "widgets", false, false)
	registry.RegisterCreating("widgets", vetoHook{})
	caller := editorCaller("widgets")

	_, err := p.Create(context.Background(), caller, "widgets", "", map[string]any{"title": "x"})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "BAD_REQUEST", ae.Code)
}

type vetoHook struct{}

func (vetoHook) OnCreating(ctx context.Context, docs *documents.Service, caller identity.Caller, collection store.Collection, f map[string]any) (hooks.Result, error) {
	return hooks.Result{Document: hooks.NoUpdateResult()}, nil
}

func TestPipeline_Update_ChecksVisibility(t *testing.T) {
	p, s, _ := newPipeline(t)
	newCollection(t, s, "widgets", true, false)
	owner := identity.New("owner", "owner", []string{identity.EditorRole("widgets")})
	stranger := identity.New("stranger", "stranger", []string{identity.EditorRole("widgets")})

	doc, err := p.Create(context.Background(), owner, "widgets", "", map[string]any{"title": "mine"})
	require.NoError(t, err)

	_, err = p.Update(context.Background(), stranger, "widgets", doc.ID, map[string]any{"title": "stolen"})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "PERMISSION_DENIED", ae.Code)

	updated, err := p.Update(context.Background(), owner, "widgets", doc.ID, map[string]any{"title": "mine-v2"})
	require.NoError(t, err)
	assert.Equal(t, "mine-v2", updated.F["title"])
}

func TestPipeline_AppendEvent_RequiresRegisteredHook(t *testing.T) {
	p, s, _ := newPipeline(t)
	newCollection(t, s, "widgets", false, false)
	caller := editorCaller("widgets")
	doc, err := p.Create(context.Background(), caller, "widgets", "", map[string]any{"title": "x"})
	require.NoError(t, err)

	_, err = p.AppendEvent(context.Background(), caller, "widgets", doc.ID, 99, map[string]any{})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "BAD_REQUEST", ae.Code)
}

type echoEventHook struct{}

func (echoEventHook) OnEvent(ctx context.Context, docs *documents.Service, caller identity.Caller, collection store.Collection, before store.Document, event store.Event) (hooks.Result, error) {
	return hooks.Result{Events: []store.Event{event}}, nil
}

func TestPipeline_AppendEvent_RegisteredHookAppends(t *testing.T) {
	p, s, registry := newPipeline(t)
	c := newCollection(t, s, "widgets", false, false)
	registry.RegisterEvent("widgets", 7, echoEventHook{})
	caller := editorCaller("widgets")

	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertDocument(ctx, store.Document{ID: "doc-1", CollectionID: c.ID, Owner: caller.ID, F: map[string]any{"title": "x"}}))
	require.NoError(t, tx.Commit(ctx))

	events, err := p.AppendEvent(ctx, caller, "widgets", "doc-1", 7, map[string]any{"note": "hi"})
	require.NoError(t, err)
	require.Len(t, events, 1)
}
