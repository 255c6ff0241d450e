// Copyright (c) 2026 Folivafy authors. All rights reserved.

package stageddelete_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/hooks"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/pipeline"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/platform/constants"
	"github.com/ErikWegner/folivafy-go/internal/stageddelete"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

func TestParseConfig(t *testing.T) {
	configs, err := stageddelete.ParseConfig("(shapes,7,30),(widgets, 1 , 2)")
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, stageddelete.Config{Collection: "shapes", Stage1Days: 7, Stage2Days: 30}, configs[0])
	assert.Equal(t, stageddelete.Config{Collection: "widgets", Stage1Days: 1, Stage2Days: 2}, configs[1])
}

func TestParseConfig_Empty(t *testing.T) {
	configs, err := stageddelete.ParseConfig("")
	require.NoError(t, err)
	assert.Nil(t, configs)
}

func TestParseConfig_Malformed(t *testing.T) {
	_, err := stageddelete.ParseConfig("not a tuple")
	assert.Error(t, err)
}

func setup(t *testing.T) (*pipeline.Pipeline, store.Store, store.Collection) {
	t.Helper()
	s := store.NewMemoryStore()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	c := store.Collection{ID: "col-1", Name: "shapes", Title: "shapes"}
	require.NoError(t, tx.InsertCollection(ctx, c))
	require.NoError(t, tx.InsertDocument(ctx, store.Document{ID: "doc-1", CollectionID: c.ID, Owner: "owner-1", F: map[string]any{"title": "Square"}}))
	require.NoError(t, tx.Commit(ctx))

	docs := documents.New(s)
	registry := hooks.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	configs, err := stageddelete.ParseConfig("(shapes,7,30)")
	require.NoError(t, err)
	stageddelete.Register(registry, docs, configs, logger)

	p := pipeline.New(s, docs, registry, nil, logger)
	return p, s, c
}

func TestDeleteHook_RequiresRemoverRole(t *testing.T) {
	p, _, c := setup(t)
	caller := identity.New("u1", "reader", []string{identity.ReaderRole(c.Name)})
	_, err := p.AppendEvent(context.Background(), caller, c.Name, "doc-1", constants.CategoryDocumentDelete, map[string]any{})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "PERMISSION_DENIED", ae.Code)
}

func TestDeleteHook_MarksDeletedAndRejectsDoubleDelete(t *testing.T) {
	p, s, c := setup(t)
	caller := identity.New("u1", "remover", []string{identity.ReaderRole(c.Name), identity.RemoverRole(c.Name)})

	events, err := p.AppendEvent(context.Background(), caller, c.Name, "doc-1", constants.CategoryDocumentDelete, map[string]any{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.EqualValues(t, constants.CategoryDocumentDelete, events[0].CategoryID)

	tx, err := s.BeginTx(context.Background())
	require.NoError(t, err)
	doc, err := tx.FindDocument(context.Background(), c.ID, "doc-1")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))

	assert.True(t, documents.IsDeleted(doc.F))
	_, err = time.Parse(time.RFC3339, doc.F[documents.FieldDeletedAt].(string))
	require.NoError(t, err)

	_, err = p.AppendEvent(context.Background(), caller, c.Name, "doc-1", constants.CategoryDocumentDelete, map[string]any{})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "BAD_REQUEST", ae.Code)
	assert.Contains(t, ae.Message, "already deleted")
}

func TestDeleteHook_OnCron_LogsWithoutRemoving(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := store.NewMemoryStore()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	c := store.Collection{ID: "col-1", Name: "shapes", Title: "shapes"}
	require.NoError(t, tx.InsertCollection(ctx, c))
	require.NoError(t, tx.InsertDocument(ctx, store.Document{ID: "doc-1", CollectionID: c.ID, Owner: "owner-1", F: map[string]any{"title": "Square", documents.FieldDeletedAt: "2020-01-01T00:00:00Z"}}))
	require.NoError(t, tx.Commit(ctx))

	docs := documents.New(s)
	registry := hooks.NewRegistry()
	configs, err := stageddelete.ParseConfig("(shapes,7,30)")
	require.NoError(t, err)
	stageddelete.Register(registry, docs, configs, logger)

	p := pipeline.New(s, docs, registry, nil, logger)
	job, ok := func() (hooks.CronJob, bool) {
		for _, j := range registry.CronJobs() {
			if j.Collection == c.Name {
				return j, true
			}
		}
		return hooks.CronJob{}, false
	}()
	require.True(t, ok)

	system := identity.System("system-cron")
	require.NoError(t, p.RunCronHook(context.Background(), system, c, "doc-1", job.Hook))
	assert.Contains(t, buf.String(), "removal candidate")

	tx2, err := s.BeginTx(context.Background())
	require.NoError(t, err)
	doc, err := tx2.FindDocument(context.Background(), c.ID, "doc-1")
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback(context.Background()))
	assert.Equal(t, "2020-01-01T00:00:00Z", doc.F[documents.FieldDeletedAt])
}
