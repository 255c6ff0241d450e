// Copyright (c) 2026 Folivafy authors. All rights reserved.

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/platform/ctxutil"
	"github.com/ErikWegner/folivafy-go/internal/query"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

func TestRecoverablesHandler_List_RequiresReader(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertCollection(ctx, store.Collection{ID: "col-1", Name: "widgets", Title: "widgets"}))
	require.NoError(t, tx.Commit(ctx))

	q := query.New(s, documents.New(s))
	h := NewRecoverablesHandler(q)

	request := httptest.NewRequest(http.MethodGet, "/api/recoverables/widgets?limit=25", nil)
	request = requestWithCollectionParam(request, "widgets")
	caller := identity.New("u1", "nobody", nil)
	request = request.WithContext(ctxutil.WithCaller(request.Context(), caller))
	recorder := httptest.NewRecorder()

	h.list(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRecoverablesHandler_List_EmptyForFreshCollection(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertCollection(ctx, store.Collection{ID: "col-1", Name: "widgets", Title: "widgets"}))
	require.NoError(t, tx.Commit(ctx))

	q := query.New(s, documents.New(s))
	h := NewRecoverablesHandler(q)

	request := httptest.NewRequest(http.MethodGet, "/api/recoverables/widgets", nil)
	request = requestWithCollectionParam(request, "widgets")
	caller := identity.New("u1", "reader", []string{identity.ReaderRole("widgets")})
	request = request.WithContext(ctxutil.WithCaller(request.Context(), caller))
	recorder := httptest.NewRecorder()

	h.list(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
}
