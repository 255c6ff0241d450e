// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package query implements the read path: list, with its visibility
resolution, extra-field projection and sort, and get, which returns a
full document plus its event tail.
*/
package query

import (
	"context"
	"strings"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/grants"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/platform/validate"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

// Engine answers list/get against a [store.Store], resolving visibility
// through the same [grants] package the write pipeline uses.
type Engine struct {
	Store store.Store
	Docs  *documents.Service
}

// New constructs an [Engine].
func New(s store.Store, docs *documents.Service) *Engine {
	return &Engine{Store: s, Docs: docs}
}

// ListParams is the caller-facing request shape for [Engine.List],
// still in its raw query-string form; parsing/validation happens here
// rather than at the HTTP edge so the engine is usable without an
// HTTP request in front of it (e.g. from the cron driver's own
// listings, if it ever needs one).
type ListParams struct {
	ExactTitle  string
	ExtraFields string // comma list, validated against ^[A-Za-z0-9]+(,[A-Za-z0-9]+)*$
	Sort        string // comma list of dotted.path+/- , validated
	Filter      *store.Filter
	Limit       int
	Offset      int
}

// ListResult mirrors the {limit, offset, total, items} response shape.
type ListResult struct {
	Limit  int
	Offset int
	Total  int
	Items  []store.ProjectedDocument
}

// List resolves visibility for caller against collectionName, validates
// extra_fields/sort, and delegates to the store's single-round-trip
// count+page query.
func (e *Engine) List(ctx context.Context, caller identity.Caller, collectionName string, params ListParams) (ListResult, error) {
	collection, err := e.Docs.CollectionByName(ctx, collectionName)
	if err != nil {
		return ListResult{}, err
	}

	if !caller.System && !caller.IsReader(collection.Name) {
		return ListResult{}, apperr.PermissionDenied("Reader role required")
	}

	v := &validate.Validator{}
	v.ExtraFields("extra_fields", params.ExtraFields)
	v.Sort("sort", params.Sort)
	if err := v.Err(); err != nil {
		return ListResult{}, err
	}

	visibility := grants.ResolveVisibility(collection.Oao, caller.IsAllReader(collection.Name))
	var visibilityGrants []store.GrantPair
	if !caller.System {
		visibilityGrants = grants.DefaultUserGrants(visibility, collection.ID, caller.ID)
	}

	listParams := store.ListParams{
		CollectionID:     collection.ID,
		ExactTitle:       params.ExactTitle,
		VisibilityGrants: visibilityGrants,
		Filter:           params.Filter,
		ExtraFields:      splitCSV(params.ExtraFields),
		Sort:             parseSort(params.Sort),
		Limit:            params.Limit,
		Offset:           params.Offset,
	}

	tx, err := e.Store.BeginTx(ctx)
	if err != nil {
		return ListResult{}, err
	}
	defer tx.Rollback(ctx)

	items, total, err := tx.CountAndListDocuments(ctx, listParams)
	if err != nil {
		return ListResult{}, err
	}

	return ListResult{Limit: params.Limit, Offset: params.Offset, Total: total, Items: items}, nil
}

// Get returns the full document plus its events newest-first. The
// caller must hold the collection's Reader role (or Admin/AllReader/
// System), and must additionally hold a user-grant intersecting the
// document's stored grants unless Admin or AllReader. A grants miss is
// reported as NotFound, not PermissionDenied, so a non-owner reader on
// an oao collection can't distinguish "absent" from "not mine to see".
func (e *Engine) Get(ctx context.Context, caller identity.Caller, collectionName, docID string) (store.Document, []store.Event, error) {
	collection, err := e.Docs.CollectionByName(ctx, collectionName)
	if err != nil {
		return store.Document{}, nil, err
	}

	tx, err := e.Store.BeginTx(ctx)
	if err != nil {
		return store.Document{}, nil, err
	}
	defer tx.Rollback(ctx)

	if !caller.System && !caller.IsReader(collection.Name) {
		return store.Document{}, nil, apperr.PermissionDenied("Reader role required")
	}

	doc, err := tx.FindDocument(ctx, collection.ID, docID)
	if err != nil {
		return store.Document{}, nil, err
	}

	if !caller.System && !caller.IsAdmin(collection.Name) && !caller.IsAllReader(collection.Name) {
		documentGrants, err := tx.DocumentGrants(ctx, doc.ID)
		if err != nil {
			return store.Document{}, nil, err
		}
		visibility := grants.ResolveVisibility(collection.Oao, false)
		userGrants := grants.DefaultUserGrants(visibility, collection.ID, caller.ID)
		if !grants.CanSee(documentGrants, userGrants) {
			return store.Document{}, nil, apperr.NotFound("Document")
		}
	}

	events, err := tx.ListEvents(ctx, doc.ID)
	if err != nil {
		return store.Document{}, nil, err
	}

	return doc, events, nil
}

// Recoverables lists documents in collectionName that carry a non-empty
// folivafy_deleted_at, i.e. candidates a staged-delete REMOVER could
// still restore. Requires the same reader visibility as [Engine.List].
func (e *Engine) Recoverables(ctx context.Context, caller identity.Caller, collectionName string, limit, offset int) (ListResult, error) {
	return e.List(ctx, caller, collectionName, ListParams{
		Filter: &store.Filter{Field: documents.FieldDeletedAt, Op: store.OpNotNull},
		Limit:  limit,
		Offset: offset,
	})
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// parseSort turns "a.b+,c-" into descending-aware dotted [store.SortKey]
// values; grammar is already enforced by [validate.Validator.Sort].
func parseSort(s string) []store.SortKey {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	keys := make([]store.SortKey, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		dir := p[len(p)-1]
		path := p[:len(p)-1]
		keys = append(keys, store.SortKey{Path: strings.Split(path, "."), Descending: dir == '-'})
	}
	return keys
}
