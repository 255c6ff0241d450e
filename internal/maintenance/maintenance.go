// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package maintenance implements the admin-only operations that operate
across a whole collection rather than one document: today, just
"rebuild grants", the idempotent re-derivation spec'd to run even
against a locked collection.
*/
package maintenance

import (
	"context"
	"fmt"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/grants"
	"github.com/ErikWegner/folivafy-go/internal/hooks"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

// batchSize bounds how many documents one rebuild-grants pass loads per
// round trip; a collection with more documents than this is walked page
// by page inside one call.
const batchSize = 200

// Service runs maintenance operations against a [store.Store], reusing
// the same grants defaults and grants-hook resolution the write
// pipeline uses so its output is always a fixed point the pipeline
// would itself have produced.
type Service struct {
	Store store.Store
	Docs  *documents.Service
	Hooks *hooks.Registry
}

// New constructs a [Service].
func New(s store.Store, docs *documents.Service, registry *hooks.Registry) *Service {
	return &Service{Store: s, Docs: docs, Hooks: registry}
}

// RebuildGrants walks every document in collectionName and replaces its
// stored grants with the freshly computed set: the registered
// [hooks.GrantsHook]'s DocumentGrants if one exists, else
// [grants.DefaultDocumentGrants]. It works on a locked collection —
// rebuild-grants is a read-adjacent maintenance step, not a write the
// lock is meant to block. It returns the number of documents updated.
func (s *Service) RebuildGrants(ctx context.Context, caller identity.Caller, collectionName string) (int, error) {
	if !caller.System && !caller.IsCollectionAdmin() {
		return 0, apperr.PermissionDenied("ADMIN_COLLECTIONS role required")
	}

	collection, err := s.Docs.CollectionByName(ctx, collectionName)
	if err != nil {
		return 0, err
	}

	grantsHook, hasHook := s.Hooks.Grants(collection.Name)

	updated := 0
	offset := 0
	for {
		tx, err := s.Store.BeginTx(ctx)
		if err != nil {
			return updated, err
		}

		items, total, err := tx.CountAndListDocuments(ctx, store.ListParams{
			CollectionID: collection.ID,
			Limit:        batchSize,
			Offset:       offset,
		})
		if err != nil {
			_ = tx.Rollback(ctx)
			return updated, err
		}

		for _, item := range items {
			doc, err := tx.FindDocument(ctx, collection.ID, item.ID)
			if err != nil {
				_ = tx.Rollback(ctx)
				return updated, err
			}

			computed, err := s.computeGrants(ctx, collection, doc, grantsHook, hasHook)
			if err != nil {
				_ = tx.Rollback(ctx)
				return updated, err
			}
			if err := tx.ReplaceGrants(ctx, doc.ID, computed); err != nil {
				_ = tx.Rollback(ctx)
				return updated, err
			}
			updated++
		}

		if err := tx.Commit(ctx); err != nil {
			return updated, err
		}

		offset += len(items)
		if offset >= total || len(items) == 0 {
			break
		}
	}

	return updated, nil
}

func (s *Service) computeGrants(ctx context.Context, collection store.Collection, doc store.Document, grantsHook hooks.GrantsHook, hasHook bool) ([]store.Grant, error) {
	if hasHook {
		computed, err := grantsHook.DocumentGrants(ctx, collection, doc.Owner)
		if err != nil {
			return nil, fmt.Errorf("maintenance: grants hook: %w", err)
		}
		return computed, nil
	}
	return grants.DefaultDocumentGrants(collection.Oao, collection.ID, doc.Owner), nil
}
