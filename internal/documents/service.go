// Copyright (c) 2026 Folivafy authors. All rights reserved.

package documents

import (
	"context"
	"sync"

	"github.com/ErikWegner/folivafy-go/internal/store"
)

// Service is the in-memory cache of collection metadata, plus the
// read-only document/event accessors hooks use so hook code never opens
// its own transaction.
//
// Cache entries never expire during process lifetime: a collection's
// name/oao never change after creation, so the only field that can go
// stale is Locked. A cached entry is returned without consulting the
// store, so a Locked change made in the store is seen only after
// [Service.Put] or [Service.Invalidate] refreshes or drops that entry.
// A cold lookup always falls through to the store.
type Service struct {
	store store.Store

	mu     sync.RWMutex
	byName map[string]store.Collection
}

// New constructs a [Service] over s.
func New(s store.Store) *Service {
	return &Service{store: s, byName: make(map[string]store.Collection)}
}

// CollectionByName returns collection metadata, filling the cache on a
// miss.
func (svc *Service) CollectionByName(ctx context.Context, name string) (store.Collection, error) {
	svc.mu.RLock()
	c, ok := svc.byName[name]
	svc.mu.RUnlock()
	if ok {
		return c, nil
	}

	tx, err := svc.store.BeginTx(ctx)
	if err != nil {
		return store.Collection{}, err
	}
	defer tx.Rollback(ctx)

	c, err = tx.FindCollectionByName(ctx, name)
	if err != nil {
		return store.Collection{}, err
	}

	svc.put(c)
	return c, nil
}

// Put inserts or refreshes a cache entry, used right after a collection
// is created or its Locked flag is toggled so the next lookup doesn't
// need a round trip.
func (svc *Service) Put(c store.Collection) {
	svc.put(c)
}

func (svc *Service) put(c store.Collection) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.byName[c.Name] = c
}

// Invalidate drops a cached entry, forcing the next lookup to hit the
// store.
func (svc *Service) Invalidate(name string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	delete(svc.byName, name)
}

// Document looks up a single document in its own short-lived read-only
// transaction. Hooks use this instead of being handed a transaction
// handle, per the rule that hook code never opens its own transaction
// and never holds the pipeline's.
func (svc *Service) Document(ctx context.Context, collectionID, docID string) (store.Document, error) {
	tx, err := svc.store.BeginTx(ctx)
	if err != nil {
		return store.Document{}, err
	}
	defer tx.Rollback(ctx)
	return tx.FindDocument(ctx, collectionID, docID)
}

// EventTail returns a document's events, newest first, same caveat as
// [Service.Document] about transaction ownership.
func (svc *Service) EventTail(ctx context.Context, docID string) ([]store.Event, error) {
	tx, err := svc.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	return tx.ListEvents(ctx, docID)
}
