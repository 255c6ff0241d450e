// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package store is the sole owner of transactional persistence for
collections, documents, events and grants.

Every write path (the write pipeline, the cron driver, maintenance) opens
exactly one transaction, performs its reads and writes through the [Tx] it
gets back, and commits or rolls it back itself — the transaction handle is
never smuggled through a context value. Hook code is never handed that
[Tx]; it reads through documents.Service, which opens its own short-lived
transactions.
*/
package store

import (
	"context"
	"errors"

	"github.com/ErikWegner/folivafy-go/internal/mail"
)

// ErrTxRolledBack is returned by a [Tx] method invoked after the
// transaction has already been rolled back or committed.
var ErrTxRolledBack = errors.New("store: transaction already closed")

// Store opens transactions. Every other operation lives on the [Tx] it
// returns.
type Store interface {
	// BeginTx starts a new transaction. The caller must call exactly one
	// of Commit or Rollback on the returned Tx.
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is a single transactional unit of work against the folivafy schema.
//
// All methods return a client-safe *[apperr.AppError] on failure (see
// [github.com/ErikWegner/folivafy-go/internal/platform/dberr]); callers
// do not need to inspect driver-specific error types.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// # Collections

	// FindCollectionByName looks up a collection by its unique name.
	//
	// Returns: apperr.NotFound if no collection with that name exists.
	FindCollectionByName(ctx context.Context, name string) (Collection, error)

	// FindCollectionByID looks up a collection by id.
	//
	// Returns: apperr.NotFound if no such collection exists.
	FindCollectionByID(ctx context.Context, id string) (Collection, error)

	// InsertCollection creates a new collection row.
	//
	// Returns: apperr.Conflict if name is already taken.
	InsertCollection(ctx context.Context, c Collection) error

	// ListCollections returns a page of collections ordered by name.
	ListCollections(ctx context.Context, limit, offset int) ([]Collection, int, error)

	// SetCollectionLocked toggles the locked flag on an existing collection.
	SetCollectionLocked(ctx context.Context, id string, locked bool) error

	// # Documents

	// FindDocument looks up a document without taking a row lock.
	//
	// Returns: apperr.NotFound if no such document exists in collectionID.
	FindDocument(ctx context.Context, collectionID, docID string) (Document, error)

	// LockDocument looks up a document and takes a row-level exclusive
	// lock on it for the remainder of the transaction (SELECT ... FOR
	// UPDATE). Two concurrent transactions calling LockDocument on the
	// same (collectionID, docID) serialize; the second sees the first's
	// committed effect once it proceeds.
	//
	// Returns: apperr.NotFound if no such document exists.
	LockDocument(ctx context.Context, collectionID, docID string) (Document, error)

	// InsertDocument creates a new document row.
	//
	// Returns: apperr.Conflict ("Duplicate document") on a (collectionID,
	// id) unique violation.
	InsertDocument(ctx context.Context, d Document) error

	// UpdateDocumentFields overwrites the stored f object for an existing
	// document. The caller must already hold the row lock via
	// LockDocument in this same transaction.
	UpdateDocumentFields(ctx context.Context, collectionID, docID string, f map[string]any) error

	// # Events

	// AppendEvent inserts a new event row. The returned Event has its ID
	// and Timestamp set by the store. Events for one document are
	// totally ordered by the returned ID.
	AppendEvent(ctx context.Context, e Event) (Event, error)

	// ListEvents returns every event for docID, newest first (descending
	// id).
	ListEvents(ctx context.Context, docID string) ([]Event, error)

	// # Grants

	// ReplaceGrants atomically deletes every existing grant row for
	// docID and inserts newGrants in its place.
	ReplaceGrants(ctx context.Context, docID string, newGrants []Grant) error

	// DocumentGrants returns the grant rows currently stored for docID.
	DocumentGrants(ctx context.Context, docID string) ([]Grant, error)

	// # Listing

	// CountAndListDocuments returns one page of documents in
	// params.CollectionID together with the total match count. Each item
	// carries the document id and an f reduced to "title" plus
	// params.ExtraFields, so whole documents are never shipped for a list
	// response.
	CountAndListDocuments(ctx context.Context, params ListParams) ([]ProjectedDocument, int, error)

	// # Mail

	// EnqueueMail inserts one outbox row per message, in the same
	// transaction as whatever write produced them. A background drainer
	// picks unsent rows up independently; this method never sends mail
	// itself.
	EnqueueMail(ctx context.Context, messages []mail.Message) error
}
