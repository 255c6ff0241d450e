// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package pipeline implements the write-path state machine shared by
document creation, document update, and event append. All three entry
points run the same sequence of steps — authorize, load the
collection, resolve a hook, (for update/event) lock the existing row,
run the hook, persist everything in one transaction, then signal any
post-commit side effects — differing only in which steps apply and
which hook kind gets resolved.
*/
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/grants"
	"github.com/ErikWegner/folivafy-go/internal/hooks"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/platform/constants"
	"github.com/ErikWegner/folivafy-go/internal/store"
	"github.com/ErikWegner/folivafy-go/pkg/uuidv7"
)

// CronWaker signals the cron driver that a post-commit hook result
// requested an immediate tick instead of waiting for the next
// scheduled one. The write pipeline never talks to Redis directly;
// [github.com/ErikWegner/folivafy-go/internal/cron.Driver] provides the
// production implementation.
type CronWaker interface {
	Wake(ctx context.Context) error
}

// noopWaker is used when the pipeline is constructed without a real
// waker, e.g. in tests.
type noopWaker struct{}

func (noopWaker) Wake(ctx context.Context) error { return nil }

// Pipeline runs the write-path state machine against a [store.Store],
// consulting a [hooks.Registry] for hook resolution and a
// [documents.Service] for collection/document lookups.
type Pipeline struct {
	Store  store.Store
	Docs   *documents.Service
	Hooks  *hooks.Registry
	Waker  CronWaker
	Logger *slog.Logger
}

// New constructs a [Pipeline]. waker may be nil, in which case
// trigger_cron results are silently dropped until a real waker is
// assigned to the Waker field (tests keep the no-op; cmd/api assigns the
// cron driver right after constructing it).
func New(s store.Store, docs *documents.Service, registry *hooks.Registry, waker CronWaker, logger *slog.Logger) *Pipeline {
	if waker == nil {
		waker = noopWaker{}
	}
	return &Pipeline{Store: s, Docs: docs, Hooks: registry, Waker: waker, Logger: logger}
}

// Create runs the CREATE path: S0 authz -> S1 load_collection -> S2
// resolve_hook -> S4 run_hook -> S5 persist_tx -> S6 post_commit.
func (p *Pipeline) Create(ctx context.Context, caller identity.Caller, collectionName, docID string, f map[string]any) (store.Document, error) {
	if !caller.System && !caller.IsEditor(collectionName) {
		return store.Document{}, apperr.PermissionDenied("Editor role required")
	}

	collection, err := p.loadCollection(ctx, collectionName)
	if err != nil {
		return store.Document{}, err
	}

	if docID == "" {
		docID = uuidv7.New()
	}

	result, err := p.runCreatingHook(ctx, caller, collection, f)
	if err != nil {
		return store.Document{}, err
	}

	doc := store.Document{ID: docID, CollectionID: collection.ID, Owner: caller.ID}
	switch result.Document.Kind {
	case hooks.DocStore:
		doc.F = result.Document.Document
	case hooks.DocNoUpdate:
		return store.Document{}, apperr.BadRequest("Not accepted for storage")
	case hooks.DocErr:
		return store.Document{}, result.Document.Err
	}

	if result.Grants.Kind == hooks.GrantsNoChange {
		return store.Document{}, apperr.Internal(fmt.Errorf("pipeline: NoChange grants on create"))
	}

	if err := p.persist(ctx, caller, collection, doc, true, true, result); err != nil {
		return store.Document{}, err
	}
	p.postCommit(ctx, caller, collection, doc, result, nil)
	return doc, nil
}

// Update runs the UPDATE path: S0 authz -> S1 load_collection -> S2
// resolve_hook -> S3 lock_existing -> S4 run_hook -> S5 persist_tx ->
// S6 post_commit.
func (p *Pipeline) Update(ctx context.Context, caller identity.Caller, collectionName, docID string, f map[string]any) (store.Document, error) {
	if !caller.System && !caller.IsEditor(collectionName) {
		return store.Document{}, apperr.PermissionDenied("Editor role required")
	}

	collection, err := p.loadCollection(ctx, collectionName)
	if err != nil {
		return store.Document{}, err
	}

	tx, err := p.Store.BeginTx(ctx)
	if err != nil {
		return store.Document{}, err
	}
	defer tx.Rollback(ctx)

	existing, err := tx.LockDocument(ctx, collection.ID, docID)
	if err != nil {
		return store.Document{}, err
	}

	if !caller.System {
		userGrants := grants.DefaultUserGrants(grants.ResolveVisibility(collection.Oao, caller.IsAllReader(collection.Name)), collection.ID, caller.ID)
		documentGrants, err := tx.DocumentGrants(ctx, existing.ID)
		if err != nil {
			return store.Document{}, err
		}
		if !grants.CanSee(documentGrants, userGrants) {
			return store.Document{}, apperr.PermissionDenied("Not authorized for this document")
		}
	}

	result, err := p.runUpdatingHook(ctx, caller, collection, existing, f)
	if err != nil {
		return store.Document{}, err
	}

	doc := existing
	switch result.Document.Kind {
	case hooks.DocStore:
		doc.F = result.Document.Document
	case hooks.DocNoUpdate:
		return store.Document{}, apperr.BadRequest("Not accepted for storage")
	case hooks.DocErr:
		return store.Document{}, result.Document.Err
	}

	if err := p.persistWithTx(ctx, tx, caller, collection, doc, false, true, result); err != nil {
		return store.Document{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return store.Document{}, err
	}
	p.postCommit(ctx, caller, collection, doc, result, nil)
	return doc, nil
}

// AppendEvent runs the EVENT path. A collection opts in to a category
// solely by registering an event-creating hook for (collection,
// categoryID); a reader otherwise gets BadRequest("Event not
// accepted").
func (p *Pipeline) AppendEvent(ctx context.Context, caller identity.Caller, collectionName, docID string, categoryID int32, payload map[string]any) ([]store.Event, error) {
	if !caller.System && !caller.IsReader(collectionName) {
		return nil, apperr.PermissionDenied("Reader role required")
	}

	collection, err := p.loadCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	hook, ok := p.Hooks.Event(collection.Name, int(categoryID))
	if !ok {
		return nil, apperr.BadRequest("Event not accepted")
	}

	tx, err := p.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	before, err := tx.LockDocument(ctx, collection.ID, docID)
	if err != nil {
		return nil, err
	}

	event := store.Event{DocumentID: before.ID, User: caller.ID, CategoryID: categoryID, Payload: payload}
	result, err := hook.OnEvent(ctx, p.Docs, caller, collection, before, event)
	if err != nil {
		return nil, err
	}

	if result.Document.Kind == hooks.DocErr {
		return nil, result.Document.Err
	}
	if result.Document.Kind == hooks.DocNoUpdate && len(result.Events) == 0 {
		return nil, apperr.PermissionDenied("Event rejected")
	}

	doc := before
	if result.Document.Kind == hooks.DocStore {
		doc.F = result.Document.Document
	}

	if err := p.persistWithTx(ctx, tx, caller, collection, doc, false, false, result); err != nil {
		return nil, err
	}

	for _, mutation := range result.AdditionalDocuments {
		if err := tx.UpdateDocumentFields(ctx, mutation.CollectionID, mutation.DocumentID, mutation.F); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	events, err := p.Docs.EventTail(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	var postHook hooks.EventPostCommitHook
	if pc, ok := hook.(hooks.EventPostCommitHook); ok {
		postHook = pc
	}
	p.postCommit(ctx, caller, collection, doc, result, postHook)
	return events, nil
}

// RunCronHook locks docID, invokes hook, and persists its result within
// one dedicated transaction — the cron driver's own entry into S3
// lock_existing / S4 run_hook / S5 persist_tx / S6 post_commit. The
// caller is always a system [identity.Caller]; cron never enforces the
// per-collection role checks S0 would apply to a user request, since
// the job's own selector already scoped what it may touch.
func (p *Pipeline) RunCronHook(ctx context.Context, caller identity.Caller, collection store.Collection, docID string, hook hooks.CronHook) error {
	tx, err := p.Store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	doc, err := tx.LockDocument(ctx, collection.ID, docID)
	if err != nil {
		return err
	}

	result, err := hook.OnCron(ctx, p.Docs, caller, collection, doc)
	if err != nil {
		return err
	}

	switch result.Document.Kind {
	case hooks.DocStore:
		doc.F = result.Document.Document
	case hooks.DocErr:
		return result.Document.Err
	}

	if err := p.persistWithTx(ctx, tx, caller, collection, doc, false, false, result); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	p.postCommit(ctx, caller, collection, doc, result, nil)
	return nil
}

// loadCollection is S1: resolve the collection and reject a locked one.
// Locked collections still allow reads and the "rebuild grants"
// maintenance operation, neither of which goes through this pipeline.
func (p *Pipeline) loadCollection(ctx context.Context, name string) (store.Collection, error) {
	collection, err := p.Docs.CollectionByName(ctx, name)
	if err != nil {
		return store.Collection{}, err
	}
	if collection.Locked {
		return store.Collection{}, apperr.BadRequest("Read only collection")
	}
	return collection, nil
}

func (p *Pipeline) runCreatingHook(ctx context.Context, caller identity.Caller, collection store.Collection, f map[string]any) (hooks.Result, error) {
	hook, ok := p.Hooks.Creating(collection.Name)
	if !ok {
		return hooks.Result{Document: hooks.StoreDocument(f), Grants: hooks.DefaultGrants()}, nil
	}
	return hook.OnCreating(ctx, p.Docs, caller, collection, f)
}

func (p *Pipeline) runUpdatingHook(ctx context.Context, caller identity.Caller, collection store.Collection, existing store.Document, f map[string]any) (hooks.Result, error) {
	hook, ok := p.Hooks.Updating(collection.Name)
	if !ok {
		return hooks.Result{Document: hooks.StoreDocument(f), Grants: hooks.DefaultGrants()}, nil
	}
	return hook.OnUpdating(ctx, p.Docs, caller, collection, existing, f)
}

// persist opens its own transaction and commits it; used by Create,
// where no transaction is open yet when this is called.
func (p *Pipeline) persist(ctx context.Context, caller identity.Caller, collection store.Collection, doc store.Document, isCreate, synthesizeUpdateEvent bool, result hooks.Result) error {
	tx, err := p.Store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := p.persistWithTx(ctx, tx, caller, collection, doc, isCreate, synthesizeUpdateEvent, result); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// persistWithTx is S5 persist_tx: insert/update the document, append
// hook-returned events, synth the CATEGORY_DOCUMENT_UPDATES event for
// Create/Update, resolve grants, enqueue mail — all inside the
// caller's open transaction. synthesizeUpdateEvent is false for the
// EVENT and cron entry points, which never write a document-updates
// event of their own.
func (p *Pipeline) persistWithTx(ctx context.Context, tx store.Tx, caller identity.Caller, collection store.Collection, doc store.Document, isCreate, synthesizeUpdateEvent bool, result hooks.Result) error {
	if isCreate {
		if err := tx.InsertDocument(ctx, doc); err != nil {
			return err
		}
	} else {
		if err := tx.UpdateDocumentFields(ctx, collection.ID, doc.ID, doc.F); err != nil {
			return err
		}
	}

	if synthesizeUpdateEvent {
		synthetic := store.Event{
			DocumentID: doc.ID,
			User:       caller.ID,
			CategoryID: constants.CategoryDocumentUpdates,
			Payload:    map[string]any{"user": map[string]any{"id": caller.ID, "name": caller.Username}, "new": isCreate},
		}
		if _, err := tx.AppendEvent(ctx, synthetic); err != nil {
			return err
		}
	}

	for _, e := range result.Events {
		e.DocumentID = doc.ID
		if e.User == "" {
			e.User = caller.ID
		}
		if _, err := tx.AppendEvent(ctx, e); err != nil {
			return err
		}
	}

	if err := p.applyGrants(ctx, tx, collection, doc, caller, result.Grants); err != nil {
		return err
	}

	if len(result.Mails) > 0 {
		if err := tx.EnqueueMail(ctx, result.Mails); err != nil {
			return err
		}
	}

	return nil
}

func (p *Pipeline) applyGrants(ctx context.Context, tx store.Tx, collection store.Collection, doc store.Document, caller identity.Caller, decision hooks.GrantsResult) error {
	switch decision.Kind {
	case hooks.GrantsReplace:
		return tx.ReplaceGrants(ctx, doc.ID, decision.Grants)
	case hooks.GrantsNoChange:
		return nil
	default: // GrantsDefault
		if hook, ok := p.Hooks.Grants(collection.Name); ok {
			computed, err := hook.DocumentGrants(ctx, collection, doc.Owner)
			if err != nil {
				return err
			}
			return tx.ReplaceGrants(ctx, doc.ID, computed)
		}
		return tx.ReplaceGrants(ctx, doc.ID, grants.DefaultDocumentGrants(collection.Oao, collection.ID, doc.Owner))
	}
}

// postCommit is S6: wake the cron driver if requested, and run an
// optional post-commit hook in the background.
func (p *Pipeline) postCommit(ctx context.Context, caller identity.Caller, collection store.Collection, doc store.Document, result hooks.Result, postHook hooks.EventPostCommitHook) {
	if result.TriggerCron {
		if err := p.Waker.Wake(ctx); err != nil {
			p.Logger.ErrorContext(ctx, "pipeline: cron wake failed", "error", err)
		}
	}

	if postHook == nil {
		return
	}
	go func() {
		bgCtx := context.Background()
		if err := postHook.OnCreated(bgCtx, p.Docs, caller, collection, doc); err != nil {
			p.Logger.ErrorContext(bgCtx, "pipeline: post-commit hook failed", "document_id", doc.ID, "error", err)
		}
	}()
}
