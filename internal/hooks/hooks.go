// Copyright (c) 2026 Folivafy authors. All rights reserved.

package hooks

import (
	"context"
	"time"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

// DocumentMutation is one additional document an event-creating hook
// wants written alongside the event's own subject, e.g. a
// cross-document side effect.
type DocumentMutation struct {
	CollectionID string
	DocumentID   string
	F            map[string]any
}

// DocumentCreatingHook intercepts a CREATE before its document is
// persisted.
type DocumentCreatingHook interface {
	OnCreating(ctx context.Context, docs *documents.Service, caller identity.Caller, collection store.Collection, f map[string]any) (Result, error)
}

// DocumentUpdatingHook intercepts an UPDATE before the replacement
// payload is persisted. existing is the row under the S3 row lock.
type DocumentUpdatingHook interface {
	OnUpdating(ctx context.Context, docs *documents.Service, caller identity.Caller, collection store.Collection, existing store.Document, f map[string]any) (Result, error)
}

// EventCreatingHook intercepts an event append. It receives the
// document as it stood before the event and the event being appended,
// and may return additional mutated documents via
// [Result.AdditionalDocuments] for cross-document effects.
type EventCreatingHook interface {
	OnEvent(ctx context.Context, docs *documents.Service, caller identity.Caller, collection store.Collection, before store.Document, event store.Event) (Result, error)
}

// EventPostCommitHook is an optional capability an [EventCreatingHook]
// may also implement: if it does, the write pipeline runs OnCreated in
// a background task with an independent context once the triggering
// event's transaction has committed. Its error is logged, never
// surfaced to the client.
type EventPostCommitHook interface {
	OnCreated(ctx context.Context, docs *documents.Service, caller identity.Caller, collection store.Collection, doc store.Document) error
}

// CronHook runs against one document matched by its [CronJob]'s
// selector, inside a dedicated transaction opened by the cron driver.
type CronHook interface {
	OnCron(ctx context.Context, docs *documents.Service, caller identity.Caller, collection store.Collection, doc store.Document) (Result, error)
}

// GrantsHook overrides the grants engine's defaults for one
// collection.
type GrantsHook interface {
	DocumentGrants(ctx context.Context, collection store.Collection, ownerID string) ([]store.Grant, error)
	UserGrants(ctx context.Context, collection store.Collection, caller identity.Caller) ([]store.GrantPair, error)
}

// SelectorKind tags the predicate a [CronJob] matches documents
// against.
type SelectorKind int

const (
	// ByFieldEqualsValue matches documents whose f[Field] equals
	// Value.
	ByFieldEqualsValue SelectorKind = iota
	// ByDateFieldOlderThan matches documents whose f[Field] is a UTC
	// RFC3339 timestamp string at or before now minus OlderThan. The
	// comparison is on the strings, so values written in another
	// offset or layout are not compared as instants.
	ByDateFieldOlderThan
)

// Selector is the cron matching predicate, translated into a
// [store.Filter] by the cron driver before querying.
type Selector struct {
	Kind      SelectorKind
	Field     string
	Value     any
	OlderThan time.Duration
}

// CronJob is one registered periodic task: on every tick, the cron
// driver selects documents in Collection matching Selector and invokes
// Hook on each through the write pipeline's persist step.
type CronJob struct {
	Name       string
	Collection string
	Selector   Selector
	Hook       CronHook
}
