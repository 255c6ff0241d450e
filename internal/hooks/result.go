// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package hooks defines the result envelope every registered hook returns
and the registry that resolves (collection, trigger) to a hook
implementation.
*/
package hooks

import (
	"github.com/ErikWegner/folivafy-go/internal/mail"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

// DocumentResultKind tags what a hook wants done with the document
// being created, updated, or mutated by an event.
type DocumentResultKind int

const (
	// DocNoUpdate vetoes the write. It is the zero value so a hook
	// result built without StoreDocument never silently overwrites a
	// document with a nil payload.
	DocNoUpdate DocumentResultKind = iota
	// DocStore replaces the persisted f with Document.
	DocStore
	// DocErr surfaces Err directly, bypassing the pipeline's own
	// error mapping.
	DocErr
)

// DocumentResult is the document half of a hook [Result].
type DocumentResult struct {
	Kind     DocumentResultKind
	Document map[string]any
	Err      error
}

// StoreDocument builds a DocStore result carrying the replacement
// payload.
func StoreDocument(f map[string]any) DocumentResult {
	return DocumentResult{Kind: DocStore, Document: f}
}

// NoUpdateResult builds a DocNoUpdate result.
func NoUpdateResult() DocumentResult {
	return DocumentResult{Kind: DocNoUpdate}
}

// ErrResult builds a DocErr result wrapping err.
func ErrResult(err error) DocumentResult {
	return DocumentResult{Kind: DocErr, Err: err}
}

// GrantsResultKind tags how a hook wants the document's grants to be
// resolved by S5 persist_tx.
type GrantsResultKind int

const (
	// GrantsDefault asks the pipeline to recompute grants via the
	// grants engine's defaults.
	GrantsDefault GrantsResultKind = iota
	// GrantsReplace asks the pipeline to store Grants verbatim.
	GrantsReplace
	// GrantsNoChange asks the pipeline to leave previously stored
	// grants untouched. Valid only on UPDATE/EVENT; an error on
	// CREATE, since a newly created document has nothing to keep.
	GrantsNoChange
)

// GrantsResult is the grants half of a hook [Result].
type GrantsResult struct {
	Kind   GrantsResultKind
	Grants []store.Grant
}

// DefaultGrants builds a GrantsDefault result.
func DefaultGrants() GrantsResult {
	return GrantsResult{Kind: GrantsDefault}
}

// ReplaceGrantsResult builds a GrantsReplace result carrying grants
// verbatim.
func ReplaceGrantsResult(grants []store.Grant) GrantsResult {
	return GrantsResult{Kind: GrantsReplace, Grants: grants}
}

// NoChangeGrants builds a GrantsNoChange result.
func NoChangeGrants() GrantsResult {
	return GrantsResult{Kind: GrantsNoChange}
}

// Result is the common envelope every hook kind returns. The write
// pipeline applies Document and Grants inside S5's single transaction,
// appends Events, enqueues Mails, and — if TriggerCron is set — signals
// the cron driver in S6 once the transaction has committed.
type Result struct {
	Document    DocumentResult
	Grants      GrantsResult
	Events      []store.Event
	Mails       []mail.Message
	TriggerCron bool

	// AdditionalDocuments holds documents an event-creating hook wants
	// mutated besides the event's own subject. Only ever populated by
	// EventCreatingHook results.
	AdditionalDocuments []DocumentMutation
}
