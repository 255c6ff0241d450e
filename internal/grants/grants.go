// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package grants computes the default per-document ACL rows and the mirror
grant set a caller must hold to see a document, and answers the
visibility predicate the rest of the core is built on.

A collection may register a grants-hook (the orthogonal "Grants"
capability on [github.com/ErikWegner/folivafy-go/internal/hooks].Registry)
that overrides [DefaultDocumentGrants] and/or [DefaultUserGrants] for its
documents; this package only ever computes the fallback, and has no
dependency on the hook registry itself — the write pipeline and
maintenance package are the ones that decide whether to call a
registered hook or fall through to these defaults.
*/
package grants

import (
	"github.com/ErikWegner/folivafy-go/internal/store"
	"github.com/ErikWegner/folivafy-go/pkg/slice"
)

// Visibility is one of the three modes a read resolves to.
type Visibility int

const (
	// PublicReader is granted to every collection reader.
	PublicReader Visibility = iota
	// PrivateSelf restricts visibility to the document's own owner.
	PrivateSelf
	// PrivateAllReader restricts visibility to the owner plus any
	// caller holding the collection's all-reader role.
	PrivateAllReader
)

// ResolveVisibility maps a collection's oao flag and the caller's
// all-reader privilege to a [Visibility] mode: PrivateSelf if oao and
// not an all-reader, PrivateAllReader if oao and an all-reader,
// PublicReader otherwise.
func ResolveVisibility(oao, allReader bool) Visibility {
	switch {
	case oao && allReader:
		return PrivateAllReader
	case oao:
		return PrivateSelf
	default:
		return PublicReader
	}
}

// DefaultDocumentGrants computes the ACL rows a newly created document
// gets when no grants-hook overrides them.
//
// An oao collection's document is visible to its author plus anyone
// holding the all-reader grant for the collection; a non-oao document is
// visible to anyone holding the collection's general read grant.
func DefaultDocumentGrants(collectionOao bool, collectionID, userID string) []store.Grant {
	if collectionOao {
		return []store.Grant{
			{Realm: store.RealmAuthor, Grant: userID, View: true},
			{Realm: store.RealmReadAllCollection, Grant: collectionID, View: true},
		}
	}
	return []store.Grant{
		{Realm: store.RealmReadCollection, Grant: collectionID, View: true},
	}
}

// DefaultUserGrants computes the set of (realm, subject) pairs a caller
// must hold at least one of to see a document under the given
// visibility mode.
func DefaultUserGrants(visibility Visibility, collectionID, userID string) []store.GrantPair {
	switch visibility {
	case PrivateSelf:
		return []store.GrantPair{{Realm: store.RealmAuthor, Grant: userID}}
	case PrivateAllReader:
		return []store.GrantPair{
			{Realm: store.RealmAuthor, Grant: userID},
			{Realm: store.RealmReadAllCollection, Grant: collectionID},
		}
	default: // PublicReader
		return []store.GrantPair{{Realm: store.RealmReadCollection, Grant: collectionID}}
	}
}

// CanSee reports whether userGrants intersects documentGrants — the
// single visibility predicate every read path answers. The store's
// CountAndListDocuments compiles the same intersection into a SQL join
// predicate instead of calling this per row.
func CanSee(documentGrants []store.Grant, userGrants []store.GrantPair) bool {
	return slice.Intersects(
		documentGrants, userGrants,
		func(g store.Grant) store.GrantPair { return store.GrantPair{Realm: g.Realm, Grant: g.Grant} },
		func(p store.GrantPair) store.GrantPair { return p },
	)
}
