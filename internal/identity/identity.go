// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package identity resolves a verified bearer-token claim set into a [Caller]
value object and implements the per-collection role-name convention the
rest of the core checks against.

# Architecture

[JWTVerifier] checks a bearer token's signature and expiry; the HTTP
middleware calls it for every request. The verified claim set is turned
into the small, immutable value the rest of the core is built on: the
write pipeline, the grants engine and every hook receive a [Caller],
never a raw token or claim map.
*/
package identity

import "strings"

// Caller is the immutable identity of the principal making a request.
//
// It is passed by value into hooks: hooks never see the underlying JWT
// claim set, only {id, username, roles} and the derived helpers below.
type Caller struct {
	ID       string
	Username string
	Roles    map[string]struct{}
	// System is true for the cron driver's super-user principal. A
	// system caller bypasses the per-collection role checks in write
	// authorization — the cron driver's own document selector already
	// scoped what it may touch.
	System bool
}

// New constructs a [Caller] from a user id, username and role slice.
func New(id, username string, roles []string) Caller {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return Caller{ID: id, Username: username, Roles: set}
}

// HasRole reports whether the caller holds the exact named role.
func (c Caller) HasRole(role string) bool {
	_, ok := c.Roles[role]
	return ok
}

// IsCollectionAdmin reports whether the caller holds ADMIN_COLLECTIONS,
// the role that may create collections and run maintenance operations.
func (c Caller) IsCollectionAdmin() bool {
	return c.HasRole(RoleAdminCollections)
}

// RoleAdminCollections is the cross-collection role that may create
// collections and run "rebuild grants" maintenance.
const RoleAdminCollections = "ADMIN_COLLECTIONS"

const (
	suffixReader    = "READER"
	suffixEditor    = "EDITOR"
	suffixAllReader = "ALLREADER"
	suffixRemover   = "REMOVER"
	suffixAdmin     = "ADMIN"
)

// normalize upper-cases a collection name for role-name construction.
func normalize(collection string) string {
	return strings.ToUpper(collection)
}

func collectionRole(collection, suffix string) string {
	return "C_" + normalize(collection) + "_" + suffix
}

// ReaderRole, EditorRole, AllReaderRole, RemoverRole and AdminRole build the
// per-collection role names a [Caller] is checked against.
func ReaderRole(collection string) string    { return collectionRole(collection, suffixReader) }
func EditorRole(collection string) string    { return collectionRole(collection, suffixEditor) }
func AllReaderRole(collection string) string { return collectionRole(collection, suffixAllReader) }
func RemoverRole(collection string) string   { return collectionRole(collection, suffixRemover) }
func AdminRole(collection string) string     { return collectionRole(collection, suffixAdmin) }

// IsReader reports whether the caller may list and read non-oao documents
// (and its own oao documents) in collection.
func (c Caller) IsReader(collection string) bool {
	return c.HasRole(ReaderRole(collection)) || c.IsEditor(collection) || c.IsAdmin(collection)
}

// IsEditor reports whether the caller may create and update documents it
// owns in collection.
func (c Caller) IsEditor(collection string) bool {
	return c.HasRole(EditorRole(collection)) || c.IsAdmin(collection)
}

// IsAllReader reports whether the caller may read every document in
// collection, bypassing oao.
func (c Caller) IsAllReader(collection string) bool {
	return c.HasRole(AllReaderRole(collection)) || c.IsAdmin(collection)
}

// IsRemover reports whether the caller may trigger staged delete in
// collection.
func (c Caller) IsRemover(collection string) bool {
	return c.HasRole(RemoverRole(collection)) || c.IsAdmin(collection)
}

// IsAdmin reports whether the caller holds C_<COLLECTION>_ADMIN.
func (c Caller) IsAdmin(collection string) bool {
	return c.HasRole(AdminRole(collection))
}

// System returns the super-user [Caller] the cron driver runs as.
func System(userID string) Caller {
	return Caller{ID: userID, Username: "system", Roles: map[string]struct{}{}, System: true}
}
