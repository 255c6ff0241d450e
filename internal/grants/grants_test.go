// Copyright (c) 2026 Folivafy authors. All rights reserved.

package grants_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikWegner/folivafy-go/internal/grants"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

func TestResolveVisibility(t *testing.T) {
	assert.Equal(t, grants.PublicReader, grants.ResolveVisibility(false, false))
	assert.Equal(t, grants.PublicReader, grants.ResolveVisibility(false, true))
	assert.Equal(t, grants.PrivateSelf, grants.ResolveVisibility(true, false))
	assert.Equal(t, grants.PrivateAllReader, grants.ResolveVisibility(true, true))
}

func TestDefaultDocumentGrants_Oao(t *testing.T) {
	g := grants.DefaultDocumentGrants(true, "col-1", "user-1")
	assert.Equal(t, []store.Grant{
		{Realm: store.RealmAuthor, Grant: "user-1", View: true},
		{Realm: store.RealmReadAllCollection, Grant: "col-1", View: true},
	}, g)
}

func TestDefaultDocumentGrants_NonOao(t *testing.T) {
	g := grants.DefaultDocumentGrants(false, "col-1", "user-1")
	assert.Equal(t, []store.Grant{
		{Realm: store.RealmReadCollection, Grant: "col-1", View: true},
	}, g)
}

func TestCanSee_Intersects(t *testing.T) {
	docGrants := grants.DefaultDocumentGrants(true, "col-1", "owner")
	ownerGrants := grants.DefaultUserGrants(grants.PrivateSelf, "col-1", "owner")
	otherGrants := grants.DefaultUserGrants(grants.PrivateSelf, "col-1", "someone-else")

	assert.True(t, grants.CanSee(docGrants, ownerGrants))
	assert.False(t, grants.CanSee(docGrants, otherGrants))

	allReaderGrants := grants.DefaultUserGrants(grants.PrivateAllReader, "col-1", "someone-else")
	assert.True(t, grants.CanSee(docGrants, allReaderGrants))
}
