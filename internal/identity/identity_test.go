// Copyright (c) 2026 Folivafy authors. All rights reserved.

package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikWegner/folivafy-go/internal/identity"
)

func TestRoleNames_NormalizeCollectionToUppercase(t *testing.T) {
	assert.Equal(t, "C_INVOICES_READER", identity.ReaderRole("invoices"))
	assert.Equal(t, "C_INVOICES_EDITOR", identity.EditorRole("Invoices"))
	assert.Equal(t, "C_INVOICES_ALLREADER", identity.AllReaderRole("INVOICES"))
	assert.Equal(t, "C_INVOICES_REMOVER", identity.RemoverRole("invoices"))
	assert.Equal(t, "C_INVOICES_ADMIN", identity.AdminRole("invoices"))
}

func TestCaller_IsReader(t *testing.T) {
	reader := identity.New("u1", "alice", []string{"C_INVOICES_READER"})
	assert.True(t, reader.IsReader("invoices"))
	assert.False(t, reader.IsEditor("invoices"))
	assert.False(t, reader.IsReader("other"))
}

func TestCaller_EditorImpliesReader(t *testing.T) {
	editor := identity.New("u2", "bob", []string{"C_INVOICES_EDITOR"})
	assert.True(t, editor.IsReader("invoices"))
	assert.True(t, editor.IsEditor("invoices"))
	assert.False(t, editor.IsAllReader("invoices"))
}

func TestCaller_AdminImpliesEverything(t *testing.T) {
	admin := identity.New("u3", "carol", []string{"C_INVOICES_ADMIN"})
	assert.True(t, admin.IsReader("invoices"))
	assert.True(t, admin.IsEditor("invoices"))
	assert.True(t, admin.IsAllReader("invoices"))
	assert.True(t, admin.IsRemover("invoices"))
	assert.True(t, admin.IsAdmin("invoices"))
}

func TestCaller_IsCollectionAdmin(t *testing.T) {
	admin := identity.New("u4", "dave", []string{identity.RoleAdminCollections})
	assert.True(t, admin.IsCollectionAdmin())

	nonAdmin := identity.New("u5", "erin", []string{"C_INVOICES_READER"})
	assert.False(t, nonAdmin.IsCollectionAdmin())
}

func TestCaller_RolesAreCollectionScoped(t *testing.T) {
	c := identity.New("u6", "frank", []string{"C_INVOICES_EDITOR"})
	assert.False(t, c.IsEditor("receipts"))
}

func TestSystem_BypassesRoleChecks(t *testing.T) {
	sys := identity.System("cron-worker")
	assert.True(t, sys.System)
	assert.Equal(t, "system", sys.Username)
	assert.False(t, sys.IsReader("invoices"))
}
