// Copyright (c) 2026 Folivafy authors. All rights reserved.

package hooks_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/hooks"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

type stubCreating struct{ called int }

func (s *stubCreating) OnCreating(ctx context.Context, docs *documents.Service, caller identity.Caller, collection store.Collection, f map[string]any) (hooks.Result, error) {
	s.called++
	return hooks.Result{Document: hooks.StoreDocument(f), Grants: hooks.DefaultGrants()}, nil
}

func TestRegistry_CreatingRegisterLookupReplace(t *testing.T) {
	r := hooks.NewRegistry()

	_, ok := r.Creating("widgets")
	assert.False(t, ok)

	first := &stubCreating{}
	r.RegisterCreating("widgets", first)
	got, ok := r.Creating("widgets")
	assert.True(t, ok)
	assert.Same(t, first, got)

	second := &stubCreating{}
	r.RegisterCreating("widgets", second)
	got, ok = r.Creating("widgets")
	assert.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistry_EventKeyedByCollectionAndCategory(t *testing.T) {
	r := hooks.NewRegistry()
	hook := &stubEvent{}

	r.RegisterEvent("widgets", 42, hook)

	_, ok := r.Event("widgets", 41)
	assert.False(t, ok)

	got, ok := r.Event("widgets", 42)
	assert.True(t, ok)
	assert.Same(t, hook, got)
}

type stubEvent struct{}

func (s *stubEvent) OnEvent(ctx context.Context, docs *documents.Service, caller identity.Caller, collection store.Collection, before store.Document, event store.Event) (hooks.Result, error) {
	return hooks.Result{}, nil
}

func TestRegistry_CronRegisterReplacesByName(t *testing.T) {
	r := hooks.NewRegistry()
	r.RegisterCron(hooks.CronJob{Name: "purge", Collection: "widgets"})
	r.RegisterCron(hooks.CronJob{Name: "purge", Collection: "gadgets"})

	jobs := r.CronJobs()
	assert.Len(t, jobs, 1)
	assert.Equal(t, "gadgets", jobs[0].Collection)
}

func TestRegistry_CopyOnWrite_SnapshotIsolation(t *testing.T) {
	r := hooks.NewRegistry()
	r.RegisterCreating("a", &stubCreating{})

	before := r.CronJobs()
	r.RegisterCron(hooks.CronJob{Name: "new-job"})
	after := r.CronJobs()

	assert.Len(t, before, 0)
	assert.Len(t, after, 1)
}
