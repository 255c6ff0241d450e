// Copyright (c) 2026 Folivafy authors. All rights reserved.

package hooks

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// eventKey identifies an event-creating hook registration.
type eventKey struct {
	collection string
	categoryID int
}

// registrySnapshot is an immutable view of every registration. The
// registry swaps in a new snapshot on each write; readers always see a
// complete, consistent set without taking a lock.
type registrySnapshot struct {
	creating map[string]DocumentCreatingHook
	updating map[string]DocumentUpdatingHook
	events   map[eventKey]EventCreatingHook
	grants   map[string]GrantsHook
	cron     []CronJob
}

func emptySnapshot() *registrySnapshot {
	return &registrySnapshot{
		creating: make(map[string]DocumentCreatingHook),
		updating: make(map[string]DocumentUpdatingHook),
		events:   make(map[eventKey]EventCreatingHook),
		grants:   make(map[string]GrantsHook),
	}
}

// Registry resolves (collection, trigger) to a registered hook.
// Registration takes Registry's mutex and replaces the snapshot;
// lookups are a single atomic load plus a plain map read.
type Registry struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[registrySnapshot]
}

// NewRegistry constructs an empty [Registry].
func NewRegistry() *Registry {
	r := &Registry{}
	r.snapshot.Store(emptySnapshot())
	return r
}

func (r *Registry) current() *registrySnapshot {
	return r.snapshot.Load()
}

// RegisterCreating registers hook for collection's CREATE path,
// replacing any prior registration for the same collection.
func (r *Registry) RegisterCreating(collection string, hook DocumentCreatingHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.current().clone()
	next.creating[collection] = hook
	r.snapshot.Store(next)
}

// RegisterUpdating registers hook for collection's UPDATE path,
// replacing any prior registration for the same collection.
func (r *Registry) RegisterUpdating(collection string, hook DocumentUpdatingHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.current().clone()
	next.updating[collection] = hook
	r.snapshot.Store(next)
}

// RegisterEvent registers hook for (collection, categoryID),
// replacing any prior registration for the same key. A collection
// opts in to an event category solely by registering a hook for it.
func (r *Registry) RegisterEvent(collection string, categoryID int, hook EventCreatingHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.current().clone()
	next.events[eventKey{collection, categoryID}] = hook
	r.snapshot.Store(next)
}

// RegisterGrants registers hook as collection's grants-hook, replacing
// any prior registration for the same collection.
func (r *Registry) RegisterGrants(collection string, hook GrantsHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.current().clone()
	next.grants[collection] = hook
	r.snapshot.Store(next)
}

// RegisterCron adds job to the set of periodic tasks the cron driver
// runs. Cron jobs are identified by name; registering the same name
// twice replaces the prior job.
func (r *Registry) RegisterCron(job CronJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.current().clone()
	filtered := next.cron[:0]
	for _, existing := range next.cron {
		if existing.Name != job.Name {
			filtered = append(filtered, existing)
		}
	}
	next.cron = append(filtered, job)
	r.snapshot.Store(next)
}

// Creating looks up the CREATE hook registered for collection.
func (r *Registry) Creating(collection string) (DocumentCreatingHook, bool) {
	h, ok := r.current().creating[collection]
	return h, ok
}

// Updating looks up the UPDATE hook registered for collection.
func (r *Registry) Updating(collection string) (DocumentUpdatingHook, bool) {
	h, ok := r.current().updating[collection]
	return h, ok
}

// Event looks up the event-creating hook registered for (collection,
// categoryID). A collection that never registered a hook for this
// categoryID has not opted in to it.
func (r *Registry) Event(collection string, categoryID int) (EventCreatingHook, bool) {
	h, ok := r.current().events[eventKey{collection, categoryID}]
	return h, ok
}

// Grants looks up the grants-hook registered for collection.
func (r *Registry) Grants(collection string) (GrantsHook, bool) {
	h, ok := r.current().grants[collection]
	return h, ok
}

// CronJobs returns every registered cron job. The slice is a snapshot;
// the caller must not mutate it.
func (r *Registry) CronJobs() []CronJob {
	return r.current().cron
}

// clone returns a shallow copy of s with fresh maps, so a concurrent
// reader holding the old snapshot is unaffected by a write in
// progress.
func (s *registrySnapshot) clone() *registrySnapshot {
	next := &registrySnapshot{
		creating: make(map[string]DocumentCreatingHook, len(s.creating)),
		updating: make(map[string]DocumentUpdatingHook, len(s.updating)),
		events:   make(map[eventKey]EventCreatingHook, len(s.events)),
		grants:   make(map[string]GrantsHook, len(s.grants)),
		cron:     append([]CronJob(nil), s.cron...),
	}
	for k, v := range s.creating {
		next.creating[k] = v
	}
	for k, v := range s.updating {
		next.updating[k] = v
	}
	for k, v := range s.events {
		next.events[k] = v
	}
	for k, v := range s.grants {
		next.grants[k] = v
	}
	return next
}

// String renders the key for debugging/logging.
func (k eventKey) String() string {
	return k.collection + "#" + strconv.Itoa(k.categoryID)
}
