// Copyright (c) 2026 Folivafy authors. All rights reserved.

package store

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ErikWegner/folivafy-go/internal/mail"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/pkg/uuidv7"
)

// MemoryStore is an in-process [Store] used by package tests that do not
// need a live PostgreSQL instance. It holds one global lock for the
// duration of each transaction, which is coarser than row-level locking
// but preserves the same observable guarantee: two concurrent
// transactions touching the same document serialize.
type MemoryStore struct {
	mu sync.Mutex

	collections map[string]Collection
	byName      map[string]string // name -> collection id

	documents map[string]map[string]Document // collectionID -> docID -> Document
	events    map[string][]Event             // docID -> events, ascending id
	grants    map[string][]Grant             // docID -> grants
	outbox    []mail.Message

	nextEventID int64
	nextGrantID int64
}

// Outbox returns every message enqueued so far, for test assertions.
func (s *MemoryStore) Outbox() []mail.Message {
	return append([]mail.Message(nil), s.outbox...)
}

// NewMemoryStore constructs an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]Collection),
		byName:      make(map[string]string),
		documents:   make(map[string]map[string]Document),
		events:      make(map[string][]Event),
		grants:      make(map[string][]Grant),
	}
}

func (s *MemoryStore) BeginTx(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	return &memTx{s: s}, nil
}

// memTx implements [Tx] against a [MemoryStore] while holding its lock.
type memTx struct {
	s      *MemoryStore
	closed bool
}

func (t *memTx) checkOpen() error {
	if t.closed {
		return apperr.Internal(ErrTxRolledBack)
	}
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.s.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.s.mu.Unlock()
	return nil
}

func (t *memTx) FindCollectionByName(ctx context.Context, name string) (Collection, error) {
	if err := t.checkOpen(); err != nil {
		return Collection{}, err
	}
	id, ok := t.s.byName[name]
	if !ok {
		return Collection{}, apperr.NotFound("Collection")
	}
	return t.s.collections[id], nil
}

func (t *memTx) FindCollectionByID(ctx context.Context, id string) (Collection, error) {
	if err := t.checkOpen(); err != nil {
		return Collection{}, err
	}
	c, ok := t.s.collections[id]
	if !ok {
		return Collection{}, apperr.NotFound("Collection")
	}
	return c, nil
}

func (t *memTx) InsertCollection(ctx context.Context, c Collection) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if _, exists := t.s.byName[c.Name]; exists {
		return apperr.Conflict("Duplicate collection name")
	}
	if c.ID == "" {
		c.ID = uuidv7.New()
	}
	t.s.collections[c.ID] = c
	t.s.byName[c.Name] = c.ID
	t.s.documents[c.ID] = make(map[string]Document)
	return nil
}

func (t *memTx) ListCollections(ctx context.Context, limit, offset int) ([]Collection, int, error) {
	if err := t.checkOpen(); err != nil {
		return nil, 0, err
	}
	var all []Collection
	for _, c := range t.s.collections {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginateSlice(all, limit, offset), len(all), nil
}

func (t *memTx) SetCollectionLocked(ctx context.Context, id string, locked bool) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	c, ok := t.s.collections[id]
	if !ok {
		return apperr.NotFound("Collection")
	}
	c.Locked = locked
	t.s.collections[id] = c
	return nil
}

func (t *memTx) findDocument(collectionID, docID string) (Document, error) {
	docs, ok := t.s.documents[collectionID]
	if !ok {
		return Document{}, apperr.NotFound("Document")
	}
	d, ok := docs[docID]
	if !ok {
		return Document{}, apperr.NotFound("Document")
	}
	return d, nil
}

func (t *memTx) FindDocument(ctx context.Context, collectionID, docID string) (Document, error) {
	if err := t.checkOpen(); err != nil {
		return Document{}, err
	}
	return t.findDocument(collectionID, docID)
}

// LockDocument has no separate row-lock concept in the fake: holding the
// store-wide mutex for the transaction's lifetime already serializes
// every caller.
func (t *memTx) LockDocument(ctx context.Context, collectionID, docID string) (Document, error) {
	if err := t.checkOpen(); err != nil {
		return Document{}, err
	}
	return t.findDocument(collectionID, docID)
}

func (t *memTx) InsertDocument(ctx context.Context, d Document) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	docs, ok := t.s.documents[d.CollectionID]
	if !ok {
		docs = make(map[string]Document)
		t.s.documents[d.CollectionID] = docs
	}
	if _, exists := docs[d.ID]; exists {
		return apperr.Conflict("Duplicate document")
	}
	d.F = maps.Clone(d.F)
	docs[d.ID] = d
	return nil
}

func (t *memTx) UpdateDocumentFields(ctx context.Context, collectionID, docID string, f map[string]any) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	docs, ok := t.s.documents[collectionID]
	if !ok {
		return apperr.NotFound("Document")
	}
	d, ok := docs[docID]
	if !ok {
		return apperr.NotFound("Document")
	}
	d.F = maps.Clone(f)
	docs[docID] = d
	return nil
}

func (t *memTx) AppendEvent(ctx context.Context, e Event) (Event, error) {
	if err := t.checkOpen(); err != nil {
		return Event{}, err
	}
	t.s.nextEventID++
	e.ID = t.s.nextEventID
	e.Timestamp = time.Now().UTC()
	t.s.events[e.DocumentID] = append(t.s.events[e.DocumentID], e)
	return e, nil
}

func (t *memTx) ListEvents(ctx context.Context, docID string) ([]Event, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	events := append([]Event(nil), t.s.events[docID]...)
	sort.Slice(events, func(i, j int) bool { return events[i].ID > events[j].ID })
	return events, nil
}

func (t *memTx) ReplaceGrants(ctx context.Context, docID string, newGrants []Grant) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	assigned := make([]Grant, len(newGrants))
	for i, g := range newGrants {
		t.s.nextGrantID++
		g.ID = t.s.nextGrantID
		g.DocumentID = docID
		assigned[i] = g
	}
	t.s.grants[docID] = assigned
	return nil
}

func (t *memTx) DocumentGrants(ctx context.Context, docID string) ([]Grant, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	return append([]Grant(nil), t.s.grants[docID]...), nil
}

func (t *memTx) CountAndListDocuments(ctx context.Context, params ListParams) ([]ProjectedDocument, int, error) {
	if err := t.checkOpen(); err != nil {
		return nil, 0, err
	}
	docs := t.s.documents[params.CollectionID]

	var matched []Document
	for _, d := range docs {
		if params.ExactTitle != "" {
			if title, _ := d.F["title"].(string); title != params.ExactTitle {
				continue
			}
		}
		if len(params.VisibilityGrants) > 0 && !t.visible(d.ID, params.VisibilityGrants) {
			continue
		}
		if params.Filter != nil && !matchesFilter(*params.Filter, d.F) {
			continue
		}
		matched = append(matched, d)
	}

	sortDocuments(matched, params.Sort)

	projected := append([]string{"title"}, params.ExtraFields...)
	items := make([]ProjectedDocument, 0, len(matched))
	for _, d := range matched {
		items = append(items, ProjectedDocument{ID: d.ID, F: projectFields(d.F, projected)})
	}

	total := len(items)
	return paginateSlice(items, params.Limit, params.Offset), total, nil
}

func (t *memTx) EnqueueMail(ctx context.Context, messages []mail.Message) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	t.s.outbox = append(t.s.outbox, messages...)
	return nil
}

func (t *memTx) visible(docID string, want []GrantPair) bool {
	for _, stored := range t.s.grants[docID] {
		for _, w := range want {
			if stored.Realm == w.Realm && stored.Grant == w.Grant {
				return true
			}
		}
	}
	return false
}

func projectFields(f map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		if v, ok := f[field]; ok {
			out[field] = v
		}
	}
	return out
}

func matchesFilter(f Filter, doc map[string]any) bool {
	if len(f.And) > 0 {
		for _, child := range f.And {
			if !matchesFilter(child, doc) {
				return false
			}
		}
		return true
	}
	if len(f.Or) > 0 {
		for _, child := range f.Or {
			if matchesFilter(child, doc) {
				return true
			}
		}
		return false
	}
	return matchesLeaf(f, doc)
}

func matchesLeaf(f Filter, doc map[string]any) bool {
	v, present := doc[f.Field]
	switch f.Op {
	case OpNull:
		return !present || v == nil
	case OpNotNull:
		return present && v != nil
	}
	if !present {
		return false
	}
	switch f.Op {
	case OpEq:
		return toComparable(v) == toComparable(f.Value)
	case OpNe:
		return toComparable(v) != toComparable(f.Value)
	case OpLt:
		return toComparable(v) < toComparable(f.Value)
	case OpLe:
		return toComparable(v) <= toComparable(f.Value)
	case OpGt:
		return toComparable(v) > toComparable(f.Value)
	case OpGe:
		return toComparable(v) >= toComparable(f.Value)
	case OpStartsWith:
		return strings.HasPrefix(toComparable(v), toComparable(f.Value))
	case OpContainsText:
		return strings.Contains(strings.ToLower(toComparable(v)), strings.ToLower(toComparable(f.Value)))
	case OpIn:
		values, ok := f.Value.([]any)
		if !ok {
			return false
		}
		for _, candidate := range values {
			if toComparable(v) == toComparable(candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func toComparable(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return anyToString(t)
	}
}

func sortDocuments(docs []Document, keys []SortKey) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, k := range keys {
			vi := sortKeyString(navigate(docs[i].F, k.Path))
			vj := sortKeyString(navigate(docs[j].F, k.Path))
			if vi == vj {
				continue
			}
			if k.Descending {
				return vi > vj
			}
			return vi < vj
		}
		return docs[i].ID < docs[j].ID
	})
}

func navigate(f map[string]any, path []string) any {
	var cur any = f
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}

func sortKeyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return anyToString(t)
	}
}

func anyToString(v any) string {
	return fmt.Sprint(v)
}

func paginateSlice[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
