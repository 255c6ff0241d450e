// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package store's PostgreSQL implementation leans on a few advanced features
to keep every list query to one round trip:

  - Window Function: COUNT(*) OVER() returns the total alongside the page,
    so no separate count query is issued. A page past the last match
    returns no rows and therefore reports a total of 0.
  - JSON projection: jsonb_object_agg over jsonb_each(f) filtered by a
    caller-supplied key allowlist builds the reduced f object server-side,
    so whole documents are never shipped for a listing.
  - Row locks: LockDocument uses SELECT ... FOR UPDATE inside the caller's
    transaction; no application-level mutex participates.
*/
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ErikWegner/folivafy-go/internal/mail"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/platform/dberr"
	"github.com/ErikWegner/folivafy-go/internal/platform/schema"
)

// pgStore implements [Store] using a pgx connection pool.
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed [Store].
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("store: begin transaction: %w", err))
	}
	return &pgTx{tx: tx, closed: false}, nil
}

// pgTx implements [Tx] over a single pgx.Tx. Commit/Rollback is a one-shot
// operation; calling a data method after either returns ErrTxRolledBack.
type pgTx struct {
	tx     pgx.Tx
	closed bool
}

func (t *pgTx) checkOpen() error {
	if t.closed {
		return apperr.Internal(ErrTxRolledBack)
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.tx.Commit(ctx); err != nil {
		return apperr.Internal(fmt.Errorf("store: commit: %w", err))
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return apperr.Internal(fmt.Errorf("store: rollback: %w", err))
	}
	return nil
}

// # Collections

func (t *pgTx) FindCollectionByName(ctx context.Context, name string) (Collection, error) {
	if err := t.checkOpen(); err != nil {
		return Collection{}, err
	}
	query := fmt.Sprintf(
		"SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = $1",
		schema.Collection.ID, schema.Collection.Name, schema.Collection.Title,
		schema.Collection.Oao, schema.Collection.Locked,
		schema.Collection.Table, schema.Collection.Name,
	)
	var c Collection
	err := t.tx.QueryRow(ctx, query, name).Scan(&c.ID, &c.Name, &c.Title, &c.Oao, &c.Locked)
	if err != nil {
		return Collection{}, dberr.Wrap(err, "Collection", "Duplicate collection name")
	}
	return c, nil
}

func (t *pgTx) FindCollectionByID(ctx context.Context, id string) (Collection, error) {
	if err := t.checkOpen(); err != nil {
		return Collection{}, err
	}
	query := fmt.Sprintf(
		"SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = $1",
		schema.Collection.ID, schema.Collection.Name, schema.Collection.Title,
		schema.Collection.Oao, schema.Collection.Locked,
		schema.Collection.Table, schema.Collection.ID,
	)
	var c Collection
	err := t.tx.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Title, &c.Oao, &c.Locked)
	if err != nil {
		return Collection{}, dberr.Wrap(err, "Collection", "Duplicate collection name")
	}
	return c, nil
}

func (t *pgTx) InsertCollection(ctx context.Context, c Collection) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)",
		schema.Collection.Table, schema.Collection.ID, schema.Collection.Name,
		schema.Collection.Title, schema.Collection.Oao, schema.Collection.Locked,
	)
	_, err := t.tx.Exec(ctx, query, c.ID, c.Name, c.Title, c.Oao, c.Locked)
	if err != nil {
		return dberr.Wrap(err, "Collection", "Duplicate collection name")
	}
	return nil
}

func (t *pgTx) ListCollections(ctx context.Context, limit, offset int) ([]Collection, int, error) {
	if err := t.checkOpen(); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(
		"SELECT %s, %s, %s, %s, %s, COUNT(*) OVER() FROM %s ORDER BY %s ASC LIMIT $1 OFFSET $2",
		schema.Collection.ID, schema.Collection.Name, schema.Collection.Title,
		schema.Collection.Oao, schema.Collection.Locked, schema.Collection.Table, schema.Collection.Name,
	)
	rows, err := t.tx.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("store: list collections: %w", err))
	}
	defer rows.Close()

	var result []Collection
	total := 0
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.Title, &c.Oao, &c.Locked, &total); err != nil {
			return nil, 0, apperr.Internal(fmt.Errorf("store: scan collection: %w", err))
		}
		result = append(result, c)
	}
	return result, total, rows.Err()
}

func (t *pgTx) SetCollectionLocked(ctx context.Context, id string, locked bool) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2", schema.Collection.Table, schema.Collection.Locked, schema.Collection.ID)
	tag, err := t.tx.Exec(ctx, query, locked, id)
	if err != nil {
		return apperr.Internal(fmt.Errorf("store: set collection locked: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Collection")
	}
	return nil
}

// # Documents

func (t *pgTx) scanDocument(row pgx.Row) (Document, error) {
	var d Document
	var raw []byte
	if err := row.Scan(&d.ID, &d.CollectionID, &d.Owner, &raw); err != nil {
		return Document{}, dberr.Wrap(err, "Document", "Duplicate document")
	}
	if err := json.Unmarshal(raw, &d.F); err != nil {
		return Document{}, apperr.Internal(fmt.Errorf("store: decode document payload: %w", err))
	}
	return d, nil
}

func (t *pgTx) FindDocument(ctx context.Context, collectionID, docID string) (Document, error) {
	if err := t.checkOpen(); err != nil {
		return Document{}, err
	}
	query := fmt.Sprintf(
		"SELECT %s, %s, %s, %s FROM %s WHERE %s = $1 AND %s = $2",
		schema.Document.ID, schema.Document.CollectionID, schema.Document.Owner, schema.Document.F,
		schema.Document.Table, schema.Document.CollectionID, schema.Document.ID,
	)
	return t.scanDocument(t.tx.QueryRow(ctx, query, collectionID, docID))
}

func (t *pgTx) LockDocument(ctx context.Context, collectionID, docID string) (Document, error) {
	if err := t.checkOpen(); err != nil {
		return Document{}, err
	}
	query := fmt.Sprintf(
		"SELECT %s, %s, %s, %s FROM %s WHERE %s = $1 AND %s = $2 FOR UPDATE",
		schema.Document.ID, schema.Document.CollectionID, schema.Document.Owner, schema.Document.F,
		schema.Document.Table, schema.Document.CollectionID, schema.Document.ID,
	)
	return t.scanDocument(t.tx.QueryRow(ctx, query, collectionID, docID))
}

func (t *pgTx) InsertDocument(ctx context.Context, d Document) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	payload, err := json.Marshal(d.F)
	if err != nil {
		return apperr.Internal(fmt.Errorf("store: encode document payload: %w", err))
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4)",
		schema.Document.Table, schema.Document.ID, schema.Document.CollectionID, schema.Document.Owner, schema.Document.F,
	)
	_, err = t.tx.Exec(ctx, query, d.ID, d.CollectionID, d.Owner, payload)
	if err != nil {
		return dberr.Wrap(err, "Document", "Duplicate document")
	}
	return nil
}

func (t *pgTx) UpdateDocumentFields(ctx context.Context, collectionID, docID string, f map[string]any) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return apperr.Internal(fmt.Errorf("store: encode document payload: %w", err))
	}
	query := fmt.Sprintf(
		"UPDATE %s SET %s = $1 WHERE %s = $2 AND %s = $3",
		schema.Document.Table, schema.Document.F, schema.Document.CollectionID, schema.Document.ID,
	)
	tag, err := t.tx.Exec(ctx, query, payload, collectionID, docID)
	if err != nil {
		return dberr.Wrap(err, "Document", "Duplicate document")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Document")
	}
	return nil
}

// # Events

func (t *pgTx) AppendEvent(ctx context.Context, e Event) (Event, error) {
	if err := t.checkOpen(); err != nil {
		return Event{}, err
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return Event{}, apperr.Internal(fmt.Errorf("store: encode event payload: %w", err))
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4) RETURNING %s, %s",
		schema.Event.Table, schema.Event.DocumentID, schema.Event.UserID, schema.Event.CategoryID, schema.Event.Payload,
		schema.Event.ID, schema.Event.Timestamp,
	)
	err = t.tx.QueryRow(ctx, query, e.DocumentID, e.User, e.CategoryID, payload).Scan(&e.ID, &e.Timestamp)
	if err != nil {
		return Event{}, apperr.Internal(fmt.Errorf("store: append event: %w", err))
	}
	return e, nil
}

func (t *pgTx) ListEvents(ctx context.Context, docID string) ([]Event, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1 ORDER BY %s DESC",
		schema.Event.ID, schema.Event.Timestamp, schema.Event.DocumentID, schema.Event.UserID, schema.Event.CategoryID, schema.Event.Payload,
		schema.Event.Table, schema.Event.DocumentID, schema.Event.ID,
	)
	rows, err := t.tx.Query(ctx, query, docID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("store: list events: %w", err))
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var raw []byte
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.DocumentID, &e.User, &e.CategoryID, &raw); err != nil {
			return nil, apperr.Internal(fmt.Errorf("store: scan event: %w", err))
		}
		if err := json.Unmarshal(raw, &e.Payload); err != nil {
			return nil, apperr.Internal(fmt.Errorf("store: decode event payload: %w", err))
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// # Grants

func (t *pgTx) ReplaceGrants(ctx context.Context, docID string, newGrants []Grant) error {
	if err := t.checkOpen(); err != nil {
		return err
	}

	delQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", schema.Grant.Table, schema.Grant.DocumentID)
	if _, err := t.tx.Exec(ctx, delQuery, docID); err != nil {
		return apperr.Internal(fmt.Errorf("store: clear grants: %w", err))
	}

	if len(newGrants) == 0 {
		return nil
	}

	insQuery := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4)",
		schema.Grant.Table, schema.Grant.DocumentID, schema.Grant.Realm, schema.Grant.Grant, schema.Grant.View,
	)
	batch := &pgx.Batch{}
	for _, g := range newGrants {
		batch.Queue(insQuery, docID, g.Realm, g.Grant, g.View)
	}
	result := t.tx.SendBatch(ctx, batch)
	if err := result.Close(); err != nil {
		return apperr.Internal(fmt.Errorf("store: insert grants: %w", err))
	}
	return nil
}

func (t *pgTx) DocumentGrants(ctx context.Context, docID string) ([]Grant, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = $1",
		schema.Grant.ID, schema.Grant.DocumentID, schema.Grant.Realm, schema.Grant.Grant, schema.Grant.View,
		schema.Grant.Table, schema.Grant.DocumentID,
	)
	rows, err := t.tx.Query(ctx, query, docID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("store: list grants: %w", err))
	}
	defer rows.Close()

	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.ID, &g.DocumentID, &g.Realm, &g.Grant, &g.View); err != nil {
			return nil, apperr.Internal(fmt.Errorf("store: scan grant: %w", err))
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// # Listing

// CountAndListDocuments builds a single page query combining a visibility
// join, an optional exact-title filter, an optional search-filter
// predicate, sort, and server-side f projection; the total is carried
// alongside each row via COUNT(*) OVER().
func (t *pgTx) CountAndListDocuments(ctx context.Context, params ListParams) ([]ProjectedDocument, int, error) {
	if err := t.checkOpen(); err != nil {
		return nil, 0, err
	}

	projected := append([]string{"title"}, params.ExtraFields...)

	var b strings.Builder
	var args []any
	argID := 1

	b.WriteString(fmt.Sprintf(
		`SELECT d.%s,
			COALESCE((
				SELECT jsonb_object_agg(e.key, e.value)
				FROM jsonb_each(d.%s) e
				WHERE e.key = ANY($%d)
			), '{}'::jsonb),
			COUNT(*) OVER()
		FROM %s d
		WHERE d.%s = $%d`,
		schema.Document.ID, schema.Document.F, argID, schema.Document.Table, schema.Document.CollectionID, argID+1,
	))
	args = append(args, projected, params.CollectionID)
	argID += 2

	if params.ExactTitle != "" {
		b.WriteString(fmt.Sprintf(" AND d.%s ->> 'title' = $%d", schema.Document.F, argID))
		args = append(args, params.ExactTitle)
		argID++
	}

	if len(params.VisibilityGrants) > 0 {
		realms := make([]string, len(params.VisibilityGrants))
		subjects := make([]string, len(params.VisibilityGrants))
		for i, gp := range params.VisibilityGrants {
			realms[i] = gp.Realm
			subjects[i] = gp.Grant
		}
		b.WriteString(fmt.Sprintf(
			` AND EXISTS (
				SELECT 1 FROM %s g
				WHERE g.%s = d.%s
				AND (g.%s, g.%s) IN (SELECT * FROM unnest($%d::text[], $%d::text[]) AS gp(realm, subject))
			)`,
			schema.Grant.Table, schema.Grant.DocumentID, schema.Document.ID, schema.Grant.Realm, schema.Grant.Grant, argID, argID+1,
		))
		args = append(args, realms, subjects)
		argID += 2
	}

	if params.Filter != nil {
		clause, filterArgs, nextID, err := compileFilter(*params.Filter, "d."+schema.Document.F, argID)
		if err != nil {
			return nil, 0, apperr.BadRequest(err.Error())
		}
		b.WriteString(" AND ")
		b.WriteString(clause)
		args = append(args, filterArgs...)
		argID = nextID
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(orderByClause(params.Sort))

	b.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, params.Limit, params.Offset)

	rows, err := t.tx.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("store: list documents: %w", err))
	}
	defer rows.Close()

	var items []ProjectedDocument
	total := 0
	for rows.Next() {
		var pd ProjectedDocument
		var raw []byte
		if err := rows.Scan(&pd.ID, &raw, &total); err != nil {
			return nil, 0, apperr.Internal(fmt.Errorf("store: scan projected document: %w", err))
		}
		if err := json.Unmarshal(raw, &pd.F); err != nil {
			return nil, 0, apperr.Internal(fmt.Errorf("store: decode projected document: %w", err))
		}
		items = append(items, pd)
	}
	return items, total, rows.Err()
}

// # Mail

func (t *pgTx) EnqueueMail(ctx context.Context, messages []mail.Message) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)",
		schema.MailOutbox.Table, schema.MailOutbox.To, schema.MailOutbox.Subject,
		schema.MailOutbox.BodyText, schema.MailOutbox.BodyHTML, schema.MailOutbox.Metadata,
	)
	batch := &pgx.Batch{}
	for _, m := range messages {
		var metaRaw []byte
		if len(m.Metadata) > 0 {
			raw, err := json.Marshal(m.Metadata)
			if err != nil {
				return apperr.Internal(fmt.Errorf("store: encode mail metadata: %w", err))
			}
			metaRaw = raw
		}
		batch.Queue(query, m.To, m.Subject, m.BodyText, m.BodyHTML, metaRaw)
	}
	result := t.tx.SendBatch(ctx, batch)
	if err := result.Close(); err != nil {
		return apperr.Internal(fmt.Errorf("store: enqueue mail: %w", err))
	}
	return nil
}

// orderByClause builds the dotted-path sort expression, always
// tie-breaking on id ascending so pagination is stable.
func orderByClause(sort []SortKey) string {
	if len(sort) == 0 {
		return fmt.Sprintf(
			"COALESCE(d.%s ->> 'created', d.%s::text) ASC, d.%s ASC",
			schema.Document.F, schema.Document.CreatedAt, schema.Document.ID,
		)
	}

	var parts []string
	for _, key := range sort {
		dir := "ASC"
		if key.Descending {
			dir = "DESC"
		}
		path := "{" + strings.Join(key.Path, ",") + "}"
		parts = append(parts, fmt.Sprintf("d.%s #>> '%s' %s", schema.Document.F, path, dir))
	}
	parts = append(parts, fmt.Sprintf("d.%s ASC", schema.Document.ID))
	return strings.Join(parts, ", ")
}

// compileFilter translates a search-filter tree into a parameterized SQL
// boolean expression over the jsonb column named fColumn.
func compileFilter(f Filter, fColumn string, argID int) (string, []any, int, error) {
	if len(f.And) > 0 {
		return compileBoolNode(f.And, "AND", fColumn, argID)
	}
	if len(f.Or) > 0 {
		return compileBoolNode(f.Or, "OR", fColumn, argID)
	}
	return compileLeaf(f, fColumn, argID)
}

func compileBoolNode(children []Filter, joiner, fColumn string, argID int) (string, []any, int, error) {
	var parts []string
	var args []any
	for _, child := range children {
		clause, childArgs, nextID, err := compileFilter(child, fColumn, argID)
		if err != nil {
			return "", nil, argID, err
		}
		parts = append(parts, clause)
		args = append(args, childArgs...)
		argID = nextID
	}
	return "(" + strings.Join(parts, " "+joiner+" ") + ")", args, argID, nil
}

func compileLeaf(f Filter, fColumn string, argID int) (string, []any, int, error) {
	field := fmt.Sprintf("%s ->> '%s'", fColumn, f.Field)

	switch f.Op {
	case OpNull:
		return fmt.Sprintf("%s IS NULL", field), nil, argID, nil
	case OpNotNull:
		return fmt.Sprintf("%s IS NOT NULL", field), nil, argID, nil
	case OpEq:
		return fmt.Sprintf("%s = $%d", field, argID), []any{fmt.Sprint(f.Value)}, argID + 1, nil
	case OpNe:
		return fmt.Sprintf("%s != $%d", field, argID), []any{fmt.Sprint(f.Value)}, argID + 1, nil
	case OpLt:
		return fmt.Sprintf("%s < $%d", field, argID), []any{fmt.Sprint(f.Value)}, argID + 1, nil
	case OpLe:
		return fmt.Sprintf("%s <= $%d", field, argID), []any{fmt.Sprint(f.Value)}, argID + 1, nil
	case OpGt:
		return fmt.Sprintf("%s > $%d", field, argID), []any{fmt.Sprint(f.Value)}, argID + 1, nil
	case OpGe:
		return fmt.Sprintf("%s >= $%d", field, argID), []any{fmt.Sprint(f.Value)}, argID + 1, nil
	case OpStartsWith:
		return fmt.Sprintf("%s LIKE $%d", field, argID), []any{fmt.Sprint(f.Value) + "%"}, argID + 1, nil
	case OpContainsText:
		return fmt.Sprintf("%s ILIKE $%d", field, argID), []any{"%" + fmt.Sprint(f.Value) + "%"}, argID + 1, nil
	case OpIn:
		values, ok := f.Value.([]any)
		if !ok {
			return "", nil, argID, fmt.Errorf("filter: \"in\" operator requires an array value")
		}
		strs := make([]string, len(values))
		for i, v := range values {
			strs[i] = fmt.Sprint(v)
		}
		return fmt.Sprintf("%s = ANY($%d)", field, argID), []any{strs}, argID + 1, nil
	default:
		return "", nil, argID, fmt.Errorf("filter: unsupported operator %q", f.Op)
	}
}
