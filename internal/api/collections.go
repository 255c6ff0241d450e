// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package api implements the HTTP delivery layer for the document-collection
core: collections, documents, searches, events, and maintenance.

Every handler in this package is a thin adapter — it decodes the request,
resolves the authenticated caller, calls into [pipeline.Pipeline],
[query.Engine] or [maintenance.Service], and maps the result through
[respond]. No business rule lives here; that is the job of the packages
this layer calls into.
*/
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ErikWegner/folivafy-go/internal/pipeline"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/platform/middleware"
	requestutil "github.com/ErikWegner/folivafy-go/internal/platform/request"
	"github.com/ErikWegner/folivafy-go/internal/platform/respond"
	"github.com/ErikWegner/folivafy-go/internal/platform/validate"
	"github.com/ErikWegner/folivafy-go/internal/query"
	"github.com/ErikWegner/folivafy-go/internal/store"
	"github.com/ErikWegner/folivafy-go/pkg/pagination"
	"github.com/ErikWegner/folivafy-go/pkg/uuid"
	"github.com/ErikWegner/folivafy-go/pkg/uuidv7"
)

// CollectionsHandler implements the HTTP layer for collection management,
// document reads/writes, and structured search.
type CollectionsHandler struct {
	store store.Store
	pipe  *pipeline.Pipeline
	query *query.Engine
	log   *slog.Logger

	pfilterWarnOnce sync.Once
}

// NewCollectionsHandler constructs a [CollectionsHandler].
func NewCollectionsHandler(s store.Store, p *pipeline.Pipeline, q *query.Engine, logger *slog.Logger) *CollectionsHandler {
	return &CollectionsHandler{store: s, pipe: p, query: q, log: logger}
}

// Routes returns a [chi.Router] mounted at "/collections".
func (h *CollectionsHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", h.listCollections)
	router.With(middleware.RequireCollectionAdmin).Post("/", h.createCollection)

	router.Get("/{collection}", h.listDocuments)
	router.Post("/{collection}", h.createDocument)
	router.Put("/{collection}", h.replaceDocument)
	router.Post("/{collection}/searches", h.searchDocuments)
	router.Get("/{collection}/{id}", h.getDocument)

	return router
}

// # DTOs

type collectionDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Title  string `json:"title"`
	Oao    bool   `json:"oao"`
	Locked bool   `json:"locked"`
}

type itemDTO struct {
	ID string         `json:"id"`
	F  map[string]any `json:"f"`
}

type eventDTO struct {
	ID        int64          `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	User      string         `json:"user"`
	Category  int32          `json:"category"`
	Payload   map[string]any `json:"payload"`
}

type itemDetailsResponse struct {
	ID string         `json:"id"`
	F  map[string]any `json:"f"`
	E  []eventDTO     `json:"e"`
}

/*
GET /api/collections.

Description: Lists registered collections.

Response:
  - 200: {limit, offset, total, items: [collectionDTO]}
*/
func (h *CollectionsHandler) listCollections(writer http.ResponseWriter, request *http.Request) {
	params, err := pagination.FromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	tx, err := h.store.BeginTx(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer tx.Rollback(request.Context())

	rows, total, err := tx.ListCollections(request.Context(), params.Limit, params.Offset)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	items := make([]collectionDTO, 0, len(rows))
	for _, c := range rows {
		items = append(items, collectionDTO{ID: c.ID, Name: c.Name, Title: c.Title, Oao: c.Oao, Locked: c.Locked})
	}

	respond.OK(writer, map[string]any{
		"limit":  params.Limit,
		"offset": params.Offset,
		"total":  total,
		"items":  items,
	})
}

type createCollectionRequest struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Oao   bool   `json:"oao"`
}

/*
POST /api/collections.

Description: Creates a new collection. Requires ADMIN_COLLECTIONS.

Request:
  - body: createCollectionRequest

Response:
  - 201: plain text, the new collection id
  - 400: duplicate or invalid name/title
  - 401: missing ADMIN_COLLECTIONS
*/
func (h *CollectionsHandler) createCollection(writer http.ResponseWriter, request *http.Request) {
	var input createCollectionRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.CollectionName("name", input.Name)
	v.Required("title", input.Title).MaxLen("title", input.Title, 150)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	collection := store.Collection{
		ID:    uuidv7.New(),
		Name:  input.Name,
		Title: input.Title,
		Oao:   input.Oao,
	}

	tx, err := h.store.BeginTx(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer tx.Rollback(request.Context())

	if err := tx.InsertCollection(request.Context(), collection); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := tx.Commit(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.CreatedText(writer, collection.ID)
}

/*
GET /api/collections/{collection}.

Description: Lists documents in a collection, honoring the caller's
visibility and the exactTitle/extraFields/sort/pfilter query parameters.

Response:
  - 200: {limit, offset, total, items: [itemDTO]}
  - 401, 404
*/
func (h *CollectionsHandler) listDocuments(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredCaller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params, err := pagination.FromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	h.warnPfilterOnce(request)

	result, err := h.query.List(request.Context(), caller, requestutil.Param(request, "collection"), query.ListParams{
		ExactTitle:  request.URL.Query().Get("exactTitle"),
		ExtraFields: request.URL.Query().Get("extraFields"),
		Sort:        request.URL.Query().Get("sort"),
		Limit:       params.Limit,
		Offset:      params.Offset,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, toListResponse(result))
}

type writeDocumentRequest struct {
	ID string         `json:"id"`
	F  map[string]any `json:"f"`
}

/*
POST /api/collections/{collection}.

Description: Creates a document. An id may be supplied by the caller; if
omitted a UUIDv7 is generated.

Request:
  - body: writeDocumentRequest

Response:
  - 201: plain text, the document id
  - 400, 401, 404
*/
func (h *CollectionsHandler) createDocument(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredCaller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input writeDocumentRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if input.ID != "" && !uuid.IsValid(input.ID) {
		respond.Error(writer, request, validate.RequiredError("id", "Must be a valid UUID"))
		return
	}

	doc, err := h.pipe.Create(request.Context(), caller, requestutil.Param(request, "collection"), input.ID, input.F)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.CreatedText(writer, doc.ID)
}

/*
PUT /api/collections/{collection}.

Description: Replaces an existing document's payload.

Request:
  - body: writeDocumentRequest (id required)

Response:
  - 201: plain text, the document id
  - 400, 401, 404
*/
func (h *CollectionsHandler) replaceDocument(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredCaller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input writeDocumentRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.UUID("id", input.ID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	doc, err := h.pipe.Update(request.Context(), caller, requestutil.Param(request, "collection"), input.ID, input.F)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.CreatedText(writer, doc.ID)
}

type searchRequest struct {
	Filter      json.RawMessage `json:"filter"`
	ExactTitle  string          `json:"exactTitle"`
	ExtraFields string          `json:"extraFields"`
	Sort        string          `json:"sort"`
	Limit       int             `json:"limit"`
	Offset      int             `json:"offset"`
}

/*
POST /api/collections/{collection}/searches.

Description: Runs a structured filter-tree search over a collection.

Request:
  - body: searchRequest

Response:
  - 200: {limit, offset, total, items: [itemDTO]}
  - 400, 401, 404
*/
func (h *CollectionsHandler) searchDocuments(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredCaller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input searchRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var filter *store.Filter
	if len(input.Filter) > 0 {
		filter, err = store.ParseFilter(input.Filter)
		if err != nil {
			respond.Error(writer, request, apperr.BadRequest(err.Error()))
			return
		}
	}

	limit := input.Limit
	if limit == 0 {
		limit = pagination.DefaultLimit
	}
	if limit < 1 || limit > pagination.MaxLimit {
		respond.Error(writer, request, apperr.BadRequest("limit must be between 1 and 250"))
		return
	}
	if input.Offset < 0 {
		respond.Error(writer, request, apperr.BadRequest("offset must be 0 or greater"))
		return
	}

	result, err := h.query.List(request.Context(), caller, requestutil.Param(request, "collection"), query.ListParams{
		ExactTitle:  input.ExactTitle,
		ExtraFields: input.ExtraFields,
		Sort:        input.Sort,
		Filter:      filter,
		Limit:       limit,
		Offset:      input.Offset,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, toListResponse(result))
}

/*
GET /api/collections/{collection}/{id}.

Description: Fetches a document plus its event tail, newest first.

Response:
  - 200: itemDetailsResponse
  - 401, 404
*/
func (h *CollectionsHandler) getDocument(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredCaller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	doc, events, err := h.query.Get(request.Context(), caller, requestutil.Param(request, "collection"), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, itemDetailsResponse{
		ID: doc.ID,
		F:  doc.F,
		E:  toEventDTOs(events),
	})
}

func (h *CollectionsHandler) warnPfilterOnce(request *http.Request) {
	if request.URL.Query().Get("pfilter") == "" {
		return
	}
	h.pfilterWarnOnce.Do(func() {
		h.log.WarnContext(request.Context(), "pfilter query parameter received but no preset filter table is configured; ignoring")
	})
}

func toListResponse(result query.ListResult) map[string]any {
	items := make([]itemDTO, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, itemDTO{ID: p.ID, F: p.F})
	}
	return map[string]any{
		"limit":  result.Limit,
		"offset": result.Offset,
		"total":  result.Total,
		"items":  items,
	}
}

func toEventDTOs(events []store.Event) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, eventDTO{ID: e.ID, Timestamp: e.Timestamp, User: e.User, Category: e.CategoryID, Payload: e.Payload})
	}
	return out
}
