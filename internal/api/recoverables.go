// Copyright (c) 2026 Folivafy authors. All rights reserved.

package api

import (
	"net/http"

	"github.com/ErikWegner/folivafy-go/pkg/pagination"
	requestutil "github.com/ErikWegner/folivafy-go/internal/platform/request"
	"github.com/ErikWegner/folivafy-go/internal/platform/respond"
	"github.com/ErikWegner/folivafy-go/internal/query"
)

// RecoverablesHandler implements the "list logically deleted documents"
// endpoint staged-delete REMOVERs use to find restore candidates.
type RecoverablesHandler struct {
	query *query.Engine
}

// NewRecoverablesHandler constructs a [RecoverablesHandler].
func NewRecoverablesHandler(q *query.Engine) *RecoverablesHandler {
	return &RecoverablesHandler{query: q}
}

/*
GET /api/recoverables/{collection}.

Description: Lists documents in a collection that carry a non-empty
folivafy_deleted_at, i.e. staged-delete restore candidates.

Response:
  - 200: {limit, offset, total, items: [itemDTO]}
  - 401, 404
*/
func (h *RecoverablesHandler) list(writer http.ResponseWriter, request *http.Request) {
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

	result, err := h.query.Recoverables(request.Context(), caller, requestutil.Param(request, "collection"), params.Limit, params.Offset)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, toListResponse(result))
}
