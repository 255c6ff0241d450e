// Copyright (c) 2026 Folivafy authors. All rights reserved.

package api

import (
	"fmt"
	"net/http"

	"github.com/ErikWegner/folivafy-go/internal/maintenance"
	requestutil "github.com/ErikWegner/folivafy-go/internal/platform/request"
	"github.com/ErikWegner/folivafy-go/internal/platform/respond"
)

// MaintenanceHandler implements the admin-only rebuild-grants endpoint.
type MaintenanceHandler struct {
	svc *maintenance.Service
}

// NewMaintenanceHandler constructs a [MaintenanceHandler].
func NewMaintenanceHandler(svc *maintenance.Service) *MaintenanceHandler {
	return &MaintenanceHandler{svc: svc}
}

/*
POST /api/maintenance/{collection}/rebuild-grants.

Description: Re-derives every document's grants in the collection from
scratch. Works on a locked collection. Requires ADMIN_COLLECTIONS.

Response:
  - 201: plain text, the number of documents updated
  - 401, 404, 500
*/
func (h *MaintenanceHandler) rebuildGrants(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredCaller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := h.svc.RebuildGrants(request.Context(), caller, requestutil.Param(request, "collection"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.CreatedText(writer, fmt.Sprintf("%d", updated))
}
