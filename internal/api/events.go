// Copyright (c) 2026 Folivafy authors. All rights reserved.

package api

import (
	"net/http"

	"github.com/ErikWegner/folivafy-go/internal/pipeline"
	requestutil "github.com/ErikWegner/folivafy-go/internal/platform/request"
	"github.com/ErikWegner/folivafy-go/internal/platform/respond"
	"github.com/ErikWegner/folivafy-go/internal/platform/validate"
)

// EventsHandler implements the append-event endpoint. A collection opts
// into an event category purely by registering an event-creating hook
// for it; this handler itself knows nothing about categories.
type EventsHandler struct {
	pipe *pipeline.Pipeline
}

// NewEventsHandler constructs an [EventsHandler].
func NewEventsHandler(p *pipeline.Pipeline) *EventsHandler {
	return &EventsHandler{pipe: p}
}

type appendEventRequest struct {
	Collection string         `json:"collection"`
	Document   string         `json:"document"`
	Category   int32          `json:"category"`
	E          map[string]any `json:"e"`
}

/*
POST /api/events.

Description: Appends an event to a document. The target collection must
have a registered event-creating hook for the given category, or the
request is rejected with "Event not accepted".

Request:
  - body: appendEventRequest

Response:
  - 201: plain text, the document id
  - 400, 401
*/
func (h *EventsHandler) appendEvent(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredCaller(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input appendEventRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.CollectionName("collection", input.Collection)
	v.UUID("document", input.Document)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := h.pipe.AppendEvent(request.Context(), caller, input.Collection, input.Document, input.Category, input.E); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.CreatedText(writer, input.Document)
}
