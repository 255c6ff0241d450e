// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package pagination parses and validates the limit/offset query parameters
shared by every list endpoint.

Unlike a page-based scheme, out-of-range values are a client error rather
than something to silently clamp: limit must be 1-250 (default 50), offset
must be >=0 (default 0). A caller that passes limit=0 or limit=500 gets a
400, not a silently substituted default — the HTTP layer finds out its
request was malformed instead of getting a quietly different result set.
*/
package pagination

import (
	"net/http"

	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/pkg/convert"
)

// # Common Defaults

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 50

	// MaxLimit is the upper bound for items per page.
	MaxLimit = 250

	// DefaultOffset is the starting offset if not specified.
	DefaultOffset = 0
)

// Params holds the parsed and validated limit/offset from a request's
// query string.
type Params struct {
	Limit  int
	Offset int
}

// Meta is the pagination metadata included in list responses.
type Meta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// NewMeta constructs pagination metadata for a response.
func NewMeta(limit, offset, total int) Meta {
	return Meta{Limit: limit, Offset: offset, Total: total}
}

// FromRequest parses and validates "limit" and "offset" query parameters.
// It returns a [apperr.AppError] (400) if limit is 0, negative, over
// [MaxLimit], or if offset is negative.
func FromRequest(request *http.Request) (Params, error) {
	query := request.URL.Query()

	limit := DefaultLimit
	if raw := query.Get("limit"); raw != "" {
		limit = convert.ToIntD(raw, -1)
		if limit < 1 || limit > MaxLimit {
			return Params{}, apperr.BadRequest("limit must be between 1 and 250")
		}
	}

	offset := DefaultOffset
	if raw := query.Get("offset"); raw != "" {
		offset = convert.ToIntD(raw, -1)
		if offset < 0 {
			return Params{}, apperr.BadRequest("offset must be 0 or greater")
		}
	}

	return Params{Limit: limit, Offset: offset}, nil
}
