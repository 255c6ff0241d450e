// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/platform/ctxutil"
	"github.com/ErikWegner/folivafy-go/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
ID retrieves a named URL parameter (UUID) from the request.
*/
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// Caller extracts the authenticated [identity.Caller] from the request
// context. The second return value is false if the request reached the
// handler without one, which should never happen behind the
// authentication middleware.
func Caller(request *http.Request) (identity.Caller, bool) {
	return ctxutil.GetCaller(request.Context())
}

// RequiredCaller ensures the request is authenticated and returns its
// [identity.Caller].
func RequiredCaller(request *http.Request) (identity.Caller, error) {
	caller, ok := ctxutil.GetCaller(request.Context())
	if !ok {
		return identity.Caller{}, apperr.PermissionDenied("Authentication required")
	}
	return caller, nil
}
