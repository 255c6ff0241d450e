// Copyright (c) 2026 Folivafy authors. All rights reserved.

package middleware

import (
	"net/http"
	"strings"

	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/platform/constants"
	"github.com/ErikWegner/folivafy-go/internal/platform/ctxutil"
	"github.com/ErikWegner/folivafy-go/internal/platform/respond"
)

// TokenVerifier is the interface Authenticate needs to turn a bearer token
// into a [identity.Caller]. Defining it here rather than importing
// [identity.Verifier] directly keeps this package mockable in tests.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (identity.Caller, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// Requests without an Authorization header are rejected outright — this
// service has no anonymous access path under /api; every /api route is
// mounted behind this middleware plus [RequireAuth]. Only the /health and
// /ready probes sit outside it.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			if authHeader == "" {
				respond.Error(writer, request, apperr.PermissionDenied("Authentication required"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.PermissionDenied("Invalid authorization format"))
				return
			}

			caller, err := verifier.VerifyToken(parts[1])
			if err != nil {
				respond.Error(writer, request, apperr.PermissionDenied("Invalid or expired token"))
				return
			}

			ctx := ctxutil.WithCaller(request.Context(), caller)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that reached a handler without a [identity.Caller]
// in context. In normal operation [Authenticate] already rejects these, so this
// only guards against a route mounted outside the authentication chain by mistake.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if _, ok := ctxutil.GetCaller(request.Context()); !ok {
			respond.Error(writer, request, apperr.PermissionDenied("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireCollectionAdmin blocks requests whose caller does not hold
// ADMIN_COLLECTIONS. Used for collection creation and maintenance routes —
// every other authorization decision is collection- and action-specific and
// is made inside the write pipeline / query engine instead of generically here.
func RequireCollectionAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		caller, ok := ctxutil.GetCaller(request.Context())
		if !ok {
			respond.Error(writer, request, apperr.PermissionDenied("Authentication required"))
			return
		}
		if !caller.IsCollectionAdmin() {
			respond.Error(writer, request, apperr.PermissionDenied("ADMIN_COLLECTIONS role required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
