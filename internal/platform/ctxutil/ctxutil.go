// Copyright (c) 2026 Folivafy authors. All rights reserved.

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/platform/ctxkey"
)

// # Request Tracing

// WithSpanID returns a new context with the provided span id attached.
func WithSpanID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeySpanID, id)
}

// GetSpanID retrieves the span id from the context.
// Returns an empty string if not found.
func GetSpanID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeySpanID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithCaller returns a new context with the provided [identity.Caller] attached.
func WithCaller(ctx context.Context, caller identity.Caller) context.Context {
	return context.WithValue(ctx, ctxkey.KeyCaller, caller)
}

// GetCaller retrieves the [identity.Caller] from the [context.Context].
// The second return value is false if no caller was ever set, which should
// not happen for any route mounted behind the authentication middleware.
func GetCaller(ctx context.Context) (identity.Caller, bool) {
	caller, ok := ctx.Value(ctxkey.KeyCaller).(identity.Caller)
	return caller, ok
}
