// Copyright (c) 2026 Folivafy authors. All rights reserved.

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/platform/ctxutil"
)

func TestContext_SpanID(t *testing.T) {
	ctx := context.Background()
	spanID := "test-span-id"

	assert.Empty(t, ctxutil.GetSpanID(ctx))

	ctx = ctxutil.WithSpanID(ctx, spanID)
	assert.Equal(t, spanID, ctxutil.GetSpanID(ctx))
}

func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

func TestContext_Caller(t *testing.T) {
	ctx := context.Background()
	caller := identity.New("user-123", "alice", []string{"C_INVOICES_READER"})

	_, ok := ctxutil.GetCaller(ctx)
	assert.False(t, ok)

	ctx = ctxutil.WithCaller(ctx, caller)
	retrieved, ok := ctxutil.GetCaller(ctx)

	assert.True(t, ok)
	assert.Equal(t, "user-123", retrieved.ID)
	assert.True(t, retrieved.IsReader("invoices"))
}
