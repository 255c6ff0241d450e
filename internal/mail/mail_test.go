// Copyright (c) 2026 Folivafy authors. All rights reserved.

package mail_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErikWegner/folivafy-go/internal/mail"
)

func TestLogTransport_Send(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	transport := mail.LogTransport{Logger: logger}

	err := transport.Send(context.Background(), mail.Message{
		To:      []string{"someone@example.com"},
		Subject: "hello",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "someone@example.com")
	assert.Contains(t, buf.String(), "hello")
}
