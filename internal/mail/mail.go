// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package mail defines the outbound-mail message shape enqueued by the
write pipeline and a best-effort background drainer that picks queued
rows up and hands them to a [Transport].

The actual SMTP delivery is an external collaborator: this package never
talks to a mail server itself. [LogTransport] is the only [Transport]
implementation shipped here, logging the send and nothing more — real
delivery is deliberately out of scope.
*/
package mail

import (
	"context"
	"log/slog"
)

// Message is one piece of outbound mail, enqueued in the same
// transaction as the write that produced it.
type Message struct {
	To       []string       `json:"to"`
	Subject  string         `json:"subject"`
	BodyText string         `json:"body_text"`
	BodyHTML string         `json:"body_html,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Transport delivers one message. The only implementation in this
// repository is [LogTransport]; a real SMTP/API transport is an
// external collaborator.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// LogTransport logs a message instead of delivering it.
type LogTransport struct {
	Logger *slog.Logger
}

func (t LogTransport) Send(ctx context.Context, msg Message) error {
	t.Logger.InfoContext(ctx, "mail: delivering", "to", msg.To, "subject", msg.Subject)
	return nil
}
