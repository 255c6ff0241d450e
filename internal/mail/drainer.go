// Copyright (c) 2026 Folivafy authors. All rights reserved.

package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ErikWegner/folivafy-go/internal/platform/schema"
)

// pendingRow is one unsent outbox row.
type pendingRow struct {
	ID      int64
	Message Message
}

// Drainer polls the mail_outbox table on its own ticker and hands each
// unsent row to its [Transport]. It owns its own cancellation signal
// (triggered by the caller's context), independent of any HTTP request
// that caused a row to be enqueued.
type Drainer struct {
	pool      *pgxpool.Pool
	transport Transport
	interval  time.Duration
	batch     int
	logger    *slog.Logger
}

// NewDrainer constructs a [Drainer] polling pool every interval for up
// to batch pending rows at a time.
func NewDrainer(pool *pgxpool.Pool, transport Transport, interval time.Duration, batch int, logger *slog.Logger) *Drainer {
	return &Drainer{pool: pool, transport: transport, interval: interval, batch: batch, logger: logger}
}

// Run blocks, draining on every tick until ctx is cancelled.
func (d *Drainer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.drainOnce(ctx); err != nil {
				d.logger.ErrorContext(ctx, "mail: drain failed", "error", err)
			}
		}
	}
}

func (d *Drainer) drainOnce(ctx context.Context) error {
	rows, err := d.pending(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := d.transport.Send(ctx, row.Message); err != nil {
			d.logger.ErrorContext(ctx, "mail: send failed, leaving row pending", "id", row.ID, "error", err)
			continue
		}
		if err := d.markSent(ctx, row.ID); err != nil {
			d.logger.ErrorContext(ctx, "mail: mark sent failed", "id", row.ID, "error", err)
		}
	}
	return nil
}

func (d *Drainer) pending(ctx context.Context) ([]pendingRow, error) {
	query := fmt.Sprintf(
		"SELECT %s, %s, %s, %s, %s, %s FROM %s WHERE %s IS NULL ORDER BY %s ASC LIMIT $1",
		schema.MailOutbox.ID, schema.MailOutbox.To, schema.MailOutbox.Subject,
		schema.MailOutbox.BodyText, schema.MailOutbox.BodyHTML, schema.MailOutbox.Metadata,
		schema.MailOutbox.Table, schema.MailOutbox.SentAt, schema.MailOutbox.ID,
	)
	rows, err := d.pool.Query(ctx, query, d.batch)
	if err != nil {
		return nil, fmt.Errorf("mail: query pending: %w", err)
	}
	defer rows.Close()

	var result []pendingRow
	for rows.Next() {
		var row pendingRow
		var metaRaw []byte
		if err := rows.Scan(&row.ID, &row.Message.To, &row.Message.Subject, &row.Message.BodyText, &row.Message.BodyHTML, &metaRaw); err != nil {
			return nil, fmt.Errorf("mail: scan pending: %w", err)
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &row.Message.Metadata); err != nil {
				return nil, fmt.Errorf("mail: decode metadata: %w", err)
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (d *Drainer) markSent(ctx context.Context, id int64) error {
	query := fmt.Sprintf("UPDATE %s SET %s = NOW() WHERE %s = $1", schema.MailOutbox.Table, schema.MailOutbox.SentAt, schema.MailOutbox.ID)
	_, err := d.pool.Exec(ctx, query, id)
	return err
}
