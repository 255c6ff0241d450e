// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package cron runs every registered [hooks.CronJob] on a ticker, matching
documents with its selector and routing each match through the write
pipeline's dedicated cron entry point. A post-commit hook result with
TriggerCron set publishes on a Redis channel so every running instance's
driver wakes immediately instead of waiting for its next scheduled tick.
*/
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/hooks"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/pipeline"
	"github.com/ErikWegner/folivafy-go/internal/platform/constants"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

// maxMatchesPerJob bounds how many documents a single tick runs a job
// against. A job matching more than this on one tick picks the rest up
// on the next tick; the driver never blocks the ticker catching up on a
// backlog in one pass.
const maxMatchesPerJob = 100

// startupDelay mirrors the reference driver's own settle period: the
// first tick waits this long after Start so a freshly deployed instance
// isn't racing migrations or cache warm-up.
const startupDelay = 8 * time.Second

// systemUserID is the caller id recorded against every event/grant row
// the cron driver writes.
const systemUserID = "system-cron"

// Driver owns the ticker, the registered jobs, and (optionally) the
// cross-instance wake subscription.
type Driver struct {
	Docs     *documents.Service
	Pipeline *pipeline.Pipeline
	Hooks    *hooks.Registry
	Store    store.Store
	Redis    *redis.Client // nil disables the cross-instance wake signal
	Logger   *slog.Logger
	Interval time.Duration

	cr     *cron.Cron
	cancel context.CancelFunc
}

// New constructs a [Driver]. interval defaults to one minute when zero.
func New(s store.Store, docs *documents.Service, p *pipeline.Pipeline, registry *hooks.Registry, redisClient *redis.Client, interval time.Duration, logger *slog.Logger) *Driver {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Driver{
		Docs:     docs,
		Pipeline: p,
		Hooks:    registry,
		Store:    s,
		Redis:    redisClient,
		Logger:   logger,
		Interval: interval,
	}
}

// Start schedules the recurring tick, whose first run waits
// startupDelay, and, if Redis is configured, subscribes to the wake
// channel in the background. It returns without waiting for either;
// call [Driver.Stop] to shut down.
func (d *Driver) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.cr = cron.New()
	_, err := d.cr.AddFunc(fmt.Sprintf("@every %s", d.Interval), func() {
		d.runAll(runCtx)
	})
	if err != nil {
		d.Logger.ErrorContext(ctx, "cron: invalid interval schedule", "error", err)
		return
	}

	time.AfterFunc(startupDelay, func() {
		d.cr.Start()
	})

	if d.Redis != nil {
		go d.subscribeWake(runCtx)
	}
}

// Stop halts the ticker and, if subscribed, the wake listener.
func (d *Driver) Stop() {
	if d.cr != nil {
		stopCtx := d.cr.Stop()
		<-stopCtx.Done()
	}
	if d.cancel != nil {
		d.cancel()
	}
}

// Wake implements [pipeline.CronWaker]. With Redis configured it
// publishes on [constants.RedisChannelCronWake] so every running
// instance's subscriber ticks immediately; without Redis it runs the
// jobs in this process right away.
func (d *Driver) Wake(ctx context.Context) error {
	if d.Redis == nil {
		go d.runAll(context.Background())
		return nil
	}
	return d.Redis.Publish(ctx, constants.RedisChannelCronWake, "1").Err()
}

func (d *Driver) subscribeWake(ctx context.Context) {
	sub := d.Redis.Subscribe(ctx, constants.RedisChannelCronWake)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			d.runAll(ctx)
		}
	}
}

// runAll runs every registered job once, logging and continuing past a
// single job's failure rather than aborting the tick.
func (d *Driver) runAll(ctx context.Context) {
	caller := identity.System(systemUserID)
	for _, job := range d.Hooks.CronJobs() {
		if err := d.runJob(ctx, caller, job); err != nil {
			d.Logger.ErrorContext(ctx, "cron: job failed", "job", job.Name, "error", err)
		}
	}
}

// runJob matches documents against job.Selector and runs the job's hook
// over each through the write pipeline, stopping at maxMatchesPerJob.
func (d *Driver) runJob(ctx context.Context, caller identity.Caller, job hooks.CronJob) error {
	collection, err := d.Docs.CollectionByName(ctx, job.Collection)
	if err != nil {
		return fmt.Errorf("cron: %s: load collection: %w", job.Name, err)
	}

	filter, err := selectorFilter(job.Selector)
	if err != nil {
		return fmt.Errorf("cron: %s: build selector: %w", job.Name, err)
	}

	tx, err := d.Store.BeginTx(ctx)
	if err != nil {
		return err
	}
	matches, _, err := tx.CountAndListDocuments(ctx, store.ListParams{
		CollectionID: collection.ID,
		Filter:       filter,
		Limit:        maxMatchesPerJob,
	})
	rollbackErr := tx.Rollback(ctx)
	if err != nil {
		return fmt.Errorf("cron: %s: list matches: %w", job.Name, err)
	}
	if rollbackErr != nil {
		return fmt.Errorf("cron: %s: %w", job.Name, rollbackErr)
	}

	for _, m := range matches {
		if err := d.Pipeline.RunCronHook(ctx, caller, collection, m.ID, job.Hook); err != nil {
			d.Logger.ErrorContext(ctx, "cron: document failed", "job", job.Name, "document_id", m.ID, "error", err)
		}
	}
	return nil
}

// selectorFilter translates a [hooks.Selector] into the [store.Filter]
// the query layer already knows how to run.
func selectorFilter(sel hooks.Selector) (*store.Filter, error) {
	switch sel.Kind {
	case hooks.ByFieldEqualsValue:
		return &store.Filter{Field: sel.Field, Op: store.OpEq, Value: sel.Value}, nil
	case hooks.ByDateFieldOlderThan:
		cutoff := time.Now().UTC().Add(-sel.OlderThan).Format(time.RFC3339)
		return &store.Filter{Field: sel.Field, Op: store.OpLe, Value: cutoff}, nil
	default:
		return nil, fmt.Errorf("cron: unknown selector kind %s", strconv.Itoa(int(sel.Kind)))
	}
}
