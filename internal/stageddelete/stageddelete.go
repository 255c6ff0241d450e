// Copyright (c) 2026 Folivafy authors. All rights reserved.

/*
Package stageddelete is the worked example combining an event-creating
hook with a cron hook: Add registers, per collection, the two-stage
soft-delete behavior read from FOLIVAFY_ENABLE_DELETION — a
CATEGORY_DOCUMENT_DELETE event marks a document logically deleted, and
a cron job matches documents old enough to pass both stages.
*/
package stageddelete

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ErikWegner/folivafy-go/internal/documents"
	"github.com/ErikWegner/folivafy-go/internal/hooks"
	"github.com/ErikWegner/folivafy-go/internal/identity"
	"github.com/ErikWegner/folivafy-go/internal/platform/apperr"
	"github.com/ErikWegner/folivafy-go/internal/platform/constants"
	"github.com/ErikWegner/folivafy-go/internal/store"
)

// Config is one collection's staged-delete tuple: a document becomes
// recoverable at stage 1, and is a candidate for removal once
// Stage1Days+Stage2Days have elapsed since it was marked deleted.
type Config struct {
	Collection string
	Stage1Days int
	Stage2Days int
}

// tuple matches one "(collection,d1,d2)" group inside
// FOLIVAFY_ENABLE_DELETION.
var tuple = regexp.MustCompile(`\(\s*([a-z][-a-z0-9]*)\s*,\s*(\d+)\s*,\s*(\d+)\s*\)`)

// ParseConfig decodes FOLIVAFY_ENABLE_DELETION's
// "(collection,d1,d2),(…)" shape into one [Config] per tuple. An empty
// string yields no configs and no error — the feature is opt-in per
// collection.
func ParseConfig(raw string) ([]Config, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	matches := tuple.FindAllStringSubmatch(raw, -1)
	if matches == nil {
		return nil, fmt.Errorf("stageddelete: malformed FOLIVAFY_ENABLE_DELETION %q", raw)
	}

	configs := make([]Config, 0, len(matches))
	for _, m := range matches {
		d1, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("stageddelete: invalid stage1 days in %q: %w", m[0], err)
		}
		d2, err := strconv.Atoi(m[3])
		if err != nil {
			return nil, fmt.Errorf("stageddelete: invalid stage2 days in %q: %w", m[0], err)
		}
		configs = append(configs, Config{Collection: m[1], Stage1Days: d1, Stage2Days: d2})
	}
	return configs, nil
}

// Register attaches the event-creating hook and cron job for every
// parsed config to registry.
func Register(registry *hooks.Registry, docs *documents.Service, configs []Config, logger *slog.Logger) {
	for _, cfg := range configs {
		h := &deleteHook{config: cfg, docs: docs, logger: logger}
		registry.RegisterEvent(cfg.Collection, constants.CategoryDocumentDelete, h)
		registry.RegisterCron(hooks.CronJob{
			Name:       "staged-delete:" + cfg.Collection,
			Collection: cfg.Collection,
			Selector: hooks.Selector{
				Kind:      hooks.ByDateFieldOlderThan,
				Field:     documents.FieldDeletedAt,
				OlderThan: time.Duration(cfg.Stage1Days+cfg.Stage2Days) * 24 * time.Hour,
			},
			Hook: h,
		})
	}
}

// deleteHook implements both [hooks.EventCreatingHook] (stage 1: mark
// deleted) and [hooks.CronHook] (stage 2: removal candidate).
type deleteHook struct {
	config Config
	docs   *documents.Service
	logger *slog.Logger
}

// OnEvent rejects a CATEGORY_DOCUMENT_DELETE event against an
// already-deleted document, requires C_<COLLECTION>_REMOVER, and
// otherwise stores the document with its reserved fields set.
func (h *deleteHook) OnEvent(ctx context.Context, docs *documents.Service, caller identity.Caller, collection store.Collection, before store.Document, event store.Event) (hooks.Result, error) {
	if !caller.System && !caller.IsRemover(collection.Name) {
		return hooks.Result{}, apperr.PermissionDenied("C_" + strings.ToUpper(collection.Name) + "_REMOVER role required")
	}
	if documents.IsDeleted(before.F) {
		return hooks.Result{}, apperr.BadRequest("Document already deleted")
	}

	updated := documents.MarkDeleted(before.F, documents.DeletedBy{ID: caller.ID, Title: caller.Username}, time.Now())
	return hooks.Result{
		Document: hooks.StoreDocument(updated),
		Events:   []store.Event{event},
		Grants:   hooks.NoChangeGrants(),
	}, nil
}

// OnCron runs against documents the stage1+stage2 selector matched:
// full physical removal is the intended behavior, but — per an
// explicit open question in this area — the source only ever logged
// the match, so this hook mirrors that and leaves the row untouched.
func (h *deleteHook) OnCron(ctx context.Context, docs *documents.Service, caller identity.Caller, collection store.Collection, doc store.Document) (hooks.Result, error) {
	h.logger.InfoContext(ctx, "stageddelete: removal candidate",
		"collection", collection.Name, "document_id", doc.ID,
		"stage1_days", h.config.Stage1Days, "stage2_days", h.config.Stage2Days,
	)
	return hooks.Result{Document: hooks.NoUpdateResult(), Grants: hooks.NoChangeGrants()}, nil
}
