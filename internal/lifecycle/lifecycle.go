package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kittclouds/keepmem/internal/apperr"
	"github.com/kittclouds/keepmem/internal/audit"
	"github.com/kittclouds/keepmem/internal/clock"
	"github.com/kittclouds/keepmem/internal/duplicate"
	"github.com/kittclouds/keepmem/internal/idgen"
	"github.com/kittclouds/keepmem/internal/ranking"
	"github.com/kittclouds/keepmem/internal/store"
	"github.com/kittclouds/keepmem/internal/tags"
	"github.com/kittclouds/keepmem/internal/worker"
	"github.com/kittclouds/keepmem/pkg/pool"
	"github.com/rs/zerolog"
)

const recentDuplicateWindow = 24 * time.Hour

// Store is the storage surface the lifecycle engine depends on.
type Store interface {
	InsertCard(ctx context.Context, c store.NewCard) error
	UpdateCard(ctx context.Context, cardID string, patch store.CardFields) error
	SetArchived(ctx context.Context, cardID string, archived bool, updatedAt string) error
	DeleteCard(ctx context.Context, cardID string) error
	RecordRecall(ctx context.Context, cardID, recalledAt string) error
	GetCard(ctx context.Context, cardID string) (*store.Card, error)
	ListCanonicalCards(ctx context.Context, includeArchived bool) ([]*store.Card, error)
	GetOrCreateTags(ctx context.Context, labels []string) ([]store.Tag, error)
	ReplaceCardTags(ctx context.Context, cardID string, tagRows []store.Tag, addedAt string) error
	FindCardsWithAllSlugs(ctx context.Context, slugs []string) (map[string]struct{}, error)
	AddRevision(ctx context.Context, cardID, snapshotJSON, changeType, changedAt string) error
}

// Engine coordinates the three card operations.
type Engine struct {
	store      Store
	duplicates *duplicate.Detector
	ranking    *ranking.Engine
	audit      *audit.Service
	pool       *worker.Pool
	log        zerolog.Logger
}

// New builds a lifecycle Engine.
func New(s Store, duplicates *duplicate.Detector, rank *ranking.Engine, auditSvc *audit.Service, pool *worker.Pool, log zerolog.Logger) *Engine {
	return &Engine{store: s, duplicates: duplicates, ranking: rank, audit: auditSvc, pool: pool, log: log}
}

func (e *Engine) run(ctx context.Context, fn func() error) error {
	_, err := worker.Run(ctx, e.pool, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

// AddCard either creates a new canonical card or merges into an existing
// near-duplicate found among cards created in the last 24 hours.
func (e *Engine) AddCard(ctx context.Context, req AddCardRequest) (*AddCardResponse, error) {
	data, err := normalizedAdd(req)
	if err != nil {
		return nil, err
	}
	now := clock.NowString()
	candidateText := data.Title + "\n" + data.Summary

	var existing []*store.Card
	if err := e.run(ctx, func() (err error) {
		existing, err = e.store.ListCanonicalCards(ctx, false)
		return err
	}); err != nil {
		return nil, apperr.Storage(err)
	}

	recent := filterRecent(existing, recentDuplicateWindow)
	corpus := make([]duplicate.Candidate, len(recent))
	for i, c := range recent {
		corpus[i] = duplicate.Candidate{CardID: c.CardID, Text: c.Title + "\n" + c.Summary}
	}
	match := e.duplicates.FindDuplicate(candidateText, corpus)

	normalizedTags := tags.NormalizeLabels(data.Tags, tags.DefaultLimit)

	if match != nil {
		return e.mergeIntoCanonical(ctx, match, data, normalizedTags, now)
	}
	return e.createNewCard(ctx, data, normalizedTags, now)
}

func (e *Engine) mergeIntoCanonical(ctx context.Context, match *duplicate.Match, data AddCardRequest, normalizedTags []string, now string) (*AddCardResponse, error) {
	var canonical *store.Card
	if err := e.run(ctx, func() (err error) {
		canonical, err = e.store.GetCard(ctx, match.CardID)
		return err
	}); err != nil {
		return nil, apperr.Storage(err)
	}
	if canonical == nil {
		return e.createNewCard(ctx, data, normalizedTags, now)
	}

	mergedTags := mergeTags(canonical.Tags, normalizedTags)
	if err := e.run(ctx, func() error {
		tagRows, err := e.store.GetOrCreateTags(ctx, mergedTags)
		if err != nil {
			return err
		}
		return e.store.ReplaceCardTags(ctx, canonical.CardID, tagRows, now)
	}); err != nil {
		return nil, apperr.Storage(err)
	}
	canonical.Tags = mergedTags

	var warnings []string
	if canonical.NoteType != data.NoteType {
		warnings = append(warnings, fmt.Sprintf(
			"Merged with existing card (%s) of type %s; submitted type %s was not applied.",
			canonical.CardID, canonical.NoteType, data.NoteType))
	}

	sourceForwarded := false
	if data.SourceReference != nil && *data.SourceReference != "" && (canonical.SourceReference == nil || *canonical.SourceReference == "") {
		sourceForwarded = true
		canonical.SourceReference = data.SourceReference
		if err := e.run(ctx, func() error {
			updatedAt := now
			return e.store.UpdateCard(ctx, canonical.CardID, store.CardFields{
				SourceReference: data.SourceReference,
				UpdatedAt:       &updatedAt,
			})
		}); err != nil {
			return nil, apperr.Storage(err)
		}
	}

	snapshot := buildSnapshot(canonical)
	if err := e.run(ctx, func() error {
		return e.store.AddRevision(ctx, canonical.CardID, snapshot, "MERGE_DUPLICATE", now)
	}); err != nil {
		return nil, apperr.Storage(err)
	}

	auditPayload := map[string]any{
		"score":                    match.Score,
		"title":                    data.Title,
		"summary":                  data.Summary,
		"submittedNoteType":        data.NoteType,
		"canonicalNoteType":        canonical.NoteType,
		"sourceReferenceForwarded": sourceForwarded,
	}
	if err := e.run(ctx, func() error {
		return e.audit.MergeDuplicate(ctx, canonical.CardID, auditPayload, now)
	}); err != nil {
		return nil, apperr.Storage(err)
	}

	return &AddCardResponse{
		CardID:          canonical.CardID,
		CreatedAt:       canonical.CreatedAt,
		Merged:          true,
		CanonicalCardID: &canonical.CardID,
		NoteType:        canonical.NoteType,
		SourceReference: canonical.SourceReference,
		Warnings:        warnings,
	}, nil
}

func (e *Engine) createNewCard(ctx context.Context, data AddCardRequest, normalizedTags []string, now string) (*AddCardResponse, error) {
	cardID := idgen.New()
	newCard := store.NewCard{
		CardID: cardID, Title: data.Title, Summary: data.Summary, Body: data.Body,
		NoteType: data.NoteType, SourceReference: data.SourceReference,
		OriginConversationID: data.OriginConversationID, OriginMessageExcerpt: data.OriginMessageExcerpt,
		CreatedAt: now, UpdatedAt: now,
	}

	var card *store.Card
	if err := e.run(ctx, func() error {
		if err := e.store.InsertCard(ctx, newCard); err != nil {
			return err
		}
		tagRows, err := e.store.GetOrCreateTags(ctx, normalizedTags)
		if err != nil {
			return err
		}
		if err := e.store.ReplaceCardTags(ctx, cardID, tagRows, now); err != nil {
			return err
		}
		card, err = e.store.GetCard(ctx, cardID)
		return err
	}); err != nil {
		return nil, apperr.Storage(err)
	}
	if card == nil {
		return nil, apperr.Storage(fmt.Errorf("created card not found: %s", cardID))
	}

	snapshot := buildSnapshot(card)
	if err := e.run(ctx, func() error {
		return e.store.AddRevision(ctx, cardID, snapshot, "CREATE", now)
	}); err != nil {
		return nil, apperr.Storage(err)
	}

	auditPayload := map[string]any{
		"title": data.Title, "summary": data.Summary, "tags": card.Tags,
		"noteType": data.NoteType, "sourceReference": data.SourceReference,
	}
	if err := e.run(ctx, func() error {
		return e.audit.AddCard(ctx, cardID, auditPayload, now)
	}); err != nil {
		return nil, apperr.Storage(err)
	}

	e.log.Debug().Str("action", "add_card").Str("cardId", cardID).Msg("card created")

	return &AddCardResponse{
		CardID: cardID, CreatedAt: now, Merged: false,
		NoteType: data.NoteType, SourceReference: data.SourceReference,
	}, nil
}

// Recall ranks canonical cards against a query, optionally filtered by an
// AND of tag slugs, records a recall on every returned card, and appends
// one batched audit entry.
func (e *Engine) Recall(ctx context.Context, req RecallRequest) (*RecallResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 25 {
		limit = 25
	}

	var candidates []*store.Card
	if err := e.run(ctx, func() (err error) {
		candidates, err = e.store.ListCanonicalCards(ctx, req.IncludeArchived)
		return err
	}); err != nil {
		return nil, apperr.Storage(err)
	}

	if len(req.Tags) > 0 {
		slugSet := make(map[string]struct{})
		var slugs []string
		for _, label := range req.Tags {
			if label == "" {
				continue
			}
			slug := tags.Slugify(label)
			if _, ok := slugSet[slug]; !ok {
				slugSet[slug] = struct{}{}
				slugs = append(slugs, slug)
			}
		}
		var matchingIDs map[string]struct{}
		if err := e.run(ctx, func() (err error) {
			matchingIDs, err = e.store.FindCardsWithAllSlugs(ctx, slugs)
			return err
		}); err != nil {
			return nil, apperr.Storage(err)
		}
		filtered := candidates[:0:0]
		for _, c := range candidates {
			if _, ok := matchingIDs[c.CardID]; ok {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	rankInputs := make([]ranking.Card, len(candidates))
	for i, c := range candidates {
		body := ""
		if c.Body != nil {
			body = *c.Body
		}
		rankInputs[i] = ranking.Card{
			CardID: c.CardID, Title: c.Title, Summary: c.Summary, Body: body,
			UpdatedAt: c.UpdatedAt, RecallCount: c.RecallCount,
		}
	}
	ranked := e.ranking.Rank(rankInputs, req.Query)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	byID := make(map[string]*store.Card, len(candidates))
	for _, c := range candidates {
		byID[c.CardID] = c
	}

	now := clock.NowString()
	responseCards := make([]RecallCard, 0, len(ranked))
	for _, r := range ranked {
		card := byID[r.Card.CardID]
		if err := e.run(ctx, func() error { return e.store.RecordRecall(ctx, card.CardID, now) }); err != nil {
			return nil, apperr.Storage(err)
		}
		card.RecallCount++
		card.LastRecalledAt = &now
		card.UpdatedAt = now
		responseCards = append(responseCards, RecallCard{
			CardID: card.CardID, Title: card.Title, Summary: card.Summary, Body: card.Body,
			Tags: card.Tags, NoteType: card.NoteType, SourceReference: card.SourceReference,
			RankScore: roundTo(r.Score, 6), UpdatedAt: card.UpdatedAt,
			LastRecalledAt: card.LastRecalledAt, RecallCount: card.RecallCount,
		})
	}

	if len(responseCards) > 0 {
		payload := map[string]any{
			"query": req.Query, "tags": req.Tags, "limit": limit, "returned": len(responseCards),
		}
		if err := e.run(ctx, func() error { return e.audit.Recall(ctx, payload, now) }); err != nil {
			return nil, apperr.Storage(err)
		}
	}

	resp := &RecallResponse{Cards: responseCards}
	if len(responseCards) == 0 {
		msg := "No memory cards matched your query."
		resp.Message = &msg
	}
	return resp, nil
}

// ManageCard dispatches an UPDATE/ARCHIVE/DELETE operation against an
// existing card.
func (e *Engine) ManageCard(ctx context.Context, req ManageRequest) (*ManageResponse, error) {
	var card *store.Card
	if err := e.run(ctx, func() (err error) {
		card, err = e.store.GetCard(ctx, req.CardID)
		return err
	}); err != nil {
		return nil, apperr.Storage(err)
	}
	if card == nil {
		return nil, apperr.NotFound("card not found")
	}

	now := clock.NowString()
	switch req.Operation {
	case OpUpdate:
		return e.update(ctx, card, req.Update, now)
	case OpArchive:
		return e.archive(ctx, card, now)
	case OpDelete:
		return e.delete(ctx, card, now)
	default:
		return nil, apperr.Validation("unsupported operation: %s", req.Operation)
	}
}

func (e *Engine) update(ctx context.Context, card *store.Card, fields *UpdateFields, now string) (*ManageResponse, error) {
	if fields == nil {
		return nil, apperr.Validation("update payload is required")
	}
	update, err := normalizedUpdate(*fields)
	if err != nil {
		return nil, err
	}

	patch := store.CardFields{UpdatedAt: &now}
	auditFields := map[string]any{}

	if update.Title != nil {
		card.Title = *update.Title
		patch.Title = update.Title
		auditFields["title"] = *update.Title
	}
	if update.Summary != nil {
		card.Summary = *update.Summary
		patch.Summary = update.Summary
		auditFields["summary"] = *update.Summary
	}
	if update.Body != nil {
		card.Body = update.Body
		patch.Body = update.Body
	}
	if update.NoteType != nil {
		card.NoteType = *update.NoteType
		patch.NoteType = update.NoteType
		auditFields["noteType"] = *update.NoteType
	}
	if update.SourceReference != nil {
		card.SourceReference = update.SourceReference
		patch.SourceReference = update.SourceReference
		auditFields["sourceReference"] = *update.SourceReference
	}
	if update.Tags != nil {
		normalized := tags.NormalizeLabels(*update.Tags, tags.DefaultLimit)
		if err := e.run(ctx, func() error {
			tagRows, err := e.store.GetOrCreateTags(ctx, normalized)
			if err != nil {
				return err
			}
			return e.store.ReplaceCardTags(ctx, card.CardID, tagRows, now)
		}); err != nil {
			return nil, apperr.Storage(err)
		}
		card.Tags = normalized
		auditFields["tags"] = normalized
	}

	if err := e.run(ctx, func() error { return e.store.UpdateCard(ctx, card.CardID, patch) }); err != nil {
		return nil, apperr.Storage(err)
	}

	snapshot := buildSnapshot(card)
	if err := e.run(ctx, func() error { return e.store.AddRevision(ctx, card.CardID, snapshot, "UPDATE", now) }); err != nil {
		return nil, apperr.Storage(err)
	}
	if err := e.run(ctx, func() error { return e.audit.UpdateCard(ctx, card.CardID, auditFields, now) }); err != nil {
		return nil, apperr.Storage(err)
	}

	return &ManageResponse{CardID: card.CardID, Status: "UPDATED", UpdatedAt: now}, nil
}

func (e *Engine) archive(ctx context.Context, card *store.Card, now string) (*ManageResponse, error) {
	card.Archived = true
	if err := e.run(ctx, func() error { return e.store.SetArchived(ctx, card.CardID, true, now) }); err != nil {
		return nil, apperr.Storage(err)
	}
	snapshot := buildSnapshot(card)
	if err := e.run(ctx, func() error { return e.store.AddRevision(ctx, card.CardID, snapshot, "UPDATE", now) }); err != nil {
		return nil, apperr.Storage(err)
	}
	if err := e.run(ctx, func() error { return e.audit.ArchiveCard(ctx, card.CardID, now) }); err != nil {
		return nil, apperr.Storage(err)
	}
	return &ManageResponse{CardID: card.CardID, Status: "ARCHIVED", UpdatedAt: now}, nil
}

func (e *Engine) delete(ctx context.Context, card *store.Card, now string) (*ManageResponse, error) {
	snapshot := buildSnapshot(card)
	if err := e.run(ctx, func() error { return e.store.AddRevision(ctx, card.CardID, snapshot, "DELETE", now) }); err != nil {
		return nil, apperr.Storage(err)
	}
	// Audit before deleting the row: audit_log.card_id references memory_card.
	if err := e.run(ctx, func() error { return e.audit.DeleteCard(ctx, card.CardID, now) }); err != nil {
		return nil, apperr.Storage(err)
	}
	if err := e.run(ctx, func() error { return e.store.DeleteCard(ctx, card.CardID) }); err != nil {
		return nil, apperr.Storage(err)
	}
	return &ManageResponse{CardID: card.CardID, Status: "DELETED", UpdatedAt: now}, nil
}

func buildSnapshot(card *store.Card) string {
	snap := pool.GetMap()
	defer pool.PutMap(snap)

	snap["cardId"] = card.CardID
	snap["title"] = card.Title
	snap["summary"] = card.Summary
	snap["body"] = card.Body
	snap["noteType"] = card.NoteType
	snap["sourceReference"] = card.SourceReference
	snap["tags"] = card.Tags
	snap["duplicateOfId"] = card.DuplicateOfID
	snap["archived"] = card.Archived

	raw, err := json.Marshal(snap)
	if err != nil {
		// snap contains only JSON-marshalable primitives; this cannot fail.
		panic(err)
	}
	return string(raw)
}

func filterRecent(cards []*store.Card, window time.Duration) []*store.Card {
	if window <= 0 {
		return cards
	}
	now, err := clock.Parse(clock.NowString())
	if err != nil {
		return cards
	}
	threshold := now.Add(-window)

	out := make([]*store.Card, 0, len(cards))
	for _, c := range cards {
		created, err := clock.Parse(c.CreatedAt)
		if err != nil {
			out = append(out, c) // fail-open: unparseable timestamps are kept
			continue
		}
		if !created.Before(threshold) {
			out = append(out, c)
		}
	}
	return out
}

func mergeTags(existing, incoming []string) []string {
	merged := make(map[string]string)
	order := make([]string, 0, len(existing)+len(incoming))
	for _, label := range existing {
		slug := tags.Slugify(label)
		if _, ok := merged[slug]; !ok {
			order = append(order, slug)
		}
		merged[slug] = label
	}
	for _, label := range incoming {
		slug := tags.Slugify(label)
		if _, ok := merged[slug]; !ok {
			merged[slug] = label
			order = append(order, slug)
		}
	}
	out := make([]string, 0, len(order))
	for _, slug := range order {
		out = append(out, merged[slug])
		if len(out) >= tags.DefaultLimit {
			break
		}
	}
	return out
}

func roundTo(v float64, places int) float64 {
	mul := 1.0
	for i := 0; i < places; i++ {
		mul *= 10
	}
	return float64(int64(v*mul+sign(v)*0.5)) / mul
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
