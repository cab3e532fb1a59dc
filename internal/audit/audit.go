// Package audit appends one JSON-payload row per lifecycle mutation,
// providing the append-only trail the lifecycle and export services write
// to on every add/update/archive/delete/recall/merge/export.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kittclouds/keepmem/internal/store"
)

// Action names match the source's action string constants exactly; they
// are persisted verbatim and read back by the audit CLI command.
const (
	ActionAddCard        = "ADD_CARD"
	ActionUpdateCard     = "UPDATE_CARD"
	ActionDelete         = "DELETE"
	ActionRecall         = "RECALL"
	ActionMergeDuplicate = "MERGE_DUPLICATE"
	ActionExport         = "EXPORT"
)

// Recorder is the storage dependency the Service needs.
type Recorder interface {
	AppendAudit(ctx context.Context, cardID *string, action, payloadJSON, happenedAt string) error
	ListRecentAudit(ctx context.Context, limit int) ([]store.AuditEntry, error)
	EntriesForCard(ctx context.Context, cardID string) ([]store.AuditEntry, error)
}

// Service appends structured audit entries.
type Service struct {
	store Recorder
}

// New builds an audit Service over store.
func New(s Recorder) *Service {
	return &Service{store: s}
}

func (s *Service) append(ctx context.Context, cardID *string, action string, payload any, happenedAt string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	return s.store.AppendAudit(ctx, cardID, action, string(raw), happenedAt)
}

// AddCard records a newly created card's payload. Merges are recorded by
// MergeDuplicate instead.
func (s *Service) AddCard(ctx context.Context, cardID string, payload any, happenedAt string) error {
	return s.append(ctx, &cardID, ActionAddCard, payload, happenedAt)
}

// UpdateCard records an UPDATE operation's changed fields.
func (s *Service) UpdateCard(ctx context.Context, cardID string, payload any, happenedAt string) error {
	return s.append(ctx, &cardID, ActionUpdateCard, payload, happenedAt)
}

// ArchiveCard records an archive, which is itself an UPDATE_CARD action
// carrying an explicit status payload.
func (s *Service) ArchiveCard(ctx context.Context, cardID string, happenedAt string) error {
	return s.append(ctx, &cardID, ActionUpdateCard, map[string]string{"status": "ARCHIVED"}, happenedAt)
}

// DeleteCard records a deletion. Callers must append this before the row
// is actually removed, to satisfy the audit_log foreign key.
func (s *Service) DeleteCard(ctx context.Context, cardID string, happenedAt string) error {
	return s.append(ctx, &cardID, ActionDelete, map[string]string{}, happenedAt)
}

// Recall records one batched recall query.
func (s *Service) Recall(ctx context.Context, payload any, happenedAt string) error {
	return s.append(ctx, nil, ActionRecall, payload, happenedAt)
}

// MergeDuplicate records a write-path merge into an existing canonical
// card.
func (s *Service) MergeDuplicate(ctx context.Context, canonicalCardID string, payload any, happenedAt string) error {
	return s.append(ctx, &canonicalCardID, ActionMergeDuplicate, payload, happenedAt)
}

// Export records a completed export run.
func (s *Service) Export(ctx context.Context, payload any, happenedAt string) error {
	return s.append(ctx, nil, ActionExport, payload, happenedAt)
}

// ListRecent returns the most recent audit entries, for the audit CLI
// command.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]store.AuditEntry, error) {
	return s.store.ListRecentAudit(ctx, limit)
}

// EntriesForCard returns every audit entry recorded against a card.
func (s *Service) EntriesForCard(ctx context.Context, cardID string) ([]store.AuditEntry, error) {
	return s.store.EntriesForCard(ctx, cardID)
}
