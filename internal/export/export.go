// Package export walks every stored card (including archived and
// duplicate-marked ones) and writes one NDJSON line per card: a "card"
// envelope plus its full "revisions" history, one line per card.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kittclouds/keepmem/internal/apperr"
	"github.com/kittclouds/keepmem/internal/clock"
	"github.com/kittclouds/keepmem/internal/store"
)

// Store is the storage surface the export service depends on.
type Store interface {
	ListAllCards(ctx context.Context) ([]*store.Card, error)
	ListRevisions(ctx context.Context, cardID string) ([]store.Revision, error)
}

// AuditRecorder is the audit dependency; exporting appends one EXPORT entry.
type AuditRecorder interface {
	Export(ctx context.Context, payload any, happenedAt string) error
}

// Service writes the NDJSON export file.
type Service struct {
	store Store
	audit AuditRecorder
}

// New builds an export Service.
func New(s Store, a AuditRecorder) *Service {
	return &Service{store: s, audit: a}
}

// exportRecord is one NDJSON line: a card envelope alongside its full
// revision history, matching the original's _build_payload envelope.
type exportRecord struct {
	Card      cardFields       `json:"card"`
	Revisions []revisionRecord `json:"revisions"`
}

// cardFields mirrors MemoryCard.to_dict()'s snake_case column names.
type cardFields struct {
	CardID               string   `json:"card_id"`
	Title                string   `json:"title"`
	Summary              string   `json:"summary"`
	Body                 *string  `json:"body"`
	NoteType             string   `json:"note_type"`
	SourceReference      *string  `json:"source_reference"`
	OriginConversationID *string  `json:"origin_conversation_id"`
	OriginMessageExcerpt *string  `json:"origin_message_excerpt"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
	LastRecalledAt       *string  `json:"last_recalled_at"`
	RecallCount          int      `json:"recall_count"`
	DuplicateOfID        *string  `json:"duplicate_of_id"`
	Archived             bool     `json:"archived"`
	Tags                 []string `json:"tags"`
}

type revisionRecord struct {
	RevisionID string          `json:"revision_id"`
	CardID     string          `json:"card_id"`
	ChangeType string          `json:"change_type"`
	ChangedAt  string          `json:"changed_at"`
	Snapshot   json.RawMessage `json:"snapshot"`
}

// Export writes every card to destinationPath (or, if empty, to
// "~/memory-export-<timestamp>.jsonl") and returns the resolved path.
// A relative destinationPath is resolved against the working directory:
// rejecting relative paths is an adapter-layer policy (see cmd/keepmemd),
// not this service's job.
func (s *Service) Export(ctx context.Context, destinationPath string) (string, error) {
	path, err := s.resolvePath(destinationPath)
	if err != nil {
		return "", apperr.ExportFailed(err)
	}

	cards, err := s.store.ListAllCards(ctx)
	if err != nil {
		return "", apperr.ExportFailed(fmt.Errorf("list cards: %w", err))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", apperr.ExportFailed(fmt.Errorf("create export directory: %w", err))
	}
	f, err := os.Create(path)
	if err != nil {
		return "", apperr.ExportFailed(fmt.Errorf("create export file: %w", err))
	}
	defer f.Close()

	for _, c := range cards {
		revisions, err := s.store.ListRevisions(ctx, c.CardID)
		if err != nil {
			return "", apperr.ExportFailed(fmt.Errorf("list revisions for %s: %w", c.CardID, err))
		}
		record := toExportRecord(c, revisions)
		line, err := json.Marshal(record)
		if err != nil {
			return "", apperr.ExportFailed(fmt.Errorf("marshal card %s: %w", c.CardID, err))
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return "", apperr.ExportFailed(fmt.Errorf("write card %s: %w", c.CardID, err))
		}
	}

	now := clock.NowString()
	if err := s.audit.Export(ctx, map[string]any{"filePath": path, "exportedCount": len(cards)}, now); err != nil {
		return "", apperr.ExportFailed(fmt.Errorf("append export audit: %w", err))
	}

	return path, nil
}

func toExportRecord(c *store.Card, revisions []store.Revision) exportRecord {
	recs := make([]revisionRecord, len(revisions))
	for i, r := range revisions {
		raw := json.RawMessage(r.SnapshotRaw)
		if !json.Valid(raw) {
			// Fall back to the raw string if it somehow isn't valid JSON.
			quoted, _ := json.Marshal(r.SnapshotRaw)
			raw = quoted
		}
		recs[i] = revisionRecord{
			RevisionID: r.RevisionID, CardID: r.CardID, ChangeType: r.ChangeType,
			ChangedAt: r.ChangedAt, Snapshot: raw,
		}
	}
	return exportRecord{
		Card: cardFields{
			CardID: c.CardID, Title: c.Title, Summary: c.Summary, Body: c.Body,
			NoteType: c.NoteType, SourceReference: c.SourceReference,
			OriginConversationID: c.OriginConversationID, OriginMessageExcerpt: c.OriginMessageExcerpt,
			CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt, LastRecalledAt: c.LastRecalledAt,
			RecallCount: c.RecallCount, DuplicateOfID: c.DuplicateOfID, Archived: c.Archived,
			Tags: c.Tags,
		},
		Revisions: recs,
	}
}

// resolvePath applies the default-directory decision: the user's home
// directory, matching the source's Path.home() fallback, not a data/
// subdirectory.
func (s *Service) resolvePath(destinationPath string) (string, error) {
	if destinationPath != "" {
		return filepath.Abs(destinationPath)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	stamp := strings.NewReplacer("-", "", ":", "", "T", "").Replace(clock.NowString())
	if dot := strings.Index(stamp, "."); dot >= 0 {
		stamp = stamp[:dot]
	}
	return filepath.Join(home, fmt.Sprintf("memory-export-%s.jsonl", stamp)), nil
}
