package store

import (
	"context"
	"fmt"

	"github.com/kittclouds/keepmem/internal/idgen"
)

// AppendAudit writes one append-only audit row. cardID may be nil for
// card-less actions (RECALL and EXPORT entries are written that way).
func (d *DB) AppendAudit(ctx context.Context, cardID *string, action, payloadJSON, happenedAt string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.ExecContext(ctx,
		"INSERT INTO audit_log (audit_id, card_id, action, payload_json, happened_at) VALUES (?, ?, ?, ?, ?)",
		idgen.New(), cardID, action, payloadJSON, happenedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// ListRecentAudit returns the most recent audit entries, newest first.
func (d *DB) ListRecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, `
		SELECT audit_id, card_id, action, payload_json, happened_at
		FROM audit_log
		ORDER BY happened_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit: %w", err)
	}
	defer rows.Close()
	return scanAuditRows(rows)
}

// EntriesForCard returns every audit entry recorded for a card.
func (d *DB) EntriesForCard(ctx context.Context, cardID string) ([]AuditEntry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, `
		SELECT audit_id, card_id, action, payload_json, happened_at
		FROM audit_log
		WHERE card_id = ?
		ORDER BY happened_at DESC`, cardID)
	if err != nil {
		return nil, fmt.Errorf("entries for card: %w", err)
	}
	defer rows.Close()
	return scanAuditRows(rows)
}

func scanAuditRows(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]AuditEntry, error) {
	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.AuditID, &e.CardID, &e.Action, &e.PayloadRaw, &e.HappenedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
