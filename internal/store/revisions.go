package store

import (
	"context"
	"fmt"

	"github.com/kittclouds/keepmem/internal/idgen"
)

// AddRevision appends an immutable snapshot row.
func (d *DB) AddRevision(ctx context.Context, cardID, snapshotJSON, changeType, changedAt string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.ExecContext(ctx,
		"INSERT INTO memory_card_revision (revision_id, card_id, snapshot_json, change_type, changed_at) VALUES (?, ?, ?, ?, ?)",
		idgen.New(), cardID, snapshotJSON, changeType, changedAt,
	)
	if err != nil {
		return fmt.Errorf("add revision: %w", err)
	}
	return nil
}

// ListRevisions returns a card's revisions, most recent first.
func (d *DB) ListRevisions(ctx context.Context, cardID string) ([]Revision, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, `
		SELECT revision_id, card_id, snapshot_json, change_type, changed_at
		FROM memory_card_revision
		WHERE card_id = ?
		ORDER BY changed_at DESC`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var r Revision
		if err := rows.Scan(&r.RevisionID, &r.CardID, &r.SnapshotRaw, &r.ChangeType, &r.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
