package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// InsertCard inserts a brand-new canonical card row.
func (d *DB) InsertCard(ctx context.Context, c NewCard) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO memory_card (
			card_id, title, summary, body, note_type, source_reference,
			origin_conversation_id, origin_message_excerpt,
			created_at, updated_at, last_recalled_at, recall_count,
			duplicate_of_id, archived
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, 0, NULL, 0)`,
		c.CardID, c.Title, c.Summary, c.Body, c.NoteType, c.SourceReference,
		c.OriginConversationID, c.OriginMessageExcerpt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// UpdateCard writes only the non-nil fields of patch.
func (d *DB) UpdateCard(ctx context.Context, cardID string, patch CardFields) error {
	assignments := make([]string, 0, 9)
	args := make([]any, 0, 9)

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		assignments = append(assignments, column+" = ?")
		args = append(args, *value)
	}
	add("title", patch.Title)
	add("summary", patch.Summary)
	add("body", patch.Body)
	add("note_type", patch.NoteType)
	add("source_reference", patch.SourceReference)
	add("origin_conversation_id", patch.OriginConversationID)
	add("origin_message_excerpt", patch.OriginMessageExcerpt)
	add("updated_at", patch.UpdatedAt)
	add("duplicate_of_id", patch.DuplicateOfID)

	if len(assignments) == 0 {
		return nil
	}
	args = append(args, cardID)

	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE memory_card SET %s WHERE card_id = ?", strings.Join(assignments, ", ")),
		args...,
	)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return nil
}

// SetDuplicate marks cardID as a duplicate of canonicalCardID.
func (d *DB) SetDuplicate(ctx context.Context, cardID, canonicalCardID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.ExecContext(ctx,
		"UPDATE memory_card SET duplicate_of_id = ? WHERE card_id = ?", canonicalCardID, cardID)
	return err
}

// SetArchived flips the archived flag and bumps updated_at.
func (d *DB) SetArchived(ctx context.Context, cardID string, archived bool, updatedAt string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.ExecContext(ctx,
		"UPDATE memory_card SET archived = ?, updated_at = ? WHERE card_id = ?",
		boolToInt(archived), updatedAt, cardID)
	return err
}

// DeleteCard removes a card and every row that references it, in FK order.
func (d *DB) DeleteCard(ctx context.Context, cardID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		"DELETE FROM memory_card_revision WHERE card_id = ?",
		"DELETE FROM audit_log WHERE card_id = ?",
		"DELETE FROM memory_card_tag WHERE card_id = ?",
		"DELETE FROM memory_card WHERE card_id = ?",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, cardID); err != nil {
			return fmt.Errorf("delete card cascade: %w", err)
		}
	}
	return tx.Commit()
}

// RecordRecall bumps recall_count and stamps last_recalled_at/updated_at.
func (d *DB) RecordRecall(ctx context.Context, cardID, recalledAt string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.ExecContext(ctx, `
		UPDATE memory_card
		SET recall_count = recall_count + 1,
			last_recalled_at = ?,
			updated_at = ?
		WHERE card_id = ?`,
		recalledAt, recalledAt, cardID,
	)
	return err
}

// GetCard fetches a single card with its tags, or nil if absent.
func (d *DB) GetCard(ctx context.Context, cardID string) (*Card, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	row := d.db.QueryRowContext(ctx, "SELECT "+cardColumns+" FROM memory_card WHERE card_id = ?", cardID)
	card, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	tags, err := d.fetchTagsLocked(ctx, cardID)
	if err != nil {
		return nil, err
	}
	card.Tags = tags
	return card, nil
}

// ListCanonicalCards returns every non-duplicate card, optionally including
// archived ones.
func (d *DB) ListCanonicalCards(ctx context.Context, includeArchived bool) ([]*Card, error) {
	query := "SELECT " + cardColumns + " FROM memory_card WHERE duplicate_of_id IS NULL"
	if !includeArchived {
		query += " AND archived = 0"
	}
	return d.queryCards(ctx, query)
}

// ListCardsByIDs returns cards for the given ids, in no particular order.
func (d *DB) ListCardsByIDs(ctx context.Context, cardIDs []string) ([]*Card, error) {
	if len(cardIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(cardIDs))
	args := make([]any, len(cardIDs))
	for i, id := range cardIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf("SELECT %s FROM memory_card WHERE card_id IN (%s)", cardColumns, strings.Join(placeholders, ","))
	return d.queryCardsArgs(ctx, query, args)
}

// ListAllCards returns every card regardless of archived/duplicate state,
// used by the export service.
func (d *DB) ListAllCards(ctx context.Context) ([]*Card, error) {
	return d.queryCards(ctx, "SELECT "+cardColumns+" FROM memory_card")
}

const cardColumns = `card_id, title, summary, body, note_type, source_reference,
	origin_conversation_id, origin_message_excerpt, created_at, updated_at,
	last_recalled_at, recall_count, duplicate_of_id, archived`

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (*Card, error) {
	var c Card
	var archived int
	if err := row.Scan(
		&c.CardID, &c.Title, &c.Summary, &c.Body, &c.NoteType, &c.SourceReference,
		&c.OriginConversationID, &c.OriginMessageExcerpt, &c.CreatedAt, &c.UpdatedAt,
		&c.LastRecalledAt, &c.RecallCount, &c.DuplicateOfID, &archived,
	); err != nil {
		return nil, err
	}
	c.Archived = intToBool(archived)
	return &c, nil
}

func (d *DB) queryCards(ctx context.Context, query string) ([]*Card, error) {
	return d.queryCardsArgs(ctx, query, nil)
}

func (d *DB) queryCardsArgs(ctx context.Context, query string, args []any) ([]*Card, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []*Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	// Release the row cursor before fetching tags, so the tag queries reuse
	// the same connection instead of opening a second one.
	rows.Close()
	for _, c := range cards {
		tags, err := d.fetchTagsLocked(ctx, c.CardID)
		if err != nil {
			return nil, err
		}
		c.Tags = tags
	}
	return cards, nil
}
