package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kittclouds/keepmem/internal/idgen"
	"github.com/kittclouds/keepmem/internal/tags"
)

// fetchTagsLocked returns a card's tag labels ordered by label. Callers
// must already hold d.mu (read or write).
func (d *DB) fetchTagsLocked(ctx context.Context, cardID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT t.label
		FROM tag t
		INNER JOIN memory_card_tag mct ON mct.tag_id = t.tag_id
		WHERE mct.card_id = ?
		ORDER BY t.label`, cardID)
	if err != nil {
		return nil, fmt.Errorf("fetch tags: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan tag label: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// GetOrCreateTags resolves each label to a Tag row, creating it if its slug
// is new, and updating the stored label (last writer wins) if the slug
// already exists under a different label.
func (d *DB) GetOrCreateTags(ctx context.Context, labels []string) ([]Tag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Tag, 0, len(labels))
	for _, label := range labels {
		slug := tags.Slugify(label)

		var existing Tag
		err := d.db.QueryRowContext(ctx,
			"SELECT tag_id, slug, label FROM tag WHERE slug = ?", slug,
		).Scan(&existing.TagID, &existing.Slug, &existing.Label)

		switch {
		case err == nil:
			if existing.Label != label {
				if _, err := d.db.ExecContext(ctx, "UPDATE tag SET label = ? WHERE tag_id = ?", label, existing.TagID); err != nil {
					return nil, fmt.Errorf("update tag label: %w", err)
				}
				existing.Label = label
			}
			out = append(out, existing)
		case errors.Is(err, sql.ErrNoRows):
			created := Tag{TagID: idgen.New(), Slug: slug, Label: label}
			if _, err := d.db.ExecContext(ctx,
				"INSERT INTO tag (tag_id, slug, label) VALUES (?, ?, ?)",
				created.TagID, created.Slug, created.Label,
			); err != nil {
				return nil, fmt.Errorf("insert tag: %w", err)
			}
			out = append(out, created)
		default:
			return nil, fmt.Errorf("lookup tag: %w", err)
		}
	}
	return out, nil
}

// ReplaceCardTags deletes a card's existing tag links and inserts the
// given set.
func (d *DB) ReplaceCardTags(ctx context.Context, cardID string, tagRows []Tag, addedAt string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tags: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM memory_card_tag WHERE card_id = ?", cardID); err != nil {
		return fmt.Errorf("clear card tags: %w", err)
	}
	for _, t := range tagRows {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO memory_card_tag (card_id, tag_id, added_at) VALUES (?, ?, ?)",
			cardID, t.TagID, addedAt,
		); err != nil {
			return fmt.Errorf("insert card tag: %w", err)
		}
	}
	return tx.Commit()
}

// FindCardsWithAllSlugs returns the IDs of cards tagged with every slug in
// slugs (a logical AND), via a GROUP BY / HAVING COUNT(DISTINCT) query.
func (d *DB) FindCardsWithAllSlugs(ctx context.Context, slugs []string) (map[string]struct{}, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(slugs))
	args := make([]any, len(slugs)+1)
	for i, s := range slugs {
		placeholders[i] = "?"
		args[i] = s
	}
	args[len(slugs)] = len(slugs)

	d.mu.RLock()
	defer d.mu.RUnlock()

	query := fmt.Sprintf(`
		SELECT mct.card_id
		FROM memory_card_tag mct
		INNER JOIN tag t ON t.tag_id = mct.tag_id
		WHERE t.slug IN (%s)
		GROUP BY mct.card_id
		HAVING COUNT(DISTINCT t.slug) = ?`, joinPlaceholders(placeholders))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find cards with tags: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan card id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func joinPlaceholders(ph []string) string {
	out := ph[0]
	for _, p := range ph[1:] {
		out += "," + p
	}
	return out
}

