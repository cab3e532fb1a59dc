package store

import (
	"context"
	"testing"

	"github.com/kittclouds/keepmem/internal/clock"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndGetCardRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	now := clock.NowString()

	require.NoError(t, db.InsertCard(ctx, NewCard{
		CardID: "card-1", Title: "Title", Summary: "Summary",
		NoteType: "PERMANENT", CreatedAt: now, UpdatedAt: now,
	}))

	card, err := db.GetCard(ctx, "card-1")
	require.NoError(t, err)
	require.NotNil(t, card)
	require.Equal(t, "Title", card.Title)
	require.Equal(t, 0, card.RecallCount)
	require.False(t, card.Archived)
	require.Nil(t, card.DuplicateOfID)
}

func TestGetCardMissingReturnsNil(t *testing.T) {
	db := openTestDB(t)
	card, err := db.GetCard(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, card)
}

func TestUpdateCardOnlyTouchesGivenFields(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	now := clock.NowString()
	require.NoError(t, db.InsertCard(ctx, NewCard{
		CardID: "card-1", Title: "Old", Summary: "Sum", NoteType: "PERMANENT",
		CreatedAt: now, UpdatedAt: now,
	}))

	newTitle := "New"
	require.NoError(t, db.UpdateCard(ctx, "card-1", CardFields{Title: &newTitle}))

	card, err := db.GetCard(ctx, "card-1")
	require.NoError(t, err)
	require.Equal(t, "New", card.Title)
	require.Equal(t, "Sum", card.Summary)
}

func TestDeleteCardCascades(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	now := clock.NowString()
	require.NoError(t, db.InsertCard(ctx, NewCard{
		CardID: "card-1", Title: "T", Summary: "S", NoteType: "PERMANENT",
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, db.AddRevision(ctx, "card-1", `{}`, "CREATE", now))
	cardID := "card-1"
	require.NoError(t, db.AppendAudit(ctx, &cardID, "ADD_CARD", `{}`, now))

	require.NoError(t, db.DeleteCard(ctx, "card-1"))

	card, err := db.GetCard(ctx, "card-1")
	require.NoError(t, err)
	require.Nil(t, card)

	revisions, err := db.ListRevisions(ctx, "card-1")
	require.NoError(t, err)
	require.Empty(t, revisions)
}

func TestTagRoundTripAndAndQuery(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	now := clock.NowString()

	require.NoError(t, db.InsertCard(ctx, NewCard{CardID: "a", Title: "A", Summary: "S", NoteType: "PERMANENT", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, db.InsertCard(ctx, NewCard{CardID: "b", Title: "B", Summary: "S", NoteType: "PERMANENT", CreatedAt: now, UpdatedAt: now}))

	tagsA, err := db.GetOrCreateTags(ctx, []string{"go", "sqlite"})
	require.NoError(t, err)
	require.NoError(t, db.ReplaceCardTags(ctx, "a", tagsA, now))

	tagsB, err := db.GetOrCreateTags(ctx, []string{"go"})
	require.NoError(t, err)
	require.NoError(t, db.ReplaceCardTags(ctx, "b", tagsB, now))

	both, err := db.FindCardsWithAllSlugs(ctx, []string{"go", "sqlite"})
	require.NoError(t, err)
	require.Contains(t, both, "a")
	require.NotContains(t, both, "b")

	justGo, err := db.FindCardsWithAllSlugs(ctx, []string{"go"})
	require.NoError(t, err)
	require.Contains(t, justGo, "a")
	require.Contains(t, justGo, "b")
}

func TestGetOrCreateTagsUpdatesLabelOnSlugCollision(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	first, err := db.GetOrCreateTags(ctx, []string{"Go Lang"})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := db.GetOrCreateTags(ctx, []string{"GO LANG"})
	require.NoError(t, err)
	require.Equal(t, first[0].TagID, second[0].TagID)
	require.Equal(t, "GO LANG", second[0].Label)
}

func TestRecordRecallIncrementsCountAndStamps(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	now := clock.NowString()
	require.NoError(t, db.InsertCard(ctx, NewCard{CardID: "a", Title: "A", Summary: "S", NoteType: "PERMANENT", CreatedAt: now, UpdatedAt: now}))

	require.NoError(t, db.RecordRecall(ctx, "a", now))
	card, err := db.GetCard(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 1, card.RecallCount)
	require.NotNil(t, card.LastRecalledAt)
}
