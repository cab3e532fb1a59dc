package lifecycle

import (
	"context"
	"testing"

	"github.com/kittclouds/keepmem/internal/audit"
	"github.com/kittclouds/keepmem/internal/duplicate"
	"github.com/kittclouds/keepmem/internal/ranking"
	"github.com/kittclouds/keepmem/internal/store"
	"github.com/kittclouds/keepmem/internal/worker"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, duplicate.New(), ranking.New(), audit.New(db), worker.New(2), zerolog.Nop())
}

func TestAddCardCreatesNewCanonicalCard(t *testing.T) {
	e := newEngine(t)
	resp, err := e.AddCard(context.Background(), AddCardRequest{
		Title: "Remember the deploy steps", Summary: "Run migrate then serve",
		NoteType: "permanent", Tags: []string{"ops", "ops"},
	})
	require.NoError(t, err)
	require.False(t, resp.Merged)
	require.Equal(t, "PERMANENT", resp.NoteType)
	require.NotEmpty(t, resp.CardID)
}

func TestAddCardRejectsBlankTitle(t *testing.T) {
	e := newEngine(t)
	_, err := e.AddCard(context.Background(), AddCardRequest{Title: "   ", Summary: "x", NoteType: "PERMANENT"})
	require.Error(t, err)
}

func TestAddCardMergesNearDuplicate(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	first, err := e.AddCard(ctx, AddCardRequest{
		Title: "Office plants watering schedule", Summary: "Water every Monday morning without fail",
		NoteType: "PERMANENT",
	})
	require.NoError(t, err)

	second, err := e.AddCard(ctx, AddCardRequest{
		Title: "Office plants watering schedule!", Summary: "Water every monday morning without fail",
		NoteType: "FLEETING",
	})
	require.NoError(t, err)
	require.True(t, second.Merged)
	require.Equal(t, first.CardID, second.CardID)
}

func TestManageCardUpdateArchiveDelete(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	added, err := e.AddCard(ctx, AddCardRequest{Title: "Title", Summary: "Summary", NoteType: "PERMANENT"})
	require.NoError(t, err)

	newTitle := "New title"
	updated, err := e.ManageCard(ctx, ManageRequest{
		CardID: added.CardID, Operation: OpUpdate, Update: &UpdateFields{Title: &newTitle},
	})
	require.NoError(t, err)
	require.Equal(t, "UPDATED", updated.Status)

	archived, err := e.ManageCard(ctx, ManageRequest{CardID: added.CardID, Operation: OpArchive})
	require.NoError(t, err)
	require.Equal(t, "ARCHIVED", archived.Status)

	deleted, err := e.ManageCard(ctx, ManageRequest{CardID: added.CardID, Operation: OpDelete})
	require.NoError(t, err)
	require.Equal(t, "DELETED", deleted.Status)

	_, err = e.ManageCard(ctx, ManageRequest{CardID: added.CardID, Operation: OpArchive})
	require.Error(t, err)
}

func TestRecallReturnsNoMatchMessageWhenEmpty(t *testing.T) {
	e := newEngine(t)
	resp, err := e.Recall(context.Background(), RecallRequest{Query: "nothing here"})
	require.NoError(t, err)
	require.Empty(t, resp.Cards)
	require.NotNil(t, resp.Message)
}

func TestRecallFiltersByTagsAndRecordsRecall(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	added, err := e.AddCard(ctx, AddCardRequest{
		Title: "Go concurrency notes", Summary: "goroutines and channels",
		NoteType: "PERMANENT", Tags: []string{"go"},
	})
	require.NoError(t, err)

	resp, err := e.Recall(ctx, RecallRequest{Tags: []string{"go"}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Cards, 1)
	require.Equal(t, added.CardID, resp.Cards[0].CardID)
	require.Equal(t, 1, resp.Cards[0].RecallCount)

	none, err := e.Recall(ctx, RecallRequest{Tags: []string{"nonexistent"}, Limit: 10})
	require.NoError(t, err)
	require.Empty(t, none.Cards)
}
