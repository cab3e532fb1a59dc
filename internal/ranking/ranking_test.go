package ranking

import (
	"testing"

	"github.com/kittclouds/keepmem/internal/clock"
	"github.com/stretchr/testify/require"
)

func TestRankEmptyCardsReturnsNil(t *testing.T) {
	e := New()
	require.Nil(t, e.Rank(nil, "anything"))
}

func TestRankBlankQueryUsesFlatSemanticScore(t *testing.T) {
	e := New()
	now := clock.NowString()
	cards := []Card{
		{CardID: "a", Title: "Gopher", Summary: "about go", UpdatedAt: now, RecallCount: 0},
		{CardID: "b", Title: "Whale", Summary: "about docker", UpdatedAt: now, RecallCount: 0},
	}
	ranked := e.Rank(cards, "")
	require.Len(t, ranked, 2)
	require.InDelta(t, ranked[0].Score, ranked[1].Score, 1e-9)
}

func TestRankPrefersSemanticMatch(t *testing.T) {
	e := New()
	now := clock.NowString()
	cards := []Card{
		{CardID: "a", Title: "Go concurrency patterns", Summary: "goroutines and channels", UpdatedAt: now},
		{CardID: "b", Title: "Baking sourdough bread", Summary: "starter and hydration", UpdatedAt: now},
	}
	ranked := e.Rank(cards, "goroutines channels concurrency")
	require.Equal(t, "a", ranked[0].Card.CardID)
}

func TestRecallPenaltyDiminishesAboveFive(t *testing.T) {
	require.Equal(t, 1.0, recallPenalty(5))
	require.Less(t, recallPenalty(10), 1.0)
	require.Greater(t, recallPenalty(10), 0.0)
}

func TestRecencyScoreFailsSoftOnBadTimestamp(t *testing.T) {
	require.Equal(t, defaultRecencyScore, recencyScore("not-a-time", 0))
}
