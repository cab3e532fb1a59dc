package duplicate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindDuplicateMatchesNearIdenticalText(t *testing.T) {
	d := New()
	corpus := []Candidate{
		{CardID: "a", Text: "Remember to water the office plants every Monday"},
		{CardID: "b", Text: "Quantum computing relies on superposition and entanglement"},
	}
	match := d.FindDuplicate("Remember to water the office plants every monday!", corpus)
	require.NotNil(t, match)
	require.Equal(t, "a", match.CardID)
	require.GreaterOrEqual(t, match.Score, d.Threshold)
}

func TestFindDuplicateReturnsNilBelowThreshold(t *testing.T) {
	d := New()
	corpus := []Candidate{
		{CardID: "a", Text: "Completely unrelated note about gardening"},
	}
	match := d.FindDuplicate("A totally different thought about space travel", corpus)
	require.Nil(t, match)
}

func TestFindDuplicateEmptyCorpus(t *testing.T) {
	d := New()
	require.Nil(t, d.FindDuplicate("anything", nil))
}

func TestHighestSimilarityScoresSortedDescending(t *testing.T) {
	d := New()
	corpus := []Candidate{
		{CardID: "a", Text: "alpha beta gamma"},
		{CardID: "b", Text: "alpha beta gamma delta"},
		{CardID: "c", Text: "zzz totally different"},
	}
	matches := d.HighestSimilarityScores("alpha beta gamma", corpus)
	require.Len(t, matches, 3)
	require.True(t, matches[0].Score >= matches[1].Score)
	require.True(t, matches[1].Score >= matches[2].Score)
}
