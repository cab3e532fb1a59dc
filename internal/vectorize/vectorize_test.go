package vectorize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWordsSplitsOnJoinersCorrectly(t *testing.T) {
	got := Words("don't stop state-of-the-art, please!")
	require.Equal(t, []string{"don't", "stop", "state-of-the-art", "please"}, got)
}

func TestDropStopwordsRemovesCommonWords(t *testing.T) {
	got := DropStopwords([]string{"the", "quick", "fox", "is", "fast"})
	require.Equal(t, []string{"quick", "fox", "fast"}, got)
}

func TestCharNGramsStayWithinWordBoundary(t *testing.T) {
	got := CharNGrams("ab cd", 1, 3)
	for _, g := range got {
		require.NotContains(t, g, "b c")
		require.NotContains(t, g, "bc")
	}
}

func TestCosineSimilarityIdenticalDocsIsOne(t *testing.T) {
	m := Fit([]string{"go is great", "go is great"}, WordAnalyzer(1, 1))
	sim := CosineSimilarity(m.Row(0), m.Row(1))
	require.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineSimilarityDisjointDocsIsZero(t *testing.T) {
	m := Fit([]string{"apples oranges", "quantum gravity"}, WordAnalyzer(1, 1))
	sim := CosineSimilarity(m.Row(0), m.Row(1))
	require.InDelta(t, 0.0, sim, 1e-9)
}

func TestCosineSimilarityEmptyVectorIsZero(t *testing.T) {
	require.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{0, 0}))
}
