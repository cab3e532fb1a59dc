// Package duplicate finds near-duplicate cards on the write path: a
// character-level TF-IDF pass proposes the closest existing card, then a
// word-level TF-IDF pass over just the candidate and that proposal guards
// against same-shape-different-meaning false positives (e.g. "invoice #1"
// vs "invoice #2").
package duplicate

import (
	"sort"

	"github.com/kittclouds/keepmem/internal/vectorize"
)

const (
	// DefaultThreshold is the character-level cosine similarity a card
	// must clear to be considered a duplicate candidate.
	DefaultThreshold = 0.85
	// GuardThreshold is the word-level cosine similarity the proposed
	// duplicate must also clear.
	GuardThreshold = 0.4
)

// Candidate is one existing card considered for duplication.
type Candidate struct {
	CardID string
	Text   string
}

// Match is a confirmed near-duplicate, carrying the character-level score
// that triggered it.
type Match struct {
	CardID string
	Score  float64
}

// Detector finds duplicates against a configurable threshold.
type Detector struct {
	Threshold      float64
	GuardThreshold float64
}

// New builds a Detector with the source's defaults.
func New() *Detector {
	return &Detector{Threshold: DefaultThreshold, GuardThreshold: GuardThreshold}
}

// FindDuplicate returns the best duplicate in corpus for candidateText, or
// nil if no card clears both the character-level threshold and the
// word-level lexical guard.
func (d *Detector) FindDuplicate(candidateText string, corpus []Candidate) *Match {
	if len(corpus) == 0 {
		return nil
	}

	docs := make([]string, 0, len(corpus)+1)
	for _, c := range corpus {
		docs = append(docs, c.Text)
	}
	docs = append(docs, candidateText)
	candidateIdx := len(docs) - 1

	charMatrix := vectorize.Fit(docs, vectorize.CharAnalyzer(1, 2))
	candidateVec := charMatrix.Row(candidateIdx)

	bestIdx := -1
	bestScore := 0.0
	for i := range corpus {
		score := vectorize.CosineSimilarity(candidateVec, charMatrix.Row(i))
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestScore < d.Threshold {
		return nil
	}

	wordMatrix := vectorize.Fit([]string{candidateText, corpus[bestIdx].Text}, vectorize.WordAnalyzer(1, 2))
	guardScore := vectorize.CosineSimilarity(wordMatrix.Row(0), wordMatrix.Row(1))
	if guardScore < d.GuardThreshold {
		return nil
	}

	return &Match{CardID: corpus[bestIdx].CardID, Score: bestScore}
}

// HighestSimilarityScores ranks every corpus entry's character-level
// similarity to candidateText, descending. It never applies the lexical
// guard or the threshold, so operators can inspect near-misses; this backs
// the debug CLI command.
func (d *Detector) HighestSimilarityScores(candidateText string, corpus []Candidate) []Match {
	if len(corpus) == 0 {
		return nil
	}
	docs := make([]string, 0, len(corpus)+1)
	for _, c := range corpus {
		docs = append(docs, c.Text)
	}
	docs = append(docs, candidateText)
	candidateIdx := len(docs) - 1

	charMatrix := vectorize.Fit(docs, vectorize.CharAnalyzer(1, 2))
	candidateVec := charMatrix.Row(candidateIdx)

	matches := make([]Match, len(corpus))
	for i, c := range corpus {
		matches[i] = Match{CardID: c.CardID, Score: vectorize.CosineSimilarity(candidateVec, charMatrix.Row(i))}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}
