// Package ranking scores candidate cards for a recall query by blending a
// semantic text match, a recency decay, and a recall-frequency penalty.
package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/kittclouds/keepmem/internal/clock"
	"github.com/kittclouds/keepmem/internal/vectorize"
)

const (
	semanticWeight = 0.6
	recencyWeight  = 0.3
	penaltyWeight  = 0.1
	recencyHalfLife = 14.0 // days
	penaltyFreeRecalls = 5
	defaultSemanticScore = 0.5
	defaultRecencyScore  = 0.5
)

// Card is the minimal view the ranking engine needs; the lifecycle engine
// adapts its store.Card rows into this shape.
type Card struct {
	CardID      string
	Title       string
	Summary     string
	Body        string
	UpdatedAt   string
	RecallCount int
}

// Ranked pairs a Card with the score that placed it.
type Ranked struct {
	Card  Card
	Score float64
}

// Engine ranks candidate cards for a recall query.
type Engine struct{}

// New builds a ranking Engine.
func New() *Engine { return &Engine{} }

// Rank scores every card against query and returns them sorted by score,
// descending. A nil or blank query yields a flat 0.5 semantic score for
// every card (no text signal available).
func (e *Engine) Rank(cards []Card, query string) []Ranked {
	if len(cards) == 0 {
		return nil
	}

	semantic := e.semanticScores(cards, query)
	now := clockNow()

	ranked := make([]Ranked, len(cards))
	for i, card := range cards {
		recency := recencyScore(card.UpdatedAt, now)
		penalty := recallPenalty(card.RecallCount)
		score := semanticWeight*semantic[i] + recencyWeight*recency + penaltyWeight*penalty
		ranked[i] = Ranked{Card: card, Score: score}
	}

	sortDescending(ranked)
	return ranked
}

func (e *Engine) semanticScores(cards []Card, query string) []float64 {
	scores := make([]float64, len(cards))
	if trimmed := strings.TrimSpace(query); trimmed == "" {
		for i := range scores {
			scores[i] = defaultSemanticScore
		}
		return scores
	}

	docs := make([]string, 0, len(cards)+1)
	docs = append(docs, query)
	for _, c := range cards {
		docs = append(docs, c.Title+"\n"+c.Summary+"\n"+c.Body)
	}

	matrix := vectorize.Fit(docs, vectorize.WordAnalyzer(1, 1))
	queryVec := matrix.Row(0)
	for i := range cards {
		scores[i] = vectorize.CosineSimilarity(queryVec, matrix.Row(i+1))
	}
	return scores
}

func recencyScore(updatedAt string, now int64) float64 {
	t, err := clock.Parse(updatedAt)
	if err != nil {
		return defaultRecencyScore
	}
	deltaDays := float64(now-t.UTC().Unix()) / 86400.0
	return math.Exp(-deltaDays / recencyHalfLife)
}

func recallPenalty(recallCount int) float64 {
	if recallCount <= penaltyFreeRecalls {
		return 1.0
	}
	return 1.0 / (1.0 + float64(recallCount-penaltyFreeRecalls)/5.0)
}

func clockNow() int64 {
	t, err := clock.Parse(clock.NowString())
	if err != nil {
		panic(err) // clock.NowString always produces a parseable timestamp
	}
	return t.UTC().Unix()
}

func sortDescending(ranked []Ranked) {
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
}
