package main

import (
	"context"
	"fmt"

	"github.com/kittclouds/keepmem/internal/duplicate"
	"github.com/kittclouds/keepmem/internal/ranking"
	"github.com/spf13/cobra"
)

func newDebugCmd(dbPath *string) *cobra.Command {
	var query, candidate string
	var includeArchived bool
	var top int

	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Inspect ranking and duplicate-detection scores without mutating state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dbPath, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := context.Background()

			cards, err := a.db.ListCanonicalCards(ctx, includeArchived)
			if err != nil {
				return err
			}

			if query != "" {
				rankInputs := make([]ranking.Card, len(cards))
				for i, c := range cards {
					body := ""
					if c.Body != nil {
						body = *c.Body
					}
					rankInputs[i] = ranking.Card{
						CardID: c.CardID, Title: c.Title, Summary: c.Summary, Body: body,
						UpdatedAt: c.UpdatedAt, RecallCount: c.RecallCount,
					}
				}
				ranked := ranking.New().Rank(rankInputs, query)
				if len(ranked) > top {
					ranked = ranked[:top]
				}
				fmt.Println("-- ranking --")
				for _, r := range ranked {
					fmt.Printf("%.6f\t%s\t%s\n", r.Score, r.Card.CardID, r.Card.Title)
				}
			}

			if candidate != "" {
				corpus := make([]duplicate.Candidate, len(cards))
				for i, c := range cards {
					corpus[i] = duplicate.Candidate{CardID: c.CardID, Text: c.Title + "\n" + c.Summary}
				}
				matches := duplicate.New().HighestSimilarityScores(candidate, corpus)
				if len(matches) > top {
					matches = matches[:top]
				}
				fmt.Println("-- duplicate candidates --")
				for _, m := range matches {
					fmt.Printf("%.6f\t%s\n", m.Score, m.CardID)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "recall query to rank existing cards against")
	cmd.Flags().StringVar(&candidate, "candidate", "", "candidate text to score against existing cards for duplication")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", false, "include archived cards")
	cmd.Flags().IntVar(&top, "top", 5, "maximum number of results to print per section")
	return cmd
}
