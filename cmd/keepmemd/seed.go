package main

import (
	"context"
	"fmt"

	"github.com/kittclouds/keepmem/internal/lifecycle"
	"github.com/spf13/cobra"
)

func newSeedCmd(dbPath *string) *cobra.Command {
	var count int
	var tagLabels []string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert synthetic cards through the real write path, for local perf testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dbPath, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := context.Background()

			for i := 0; i < count; i++ {
				_, err := a.lifecycle.AddCard(ctx, lifecycle.AddCardRequest{
					Title:    fmt.Sprintf("Seeded card %d", i),
					Summary:  fmt.Sprintf("Synthetic summary for perf testing, entry %d", i),
					NoteType: "PERMANENT",
					Tags:     tagLabels,
				})
				if err != nil {
					return fmt.Errorf("seed card %d: %w", i, err)
				}
			}
			a.log.Info().Int("count", count).Msg("seeded cards")
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1000, "number of AddCard calls to make; seeded texts differ only by index, so duplicate detection merges most of them into an earlier seeded card")
	cmd.Flags().StringSliceVar(&tagLabels, "tags", []string{"demo", "perf"}, "tags to apply to every seeded card")
	return cmd
}
