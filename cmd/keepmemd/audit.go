package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAuditCmd(dbPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the most recent audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dbPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.auditSvc.ListRecent(context.Background(), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				cardID := "-"
				if e.CardID != nil {
					cardID = *e.CardID
				}
				fmt.Printf("%s\t%s\t%s\t%s\n", e.HappenedAt, e.Action, cardID, e.PayloadRaw)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries to print")
	return cmd
}
