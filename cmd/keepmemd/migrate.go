package main

import "github.com/spf13/cobra"

func newMigrateCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dbPath, false)
			if err != nil {
				return err
			}
			defer a.Close()
			a.log.Info().Int("schemaVersion", 1).Msg("migrations applied")
			return nil
		},
	}
}
