package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Open the store, run migrations, and block until terminated",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dbPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			a.log.Info().Str("dbPath", a.cfg.DBPath).Msg("store ready")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			a.log.Info().Msg("shutting down")
			return nil
		},
	}
}
