// Command keepmemd is the thin external collaborator around the memory
// card service: it owns the database file, runs migrations, and exposes a
// handful of operator subcommands. The actual tool-call transport (stdio,
// SSE, whatever framing a caller wants) sits above this binary and is out
// of scope here — serve only opens the store and blocks.
package main

import (
	"fmt"
	"os"

	"github.com/kittclouds/keepmem/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath string

	root := &cobra.Command{
		Use:   "keepmemd",
		Short: "Durable memory card service",
	}
	root.PersistentFlags().StringVar(&dbPath, "db-path", "./data/cards.db", "path to the SQLite database file")
	// The flag outranks KEEPMEM_DB_PATH only when it is given explicitly.
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("db-path") {
			dbPath = config.Load(dbPath, "info").DBPath
		}
	}

	root.AddCommand(
		newServeCmd(&dbPath),
		newMigrateCmd(&dbPath),
		newExportCmd(&dbPath),
		newAuditCmd(&dbPath),
		newDebugCmd(&dbPath),
		newSeedCmd(&dbPath),
	)
	return root
}
