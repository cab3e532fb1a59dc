package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newExportCmd(dbPath *string) *cobra.Command {
	var destination string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every card to an NDJSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if destination != "" && !filepath.IsAbs(destination) {
				return fmt.Errorf("EXPORT_FAILED: destination must be an absolute path, got %q", destination)
			}
			a, err := openApp(*dbPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			path, err := a.exportSvc.Export(context.Background(), destination)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
	cmd.Flags().StringVar(&destination, "destination", "", "absolute path for the export file (default: ~/memory-export-<timestamp>.jsonl)")
	return cmd
}
