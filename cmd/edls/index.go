package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Scan the session roots and index every export",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openIndex()
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(os.Stderr, "Scanning roots...\n")
			for _, root := range cfg.Roots {
				fmt.Fprintf(os.Stderr, "  %s\n", root)
			}

			stats, err := runIndex(cmd.Context(), db, cfg)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}
}
