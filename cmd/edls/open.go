package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/edl-session-search/internal/open"
)

func openCmd() *cobra.Command {
	var hitEntryID int

	cmd := &cobra.Command{
		Use:   "open <sessionKey>",
		Short: "Open the original export in $EDITOR at the hit line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openIndex()
			if err != nil {
				return err
			}
			defer db.Close()

			return open.OpenSession(db, args[0], hitEntryID)
		},
	}

	cmd.Flags().IntVar(&hitEntryID, "hit", -1, "Entry ID to jump to")

	return cmd
}
