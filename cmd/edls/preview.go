package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/edl-session-search/internal/render"
)

func previewCmd() *cobra.Command {
	var hitEntryID int
	var width int
	var query string

	cmd := &cobra.Command{
		Use:   "preview <sessionKey>",
		Short: "Render an indexed session, highlighting a hit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openIndex()
			if err != nil {
				return err
			}
			defer db.Close()

			opts := render.Options{Width: width, Query: query}
			if hitEntryID >= 0 {
				entry, err := db.GetEntry(args[0], hitEntryID)
				if err != nil {
					return err
				}
				if entry != nil {
					opts.HitLine = entry.LineNumber
				}
			}

			out, _, err := render.RenderSession(db, args[0], opts)
			if err != nil {
				return err
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&hitEntryID, "hit", -1, "Entry ID to highlight")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (0 = no wrap)")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")

	return cmd
}
