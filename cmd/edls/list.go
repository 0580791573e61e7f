package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/edl-session-search/internal/search"
	"github.com/Zuo-Peng/edl-session-search/internal/tui"
)

func listCmd() *cobra.Command {
	var since string
	var limit int

	cmd := &cobra.Command{
		Use:   "list [filter]",
		Short: "Browse all sessions, most recently modified first",
		Long: `Opens a TUI panel showing all indexed sessions, newest export first. Type to
search inside the sessions. When stdout is not a terminal, prints one TSV line per
session: sessionKey, date, name, start timecode, summary, path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openIndex()
			if err != nil {
				return err
			}
			defer db.Close()

			refreshIndex(cmd.Context(), db, cfg)

			opts := search.Options{
				Since: since,
				Limit: limit,
			}

			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.RunList(db, opts)
			}

			if len(args) > 0 {
				opts.Query = args[0]
			}
			results, err := search.ListAll(db, opts)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("%s\t%s\t%s\t%s\t%s\t%s\n",
					r.SessionKey,
					formatDate(r.Mtime),
					tsvField(r.Name),
					tsvField(r.Location),
					tsvField(r.Summary),
					r.FilePath,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Filter exports modified since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = no limit)")

	return cmd
}
