package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/edl-session-search/internal/search"
	"github.com/Zuo-Peng/edl-session-search/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorMagenta = "\033[1;35m"
	sColorCyan    = "\033[1;36m"
	sColorDim     = "\033[2m"
)

func colorizeKind(kind string) string {
	switch kind {
	case "track":
		return sColorBlue + kind + sColorReset
	case "event":
		return sColorGreen + kind + sColorReset
	case "marker":
		return sColorMagenta + kind + sColorReset
	case "clip", "file":
		return sColorCyan + kind + sColorReset
	default:
		return kind
	}
}

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

// tsvField flattens a value so it stays in its TSV column.
func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if s == "" {
		return "-"
	}
	return s
}

func formatDate(mtime int64) string {
	if mtime <= 0 {
		return "-"
	}
	return time.Unix(mtime, 0).Format("2006-01-02")
}

func searchCmd() *cobra.Command {
	var kind, session, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across indexed sessions",
		Long: `Search tracks, clips, events, markers, files and plug-ins using FTS5.
Timecode and CJK queries fall back to substring matching.
Output is TSV for fzf integration:
  sessionKey, entryId, date, kind, session, location, label, snippet

Recommended shell function (add to .zshrc):
  edlf() {
    edls search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=3.. \
      --preview 'edls preview {1} --hit {2} --query {q}' \
      --preview-window=right:60%:wrap \
      --preview-debounce=150 \
      --bind 'enter:execute(edls open {1} --hit {2})'
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openIndex()
			if err != nil {
				return err
			}
			defer db.Close()

			// Auto-update index before searching
			refreshIndex(cmd.Context(), db, cfg)

			opts := search.Options{
				Kind:    kind,
				Session: session,
				Since:   since,
				Limit:   limit,
			}

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(db, args[0], opts)
			}

			opts.Query = args[0]
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				// first two fields (sessionKey, entryID) stay plain for fzf {1} {2}
				fmt.Printf("%s\t%d\t%s%s%s\t%s\t%s\t%s\t%s\t%s\n",
					r.SessionKey,
					r.EntryID,
					sColorDim, formatDate(r.Mtime), sColorReset,
					colorizeKind(r.Kind),
					tsvField(r.Name),
					tsvField(r.Location),
					tsvField(r.Label),
					colorizeSnippet(tsvField(r.Snippet)),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Filter by entry kind (track/event/marker/clip/file/plugin)")
	cmd.Flags().StringVar(&session, "session", "", "Filter by session key or name")
	cmd.Flags().StringVar(&since, "since", "", "Filter exports modified since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
