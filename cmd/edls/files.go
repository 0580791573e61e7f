package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/edl-session-search/internal/edl"
	"github.com/Zuo-Peng/edl-session-search/internal/media"
)

func filesCmd() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "files <sessionKey>",
		Short: "List a session's audio files and where they are on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openIndex()
			if err != nil {
				return err
			}
			defer db.Close()

			meta, err := db.GetSessionByKey(args[0])
			if err != nil {
				return err
			}
			if meta == nil {
				return fmt.Errorf("session not found: %s", args[0])
			}
			session, err := db.LoadSession(args[0])
			if err != nil {
				return err
			}

			var rows [][]string
			missing := 0
			add := func(f edl.MediaFile, status string) {
				path, found := media.Locate(meta.FilePath, f)
				if !found {
					missing++
					rows = append(rows, []string{f.Name, status, "missing", "", "", ""})
					return
				}
				row := []string{f.Name, status, path, "", "", ""}
				if probe {
					info, err := media.Probe(path)
					if err != nil {
						row[3] = "error: " + err.Error()
					} else {
						row[3] = info.Format
						row[4] = strconv.FormatInt(info.Size, 10)
						if info.Duration > 0 {
							row[5] = info.Duration.Round(time.Millisecond).String()
						}
					}
				}
				rows = append(rows, row)
			}
			for _, f := range session.Files.OnlineFiles {
				add(f, "online")
			}
			for _, f := range session.Files.OfflineFiles {
				add(f, "offline")
			}

			if len(rows) == 0 {
				fmt.Println("No files listed in this export.")
				return nil
			}
			fmt.Println(renderTable(meta.Name,
				[]column{textCol("Name"), textCol("Status"), wideCol("Found", 60), textCol("Format"), numCol("Bytes"), numCol("Duration")},
				rows,
			))
			fmt.Printf("%d files, %d not found on disk\n", len(rows), missing)
			return nil
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", true, "Read format, tags and duration of found files")

	return cmd
}
