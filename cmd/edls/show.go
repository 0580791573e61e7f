package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/edl-session-search/internal/edl"
	"github.com/Zuo-Peng/edl-session-search/internal/parse"
	"github.com/Zuo-Peng/edl-session-search/internal/render"
)

func showCmd() *cobra.Command {
	var encoding, output string
	var strict bool

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Parse one export directly and print it, without touching the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if encoding == "" {
				encoding = cfg.Encoding
			}

			path := args[0]
			result, err := parse.ParseEDL(path, filepath.Dir(path), parse.Options{
				Encoding:         encoding,
				FallbackEncoding: cfg.FallbackEncoding,
				Strict:           strict || cfg.Strict,
				Logger:           slog.Default(),
			})
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}

			switch output {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result.Session)
			case "text":
				out, _ := render.Session(result.Session, render.Options{})
				fmt.Print(out)
				return nil
			case "table":
				printSessionTables(result.Session, result.Meta.Summary)
				return nil
			default:
				return fmt.Errorf("unknown output %q (want table, text or json)", output)
			}
		},
	}

	cmd.Flags().StringVar(&encoding, "encoding", "", "Text encoding (default from config, \"auto\" sniffs BOMs)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output: table, text or json")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on unrecognized lines")

	return cmd
}

func printSessionTables(s *edl.Session, summary string) {
	fmt.Printf("%s\n%g Hz | %s | start %s\n", s.Name, s.SampleRate.Hertz(), s.BitDepth, s.StartTimecode)
	fmt.Println(summary)

	if len(s.Plugins) > 0 {
		rows := make([][]string, 0, len(s.Plugins))
		for _, p := range s.Plugins {
			rows = append(rows, []string{p.Manufacturer, p.Name, p.Version, p.Format.String(), p.Stems, strconv.Itoa(p.Instances)})
		}
		printTable("Plug-ins",
			[]column{textCol("Manufacturer"), textCol("Name"), textCol("Version"), textCol("Format"), textCol("Stems"), numCol("Instances")},
			rows,
		)
	}

	if n := len(s.Files.OnlineFiles) + len(s.Files.OfflineFiles); n > 0 {
		rows := make([][]string, 0, n)
		for _, f := range s.Files.OnlineFiles {
			rows = append(rows, []string{f.Name, f.Location, "online"})
		}
		for _, f := range s.Files.OfflineFiles {
			rows = append(rows, []string{f.Name, f.Location, "offline"})
		}
		printTable("Files",
			[]column{textCol("Name"), wideCol("Location", 60), textCol("Status")},
			rows,
		)
	}

	var events [][]string
	for _, t := range s.Tracks {
		for _, e := range t.Events {
			state := "unmuted"
			if e.Muted {
				state = "muted"
			}
			events = append(events, []string{
				t.Name,
				strconv.Itoa(e.Channel),
				strconv.Itoa(e.Event),
				e.ClipName,
				e.TimeIn.String(),
				e.TimeOut.String(),
				render.Duration(e.Duration(), s.FrameRate),
				state,
			})
		}
	}
	if len(s.Tracks) > 0 {
		rows := make([][]string, 0, len(s.Tracks))
		for _, t := range s.Tracks {
			rows = append(rows, []string{t.Name, strconv.Itoa(t.Delay), t.State, strings.Join(t.Plugins, ", "), strconv.Itoa(len(t.Events))})
		}
		printTable("Tracks",
			[]column{textCol("Track"), numCol("Delay"), textCol("State"), wideCol("Plug-ins", 40), numCol("Events")},
			rows,
		)
	}
	if len(events) > 0 {
		printTable("Events",
			[]column{textCol("Track"), numCol("Ch"), numCol("Ev"), wideCol("Clip", 40), textCol("In"), textCol("Out"), textCol("Duration"), textCol("State")},
			events,
		)
	}

	if len(s.Markers) > 0 {
		rows := make([][]string, 0, len(s.Markers))
		for _, m := range s.Markers {
			rows = append(rows, []string{
				strconv.Itoa(m.ID),
				m.Location.String(),
				strconv.FormatInt(m.TimeReference, 10),
				m.Unit.String(),
				m.Name,
				m.Comment,
			})
		}
		printTable("Markers",
			[]column{numCol("#"), textCol("Location"), numCol("Time Ref"), textCol("Unit"), textCol("Name"), wideCol("Comment", 50)},
			rows,
		)
	}
}

func printTable(title string, cols []column, rows [][]string) {
	fmt.Printf("\n%s\n", renderTable(title, cols, rows))
}
