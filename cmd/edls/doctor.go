package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/edl-session-search/internal/index"
	"github.com/Zuo-Peng/edl-session-search/internal/scan"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, roots, DB, FTS5, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Config ===")
			if cfg.Path == "" {
				fmt.Println("  File: (defaults)")
			} else {
				fmt.Printf("  File: %s\n", cfg.Path)
			}
			fmt.Printf("  Encoding: %s (fallback %s)\n", cfg.Encoding, cfg.FallbackEncoding)
			fmt.Printf("  Extensions: %v\n", cfg.Extensions)

			// check roots
			fmt.Println("\n=== Roots ===")
			for _, root := range cfg.Roots {
				checkDir(root)
			}

			// scan file counts
			fmt.Println("\n=== File Scan ===")
			files, err := scan.ScanRoots(cfg.Roots, cfg.Extensions)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				perRoot := make(map[string]int)
				for _, f := range files {
					perRoot[f.Root]++
				}
				for _, root := range cfg.Roots {
					fmt.Printf("  %s: %d exports\n", root, perRoot[root])
				}
			}

			// check DB
			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'edls index' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			sessionCount, err := db.SessionCount()
			if err != nil {
				return fmt.Errorf("count sessions: %w", err)
			}

			entryCount, err := db.EntryCount()
			if err != nil {
				return fmt.Errorf("count entries: %w", err)
			}

			fmt.Printf("  Sessions: %d\n", sessionCount)
			fmt.Printf("  Entries:  %d\n", entryCount)

			unlock, err := index.Lock(cfg.DBPath)
			switch {
			case errors.Is(err, index.ErrLocked):
				fmt.Println("  Lock: held (indexing in progress)")
			case err != nil:
				fmt.Printf("  Lock: error: %v\n", err)
			default:
				fmt.Println("  Lock: free")
				unlock()
			}

			// check FTS5
			fmt.Println("\n=== FTS5 ===")
			ftsCount, err := db.FTSCount()
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == entryCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (entries=%d, fts=%d)\n", entryCount, ftsCount)
				}
			}

			// check DB file size
			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkDir(path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s (NOT FOUND)\n", path)
	} else if !info.IsDir() {
		fmt.Printf("  %s (NOT A DIRECTORY)\n", path)
	} else {
		fmt.Printf("  %s (OK)\n", path)
	}
}
