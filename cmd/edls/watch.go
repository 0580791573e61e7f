package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/edl-session-search/internal/config"
	"github.com/Zuo-Peng/edl-session-search/internal/index"
	"github.com/Zuo-Peng/edl-session-search/internal/watch"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Index once, then re-index whenever exports under the roots change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, db, err := openIndex()
			if err != nil {
				return err
			}
			defer db.Close()

			w, err := startWatcher(ctx, db, cfg)
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Fprintln(os.Stderr, "Watching for changes, Ctrl-C to stop.")
			<-ctx.Done()
			return nil
		},
	}
}

// startWatcher indexes once and then keeps the index current until ctx ends.
func startWatcher(ctx context.Context, db *index.DB, cfg *config.Config) (*watch.Watcher, error) {
	reindex := func() error {
		_, err := runIndex(ctx, db, cfg)
		if errors.Is(err, index.ErrLocked) || errors.Is(err, context.Canceled) {
			slog.Info("reindex skipped", "reason", err)
			return nil
		}
		return err
	}
	if err := reindex(); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}

	w, err := watch.New(cfg.Roots, cfg.Extensions, cfg.WatchDebounce(), reindex, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	return w, nil
}
