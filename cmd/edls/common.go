package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Zuo-Peng/edl-session-search/internal/config"
	"github.com/Zuo-Peng/edl-session-search/internal/index"
)

// loadConfig reads the config and sets up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

// openIndex loads the config and opens the index database.
func openIndex() (*config.Config, *index.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	return cfg, db, nil
}

func indexOptions(cfg *config.Config) index.Options {
	return index.Options{
		Roots:            cfg.Roots,
		Extensions:       cfg.Extensions,
		Encoding:         cfg.Encoding,
		FallbackEncoding: cfg.FallbackEncoding,
		Strict:           cfg.Strict,
		Workers:          cfg.Workers,
		Logger:           slog.Default(),
	}
}

// runIndex indexes all roots under the cross-process lock.
func runIndex(ctx context.Context, db *index.DB, cfg *config.Config) (index.Stats, error) {
	unlock, err := index.Lock(cfg.DBPath)
	if err != nil {
		return index.Stats{}, err
	}
	defer unlock()

	return index.IndexAll(ctx, db, indexOptions(cfg))
}

// refreshIndex brings the index up to date before a query. Another process
// holding the lock is not an error: the query runs against what is there.
func refreshIndex(ctx context.Context, db *index.DB, cfg *config.Config) {
	_, err := runIndex(ctx, db, cfg)
	switch {
	case errors.Is(err, index.ErrLocked):
		slog.Debug("index busy, searching existing data")
	case err != nil:
		slog.Warn("refresh index", "error", err)
	}
}
