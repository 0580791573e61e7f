package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Zuo-Peng/edl-session-search/internal/parse"
	"github.com/Zuo-Peng/edl-session-search/internal/scan"
)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
	// SkippedLines totals the unclassified lines dropped from updated files.
	SkippedLines int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d skipped_lines=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors, s.SkippedLines)
}

type Options struct {
	Roots            []string
	Extensions       []string
	Encoding         string
	FallbackEncoding string
	Strict           bool
	Workers          int
	Logger           *slog.Logger
}

type job struct {
	fi     scan.FileInfo
	key    string
	result *parse.ParseResult
	err    error
}

// IndexAll scans the roots, re-parses exports whose mtime or size changed
// and prunes sessions whose files are gone. Parsing runs on up to
// opts.Workers goroutines; writes are serialised on the caller.
//
// A file that fails to parse keeps whatever was indexed for it before.
func IndexAll(ctx context.Context, db *DB, opts Options) (Stats, error) {
	var stats Stats
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	files, err := scan.ScanRoots(opts.Roots, opts.Extensions)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	// track which files we see, for pruning
	seenKeys := make(map[string]struct{})
	var pending []*job

	for _, fi := range files {
		key := parse.SessionKey(fi.Path, fi.Root)
		if _, dup := seenKeys[key]; dup {
			stats.Errors++
			logger.Warn("duplicate session key", "key", key, "file", fi.Path)
			continue
		}
		seenKeys[key] = struct{}{}

		needs, err := needsUpdate(db, key, fi.Mtime, fi.Size)
		if err != nil {
			stats.Errors++
			logger.Warn("read index", "key", key, "error", err)
			continue
		}
		if !needs {
			stats.Skipped++
			continue
		}
		pending = append(pending, &job{fi: fi, key: key})
	}

	parseAll(ctx, pending, opts, logger)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	for _, j := range pending {
		if j.err != nil {
			stats.Errors++
			logger.Warn("parse", "file", j.fi.Path, "error", j.err)
			continue
		}
		if err := indexSession(db, j.result); err != nil {
			stats.Errors++
			logger.Warn("index", "file", j.fi.Path, "error", err)
			continue
		}
		stats.Updated++
		if n := j.result.Session.SkippedLines; n > 0 {
			stats.SkippedLines += n
			logger.Warn("lines skipped", "file", j.fi.Path, "count", n)
		}
	}

	// prune sessions whose files no longer exist
	pruned, err := pruneSessions(db, seenKeys)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	logger.Info("index complete",
		"scanned", stats.Scanned, "updated", stats.Updated, "skipped", stats.Skipped,
		"pruned", stats.Pruned, "errors", stats.Errors, "skipped_lines", stats.SkippedLines)
	return stats, nil
}

func parseAll(ctx context.Context, jobs []*job, opts Options, logger *slog.Logger) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				j.err = err
				return nil
			}
			j.result, j.err = parse.ParseEDL(j.fi.Path, j.fi.Root, parse.Options{
				Encoding:         opts.Encoding,
				FallbackEncoding: opts.FallbackEncoding,
				Strict:           opts.Strict,
				Logger:           logger,
			})
			return nil
		})
	}
	g.Wait()
}

func needsUpdate(db *DB, sessionKey string, mtime, size int64) (bool, error) {
	info, err := db.GetSessionInfo(sessionKey)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new session
	}
	return info.Mtime != mtime || info.Size != size, nil
}

func indexSession(db *DB, result *parse.ParseResult) error {
	data, err := json.Marshal(result.Session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// delete old data first
	if err := deleteSession(tx, result.Meta.SessionKey); err != nil {
		return err
	}

	m := result.Meta
	_, err = tx.Exec(
		`INSERT INTO sessions (session_key, file_path, name, frame_rate, sample_rate, bit_depth,
		 start_timecode, track_count, event_count, marker_count, summary, data, mtime, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.SessionKey, m.FilePath, m.Name, m.FrameRate, m.SampleRate, m.BitDepth,
		m.StartTimecode, m.TrackCount, m.EventCount, m.MarkerCount, m.Summary, string(data),
		m.Mtime.Unix(), m.Size,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO entries (session_key, entry_id, kind, label, location, ticks, text, line_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range result.Entries {
		_, err := stmt.Exec(e.SessionKey, e.EntryID, e.Kind, e.Label, e.Location, e.Ticks, e.Text, e.LineNumber)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func pruneSessions(db *DB, seenKeys map[string]struct{}) (int, error) {
	allKeys, err := db.AllSessionKeys()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range allKeys {
		if _, ok := seenKeys[key]; !ok {
			if err := db.DeleteSession(key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
