package parse

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zuo-Peng/edl-session-search/internal/decode"
	"github.com/Zuo-Peng/edl-session-search/internal/edl"
)

const maxTextSize = 8 * 1024 // 8KB for FTS index

// KeyPrefix starts every session key.
const KeyPrefix = "edl:"

type Options struct {
	Encoding         string // decode.Auto or an encoding name
	FallbackEncoding string
	Strict           bool
	Logger           *slog.Logger
}

// SessionKey derives the key of an export from its path below root.
func SessionKey(filePath, root string) string {
	rel, err := filepath.Rel(root, filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filePath
	}
	rel = filepath.ToSlash(rel)
	return KeyPrefix + strings.TrimSuffix(rel, filepath.Ext(rel))
}

// ParseEDL decodes and parses one export and flattens it into entries.
func ParseEDL(filePath, root string, opts Options) (*ParseResult, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}

	encoding := opts.Encoding
	if encoding == "" {
		encoding = decode.Auto
	}
	r, err := decode.OpenFile(filePath, encoding, opts.FallbackEncoding)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger != nil {
		logger = logger.With("file", filePath)
	}
	session, err := edl.ParseReader(r, edl.Options{Logger: logger, Strict: opts.Strict})
	if err != nil {
		return nil, err
	}

	key := SessionKey(filePath, root)
	result := &ParseResult{
		Meta:    Meta(key, session),
		Session: session,
		Entries: Flatten(key, session),
	}
	result.Meta.FilePath = filePath
	result.Meta.Mtime = info.ModTime()
	result.Meta.Size = info.Size()
	if result.Meta.Name == "" {
		result.Meta.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	return result, nil
}

// Meta summarises a parsed session.
func Meta(key string, s *edl.Session) SessionMeta {
	m := SessionMeta{
		SessionKey:    key,
		Name:          s.Name,
		FrameRate:     s.FrameRate.String(),
		SampleRate:    s.SampleRate.String(),
		BitDepth:      s.BitDepth.String(),
		StartTimecode: s.StartTimecode.String(),
		TrackCount:    len(s.Tracks),
		EventCount:    s.EventCount(),
		MarkerCount:   len(s.Markers),
	}
	m.Summary = fmt.Sprintf("%s, %d tracks, %d events, %d markers",
		m.FrameRate, m.TrackCount, m.EventCount, m.MarkerCount)
	if s.SkippedLines > 0 {
		m.Summary += fmt.Sprintf(", %d lines skipped", s.SkippedLines)
	}
	return m
}

// Flatten turns a session into entries in file order: plug-ins, files,
// clips, each track followed by its events, then markers.
func Flatten(key string, s *edl.Session) []Entry {
	var entries []Entry
	add := func(e Entry) {
		e.SessionKey = key
		e.EntryID = len(entries)
		e.Text = truncate(e.Text)
		entries = append(entries, e)
	}

	for _, p := range s.Plugins {
		add(Entry{
			Kind:       KindPlugin,
			Label:      p.Name,
			Text:       join(p.Manufacturer, p.Name, p.Version, p.Format.String(), p.Stems),
			LineNumber: p.Line,
		})
	}
	for _, f := range s.Files.OnlineFiles {
		add(Entry{Kind: KindFile, Label: f.Name, Text: join(f.Name, f.Location), LineNumber: f.Line})
	}
	for _, f := range s.Files.OfflineFiles {
		add(Entry{Kind: KindFile, Label: f.Name, Text: join(f.Name, f.Location, "offline"), LineNumber: f.Line})
	}
	for _, c := range s.Files.OnlineClips {
		add(Entry{Kind: KindClip, Label: c.ClipName, Text: join(c.ClipName, c.SourceFile), LineNumber: c.Line})
	}
	for _, t := range s.Tracks {
		add(Entry{
			Kind:       KindTrack,
			Label:      t.Name,
			Text:       join(append([]string{t.Name, t.Comment, t.State}, t.Plugins...)...),
			LineNumber: t.Line,
		})
		for _, ev := range t.Events {
			e := Entry{
				Kind:       KindEvent,
				Label:      ev.ClipName,
				Location:   ev.TimeIn.String(),
				Ticks:      ev.TimeIn.Ticks(),
				Text:       join(ev.ClipName, t.Name),
				LineNumber: ev.Line,
			}
			if ev.Muted {
				e.Text = join(e.Text, "muted")
			}
			add(e)
		}
	}
	for _, m := range s.Markers {
		add(Entry{
			Kind:       KindMarker,
			Label:      m.Name,
			Location:   m.Location.String(),
			Ticks:      m.Location.Ticks(),
			Text:       join(m.Name, m.Comment),
			LineNumber: m.Line,
		})
	}
	return entries
}

func join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func truncate(s string) string {
	if len(s) > maxTextSize {
		return s[:maxTextSize]
	}
	return s
}
