package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/edl-session-search/internal/edl"
	"github.com/Zuo-Peng/edl-session-search/internal/format"
	"github.com/Zuo-Peng/edl-session-search/internal/index"
	"github.com/Zuo-Peng/edl-session-search/internal/timecode"
)

const (
	colorReset   = "\033[0m"
	colorTrack   = "\033[1;34m" // bold blue
	colorMarker  = "\033[1;32m" // bold green
	colorSection = "\033[1;35m" // bold magenta
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
	colorRed     = "\033[31m"
)

type Options struct {
	HitLine int    // source line of the hit, 0 = none
	Width   int    // wrap width (0 = no wrap)
	Query   string // search query for keyword highlighting
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	terms := strings.Fields(query)
	var filtered []string
	for _, t := range terms {
		t = strings.Trim(t, `"*()`)
		if t != "" && !fts5Operators[t] {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return text
	}
	for _, term := range filtered {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			rest := text[i:]
			idx := strings.Index(strings.ToLower(rest), lower)
			if idx < 0 || len(strings.ToLower(rest)) != len(rest) {
				break
			}
			pos := i + idx
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// pad fills s to w display columns.
func pad(s string, w int) string {
	return runewidth.FillRight(s, w)
}

// Duration renders a tick count as a timecode-shaped duration at rate.
func Duration(ticks int64, rate format.FrameRate) string {
	sign := ""
	if ticks < 0 {
		sign = "-"
		ticks = -ticks
	}
	fps := int64(rate.Rate())
	frames := ticks / timecode.TickResolution
	sep := ':'
	if rate.DropFrame() {
		sep = ';'
	}
	return fmt.Sprintf("%s%02d:%02d:%02d%c%02d", sign,
		frames/(3600*fps), frames/(60*fps)%60, frames/fps%60, sep, frames%fps)
}

type writer struct {
	b         strings.Builder
	width     int
	query     string
	hit       int
	hitLine   int
	lineCount int
}

// line writes s, wrapping long lines if width is set.
func (w *writer) line(s string) {
	for _, wl := range wrapLine(s, w.width) {
		w.b.WriteString(wl)
		w.b.WriteString("\n")
		w.lineCount++
	}
}

// item writes a row sourced from srcLine, marking it when it is the hit.
func (w *writer) item(srcLine int, s string) {
	s = highlightKeywords(s, w.query)
	if w.hit > 0 && srcLine == w.hit {
		w.hitLine = w.lineCount
		w.line(colorHit + ">>" + colorReset + s[min(2, len(s)):])
		return
	}
	w.line(s)
}

// heading writes the banner that opens sec in the export, with a count.
func (w *writer) heading(sec edl.Section, n int) {
	title, ok := sec.Banner()
	if !ok {
		title = strings.ToUpper(sec.String())
	}
	w.line("")
	w.line(fmt.Sprintf("%s%s%s %s(%d)%s", colorSection, title, colorReset, colorDim, n, colorReset))
}

// Session renders a parsed session and returns the content and the 0-based
// output line of the row that came from opts.HitLine (-1 if none).
func Session(s *edl.Session, opts Options) (string, int) {
	w := &writer{width: opts.Width, query: opts.Query, hit: opts.HitLine, hitLine: -1}

	// header
	w.line(fmt.Sprintf("%s--- %s ---%s", colorDim, s.Name, colorReset))
	w.line(fmt.Sprintf("%g Hz | %s | %s | start %s",
		s.SampleRate.Hertz(), s.BitDepth, s.FrameRate, s.StartTimecode))
	w.line(fmt.Sprintf("%s%d audio tracks, %d clips, %d files declared%s",
		colorDim, s.AudioTracks, s.AudioClips, s.AudioFiles, colorReset))
	if s.SkippedLines > 0 {
		w.line(fmt.Sprintf("%s%d unrecognized lines skipped%s", colorRed, s.SkippedLines, colorReset))
	}

	if len(s.Plugins) > 0 {
		w.heading(edl.SectionPluginsListing, len(s.Plugins))
		for _, p := range s.Plugins {
			w.item(p.Line, fmt.Sprintf("  %s %s %s %s%s %s, %d active%s",
				pad(p.Manufacturer, 14), pad(p.Name, 20), p.Version,
				colorDim, p.Format, p.Stems, p.Instances, colorReset))
		}
	}

	files := s.Files
	if len(files.OnlineFiles) > 0 {
		w.heading(edl.SectionOnlineFiles, len(files.OnlineFiles))
		for _, f := range files.OnlineFiles {
			w.item(f.Line, fmt.Sprintf("  %s %s%s%s", pad(f.Name, 32), colorDim, f.Location, colorReset))
		}
	}
	if len(files.OfflineFiles) > 0 {
		w.heading(edl.SectionOfflineFiles, len(files.OfflineFiles))
		for _, f := range files.OfflineFiles {
			w.item(f.Line, fmt.Sprintf("  %s %s%s%s %soffline%s",
				pad(f.Name, 32), colorDim, f.Location, colorReset, colorRed, colorReset))
		}
	}

	if len(files.OnlineClips) > 0 {
		w.heading(edl.SectionOnlineClips, len(files.OnlineClips))
		for _, c := range files.OnlineClips {
			w.item(c.Line, fmt.Sprintf("  %s %s%s%s", pad(c.ClipName, 32), colorDim, c.SourceFile, colorReset))
		}
	}

	if len(s.Tracks) > 0 {
		w.heading(edl.SectionTrackListing, len(s.Tracks))
		for _, t := range s.Tracks {
			renderTrack(w, s.FrameRate, t)
		}
	}

	if len(s.Markers) > 0 {
		w.heading(edl.SectionMarkersListing, len(s.Markers))
		for _, m := range s.Markers {
			w.item(m.Line, fmt.Sprintf("  %s%s%s %s %s%s%s %s",
				colorMarker, pad(fmt.Sprintf("#%d", m.ID), 5), colorReset,
				m.Location, colorDim, pad(m.Unit.String(), 8), colorReset,
				strings.TrimSpace(m.Name+"  "+m.Comment)))
		}
	}

	return w.b.String(), w.hitLine
}

func renderTrack(w *writer, rate format.FrameRate, t edl.Track) {
	w.line("")
	w.item(t.Line, fmt.Sprintf("  %s%s%s %s%s%s", colorTrack, t.Name, colorReset, colorDim, t.Comment, colorReset))

	var attrs []string
	if t.Delay != 0 {
		attrs = append(attrs, fmt.Sprintf("delay %d samples", t.Delay))
	}
	if t.State != "" {
		attrs = append(attrs, t.State)
	}
	if len(t.Plugins) > 0 {
		attrs = append(attrs, "plug-ins: "+strings.Join(t.Plugins, ", "))
	}
	if len(attrs) > 0 {
		w.line(fmt.Sprintf("  %s%s%s", colorDim, strings.Join(attrs, " | "), colorReset))
	}

	for _, ev := range t.Events {
		muted := ""
		if ev.Muted {
			muted = " " + colorRed + "muted" + colorReset
		}
		if !ev.TimeIn.Before(ev.TimeOut) {
			muted += " " + colorRed + "reversed" + colorReset
		}
		w.item(ev.Line, fmt.Sprintf("    %s %s  %s  %s%s%s  %s%s",
			pad(fmt.Sprintf("%d.%d", ev.Channel, ev.Event), 6),
			ev.TimeIn, ev.TimeOut, colorDim, Duration(ev.Duration(), rate), colorReset,
			ev.ClipName, muted))
	}
}

// RenderSession loads a session from the index and renders it.
func RenderSession(db *index.DB, sessionKey string, opts Options) (string, int, error) {
	s, err := db.LoadSession(sessionKey)
	if err != nil {
		return "", -1, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return "", -1, fmt.Errorf("session not found: %s", sessionKey)
	}
	content, hitLine := Session(s, opts)
	return content, hitLine, nil
}
