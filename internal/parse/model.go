package parse

import (
	"time"

	"github.com/Zuo-Peng/edl-session-search/internal/edl"
)

// Entry kinds.
const (
	KindTrack  = "track"
	KindEvent  = "event"
	KindMarker = "marker"
	KindClip   = "clip"
	KindFile   = "file"
	KindPlugin = "plugin"
)

// Kinds lists every entry kind in display order.
var Kinds = []string{KindTrack, KindEvent, KindMarker, KindClip, KindFile, KindPlugin}

type SessionMeta struct {
	SessionKey    string
	FilePath      string
	Name          string
	FrameRate     string
	SampleRate    string
	BitDepth      string
	StartTimecode string
	TrackCount    int
	EventCount    int
	MarkerCount   int
	Summary       string
	Mtime         time.Time
	Size          int64
}

// Entry is one searchable record of a session.
type Entry struct {
	SessionKey string
	EntryID    int
	Kind       string
	Label      string // track, clip, marker, file or plug-in name
	Location   string // display timecode, empty when the record has none
	Ticks      int64
	Text       string
	LineNumber int // line number in original file
}

type ParseResult struct {
	Meta    SessionMeta
	Session *edl.Session
	Entries []Entry
}
