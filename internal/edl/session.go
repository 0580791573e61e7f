package edl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Zuo-Peng/edl-session-search/internal/format"
	"github.com/Zuo-Peng/edl-session-search/internal/timecode"
)

// Session is everything recovered from one session text export.
type Session struct {
	Name          string            `json:"name"`
	SampleRate    format.SampleRate `json:"sample_rate"`
	BitDepth      format.BitDepth   `json:"bit_depth"`
	StartTimecode timecode.Timecode `json:"start_timecode"`
	FrameRate     format.FrameRate  `json:"frame_rate"`
	AudioTracks   int               `json:"audio_tracks"`
	AudioClips    int               `json:"audio_clips"`
	AudioFiles    int               `json:"audio_files"`
	Files         FileList          `json:"files"`
	Markers       []Marker          `json:"markers"`
	Plugins       []Plugin          `json:"plugins"`
	Tracks        []Track           `json:"tracks"`

	// SkippedLines counts lines no rule accounted for. Always zero in
	// strict mode, where such a line is an error.
	SkippedLines int `json:"skipped_lines,omitempty"`
}

type FileList struct {
	OnlineFiles  []MediaFile `json:"online_files"`
	OfflineFiles []MediaFile `json:"offline_files"`
	OnlineClips  []Clip      `json:"online_clips"`
}

type MediaFile struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Line     int    `json:"line"`
}

type Clip struct {
	ClipName   string `json:"clip_name"`
	SourceFile string `json:"source_file"`
	Line       int    `json:"line"`
}

// Track is one block of the track listing. State is kept as written; the
// export does not give it a stable meaning.
type Track struct {
	Name    string       `json:"name"`
	Comment string       `json:"comment"`
	Delay   int          `json:"delay"`
	State   string       `json:"state"`
	Plugins []string     `json:"plugins"`
	Events  []TrackEvent `json:"events"`
	Line    int          `json:"line"`
}

type TrackEvent struct {
	Channel   int                `json:"channel"`
	Event     int                `json:"event"`
	ClipName  string             `json:"clip_name"`
	TimeIn    timecode.Timecode  `json:"time_in"`
	TimeOut   timecode.Timecode  `json:"time_out"`
	Timestamp *timecode.Timecode `json:"timestamp,omitempty"`
	Muted     bool               `json:"muted"`
	Line      int                `json:"line"`
}

// Duration is TimeOut minus TimeIn in ticks.
func (e TrackEvent) Duration() int64 {
	return e.TimeOut.Ticks() - e.TimeIn.Ticks()
}

type Marker struct {
	ID            int               `json:"id"`
	Location      timecode.Timecode `json:"location"`
	TimeReference int64             `json:"time_reference"`
	Unit          Unit              `json:"unit"`
	Name          string            `json:"name"`
	Comment       string            `json:"comment"`
	Line          int               `json:"line"`
}

type Plugin struct {
	Manufacturer string       `json:"manufacturer"`
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Format       PluginFormat `json:"format"`
	Stems        string       `json:"stems"`
	Instances    int          `json:"instances"`
	Line         int          `json:"line"`
}

var (
	ErrUnrecognizedUnit         = errors.New("unrecognized marker unit")
	ErrUnrecognizedPluginFormat = errors.New("unrecognized plug-in format")
)

// Unit is the time base a marker's TIME REFERENCE was written in.
type Unit int

const (
	UnitSamples Unit = iota
	UnitBarsBeats
	UnitFeetFrames
	UnitMinutesSeconds
	UnitTimecode
)

var unitTokens = map[Unit]string{
	UnitSamples:        "Samples",
	UnitBarsBeats:      "Bars|Beats",
	UnitFeetFrames:     "Feet+Frames",
	UnitMinutesSeconds: "Min:Sec",
	UnitTimecode:       "Timecode",
}

func ParseUnit(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	for u, tok := range unitTokens {
		if tok == s {
			return u, nil
		}
	}
	return UnitSamples, fmt.Errorf("%w: %q", ErrUnrecognizedUnit, s)
}

func (u Unit) String() string {
	if tok, ok := unitTokens[u]; ok {
		return tok
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

func (u Unit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *Unit) UnmarshalText(text []byte) error {
	v, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

type PluginFormat int

const (
	AAXNative PluginFormat = iota
	AAXDSP
)

func ParsePluginFormat(s string) (PluginFormat, error) {
	switch strings.TrimSpace(s) {
	case "AAX Native":
		return AAXNative, nil
	case "AAX DSP":
		return AAXDSP, nil
	}
	return AAXNative, fmt.Errorf("%w: %q", ErrUnrecognizedPluginFormat, s)
}

func (f PluginFormat) String() string {
	switch f {
	case AAXNative:
		return "AAX Native"
	case AAXDSP:
		return "AAX DSP"
	}
	return fmt.Sprintf("PluginFormat(%d)", int(f))
}

func (f PluginFormat) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *PluginFormat) UnmarshalText(text []byte) error {
	v, err := ParsePluginFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// EventCount totals events over all tracks.
func (s *Session) EventCount() int {
	n := 0
	for _, t := range s.Tracks {
		n += len(t.Events)
	}
	return n
}

// Rebind sets every timecode in the session to the session frame rate. JSON
// decoding yields timecodes at the default rate, so decoded sessions must be
// rebound before their ticks are used.
func (s *Session) Rebind() {
	s.StartTimecode.SetFrameRate(s.FrameRate)
	for i := range s.Markers {
		s.Markers[i].Location.SetFrameRate(s.FrameRate)
	}
	for i := range s.Tracks {
		for j := range s.Tracks[i].Events {
			ev := &s.Tracks[i].Events[j]
			ev.TimeIn.SetFrameRate(s.FrameRate)
			ev.TimeOut.SetFrameRate(s.FrameRate)
			if ev.Timestamp != nil {
				ev.Timestamp.SetFrameRate(s.FrameRate)
			}
		}
	}
}
