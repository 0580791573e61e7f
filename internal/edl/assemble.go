package edl

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/edl-session-search/internal/format"
	"github.com/Zuo-Peng/edl-session-search/internal/timecode"
)

// trackSlot holds the track under construction: noTrackOpen or *trackOpen.
type trackSlot interface{ trackSlot() }

type noTrackOpen struct{}

type trackOpen struct{ track Track }

func (noTrackOpen) trackSlot() {}
func (*trackOpen) trackSlot()  {}

// eventTable describes the header row of the current track's event table.
type eventTable struct {
	width     int
	timestamp bool
}

// assembler folds fields and rows into a Session.
type assembler struct {
	session Session
	slot    trackSlot
	events  eventTable
	log     *slog.Logger
}

func newAssembler(log *slog.Logger) *assembler {
	return &assembler{slot: noTrackOpen{}, log: log}
}

// flushTrack moves the open track, if any, into the session.
func (a *assembler) flushTrack() {
	if open, ok := a.slot.(*trackOpen); ok {
		a.session.Tracks = append(a.session.Tracks, open.track)
	}
	a.slot = noTrackOpen{}
	a.events = eventTable{}
}

func (a *assembler) field(sec Section, line string, lineNo int) error {
	f, err := extractField(line)
	if err != nil {
		return err
	}
	if f.spec.name == fieldUnknown {
		a.log.Debug("ignoring unknown field", "line", lineNo, "section", sec.String(), "field", f.spec.key)
		return nil
	}
	if f.spec.section != sec {
		return &ParseError{Kind: UnrecognizedField, Field: f.spec.key}
	}
	if sec == SectionHeader {
		return a.headerField(f)
	}
	return a.trackField(f, lineNo)
}

func (a *assembler) headerField(f field) error {
	s := &a.session
	switch f.spec.name {
	case fieldSessionName:
		s.Name = f.value
	case fieldSampleRate:
		rate, err := format.ParseSampleRate(f.value)
		if err != nil {
			return &ParseError{Kind: UnrecognizedSampleRate, Field: f.spec.key, Err: err}
		}
		s.SampleRate = rate
	case fieldBitDepth:
		depth, err := format.ParseBitDepth(f.value)
		if err != nil {
			return &ParseError{Kind: UnrecognizedBitDepth, Field: f.spec.key, Err: err}
		}
		s.BitDepth = depth
	case fieldStartTimecode:
		tc, err := timecode.Parse(f.value, s.FrameRate)
		if err != nil {
			return &ParseError{Kind: MalformedTimecode, Field: f.spec.key, Err: err}
		}
		s.StartTimecode = tc
	case fieldTimecodeFormat:
		rate, err := format.ParseFrameRate(f.value)
		if err != nil {
			return &ParseError{Kind: UnrecognizedFrameRate, Field: f.spec.key, Err: err}
		}
		s.FrameRate = rate
		s.StartTimecode.SetFrameRate(rate)
	case fieldAudioTracks, fieldAudioClips, fieldAudioFiles:
		n, err := parseCount(f.value, f.spec.key, "")
		if err != nil {
			return err
		}
		switch f.spec.name {
		case fieldAudioTracks:
			s.AudioTracks = n
		case fieldAudioClips:
			s.AudioClips = n
		default:
			s.AudioFiles = n
		}
	default:
		return &ParseError{Kind: UnrecognizedField, Field: f.spec.key}
	}
	return nil
}

func (a *assembler) trackField(f field, lineNo int) error {
	if f.spec.name == fieldTrackName {
		a.flushTrack()
		a.slot = &trackOpen{track: Track{Name: f.value, Line: lineNo}}
		return nil
	}
	open, ok := a.slot.(*trackOpen)
	if !ok {
		return &ParseError{Kind: MissingTrackName, Field: f.spec.key}
	}
	t := &open.track
	switch f.spec.name {
	case fieldTrackComment:
		t.Comment = f.value
	case fieldTrackDelay:
		d, err := parseDelay(f.value)
		if err != nil {
			return err
		}
		t.Delay = d
	case fieldTrackState:
		t.State = f.value
	case fieldTrackPlugins:
		t.Plugins = splitPluginNames(f.raw)
	default:
		return &ParseError{Kind: UnrecognizedField, Field: f.spec.key}
	}
	return nil
}

// row handles a table row. header marks the first row of the table.
func (a *assembler) row(sec Section, cells []string, header bool, lineNo int) error {
	if !validWidth(sec, len(cells)) {
		return &ParseError{Kind: ColumnCountMismatch, Err: widthError(sec, len(cells))}
	}
	if sec == SectionTrackEvent {
		return a.eventRow(cells, header, lineNo)
	}
	if header {
		return nil
	}
	switch sec {
	case SectionOnlineFiles:
		a.session.Files.OnlineFiles = append(a.session.Files.OnlineFiles, MediaFile{Name: cells[0], Location: cells[1], Line: lineNo})
	case SectionOfflineFiles:
		a.session.Files.OfflineFiles = append(a.session.Files.OfflineFiles, MediaFile{Name: cells[0], Location: cells[1], Line: lineNo})
	case SectionOnlineClips:
		a.session.Files.OnlineClips = append(a.session.Files.OnlineClips, Clip{ClipName: cells[0], SourceFile: cells[1], Line: lineNo})
	case SectionMarkersListing:
		return a.markerRow(cells, lineNo)
	case SectionPluginsListing:
		return a.pluginRow(cells, lineNo)
	}
	return nil
}

func (a *assembler) eventRow(cells []string, header bool, lineNo int) error {
	if header {
		a.events = eventTable{width: len(cells)}
		if len(cells) == len(eventColumns) {
			if cells[timestampColumn] != timestampHeaderKey {
				return &ParseError{Kind: ColumnCountMismatch, Column: cells[timestampColumn],
					Err: errors.New("8 column event table without TIMESTAMP")}
			}
			a.events.timestamp = true
		}
		return nil
	}
	open, ok := a.slot.(*trackOpen)
	if !ok {
		return &ParseError{Kind: OrphanTrackEvent}
	}
	if len(cells) != a.events.width {
		return &ParseError{Kind: ColumnCountMismatch,
			Err: fmt.Errorf("row has %d cells, header has %d", len(cells), a.events.width)}
	}

	rate := a.session.FrameRate
	var ev TrackEvent
	var err error
	ev.Line = lineNo
	if ev.Channel, err = parseCount(cells[0], "", eventColumns[0]); err != nil {
		return err
	}
	if ev.Event, err = parseCount(cells[1], "", eventColumns[1]); err != nil {
		return err
	}
	ev.ClipName = cells[2]
	if ev.TimeIn, err = parseTimecodeCell(cells[3], rate, eventColumns[3]); err != nil {
		return err
	}
	if ev.TimeOut, err = parseTimecodeCell(cells[4], rate, eventColumns[4]); err != nil {
		return err
	}
	if a.events.timestamp {
		ts, err := parseTimecodeCell(cells[timestampColumn], rate, timestampHeaderKey)
		if err != nil {
			return err
		}
		ev.Timestamp = &ts
	}
	switch cells[len(cells)-1] {
	case "Muted":
		ev.Muted = true
	case "Unmuted":
	default:
		return &ParseError{Kind: UnrecognizedMuteState, Column: eventColumns[7]}
	}
	open.track.Events = append(open.track.Events, ev)
	return nil
}

func (a *assembler) markerRow(cells []string, lineNo int) error {
	m := Marker{Name: cells[4], Comment: cells[5], Line: lineNo}
	var err error
	if m.ID, err = parseCount(cells[0], "", markerColumns[0]); err != nil {
		return err
	}
	if m.Location, err = parseTimecodeCell(cells[1], a.session.FrameRate, markerColumns[1]); err != nil {
		return err
	}
	ref, err := strconv.ParseInt(cells[2], 10, 64)
	if err != nil {
		return &ParseError{Kind: InvalidNumber, Column: markerColumns[2], Err: err}
	}
	m.TimeReference = ref
	if m.Unit, err = ParseUnit(cells[3]); err != nil {
		return &ParseError{Kind: UnrecognizedUnit, Column: markerColumns[3], Err: err}
	}
	a.session.Markers = append(a.session.Markers, m)
	return nil
}

func (a *assembler) pluginRow(cells []string, lineNo int) error {
	p := Plugin{
		Manufacturer: cells[0],
		Name:         cells[1],
		Version:      cells[2],
		Stems:        cells[4],
		Line:         lineNo,
	}
	var err error
	if p.Format, err = ParsePluginFormat(cells[3]); err != nil {
		return &ParseError{Kind: UnrecognizedPluginFormat, Column: pluginColumns[3], Err: err}
	}
	if p.Instances, err = parseInstances(cells[5]); err != nil {
		return err
	}
	a.session.Plugins = append(a.session.Plugins, p)
	return nil
}

func parseTimecodeCell(s string, rate format.FrameRate, column string) (timecode.Timecode, error) {
	tc, err := timecode.Parse(s, rate)
	if err != nil {
		return timecode.Timecode{}, &ParseError{Kind: MalformedTimecode, Column: column, Err: err}
	}
	return tc, nil
}

func widthError(sec Section, n int) error {
	want := make([]string, 0, len(tableWidths[sec]))
	for _, w := range tableWidths[sec] {
		want = append(want, strconv.Itoa(w))
	}
	return fmt.Errorf("%d cells, want %s", n, strings.Join(want, " or "))
}
