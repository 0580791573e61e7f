package edl

import (
	"errors"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/Zuo-Peng/edl-session-search/internal/format"
	"github.com/Zuo-Peng/edl-session-search/internal/timecode"
)

func parseFile(t *testing.T, name string) *Session {
	t.Helper()
	f, err := os.Open("testdata/" + name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	s, err := ParseReader(f, Options{Strict: true})
	if err != nil {
		t.Fatalf("ParseReader(%s): %v", name, err)
	}
	return s
}

func headerBlock(frameRate string) []string {
	return []string{
		"SESSION NAME:\tTest",
		"SAMPLE RATE:\t48000.000000",
		"BIT DEPTH:\t24-bit",
		"SESSION START TIMECODE:\t01:00:00:00",
		"TIMECODE FORMAT:\t" + frameRate,
		"# OF AUDIO TRACKS:\t1",
		"# OF AUDIO CLIPS:\t1",
		"# OF AUDIO FILES:\t1",
		"",
		"",
	}
}

func parseLines(opts Options, parts ...[]string) (*Session, error) {
	return Parse(slices.Values(slices.Concat(parts...)), opts)
}

var (
	trackBanner   = []string{"T R A C K  L I S T I N G"}
	markerBanner  = []string{"M A R K E R S  L I S T I N G"}
	pluginSection = []string{
		"P L U G - I N S  L I S T I N G",
		"MANUFACTURER\tPLUG-IN NAME\tVERSION\tFORMAT\tSTEMS\tNUMBER OF INSTANCES",
		"Avid\tEQ3 7-Band\t24.6.0\tAAX Native\tMono / Mono\t1 active",
		"",
		"",
	}
	eventHeader7 = "CHANNEL\tEVENT\tCLIP NAME\tSTART TIME\tEND TIME\tDURATION\tSTATE"
	eventHeader8 = "CHANNEL\tEVENT\tCLIP NAME\tSTART TIME\tEND TIME\tDURATION\tTIMESTAMP\tSTATE"
)

func trackFields(name string) []string {
	return []string{
		"TRACK NAME:\t" + name,
		"COMMENTS:\t",
		"USER DELAY:\t0 Samples",
		"STATE: ",
	}
}

func TestParseFilmMix(t *testing.T) {
	s := parseFile(t, "film_mix.txt")

	if s.Name != "Film Mix" || s.SampleRate != format.Khz48 || s.BitDepth != format.Bit24 {
		t.Errorf("header = %q %v %v", s.Name, s.SampleRate, s.BitDepth)
	}
	if s.FrameRate != format.Fps30DropFrame {
		t.Errorf("FrameRate = %v", s.FrameRate)
	}
	if s.AudioTracks != 2 || s.AudioClips != 3 || s.AudioFiles != 2 {
		t.Errorf("counters = %d %d %d", s.AudioTracks, s.AudioClips, s.AudioFiles)
	}
	// read before TIMECODE FORMAT, then rebound to it
	if !s.StartTimecode.DropFrame() || s.StartTimecode.FrameRate() != format.Fps30DropFrame {
		t.Errorf("start timecode not rebound: %v drop=%v", s.StartTimecode.FrameRate(), s.StartTimecode.DropFrame())
	}
	if s.StartTimecode.String() != "00:59:58;00" {
		t.Errorf("StartTimecode = %s", s.StartTimecode)
	}

	if len(s.Plugins) != 2 {
		t.Fatalf("plugins = %d, want 2", len(s.Plugins))
	}
	if p := s.Plugins[1]; p.Name != "Dyn3 Compressor/Limiter" || p.Format != AAXDSP || p.Instances != 1 || p.Stems != "Stereo / Stereo" {
		t.Errorf("plugin[1] = %+v", p)
	}
	if s.Plugins[0].Instances != 2 || s.Plugins[0].Line != 13 {
		t.Errorf("plugin[0] = %+v", s.Plugins[0])
	}

	if len(s.Files.OnlineFiles) != 2 || len(s.Files.OfflineFiles) != 1 || len(s.Files.OnlineClips) != 3 {
		t.Fatalf("files = %d/%d/%d", len(s.Files.OnlineFiles), len(s.Files.OfflineFiles), len(s.Files.OnlineClips))
	}
	if f := s.Files.OfflineFiles[0]; f.Name != "Room Tone.wav" || f.Location != "Archive:Sessions:Film Mix:Audio Files:" {
		t.Errorf("offline = %+v", f)
	}
	if c := s.Files.OnlineClips[1]; c.ClipName != "Dialog_01-01" || c.SourceFile != "Dialog_01.wav" {
		t.Errorf("clip = %+v", c)
	}

	if len(s.Tracks) != 2 {
		t.Fatalf("tracks = %d, want 2", len(s.Tracks))
	}
	dx := s.Tracks[0]
	if dx.Name != "DX 1" || dx.Comment != "Lav mic" || dx.Line != 36 {
		t.Errorf("track[0] = %q %q line %d", dx.Name, dx.Comment, dx.Line)
	}
	if !slices.Equal(dx.Plugins, []string{"EQ3 7-Band", "Dyn3 Compressor/Limiter"}) {
		t.Errorf("track plugins = %q", dx.Plugins)
	}
	if len(dx.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(dx.Events))
	}
	ev := dx.Events[1]
	if ev.ClipName != "Dialog_01-01" || !ev.Muted || ev.Event != 2 || ev.Line != 43 {
		t.Errorf("event = %+v", ev)
	}
	if ev.Timestamp == nil || ev.Timestamp.String() != "01:00:05;00" {
		t.Errorf("timestamp = %v", ev.Timestamp)
	}
	if ev.TimeOut.String() != "01:00:09;29" || ev.TimeIn.Ticks() >= ev.TimeOut.Ticks() {
		t.Errorf("times = %s %s", ev.TimeIn, ev.TimeOut)
	}

	mx := s.Tracks[1]
	if mx.Delay != -12 || mx.State != "Inactive" || len(mx.Plugins) != 0 || len(mx.Events) != 1 {
		t.Errorf("track[1] = %+v", mx)
	}

	if len(s.Markers) != 2 {
		t.Fatalf("markers = %d, want 2", len(s.Markers))
	}
	m := s.Markers[0]
	if m.ID != 1 || m.Name != "FFOA" || m.Comment != "first frame of action" || m.TimeReference != 172800 || m.Unit != UnitSamples {
		t.Errorf("marker = %+v", m)
	}
	if s.Markers[1].Comment != "" || s.Markers[1].Line != 58 {
		t.Errorf("marker[1] = %+v", s.Markers[1])
	}
}

func TestParseMinimalSession(t *testing.T) {
	s := parseFile(t, "minimal.txt")
	if len(s.Tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(s.Tracks))
	}
	if n := len(s.Tracks[0].Events); n != 2 {
		t.Fatalf("events = %d, want 2", n)
	}
	if len(s.Markers) != 1 {
		t.Fatalf("markers = %d, want 1", len(s.Markers))
	}
	for i, ev := range s.Tracks[0].Events {
		if ev.TimeIn.Ticks() >= ev.TimeOut.Ticks() {
			t.Errorf("event %d: time in %d not before time out %d", i, ev.TimeIn.Ticks(), ev.TimeOut.Ticks())
		}
		if ev.Timestamp != nil {
			t.Errorf("event %d: unexpected timestamp %v", i, ev.Timestamp)
		}
	}
	if s.FrameRate != format.Fps25 || s.SampleRate != format.Khz44p1 {
		t.Errorf("formats = %v %v", s.FrameRate, s.SampleRate)
	}
	if s.EventCount() != 2 {
		t.Errorf("EventCount = %d", s.EventCount())
	}
}

func TestSampleRateField(t *testing.T) {
	s, err := parseLines(Options{}, []string{"SAMPLE RATE:\t48000.000000"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.SampleRate != format.Khz48 {
		t.Errorf("SampleRate = %v", s.SampleRate)
	}

	_, err = parseLines(Options{}, []string{"SAMPLE RATE:\t48000.5"})
	if !IsKind(err, UnrecognizedSampleRate) {
		t.Fatalf("err = %v, want UnrecognizedSampleRate", err)
	}
	if !errors.Is(err, format.ErrUnrecognizedSampleRate) {
		t.Errorf("err does not wrap ErrUnrecognizedSampleRate: %v", err)
	}
}

func TestTrackHeaderSizeFollowsPluginsListing(t *testing.T) {
	event := "1\t1\tA\t01:00:00:00\t01:00:01:00\t00:00:01:00\tUnmuted"

	// four track fields: fine alone, broken once a plug-ins listing raises
	// the expected count to five
	plain := slices.Concat(trackBanner, trackFields("A"), []string{eventHeader7, event})
	if s, err := parseLines(Options{}, headerBlock("25 Frame"), plain); err != nil {
		t.Fatalf("without plug-ins listing: %v", err)
	} else if len(s.Tracks) != 1 || len(s.Tracks[0].Events) != 1 {
		t.Fatalf("without plug-ins listing: %+v", s.Tracks)
	}
	_, err := parseLines(Options{}, headerBlock("25 Frame"), pluginSection, plain)
	if !IsKind(err, UnrecognizedField) {
		t.Fatalf("with plug-ins listing err = %v, want UnrecognizedField for the table header", err)
	}

	withPlugins := slices.Concat(trackBanner, trackFields("A"), []string{"PLUG-INS:\tEQ3 7-Band", eventHeader7, event})
	s, err := parseLines(Options{}, headerBlock("25 Frame"), pluginSection, withPlugins)
	if err != nil {
		t.Fatalf("five fields with plug-ins listing: %v", err)
	}
	if got := s.Tracks[0].Plugins; !slices.Equal(got, []string{"EQ3 7-Band"}) {
		t.Errorf("plugins = %q", got)
	}
	_, err = parseLines(Options{}, headerBlock("25 Frame"), withPlugins)
	if !IsKind(err, ColumnCountMismatch) {
		t.Fatalf("five fields without plug-ins listing err = %v, want ColumnCountMismatch", err)
	}
}

func TestTimestampColumn(t *testing.T) {
	with := slices.Concat(trackBanner, trackFields("A"), []string{
		eventHeader8,
		"1\t1\tA\t01:00:00:00\t01:00:01:00\t00:00:01:00\t02:00:00:00\tUnmuted",
	})
	s, err := parseLines(Options{}, headerBlock("25 Frame"), with)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ts := s.Tracks[0].Events[0].Timestamp
	if ts == nil || ts.Hours() != 2 {
		t.Fatalf("timestamp = %v, want 02:00:00:00", ts)
	}

	without := slices.Concat(trackBanner, trackFields("A"), []string{
		eventHeader7,
		"1\t1\tA\t01:00:00:00\t01:00:01:00\t00:00:01:00\tMuted",
	})
	s, err = parseLines(Options{}, headerBlock("25 Frame"), without)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev := s.Tracks[0].Events[0]; ev.Timestamp != nil || !ev.Muted {
		t.Errorf("event = %+v", ev)
	}
}

func TestEventsUseSessionFrameRate(t *testing.T) {
	block := slices.Concat(trackBanner, trackFields("A"), []string{
		eventHeader7,
		"1\t1\tA\t01:00:00;00\t01:00:01;00\t00:00:01;00\tUnmuted",
	})
	s, err := parseLines(Options{}, headerBlock("29.97 Drop Frame"), block)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ev := s.Tracks[0].Events[0]
	if ev.TimeIn.FrameRate() != format.Fps30DropFrame || !ev.TimeIn.DropFrame() {
		t.Errorf("TimeIn rate = %v", ev.TimeIn.FrameRate())
	}
	if got := ev.Duration(); got != 30*timecode.TickResolution {
		t.Errorf("Duration = %d", got)
	}
}

func TestTrailingBlankRun(t *testing.T) {
	block := slices.Concat(
		[]string{"O N L I N E  F I L E S  I N  S E S S I O N", "Filename\tLocation", "a.wav\tHD:"},
		[]string{"", "", "", "", ""},
		markerBanner,
		[]string{"#\tLOCATION\tTIME REFERENCE\tUNITS\tNAME\tCOMMENTS", "1\t01:00:00:00\t0\tTimecode\tStart\t"},
		[]string{"", "", ""},
	)
	s, err := parseLines(Options{Strict: true}, headerBlock("25 Frame"), block)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(s.Files.OnlineFiles) != 1 || len(s.Markers) != 1 || s.Markers[0].Unit != UnitTimecode {
		t.Errorf("files=%d markers=%+v", len(s.Files.OnlineFiles), s.Markers)
	}
}

func TestUnknownFieldIsIgnored(t *testing.T) {
	s, err := parseLines(Options{Strict: true}, []string{"SESSION NAME:\tX", "SOMETHING NEW:\tvalue", "ALSO NEW:"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Name != "X" {
		t.Errorf("Name = %q", s.Name)
	}
}

func TestParseErrors(t *testing.T) {
	h := headerBlock("25 Frame")
	cases := []struct {
		name  string
		lines []string
		opts  Options
		kind  Kind
		line  int
	}{
		{"bad frame rate", []string{"TIMECODE FORMAT:\t31 Frame"}, Options{}, UnrecognizedFrameRate, 1},
		{"bad bit depth", []string{"BIT DEPTH:\t24"}, Options{}, UnrecognizedBitDepth, 1},
		{"bad start timecode", []string{"SESSION START TIMECODE:\t01:00:00"}, Options{}, MalformedTimecode, 1},
		{"bad counter", []string{"# OF AUDIO TRACKS:\tmany"}, Options{}, InvalidNumber, 1},
		{"no colon in header", []string{"SESSION NAME:\tX", "garbage"}, Options{}, UnrecognizedField, 2},
		{"empty required field", []string{"SESSION NAME:"}, Options{}, UnrecognizedField, 1},
		{"track field in header", []string{"TRACK NAME:\tA"}, Options{}, UnrecognizedField, 1},
		{"missing track name", slices.Concat(h, trackBanner, []string{"COMMENTS:\tx"}), Options{}, MissingTrackName, 12},
		{"bad delay", slices.Concat(h, trackBanner, []string{"TRACK NAME:\tA", "USER DELAY:\tsoon"}), Options{}, InvalidNumber, 13},
		{
			"orphan event",
			slices.Concat(h, trackBanner, trackFields("A"), []string{eventHeader7, "", "", "1\t1\tA\t01:00:00:00\t01:00:01:00\t00:00:01:00\tUnmuted"}),
			Options{}, OrphanTrackEvent, 19,
		},
		{
			"event width differs from header",
			slices.Concat(h, trackBanner, trackFields("A"), []string{eventHeader7, "1\t1\tA\t01:00:00:00\t01:00:01:00\t00:00:01:00\t01:00:00:00\tUnmuted"}),
			Options{}, ColumnCountMismatch, 17,
		},
		{
			"bad mute state",
			slices.Concat(h, trackBanner, trackFields("A"), []string{eventHeader7, "1\t1\tA\t01:00:00:00\t01:00:01:00\t00:00:01:00\tSoloed"}),
			Options{}, UnrecognizedMuteState, 17,
		},
		{
			"bad event timecode",
			slices.Concat(h, trackBanner, trackFields("A"), []string{eventHeader7, "1\t1\tA\t01:00:00\t01:00:01:00\t00:00:01:00\tMuted"}),
			Options{}, MalformedTimecode, 17,
		},
		{
			"marker row too narrow",
			slices.Concat(h, markerBanner, []string{"#\tLOCATION\tTIME REFERENCE\tUNITS\tNAME\tCOMMENTS", "1\t01:00:00:00\t0\tSamples\tA"}),
			Options{}, ColumnCountMismatch, 13,
		},
		{
			"marker unit",
			slices.Concat(h, markerBanner, []string{"#\tLOCATION\tTIME REFERENCE\tUNITS\tNAME\tCOMMENTS", "1\t01:00:00:00\t0\tFrames\tA\t"}),
			Options{}, UnrecognizedUnit, 13,
		},
		{
			"plug-in format",
			slices.Concat(h, pluginSection[:2], []string{"Avid\tEQ3\t1.0\tVST3\tMono / Mono\t1 active"}),
			Options{}, UnrecognizedPluginFormat, 13,
		},
		{
			"strict unexpected line",
			slices.Concat(h, trackBanner, trackFields("A"), []string{eventHeader7, "1\t1\tA"}),
			Options{Strict: true}, UnexpectedLine, 17,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := parseLines(tc.opts, tc.lines)
			if s != nil {
				t.Errorf("partial session returned: %+v", s)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if pe.Kind != tc.kind || pe.Line != tc.line {
				t.Errorf("got %s at line %d, want %s at line %d (%v)", pe.Kind, pe.Line, tc.kind, tc.line, err)
			}
			if pe.ErrorKind() != tc.kind.String() {
				t.Errorf("ErrorKind = %q", pe.ErrorKind())
			}
		})
	}
}

func TestLenientSkipsUnclassifiedLines(t *testing.T) {
	good := "1\t1\tA\t01:00:00:00\t01:00:01:00\t00:00:01:00\tUnmuted"
	cases := []struct {
		name    string
		rows    []string
		events  int
		skipped int
	}{
		{"clean", []string{good}, 1, 0},
		{"truncated row", []string{"1\t1\tA", good}, 1, 1},
		{"row one column short", []string{"1\t1\tA\t01:00:00:00\t01:00:01:00\tUnmuted", good}, 1, 1},
		{"only bad rows", []string{"1\t1\tA", "1\t1\tA\t01:00:00:00\t01:00:01:00\tUnmuted"}, 0, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			block := slices.Concat(trackBanner, trackFields("A"), []string{eventHeader7}, tc.rows)
			s, err := parseLines(Options{}, headerBlock("25 Frame"), block)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(s.Tracks[0].Events) != tc.events {
				t.Errorf("events = %d, want %d", len(s.Tracks[0].Events), tc.events)
			}
			if s.SkippedLines != tc.skipped {
				t.Errorf("SkippedLines = %d, want %d", s.SkippedLines, tc.skipped)
			}
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	h := headerBlock("25 Frame")
	_, err := parseLines(Options{}, h, trackBanner, []string{"TRACK NAME:\tA", "USER DELAY:\tsoon"})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"line 13", "invalid number", "track listing", "USER DELAY", "soon"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestParserStopsAfterError(t *testing.T) {
	p := NewParser(Options{})
	first := p.Feed("BIT DEPTH:\t7-bit")
	if first == nil {
		t.Fatal("expected error")
	}
	if err := p.Feed("SESSION NAME:\tX"); err != first {
		t.Errorf("second Feed = %v, want first error", err)
	}
	if s, err := p.Finish(); s != nil || err != first {
		t.Errorf("Finish = %v, %v", s, err)
	}
}

func TestFinishTwice(t *testing.T) {
	p := NewParser(Options{})
	if _, err := p.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := p.Finish(); !errors.Is(err, ErrFinished) {
		t.Errorf("second Finish = %v", err)
	}
	if err := p.Feed("x"); !errors.Is(err, ErrFinished) {
		t.Errorf("Feed after Finish = %v", err)
	}
}
