package edl

import (
	"slices"
	"strings"
	"testing"
)

// classifyAll runs lines through st the way Parser.Feed does and returns the
// section of every line that was not skipped.
func classifyAll(st *state, lines []string) []Section {
	var got []Section
	for _, line := range lines {
		raw := rowLine(line)
		trimmed := strings.TrimSpace(raw)
		n := 0
		if trimmed != "" {
			n = len(splitCells(raw))
		}
		d, ok := st.classify(trimmed, n)
		st.filePos++
		if !ok || d.skip {
			continue
		}
		st.advance()
		got = append(got, d.section)
	}
	return got
}

func TestClassifyTrackBoundary(t *testing.T) {
	block := []string{
		"T R A C K  L I S T I N G",
		"TRACK NAME:\tA",
		"COMMENTS:\t",
		"USER DELAY:\t0 Samples",
		"STATE: ",
		"PLUG-INS:\tEQ3 7-Band",
		"CHANNEL\tEVENT\tCLIP NAME\tSTART TIME\tEND TIME\tDURATION\tSTATE",
	}
	TL, TE := SectionTrackListing, SectionTrackEvent

	four := &state{filePos: 20, entered: true}
	if got, want := classifyAll(four, block), []Section{TL, TL, TL, TL, TE, TE}; !slices.Equal(got, want) {
		t.Errorf("header size 4: %v, want %v", got, want)
	}

	five := &state{filePos: 20, entered: true, pluginsSeen: true}
	if got, want := classifyAll(five, block), []Section{TL, TL, TL, TL, TL, TE}; !slices.Equal(got, want) {
		t.Errorf("header size 5: %v, want %v", got, want)
	}
}

func TestClassifyNextTrack(t *testing.T) {
	st := &state{filePos: 20, entered: true}
	lines := []string{
		"T R A C K  L I S T I N G",
		"TRACK NAME:\tA",
		"COMMENTS:\t",
		"USER DELAY:\t0 Samples",
		"STATE: ",
		"CHANNEL\tEVENT\tCLIP NAME\tSTART TIME\tEND TIME\tDURATION\tSTATE",
		"1\t1\tA\t01:00:00:00\t01:00:01:00\t00:00:01:00\tUnmuted",
	}
	classifyAll(st, lines)
	if st.section != SectionTrackEvent {
		t.Fatalf("section = %v, want track event", st.section)
	}

	d, ok := st.classify("TRACK NAME:\tB", 2)
	if !ok || d.section != SectionTrackListing || !d.reset || d.skip {
		t.Errorf("two-cell line in event table = %+v ok=%v", d, ok)
	}
	if st.sectionPos != 0 {
		t.Errorf("sectionPos = %d after reset", st.sectionPos)
	}
}

func TestClassifyBlankRun(t *testing.T) {
	st := &state{filePos: 30, entered: true, section: SectionMarkersListing, sectionPos: 3}

	d, _ := st.classify("", 0)
	if d.reset || !d.skip || d.section != SectionIgnore {
		t.Errorf("first blank = %+v", d)
	}
	d, _ = st.classify("", 0)
	if !d.reset || !st.ended || st.sectionPos != 0 {
		t.Errorf("second blank = %+v ended=%v pos=%d", d, st.ended, st.sectionPos)
	}
	d, _ = st.classify("", 0)
	if d.reset || !d.skip || d.section != SectionMarkersListing {
		t.Errorf("drained blank = %+v", d)
	}
	if _, ok := st.classify("1\t01:00:00:00\t0\tSamples\tA\t", 6); !ok || st.ended || st.blankRun != 0 {
		t.Errorf("content after blank run: ok=%v ended=%v run=%d", ok, st.ended, st.blankRun)
	}
}

func TestClassifyHeaderWindow(t *testing.T) {
	st := &state{}
	for i := 0; i < headerLines; i++ {
		d, ok := st.classify("FIELD:\tvalue", 2)
		st.filePos++
		if !ok || d.section != SectionHeader {
			t.Fatalf("line %d = %+v ok=%v", i+1, d, ok)
		}
	}
	if _, ok := st.classify("FIELD:\tvalue", 2); ok {
		t.Error("ninth line before any banner should have no section")
	}
}

func TestBannersAreExact(t *testing.T) {
	st := &state{filePos: 10, entered: true}
	for banner, sec := range banners {
		d, ok := st.classify(banner, 1)
		if !ok || d.section != sec || !d.skip || !d.reset {
			t.Errorf("%q = %+v ok=%v", banner, d, ok)
		}
		if b, ok := sec.Banner(); !ok || b != banner {
			t.Errorf("%v.Banner() = %q", sec, b)
		}
	}
	if !st.pluginsSeen {
		t.Error("plug-ins banner did not raise the flag")
	}

	// letter-spaced text that is not a banner stays ordinary content
	st = &state{filePos: 10, entered: true, section: SectionOnlineFiles}
	d, ok := st.classify("A B C", 1)
	if !ok || d.section != SectionOnlineFiles || d.skip {
		t.Errorf("letter-spaced line = %+v", d)
	}
}
