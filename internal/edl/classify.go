package edl

const (
	headerLines        = 8
	trackHeaderFields  = 4
	sectionTerminator  = 2
	trackNextCellCount = 2
)

// state is the line classifier's context. It is owned by one Parser and
// threaded through every line; nothing about it is global.
type state struct {
	filePos     int // 0-based index of the current line
	section     Section
	entered     bool // a banner has been seen
	sectionPos  int  // non-skipped lines since the last reset
	blankRun    int
	ended       bool // the blank run terminated the section
	pluginsSeen bool // sticky, see trackHeaderSize
}

// decision is the classifier's answer for one line.
type decision struct {
	section Section
	skip    bool
	reset   bool
	blank   bool
}

// trackHeaderSize is the number of field lines that precede each track's
// event table. Sessions exported with a plug-ins listing add a PLUG-INS field
// to every track.
func (st *state) trackHeaderSize() int {
	if st.pluginsSeen {
		return trackHeaderFields + 1
	}
	return trackHeaderFields
}

// classify decides where line belongs. trimmed is the line with surrounding
// whitespace removed and cells is its tab-separated cell count. The second
// return is false when no rule applies.
func (st *state) classify(trimmed string, cells int) (decision, bool) {
	if trimmed == "" {
		st.blankRun++
		if st.ended {
			return decision{section: st.section, skip: true, blank: true}, true
		}
		d := decision{section: SectionIgnore, skip: true, blank: true}
		if st.blankRun == sectionTerminator {
			st.sectionPos = 0
			st.ended = true
			d.reset = true
		}
		return d, true
	}
	st.blankRun = 0
	st.ended = false

	if st.filePos < headerLines && !st.entered {
		st.section = SectionHeader
		return decision{section: SectionHeader}, true
	}

	if sec, ok := banners[trimmed]; ok {
		st.section = sec
		st.entered = true
		st.sectionPos = 0
		if sec == SectionPluginsListing {
			st.pluginsSeen = true
		}
		return decision{section: sec, skip: true, reset: true}, true
	}

	switch st.section {
	case SectionOnlineFiles, SectionOfflineFiles, SectionOnlineClips, SectionMarkersListing, SectionPluginsListing:
		return decision{section: st.section}, true

	case SectionTrackListing:
		if st.sectionPos < st.trackHeaderSize() {
			return decision{section: SectionTrackListing}, true
		}
		st.section = SectionTrackEvent
		return decision{section: SectionTrackEvent}, true

	case SectionTrackEvent:
		if cells == trackNextCellCount {
			st.section = SectionTrackListing
			st.sectionPos = 0
			return decision{section: SectionTrackListing, reset: true}, true
		}
		if validWidth(SectionTrackEvent, cells) {
			return decision{section: SectionTrackEvent}, true
		}
	}
	return decision{}, false
}

// advance counts a non-skipped line and returns its 1-based position in the
// section.
func (st *state) advance() int {
	st.sectionPos++
	return st.sectionPos
}
