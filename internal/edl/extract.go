package edl

import (
	"strconv"
	"strings"
)

type fieldName int

const (
	fieldUnknown fieldName = iota
	fieldSessionName
	fieldSampleRate
	fieldBitDepth
	fieldStartTimecode
	fieldTimecodeFormat
	fieldAudioTracks
	fieldAudioClips
	fieldAudioFiles
	fieldTrackName
	fieldTrackComment
	fieldTrackDelay
	fieldTrackState
	fieldTrackPlugins
)

type fieldSpec struct {
	name     fieldName
	key      string
	section  Section
	voidable bool
}

var fieldCatalog = []fieldSpec{
	{fieldSessionName, "SESSION NAME", SectionHeader, false},
	{fieldSampleRate, "SAMPLE RATE", SectionHeader, false},
	{fieldBitDepth, "BIT DEPTH", SectionHeader, false},
	{fieldStartTimecode, "SESSION START TIMECODE", SectionHeader, false},
	{fieldTimecodeFormat, "TIMECODE FORMAT", SectionHeader, false},
	{fieldAudioTracks, "# OF AUDIO TRACKS", SectionHeader, false},
	{fieldAudioClips, "# OF AUDIO CLIPS", SectionHeader, false},
	{fieldAudioFiles, "# OF AUDIO FILES", SectionHeader, false},
	{fieldTrackName, "TRACK NAME", SectionTrackListing, false},
	{fieldTrackComment, "COMMENTS", SectionTrackListing, true},
	{fieldTrackDelay, "USER DELAY", SectionTrackListing, false},
	{fieldTrackState, "STATE", SectionTrackListing, true},
	{fieldTrackPlugins, "PLUG-INS", SectionTrackListing, true},
}

func lookupField(key string) fieldSpec {
	for _, f := range fieldCatalog {
		if f.key == key {
			return f
		}
	}
	return fieldSpec{name: fieldUnknown, key: key, voidable: true}
}

// field is one "NAME:\tvalue" line. raw keeps the value's inner tabs.
type field struct {
	spec  fieldSpec
	value string
	raw   string
}

// extractField splits a field line at its first colon. The value starts after
// a tab, optionally preceded by spaces. A line with no value part is only
// accepted for voidable fields, which then read as empty.
func extractField(line string) (field, error) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return field{}, &ParseError{Kind: UnrecognizedField}
	}
	spec := lookupField(strings.TrimSpace(line[:i]))
	rest := strings.TrimLeft(line[i+1:], " ")
	if !strings.HasPrefix(rest, "\t") {
		if !spec.voidable {
			return field{}, &ParseError{Kind: UnrecognizedField, Field: spec.key}
		}
		return field{spec: spec}, nil
	}
	rest = rest[1:]
	return field{spec: spec, value: strings.TrimSpace(rest), raw: rest}, nil
}

// splitCells splits a table row on tabs and trims each cell.
func splitCells(line string) []string {
	cells := strings.Split(line, "\t")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// rowLine trims what the classifier and the cell splitter must not see. Tabs
// survive so a trailing empty column is still counted.
func rowLine(line string) string {
	return strings.Trim(line, " \r\n")
}

func parseCount(s, fieldKey, column string) (int, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 31)
	if err != nil {
		return 0, &ParseError{Kind: InvalidNumber, Field: fieldKey, Column: column, Err: err}
	}
	return int(n), nil
}

// parseDelay reads a USER DELAY value such as "0 Samples".
func parseDelay(s string) (int, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "Samples"))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ParseError{Kind: InvalidNumber, Field: "USER DELAY", Err: err}
	}
	return n, nil
}

// parseInstances reads the leading count of "2 active".
func parseInstances(s string) (int, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return 0, &ParseError{Kind: InvalidNumber, Column: pluginColumns[5], Err: strconv.ErrSyntax}
	}
	return parseCount(parts[0], "", pluginColumns[5])
}

// splitPluginNames reads the tab separated names of a PLUG-INS field.
func splitPluginNames(raw string) []string {
	var names []string
	for _, c := range strings.Split(raw, "\t") {
		if c = strings.TrimSpace(c); c != "" {
			names = append(names, c)
		}
	}
	return names
}

var (
	eventColumns       = [...]string{"CHANNEL", "EVENT", "CLIP NAME", "START TIME", "END TIME", "DURATION", "TIMESTAMP", "STATE"}
	markerColumns      = [...]string{"#", "LOCATION", "TIME REFERENCE", "UNITS", "NAME", "COMMENTS"}
	pluginColumns      = [...]string{"MANUFACTURER", "PLUG-IN NAME", "VERSION", "FORMAT", "STEMS", "NUMBER OF INSTANCES"}
	timestampColumn    = 6
	timestampHeaderKey = eventColumns[timestampColumn]
)
