package edl

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a ParseError.
type Kind int

const (
	MalformedTimecode Kind = iota + 1
	UnrecognizedField
	ColumnCountMismatch
	UnrecognizedFrameRate
	UnrecognizedSampleRate
	UnrecognizedBitDepth
	UnrecognizedUnit
	UnrecognizedPluginFormat
	OrphanTrackEvent
	MissingTrackName
	InvalidNumber
	UnrecognizedMuteState
	UnexpectedLine
)

var kindNames = map[Kind]string{
	MalformedTimecode:        "malformed_timecode",
	UnrecognizedField:        "unrecognized_field",
	ColumnCountMismatch:      "column_count_mismatch",
	UnrecognizedFrameRate:    "unrecognized_frame_rate",
	UnrecognizedSampleRate:   "unrecognized_sample_rate",
	UnrecognizedBitDepth:     "unrecognized_bit_depth",
	UnrecognizedUnit:         "unrecognized_unit",
	UnrecognizedPluginFormat: "unrecognized_plugin_format",
	OrphanTrackEvent:         "orphan_track_event",
	MissingTrackName:         "missing_track_name",
	InvalidNumber:            "invalid_number",
	UnrecognizedMuteState:    "unrecognized_mute_state",
	UnexpectedLine:           "unexpected_line",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var ErrFinished = errors.New("edl: parser already finished")

// ParseError reports the first structural violation in an export, with the
// offending line and the section, field or column it was read as.
type ParseError struct {
	Kind    Kind
	Line    int
	Text    string
	Section Section
	Field   string
	Column  string
	Err     error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "edl: line %d: %s", e.Line, strings.ReplaceAll(e.Kind.String(), "_", " "))
	ctx := []string{e.Section.String()}
	if e.Field != "" {
		ctx = append(ctx, "field "+e.Field)
	}
	if e.Column != "" {
		ctx = append(ctx, "column "+e.Column)
	}
	fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	fmt.Fprintf(&b, ": %q", e.Text)
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrorKind lets callers classify the failure without importing Kind.
func (e *ParseError) ErrorKind() string { return e.Kind.String() }

// IsKind reports whether err is a ParseError of kind k.
func IsKind(err error, k Kind) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == k
}
