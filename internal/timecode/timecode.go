// Package timecode implements the SMPTE-style timecode used throughout Pro
// Tools session text exports: hours, minutes, seconds, frames and a fifth
// "ticks" group holding hundredths of a frame.
//
// A Timecode is a value. The only in-place mutation is SetFrameRate, used
// when a session header declares its rate after timecodes were already read.
package timecode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/edl-session-search/internal/format"
)

// TickResolution is the number of ticks per frame.
const TickResolution = 100

const (
	groupHours = iota
	groupMinutes
	groupSeconds
	groupFrames
	groupTicks
	groupCount
)

var ErrMalformed = errors.New("malformed timecode")

type Timecode struct {
	groups [groupCount]uint8
	rate   format.FrameRate
	drop   bool
}

// New builds a timecode from hours, minutes, seconds, frames and ticks.
// Groups are not range checked.
func New(groups [5]uint8, rate format.FrameRate) Timecode {
	return Timecode{groups: groups, rate: rate, drop: rate.DropFrame()}
}

// WithRate returns a zero timecode at the given rate.
func WithRate(rate format.FrameRate) Timecode {
	return Timecode{rate: rate, drop: rate.DropFrame()}
}

// Parse reads "hh:mm:ss:ff:tt", "hh:mm:ss:ff" (or "hh:mm:ss;ff" for drop
// frame) and "mm:ss". A ';' is only valid right before the frames group.
func Parse(s string, rate format.FrameRate) (Timecode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timecode{}, fmt.Errorf("%w: empty", ErrMalformed)
	}

	var parts []string
	var seps []byte
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ':', ';', '.':
			parts = append(parts, s[start:i])
			seps = append(seps, s[i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])

	// index of the separator that precedes the frames group, if any
	framesSep := -1
	ticksSep := -1
	switch len(parts) {
	case 2:
	case 4:
		framesSep = 2
	case 5:
		framesSep, ticksSep = 2, 3
	default:
		return Timecode{}, fmt.Errorf("%w: %q has %d groups", ErrMalformed, s, len(parts))
	}
	for i, sep := range seps {
		switch {
		case sep == ';' && i != framesSep:
			return Timecode{}, fmt.Errorf("%w: %q has ';' outside the frames separator", ErrMalformed, s)
		case sep == '.' && i != ticksSep:
			return Timecode{}, fmt.Errorf("%w: %q has '.' outside the ticks separator", ErrMalformed, s)
		}
	}

	values := make([]uint8, len(parts))
	for i, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return Timecode{}, fmt.Errorf("%w: %q group %d is not a number", ErrMalformed, s, i+1)
		}
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return Timecode{}, fmt.Errorf("%w: %q group %d: %v", ErrMalformed, s, i+1, err)
		}
		values[i] = uint8(v)
	}

	tc := WithRate(rate)
	if len(values) == 2 {
		tc.groups[groupMinutes] = values[0]
		tc.groups[groupSeconds] = values[1]
		return tc, nil
	}
	copy(tc.groups[:], values)
	return tc, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string, rate format.FrameRate) Timecode {
	tc, err := Parse(s, rate)
	if err != nil {
		panic(err)
	}
	return tc
}

func (t Timecode) Hours() int     { return int(t.groups[groupHours]) }
func (t Timecode) Minutes() int   { return int(t.groups[groupMinutes]) }
func (t Timecode) Seconds() int   { return int(t.groups[groupSeconds]) }
func (t Timecode) Frames() int    { return int(t.groups[groupFrames]) }
func (t Timecode) TickGroup() int { return int(t.groups[groupTicks]) }

func (t Timecode) Groups() [5]uint8 { return t.groups }

func (t Timecode) FrameRate() format.FrameRate { return t.rate }

func (t Timecode) DropFrame() bool { return t.drop }

// SetFrameRate rebinds the rate without touching the groups.
func (t *Timecode) SetFrameRate(rate format.FrameRate) {
	t.rate = rate
	t.drop = rate.DropFrame()
}

// Ticks converts the timecode to an absolute tick count. Drop-frame rates
// count at their nominal integer rate.
func (t Timecode) Ticks() int64 {
	rate := int64(t.rate.Rate())
	return int64(t.groups[groupHours])*3600*rate*TickResolution +
		int64(t.groups[groupMinutes])*60*rate*TickResolution +
		int64(t.groups[groupSeconds])*rate*TickResolution +
		int64(t.groups[groupFrames])*TickResolution +
		int64(t.groups[groupTicks])
}

// Compare orders by Ticks: -1, 0 or +1.
func (t Timecode) Compare(o Timecode) int {
	a, b := t.Ticks(), o.Ticks()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Before reports whether t is earlier than o.
func (t Timecode) Before(o Timecode) bool { return t.Compare(o) < 0 }

// String renders hh:mm:ss:ff, or hh:mm:ss;ff in drop frame. Ticks are not
// rendered.
func (t Timecode) String() string {
	sep := ':'
	if t.drop {
		sep = ';'
	}
	return fmt.Sprintf("%02d:%02d:%02d%c%02d",
		t.groups[groupHours], t.groups[groupMinutes], t.groups[groupSeconds], sep, t.groups[groupFrames])
}

// FullString renders all five groups, hh:mm:ss:ff:tt.
func (t Timecode) FullString() string {
	return fmt.Sprintf("%s:%02d", t.String(), t.groups[groupTicks])
}

func (t Timecode) MarshalText() ([]byte, error) {
	return []byte(t.FullString()), nil
}

// UnmarshalText parses at the receiver's current rate, so callers decoding a
// session should rebind with SetFrameRate afterwards.
func (t *Timecode) UnmarshalText(text []byte) error {
	v, err := Parse(string(text), t.rate)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
