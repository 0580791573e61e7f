package format

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnrecognizedFrameRate = errors.New("unrecognized frame rate")

// FrameRate is the session timecode format. The zero value is 25 fps, the
// rate timecodes carry before a session header declares its own.
type FrameRate int

const (
	Fps25 FrameRate = iota
	Fps24DropFrame
	Fps24
	Fps30
	Fps30DropFrame
	Fps48
	Fps50
	Fps60
	Fps60DropFrame
	Fps120
)

type frameRateInfo struct {
	token string  // rate part of the EDL token, before " Frame" / " Drop Frame"
	rate  int     // nominal integer rate used for tick arithmetic
	float float64 // display only
	drop  bool
}

var frameRates = map[FrameRate]frameRateInfo{
	Fps24DropFrame: {"23.976", 24, 23.976, true},
	Fps24:          {"24", 24, 24, false},
	Fps25:          {"25", 25, 25, false},
	Fps30DropFrame: {"29.97", 30, 29.97, true},
	Fps30:          {"30", 30, 30, false},
	Fps48:          {"48", 48, 48, false},
	Fps50:          {"50", 50, 50, false},
	Fps60DropFrame: {"59.94", 60, 59.94, true},
	Fps60:          {"60", 60, 60, false},
	Fps120:         {"120", 120, 120, false},
}

const (
	dropFrameSuffix = " Drop Frame"
	frameSuffix     = " Frame"
)

// ParseFrameRate maps a TIMECODE FORMAT value such as "29.97 Drop Frame" or
// "25 Frame" to its variant.
func ParseFrameRate(s string) (FrameRate, error) {
	s = strings.TrimSpace(s)

	var rate string
	var drop bool
	switch {
	case strings.HasSuffix(s, dropFrameSuffix):
		rate, drop = strings.TrimSuffix(s, dropFrameSuffix), true
	case strings.HasSuffix(s, frameSuffix):
		rate = strings.TrimSuffix(s, frameSuffix)
	default:
		return Fps25, fmt.Errorf("%w: %q has no frame unit", ErrUnrecognizedFrameRate, s)
	}

	for fr, info := range frameRates {
		if info.token == rate && info.drop == drop {
			return fr, nil
		}
	}
	return Fps25, fmt.Errorf("%w: %q", ErrUnrecognizedFrameRate, s)
}

// Rate returns the nominal integer rate; drop-frame variants report the rate
// they count frames at (30 for 29.97 DF).
func (f FrameRate) Rate() int {
	return frameRates[f].rate
}

// Float returns the real rate for display. Never use it for tick arithmetic.
func (f FrameRate) Float() float64 {
	return frameRates[f].float
}

func (f FrameRate) DropFrame() bool {
	return frameRates[f].drop
}

// String returns the EDL token for the rate.
func (f FrameRate) String() string {
	info, ok := frameRates[f]
	if !ok {
		return fmt.Sprintf("FrameRate(%d)", int(f))
	}
	if info.drop {
		return info.token + dropFrameSuffix
	}
	return info.token + frameSuffix
}

func (f FrameRate) MarshalText() ([]byte, error) {
	if _, ok := frameRates[f]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnrecognizedFrameRate, int(f))
	}
	return []byte(f.String()), nil
}

func (f *FrameRate) UnmarshalText(text []byte) error {
	v, err := ParseFrameRate(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
