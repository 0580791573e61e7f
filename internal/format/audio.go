package format

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnrecognizedSampleRate = errors.New("unrecognized sample rate")
	ErrUnrecognizedBitDepth   = errors.New("unrecognized bit depth")
)

// SampleRate is the session sample rate. SampleRateUnknown is never
// produced by parsing.
type SampleRate int

const (
	SampleRateUnknown SampleRate = iota
	Khz22
	Khz44p1
	Khz48
	Khz88p2
	Khz96
	Khz192
)

var sampleRateTokens = []struct {
	rate  SampleRate
	token string
	hertz float64
}{
	{Khz22, "22000.000000", 22000},
	{Khz44p1, "44100.000000", 44100},
	{Khz48, "48000.000000", 48000},
	{Khz88p2, "88200.000000", 88200},
	{Khz96, "96000.000000", 96000},
	{Khz192, "192000.000000", 192000},
}

// ParseSampleRate matches the exact SAMPLE RATE value written by the export.
func ParseSampleRate(s string) (SampleRate, error) {
	s = strings.TrimSpace(s)
	for _, t := range sampleRateTokens {
		if t.token == s {
			return t.rate, nil
		}
	}
	return SampleRateUnknown, fmt.Errorf("%w: %q", ErrUnrecognizedSampleRate, s)
}

func (r SampleRate) Hertz() float64 {
	for _, t := range sampleRateTokens {
		if t.rate == r {
			return t.hertz
		}
	}
	return 0
}

func (r SampleRate) String() string {
	for _, t := range sampleRateTokens {
		if t.rate == r {
			return t.token
		}
	}
	return "unknown"
}

func (r SampleRate) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *SampleRate) UnmarshalText(text []byte) error {
	if string(text) == "unknown" {
		*r = SampleRateUnknown
		return nil
	}
	v, err := ParseSampleRate(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// BitDepth is the session bit depth. BitDepthUnknown is never produced by
// parsing.
type BitDepth int

const (
	BitDepthUnknown BitDepth = iota
	Bit8
	Bit16
	Bit24
	Bit32
	Bit32Float
	Bit64
	Bit64Float
)

var bitDepthTokens = []struct {
	depth BitDepth
	token string
	bits  int
	float bool
}{
	{Bit8, "8-bit", 8, false},
	{Bit16, "16-bit", 16, false},
	{Bit24, "24-bit", 24, false},
	{Bit32, "32-bit", 32, false},
	{Bit32Float, "32-bit float", 32, true},
	{Bit64, "64-bit", 64, false},
	{Bit64Float, "64-bit float", 64, true},
}

// ParseBitDepth matches a BIT DEPTH value such as "24-bit" or "32-bit float".
func ParseBitDepth(s string) (BitDepth, error) {
	s = strings.TrimSpace(s)
	for _, t := range bitDepthTokens {
		if t.token == s {
			return t.depth, nil
		}
	}
	return BitDepthUnknown, fmt.Errorf("%w: %q", ErrUnrecognizedBitDepth, s)
}

func (d BitDepth) Bits() int {
	for _, t := range bitDepthTokens {
		if t.depth == d {
			return t.bits
		}
	}
	return 0
}

func (d BitDepth) Float() bool {
	for _, t := range bitDepthTokens {
		if t.depth == d {
			return t.float
		}
	}
	return false
}

func (d BitDepth) String() string {
	for _, t := range bitDepthTokens {
		if t.depth == d {
			return t.token
		}
	}
	return "unknown"
}

func (d BitDepth) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *BitDepth) UnmarshalText(text []byte) error {
	if string(text) == "unknown" {
		*d = BitDepthUnknown
		return nil
	}
	v, err := ParseBitDepth(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
