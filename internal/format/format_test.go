package format

import (
	"errors"
	"testing"
)

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want FrameRate
		rate int
		drop bool
	}{
		{"23.976 Drop Frame", Fps24DropFrame, 24, true},
		{"24 Frame", Fps24, 24, false},
		{"25 Frame", Fps25, 25, false},
		{"29.97 Drop Frame", Fps30DropFrame, 30, true},
		{"30 Frame", Fps30, 30, false},
		{"48 Frame", Fps48, 48, false},
		{"50 Frame", Fps50, 50, false},
		{"59.94 Drop Frame", Fps60DropFrame, 60, true},
		{"60 Frame", Fps60, 60, false},
		{" 120 Frame ", Fps120, 120, false},
	}
	for _, tc := range cases {
		got, err := ParseFrameRate(tc.in)
		if err != nil {
			t.Fatalf("ParseFrameRate(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseFrameRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
		if got.Rate() != tc.rate || got.DropFrame() != tc.drop {
			t.Errorf("%v: rate=%d drop=%v, want %d %v", got, got.Rate(), got.DropFrame(), tc.rate, tc.drop)
		}
	}
}

func TestParseFrameRateRejects(t *testing.T) {
	for _, in := range []string{"", "25", "29.97 Frame", "30 Drop Frame", "25 fps", "frame"} {
		if _, err := ParseFrameRate(in); !errors.Is(err, ErrUnrecognizedFrameRate) {
			t.Errorf("ParseFrameRate(%q) err = %v, want ErrUnrecognizedFrameRate", in, err)
		}
	}
}

func TestFrameRateStringRoundTrip(t *testing.T) {
	for fr := range frameRates {
		got, err := ParseFrameRate(fr.String())
		if err != nil {
			t.Fatalf("ParseFrameRate(%q): %v", fr.String(), err)
		}
		if got != fr {
			t.Errorf("round trip %v -> %v", fr, got)
		}
	}
	if Fps30DropFrame.Float() != 29.97 {
		t.Errorf("Float() = %v", Fps30DropFrame.Float())
	}
}

func TestParseSampleRate(t *testing.T) {
	got, err := ParseSampleRate("48000.000000")
	if err != nil {
		t.Fatalf("ParseSampleRate: %v", err)
	}
	if got != Khz48 || got.Hertz() != 48000 {
		t.Errorf("got %v (%v Hz)", got, got.Hertz())
	}

	for _, in := range []string{"48000.5", "48000", "", "48 kHz"} {
		if _, err := ParseSampleRate(in); !errors.Is(err, ErrUnrecognizedSampleRate) {
			t.Errorf("ParseSampleRate(%q) err = %v", in, err)
		}
	}
}

func TestParseBitDepth(t *testing.T) {
	cases := map[string]struct {
		want  BitDepth
		bits  int
		float bool
	}{
		"8-bit":        {Bit8, 8, false},
		"16-bit":       {Bit16, 16, false},
		"24-bit":       {Bit24, 24, false},
		"32-bit":       {Bit32, 32, false},
		"32-bit float": {Bit32Float, 32, true},
		"64-bit float": {Bit64Float, 64, true},
	}
	for in, tc := range cases {
		got, err := ParseBitDepth(in)
		if err != nil {
			t.Fatalf("ParseBitDepth(%q): %v", in, err)
		}
		if got != tc.want || got.Bits() != tc.bits || got.Float() != tc.float {
			t.Errorf("ParseBitDepth(%q) = %v bits=%d float=%v", in, got, got.Bits(), got.Float())
		}
	}
	if _, err := ParseBitDepth("24"); !errors.Is(err, ErrUnrecognizedBitDepth) {
		t.Errorf("expected ErrUnrecognizedBitDepth, got %v", err)
	}
}

func TestZeroValues(t *testing.T) {
	var fr FrameRate
	if fr != Fps25 {
		t.Errorf("zero FrameRate = %v, want 25 Frame", fr)
	}
	var sr SampleRate
	if sr.String() != "unknown" {
		t.Errorf("zero SampleRate = %q", sr.String())
	}
	var bd BitDepth
	if bd.Bits() != 0 {
		t.Errorf("zero BitDepth bits = %d", bd.Bits())
	}
}
