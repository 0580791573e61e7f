// Package decode turns the raw bytes of a session text export into UTF-8.
//
// Pro Tools writes the export in whatever the host used at the time: UTF-8
// with or without a BOM, UTF-16 on some Windows builds, and MacRoman or
// Windows-1252 on older systems.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Auto selects the encoding from a BOM or the byte pattern of the data.
const Auto = "auto"

var ErrUnknownEncoding = errors.New("unknown encoding")

// Lookup resolves an encoding name. Names follow the WHATWG index
// ("windows-1252", "macintosh", "shift_jis", ...) plus "utf-16" for BOM
// detected UTF-16.
func Lookup(name string) (encoding.Encoding, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	default:
		enc, err := htmlindex.Get(n)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
		}
		return enc, nil
	}
}

// Valid reports whether name is Auto or a known encoding.
func Valid(name string) bool {
	if strings.EqualFold(strings.TrimSpace(name), Auto) {
		return true
	}
	_, err := Lookup(name)
	return err == nil
}

// Detect names the encoding of data: a BOM wins, then a UTF-16 byte pattern,
// then UTF-8 validity. Anything else is assumed to be fallback.
func Detect(data []byte, fallback string) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return "utf-8"
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return "utf-16"
	}
	if le, be := zeroPattern(data); le {
		return "utf-16le"
	} else if be {
		return "utf-16be"
	}
	if utf8.Valid(data) {
		return "utf-8"
	}
	return fallback
}

// zeroPattern looks for ASCII text stored as UTF-16 without a BOM: every
// other byte of the head is zero. The head covers "SESSION NAME".
func zeroPattern(data []byte) (le, be bool) {
	n := min(len(data), 24) &^ 1
	if n < 4 {
		return false, false
	}
	le, be = true, true
	for i := 0; i < n; i += 2 {
		if data[i] != 0 || data[i+1] == 0 {
			be = false
		}
		if data[i+1] != 0 || data[i] == 0 {
			le = false
		}
	}
	return le, be
}

// Decode converts data to UTF-8. name is Auto or an encoding name; fallback
// is used by Auto when the data is neither UTF-16 nor valid UTF-8.
func Decode(data []byte, name, fallback string) ([]byte, error) {
	if strings.EqualFold(strings.TrimSpace(name), Auto) || name == "" {
		name = Detect(data, fallback)
	}
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return out, nil
}

// OpenFile reads and decodes a whole file.
func OpenFile(path, name, fallback string) (io.Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out, err := Decode(data, name, fallback)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bytes.NewReader(out), nil
}
