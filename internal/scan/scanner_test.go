package scan

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

const export = "SESSION NAME:\tSpot\nSAMPLE RATE:\t48000.000000\n"

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestScanRoots(t *testing.T) {
	root := t.TempDir()
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(export))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	write(t, filepath.Join(root, "Spot", "Spot.txt"), []byte(export))
	write(t, filepath.Join(root, "Spot", "Spot Win.TXT"), utf16)
	write(t, filepath.Join(root, "Spot", "notes.txt"), []byte("call the client\n"))
	write(t, filepath.Join(root, "Spot", "Spot.ptx"), []byte(export))
	write(t, filepath.Join(root, "Spot", "Audio Files", "x.txt"), []byte(export))
	write(t, filepath.Join(root, ".cache", "y.txt"), []byte(export))

	files, err := ScanRoots([]string{root, filepath.Join(root, "missing")}, []string{".txt"})
	if err != nil {
		t.Fatalf("ScanRoots: %v", err)
	}
	var names []string
	for _, f := range files {
		if f.Root != root || f.Size == 0 || f.Mtime == 0 {
			t.Errorf("file info = %+v", f)
		}
		names = append(names, filepath.Base(f.Path))
	}
	slices.Sort(names)
	if want := []string{"Spot Win.TXT", "Spot.txt"}; !slices.Equal(names, want) {
		t.Errorf("found %v, want %v", names, want)
	}
}

func TestIsExportShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.txt")
	write(t, path, []byte("SESSION"))
	if IsExport(path) {
		t.Error("short file should not sniff as an export")
	}
	if IsExport(filepath.Join(t.TempDir(), "none.txt")) {
		t.Error("missing file should not sniff as an export")
	}
}
