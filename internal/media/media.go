// Package media locates and probes the audio files a session inventory
// refers to.
package media

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"

	"github.com/Zuo-Peng/edl-session-search/internal/edl"
)

// Info describes one media file on disk. Only Path and Exists are set when
// the file is missing.
type Info struct {
	Path     string        `json:"path"`
	Exists   bool          `json:"exists"`
	Size     int64         `json:"size,omitempty"`
	Format   string        `json:"format,omitempty"`
	Title    string        `json:"title,omitempty"`
	Artist   string        `json:"artist,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Resolve lists the places a file from the inventory may live, most likely
// first: next to the export, in its Audio Files folder, then the location
// the export records. HFS locations ("Volume:dir:dir:") are tried both
// under /Volumes and as a path on the boot volume.
func Resolve(edlPath string, f edl.MediaFile) []string {
	dir := filepath.Dir(edlPath)
	candidates := []string{
		filepath.Join(dir, f.Name),
		filepath.Join(dir, "Audio Files", f.Name),
	}

	loc := strings.TrimSpace(f.Location)
	switch {
	case loc == "":
	case strings.Contains(loc, ":") && !strings.Contains(loc, "/") && !strings.Contains(loc, `\`):
		parts := strings.Split(strings.TrimSuffix(loc, ":"), ":")
		rest := filepath.Join(parts[1:]...)
		candidates = append(candidates,
			filepath.Join("/Volumes", parts[0], rest, f.Name),
			filepath.Join("/", rest, f.Name),
		)
	default:
		candidates = append(candidates, filepath.Join(filepath.FromSlash(loc), f.Name))
	}

	var out []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Locate returns the first candidate from Resolve that exists.
func Locate(edlPath string, f edl.MediaFile) (string, bool) {
	for _, c := range Resolve(edlPath, f) {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}

// Probe stats path and reads what tags and timing it can. Unreadable tags
// are not an error.
func Probe(path string) (Info, error) {
	info := Info{Path: path}
	st, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, err
	}
	info.Exists = true
	info.Size = st.Size()
	info.Format = strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))

	readTags(path, &info)

	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if d, err := mp3Duration(path); err == nil {
			info.Duration = d
		}
	}
	return info, nil
}

func readTags(path string, info *Info) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return
	}
	if ft := string(meta.FileType()); ft != "" {
		info.Format = ft
	}
	info.Title = strings.TrimSpace(meta.Title())
	info.Artist = strings.TrimSpace(meta.Artist())
}

func mp3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var total time.Duration

	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration()
	}

	return total, nil
}
