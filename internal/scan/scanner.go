package scan

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zuo-Peng/edl-session-search/internal/decode"
)

type FileInfo struct {
	Path  string
	Root  string // configured root the file was found under
	Mtime int64
	Size  int64
}

// sniffSize is how much of a file is read to decide whether it is an export.
// It covers the first field in UTF-16 with a BOM.
const sniffSize = 128

const sessionMarker = "SESSION NAME"

// skipDirs are Pro Tools session folders that never hold exports.
var skipDirs = map[string]bool{
	"Audio Files":          true,
	"Bounced Files":        true,
	"Video Files":          true,
	"Fade Files":           true,
	"Rendered Files":       true,
	"Clip Groups":          true,
	"Session File Backups": true,
}

// ScanRoots walks each root and returns the session text exports under it.
// Roots that do not exist are skipped.
func ScanRoots(roots, exts []string) ([]FileInfo, error) {
	var files []FileInfo
	for _, root := range roots {
		if root == "" {
			continue
		}
		found, err := scanRoot(root, exts)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func scanRoot(root string, exts []string) ([]FileInfo, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}
	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		base := filepath.Base(path)
		if info.IsDir() {
			if path != root && (strings.HasPrefix(base, ".") || skipDirs[base]) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(base, ".") || !MatchExt(path, exts) {
			return nil
		}
		if !IsExport(path) {
			return nil
		}
		files = append(files, FileInfo{
			Path:  path,
			Root:  root,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	return files, err
}

// MatchExt reports whether path has one of exts, ignoring case.
func MatchExt(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// IsExport reports whether the head of path reads as a session text export
// in any of the encodings Pro Tools writes.
func IsExport(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, sniffSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false
	}
	head = head[:n&^1]
	text, err := decode.Decode(head, decode.Auto, "windows-1252")
	if err != nil {
		return false
	}
	return strings.Contains(string(text), sessionMarker)
}
