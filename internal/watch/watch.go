// Package watch re-indexes session roots when exports change on disk.
package watch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Zuo-Peng/edl-session-search/internal/scan"
)

// Watcher calls reindex once activity on matching files has been quiet for
// the debounce delay.
type Watcher struct {
	exts    []string
	reindex func() error
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	timerMu sync.Mutex
	timer   *time.Timer
	delay   time.Duration

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New starts watching roots recursively. Roots that do not exist are logged
// and skipped.
func New(roots, exts []string, debounce time.Duration, reindex func() error, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		exts:    exts,
		reindex: reindex,
		watcher: fw,
		logger:  logger,
		delay:   debounce,
		done:    make(chan struct{}),
	}
	for _, root := range roots {
		w.addRecursive(root)
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Close stops the watcher and any pending re-index timer.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)

		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.timerMu.Unlock()

		w.closeErr = w.watcher.Close()
		w.wg.Wait()
	})
	return w.closeErr
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addRecursive(event.Name)
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	// a removed or renamed directory can take exports with it
	if scan.MatchExt(event.Name, w.exts) || event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.logger.Debug("change", "path", event.Name, "op", event.Op.String())
		w.schedule()
	}
}

func (w *Watcher) schedule() {
	select {
	case <-w.done:
		return
	default:
	}

	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(w.delay, func() {
		if err := w.reindex(); err != nil {
			w.logger.Error("reindex", "error", err)
		}

		w.timerMu.Lock()
		if w.timer == timer {
			w.timer = nil
		}
		w.timerMu.Unlock()
	})

	w.timer = timer
}

func (w *Watcher) addRecursive(root string) {
	filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("walk", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			w.logger.Warn("watch", "path", p, "error", err)
		}
		return nil
	})
}
