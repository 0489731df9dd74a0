// Package watch triggers a callback when content directories change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/logfields"
)

// Watcher watches directory trees and calls OnChange once per burst of
// events, after Debounce of quiet.
type Watcher struct {
	Dirs     []string
	Debounce time.Duration
	OnChange func(ctx context.Context, changed []string)
	Logger   *slog.Logger
}

// ignored filters editor droppings and hidden files.
func ignored(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".tmp")
}

// Run blocks until ctx is cancelled. OnChange runs on the calling goroutine,
// so changes arriving during a callback are coalesced into the next one.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create file watcher").Build()
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil {
			logger.Error("Error closing file watcher", logfields.Error(cerr))
		}
	}()

	watched := 0
	for _, dir := range w.Dirs {
		n, err := addTree(fw, dir)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch directory").
				WithContext("path", dir).Build()
		}
		watched += n
	}
	logger.Info("Watching for changes", "dirs", watched, "debounce", debounce.String())

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = map[string]bool{}
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ignored(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if _, err := addTree(fw, event.Name); err != nil {
						logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			logger.Debug("Change detected", logfields.Path(event.Name), "op", event.Op.String())
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("File watcher error", logfields.Error(err))
		case <-timerC:
			timerC = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			clear(pending)
			if w.OnChange != nil {
				w.OnChange(ctx, changed)
			}
		}
	}
}

// addTree watches dir and every non-hidden subdirectory. A missing dir is
// skipped.
func addTree(fw *fsnotify.Watcher, dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == dir {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}
