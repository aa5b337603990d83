package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/savonet/ai-radio/internal/logger"
)

// Watch rescans the library when files in the music directory change.
// Events are debounced so a bulk copy triggers a single rescan. Blocks until
// ctx is cancelled.
func (l *Library) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}

	// fsnotify does not recurse; register existing subdirectories too.
	filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != l.dir {
			if werr := watcher.Add(path); werr != nil {
				logger.Debug("library: cannot watch subdir",
					logger.String("path", path), logger.Err(werr))
			}
		}
		return nil
	})

	var timer *time.Timer
	var pending <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, serr := os.Stat(ev.Name); serr == nil && info.IsDir() {
					watcher.Add(ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(l.debounce)
			} else {
				timer.Reset(l.debounce)
			}
			pending = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("library: watcher error", logger.Err(err))

		case <-pending:
			pending = nil
			if err := l.Rescan(); err != nil {
				logger.Warn("library: rescan failed", logger.Err(err))
				continue
			}
			logger.Info("library: rescanned", logger.Int("tracks", l.Len()))
		}
	}
}
