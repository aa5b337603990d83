// Package library picks music tracks from a directory in shuffled rotation.
package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/savonet/ai-radio/internal/logger"
	"github.com/savonet/ai-radio/internal/media"
	"github.com/savonet/ai-radio/internal/playout"
)

// ErrEmptyLibrary means the music directory holds no playable files.
var ErrEmptyLibrary = errors.New("library: no audio files")

// Library hands out tracks in shuffled rotation: every file plays once before
// any file repeats, and a reshuffle never replays the previous track back to
// back.
type Library struct {
	dir string

	// watcher debounce, shortened in tests
	debounce time.Duration

	mu    sync.Mutex
	files []string // every known audio file, sorted
	bag   []string // remaining picks in the current rotation
	last  string   // most recently picked path
}

// New scans dir and returns a ready library.
func New(dir string) (*Library, error) {
	l := &Library{dir: dir, debounce: 2 * time.Second}
	if err := l.Rescan(); err != nil {
		return nil, err
	}
	if l.Len() == 0 {
		return nil, ErrEmptyLibrary
	}
	return l, nil
}

// Rescan walks the music directory and reconciles the file set. New files
// join the current rotation at random positions; removed files leave it.
func (l *Library) Rescan() error {
	var found []string
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && media.IsAudioFile(path) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", l.dir, err)
	}
	slices.Sort(found)

	l.mu.Lock()
	defer l.mu.Unlock()

	known := make(map[string]bool, len(l.files))
	for _, f := range l.files {
		known[f] = true
	}
	current := make(map[string]bool, len(found))
	for _, f := range found {
		current[f] = true
	}

	l.bag = slices.DeleteFunc(l.bag, func(p string) bool { return !current[p] })
	for _, f := range found {
		if known[f] {
			continue
		}
		i := 0
		if n := len(l.bag); n > 0 {
			i = rand.Intn(n + 1)
		}
		l.bag = slices.Insert(l.bag, i, f)
	}
	l.files = found
	return nil
}

// Len returns the number of known audio files.
func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.files)
}

// Next resolves the next track: picks a file, reads its tags and probes its
// duration, and returns a ready playout request. Unreadable files are dropped
// from the library and the pick moves on.
func (l *Library) Next(ctx context.Context) (*playout.Request, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path, err := l.pick()
		if err != nil {
			return nil, err
		}

		md, err := media.ReadFile(path)
		if err != nil {
			logger.Warn("library: dropping unreadable file",
				logger.String("path", path), logger.Err(err))
			l.drop(path)
			continue
		}

		if dur, err := media.ProbeDuration(ctx, path); err == nil {
			md.Duration = dur
		} else {
			logger.Debug("library: duration probe failed",
				logger.String("path", path), logger.Err(err))
		}

		return &playout.Request{
			ID:       uuid.NewString(),
			Path:     path,
			Metadata: md,
			Source:   playout.SourceLibrary,
		}, nil
	}
}

func (l *Library) pick() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.files) == 0 {
		return "", ErrEmptyLibrary
	}
	if len(l.bag) == 0 {
		l.refill()
	}
	path := l.bag[0]
	l.bag = l.bag[1:]
	l.last = path
	return path, nil
}

// refill starts a new shuffled rotation. Caller holds l.mu.
func (l *Library) refill() {
	l.bag = slices.Clone(l.files)
	rand.Shuffle(len(l.bag), func(i, j int) {
		l.bag[i], l.bag[j] = l.bag[j], l.bag[i]
	})
	if len(l.bag) > 1 && l.bag[0] == l.last {
		n := 1 + rand.Intn(len(l.bag)-1)
		l.bag[0], l.bag[n] = l.bag[n], l.bag[0]
	}
}

func (l *Library) drop(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files = slices.DeleteFunc(l.files, func(p string) bool { return p == path })
	l.bag = slices.DeleteFunc(l.bag, func(p string) bool { return p == path })
}
