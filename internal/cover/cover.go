// Package cover publishes the artwork for the track on air. Each metadata
// event swaps in a freshly written image file, falling back to the station's
// default artwork whenever a track carries none.
package cover

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/savonet/ai-radio/internal/logger"
	"github.com/savonet/ai-radio/internal/media"
)

// mimeExts maps the embedded-picture MIME types we accept to file
// extensions. Anything else falls back to the default artwork.
var mimeExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Manager owns a private directory of extracted cover files. At most one
// non-default cover exists on disk at any time: swapping in a new file
// deletes the one it displaces.
type Manager struct {
	defaultPath string
	dir         string

	mu       sync.Mutex
	current  string
	previous string
	counter  uint64
}

// New verifies the default artwork exists and creates the working directory
// extracted covers are written into. The default file itself is never
// written to or removed.
func New(defaultPath string) (*Manager, error) {
	if _, err := os.Stat(defaultPath); err != nil {
		return nil, fmt.Errorf("default cover: %w", err)
	}
	dir, err := os.MkdirTemp("", "ai-radio-covers-")
	if err != nil {
		return nil, fmt.Errorf("cover dir: %w", err)
	}
	return &Manager{
		defaultPath: defaultPath,
		dir:         dir,
		current:     defaultPath,
	}, nil
}

// Extract writes the track's embedded artwork to a fresh file and makes it
// the current cover. Tracks without usable artwork soft-fail to the default:
// Extract never returns an error and never leaves the current cover unset.
func (m *Manager) Extract(md media.Metadata) string {
	if len(md.Cover) == 0 {
		return m.swap(m.defaultPath)
	}

	ext, ok := mimeExts[md.CoverMIME]
	if !ok {
		logger.Warn("cover: unknown image type, using default",
			logger.String("mime", md.CoverMIME),
			logger.String("track", md.String()))
		return m.swap(m.defaultPath)
	}

	m.mu.Lock()
	m.counter++
	path := filepath.Join(m.dir, fmt.Sprintf("cover-%06d%s", m.counter, ext))
	m.mu.Unlock()

	if err := os.WriteFile(path, md.Cover, 0o644); err != nil {
		logger.Warn("cover: write failed, using default",
			logger.String("path", path), logger.Err(err))
		return m.swap(m.defaultPath)
	}
	return m.swap(path)
}

// swap makes path the current cover and deletes the file it displaces,
// unless that file is the default artwork or path itself (repeated
// fallbacks swap the default in over the default).
func (m *Manager) swap(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.previous = m.current
	m.current = path

	if m.previous != m.defaultPath && m.previous != m.current {
		if err := os.Remove(m.previous); err != nil && !os.IsNotExist(err) {
			logger.Warn("cover: stale file not removed",
				logger.String("path", m.previous), logger.Err(err))
		}
	}
	return m.current
}

// Current returns the path of the cover on display. It always names a
// readable file.
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Generation returns how many covers have been written so far. Streaming
// clients use it to bust browser caches.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counter
}

// Close removes the working directory and everything in it. The default
// artwork lives outside the directory and survives.
func (m *Manager) Close() {
	m.mu.Lock()
	dir := m.dir
	m.current = m.defaultPath
	m.previous = ""
	m.mu.Unlock()

	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("cover: cleanup failed", logger.String("dir", dir), logger.Err(err))
	}
}
