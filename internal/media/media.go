// Package media reads track metadata from audio files.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

// Metadata describes one track. It is read once when the file is resolved
// and treated as immutable afterwards.
type Metadata struct {
	Path     string
	Filename string
	Title    string
	Artist   string
	Album    string
	Duration time.Duration

	// Embedded cover art, nil when the file carries none.
	Cover     []byte
	CoverMIME string
}

// IsZero reports whether no file has been read into m.
func (m Metadata) IsZero() bool {
	return m.Path == "" && m.Title == ""
}

// String renders the on-air form used in logs and prompts.
func (m Metadata) String() string {
	if m.Artist == "" {
		return m.Title
	}
	return fmt.Sprintf("%s by %s", m.Title, m.Artist)
}

// audioExts are the extensions the library considers playable.
var audioExts = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".m4a":  true,
	".wav":  true,
}

// IsAudioFile reports whether path has a playable audio extension.
func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// ReadFile reads tag metadata and embedded cover art from an audio file.
// Files without tags degrade to filename-only metadata rather than failing;
// only an unreadable file returns an error.
func ReadFile(path string) (Metadata, error) {
	md := Metadata{
		Path:     path,
		Filename: filepath.Base(path),
		Title:    titleFromFilename(path),
	}

	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// Untagged file: keep the filename-derived title.
		return md, nil
	}

	if t := m.Title(); t != "" {
		md.Title = t
	}
	md.Artist = m.Artist()
	md.Album = m.Album()

	if pic := m.Picture(); pic != nil {
		md.Cover = pic.Data
		md.CoverMIME = pic.MIMEType
	}

	return md, nil
}

// titleFromFilename strips the extension off the base name.
func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
