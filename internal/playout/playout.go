// Package playout turns the music rotation and the injection queue into a
// continuous stream of PCM frames.
package playout

import (
	"time"

	"github.com/savonet/ai-radio/internal/media"
)

// PCM frame geometry shared by the engine, the encoders, and the stream
// handlers.
const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// Source says where a request came from.
type Source int

const (
	SourceLibrary Source = iota
	SourceNarration
)

func (s Source) String() string {
	if s == SourceNarration {
		return "narration"
	}
	return "library"
}

// Request is one playable item: an audio file on disk plus its metadata.
type Request struct {
	ID       string
	Path     string
	Metadata media.Metadata
	Source   Source
}

// TrackEvent is fired when a request starts airing.
type TrackEvent struct {
	Request  *Request
	Metadata media.Metadata
	Source   Source
}
