package stream

import (
	"context"
	"io"
	"net/http"
	"os/exec"

	"github.com/savonet/ai-radio/internal/logger"
	"github.com/savonet/ai-radio/internal/playout"
)

// HTTPHandler serves a chunked MP3 audio stream. Each connection spawns an
// FFmpeg process that encodes PCM to MP3 in real time.
type HTTPHandler struct {
	broadcaster *Broadcaster
	station     string
}

// NewHTTPHandler creates an HTTP stream handler announcing itself as
// station.
func NewHTTPHandler(b *Broadcaster, station string) *HTTPHandler {
	return &HTTPHandler{broadcaster: b, station: station}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("ICY-Name", h.station)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// FFmpeg: PCM stdin -> MP3 stdout
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", "s16le",
		"-ar", "48000",
		"-ac", "2",
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", "192k",
		"-f", "mp3",
		"-fflags", "nobuffer",
		"-flush_packets", "1",
		"-loglevel", "error",
		"pipe:1",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		logger.Error("stream: stdin pipe", logger.Err(err))
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		logger.Error("stream: stdout pipe", logger.Err(err))
		return
	}

	if err := cmd.Start(); err != nil {
		logger.Error("stream: ffmpeg start", logger.Err(err))
		return
	}

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	// Feed PCM frames to FFmpeg.
	go func() {
		defer stdin.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.done:
				return
			case frame, ok := <-listener.C:
				if !ok {
					return
				}
				if _, err := stdin.Write(playout.SamplesToBytes(frame)); err != nil {
					return
				}
			}
		}
	}()

	// Read MP3 from FFmpeg and write to the response.
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				break
			}
			flusher.Flush()
		}
		if err != nil {
			if err != io.EOF {
				logger.Warn("stream: ffmpeg read",
					logger.String("listener", listener.ID), logger.Err(err))
			}
			break
		}
	}

	cmd.Wait()
}
