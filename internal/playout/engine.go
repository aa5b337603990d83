package playout

import (
	"context"
	"sync"
	"time"

	"github.com/savonet/ai-radio/internal/logger"
	"github.com/savonet/ai-radio/internal/media"
)

// RequestSource produces the next music track. The library implements it.
type RequestSource interface {
	Next(ctx context.Context) (*Request, error)
}

type decodedTrack struct {
	req     *Request
	samples []int16
}

// Engine plays one request at a time and emits 20ms PCM frames at real-time
// rate. At every track boundary it serves the injection queue before falling
// back to the music rotation, and it never switches sources mid-track.
type Engine struct {
	source RequestSource
	queue  *RequestQueue
	decode DecodeFunc

	frameCh chan []int16
	skipCh  chan struct{}

	// Registered before Run; fired serially from the engine goroutines.
	onTrackStart   []func(TrackEvent)
	onNextResolved []func(*Request)

	mu        sync.RWMutex
	current   media.Metadata
	curSource Source
	position  time.Duration
	duration  time.Duration
}

// New creates an engine playing music from source and narration breaks from
// queue.
func New(source RequestSource, queue *RequestQueue) *Engine {
	return &Engine{
		source:  source,
		queue:   queue,
		decode:  DecodeFile,
		frameCh: make(chan []int16, 100),
		skipCh:  make(chan struct{}, 1),
	}
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (e *Engine) Frames() <-chan []int16 {
	return e.frameCh
}

// Skip interrupts the current track.
func (e *Engine) Skip() {
	select {
	case e.skipCh <- struct{}{}:
	default:
	}
}

// OnTrackStart registers fn to run when a request starts airing. Callbacks
// run on the engine goroutine in registration order and must return quickly.
// Register before calling Run.
func (e *Engine) OnTrackStart(fn func(TrackEvent)) {
	e.onTrackStart = append(e.onTrackStart, fn)
}

// OnNextResolved registers fn to run the moment the upcoming music track has
// been resolved and its metadata read, always before that track starts
// airing. Callbacks run on the prefetch goroutine and must return quickly.
// Register before calling Run.
func (e *Engine) OnNextResolved(fn func(*Request)) {
	e.onNextResolved = append(e.onNextResolved, fn)
}

// Status returns what is airing right now.
func (e *Engine) Status() (md media.Metadata, src Source, position, duration time.Duration) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current, e.curSource, e.position, e.duration
}

// Progress returns the playback position as a fraction of track duration.
func (e *Engine) Progress() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.duration <= 0 {
		return 0
	}
	return float64(e.position) / float64(e.duration)
}

// QueueLen returns the number of pending injections.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Run starts the engine. Blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.frameCh)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	// The prefetcher keeps exactly one music track resolved and decoded
	// ahead of playback. The unbuffered channel is the lookahead slot.
	musicCh := make(chan *decodedTrack)
	go e.prefetch(ctx, musicCh)

	for {
		dt, ok := e.selectNext(ctx, musicCh)
		if !ok {
			return
		}
		e.play(ctx, ticker, dt)
		if ctx.Err() != nil {
			return
		}
	}
}

// prefetch keeps one decoded music track ready ahead of playback. Requests
// resolve on a separate goroutine so the upcoming track's metadata is known
// while the previous one is still decoding or airing.
func (e *Engine) prefetch(ctx context.Context, out chan<- *decodedTrack) {
	defer close(out)

	resolved := make(chan *Request)
	go e.resolve(ctx, resolved)

	var ready *decodedTrack
	for {
		if ready == nil {
			req, ok := <-resolved
			if !ok {
				return
			}
			samples, err := e.decode(ctx, req.Path)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("playout: decode failed, skipping track",
					logger.String("path", req.Path), logger.Err(err))
				continue
			}
			ready = &decodedTrack{req: req, samples: samples}
			continue
		}

		select {
		case out <- ready:
			ready = nil
		case <-ctx.Done():
			return
		}
	}
}

// resolve pulls requests from the source one at a time and announces each the
// moment its metadata is read.
func (e *Engine) resolve(ctx context.Context, out chan<- *Request) {
	defer close(out)
	for {
		req, err := e.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("playout: no next track", logger.Err(err))
			select {
			case <-time.After(5 * time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}

		for _, fn := range e.onNextResolved {
			fn(req)
		}

		select {
		case out <- req:
		case <-ctx.Done():
			return
		}
	}
}

// selectNext picks what airs next. Injections win whenever the queue is
// non-empty at the boundary; the select below only races for items arriving
// while both sources are still pending.
func (e *Engine) selectNext(ctx context.Context, musicCh <-chan *decodedTrack) (*decodedTrack, bool) {
	for {
		if req := e.queue.TryPop(); req != nil {
			if dt := e.decodeInjection(ctx, req); dt != nil {
				return dt, true
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil, false
		case req := <-e.queue.C():
			if dt := e.decodeInjection(ctx, req); dt != nil {
				return dt, true
			}
		case dt, ok := <-musicCh:
			if !ok {
				return nil, false
			}
			return dt, true
		}
	}
}

// decodeInjection decodes a queued narration at the boundary. A failure
// drops the entry; the music keeps playing.
func (e *Engine) decodeInjection(ctx context.Context, req *Request) *decodedTrack {
	samples, err := e.decode(ctx, req.Path)
	if err != nil {
		logger.Error("playout: injection decode failed, dropping",
			logger.String("id", req.ID),
			logger.String("path", req.Path),
			logger.Err(err))
		return nil
	}
	return &decodedTrack{req: req, samples: samples}
}

// play sends one track's frames at real-time rate.
func (e *Engine) play(ctx context.Context, ticker *time.Ticker, dt *decodedTrack) {
	samples := dt.samples
	totalFrames := len(samples) / FrameSamples

	e.setTrack(dt, totalFrames)

	ev := TrackEvent{Request: dt.req, Metadata: dt.req.Metadata, Source: dt.req.Source}
	for _, fn := range e.onTrackStart {
		fn(ev)
	}

	logger.Info("now playing",
		logger.String("source", dt.req.Source.String()),
		logger.String("track", dt.req.Metadata.String()),
		logger.Duration("duration", time.Duration(totalFrames)*FrameDuration))

	// Narration breaks ease in and out instead of cutting hard.
	fade := dt.req.Source == SourceNarration

	for i := 0; i < totalFrames; i++ {
		frame := samples[i*FrameSamples : (i+1)*FrameSamples]
		if fade {
			if g := fadeGain(i, totalFrames); g < 1 {
				applyGain(frame, g)
			}
		}
		if !e.sendFrame(ctx, ticker, frame) {
			return
		}
		e.updatePosition(i)
	}
}

// sendFrame waits for the ticker then sends a frame. Returns false on skip or
// cancel.
func (e *Engine) sendFrame(ctx context.Context, ticker *time.Ticker, frame []int16) bool {
	select {
	case <-ctx.Done():
		return false
	case <-e.skipCh:
		logger.Info("track skipped")
		return false
	case <-ticker.C:
	}

	select {
	case e.frameCh <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) setTrack(dt *decodedTrack, totalFrames int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = dt.req.Metadata
	e.curSource = dt.req.Source
	e.position = 0
	e.duration = time.Duration(totalFrames) * FrameDuration
}

func (e *Engine) updatePosition(frameIdx int) {
	e.mu.Lock()
	e.position = time.Duration(frameIdx+1) * FrameDuration
	e.mu.Unlock()
}
