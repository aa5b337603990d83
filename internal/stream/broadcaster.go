package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/savonet/ai-radio/internal/logger"
)

// listenerBuffer holds ~3 seconds of audio at one frame per 20ms.
const listenerBuffer = 150

// Broadcaster fans out PCM frames from the playout engine to N listeners.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
}

// Listener receives PCM frames from the broadcaster.
type Listener struct {
	ID      string
	C       chan []int16 // buffered channel of 20ms PCM frames
	done    chan struct{}
	dropped atomic.Uint64
}

// NewBroadcaster creates a broadcaster with no listeners.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener and returns its frame channel wrapper.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		ID:   uuid.NewString(),
		C:    make(chan []int16, listenerBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	total := len(b.listeners)
	b.mu.Unlock()

	logger.Info("stream: listener connected",
		logger.String("listener", l.ID), logger.Int("total", total))
	return l
}

// Unsubscribe removes a listener and signals it to stop. Calling it again
// for the same listener is a no-op.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	_, ok := b.listeners[l]
	delete(b.listeners, l)
	total := len(b.listeners)
	b.mu.Unlock()
	if !ok {
		return
	}
	close(l.done)

	logger.Info("stream: listener disconnected",
		logger.String("listener", l.ID),
		logger.Uint64("dropped_frames", l.dropped.Load()),
		logger.Int("total", total))
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Run reads frames from source and fans them out until the source closes or
// ctx is cancelled. A listener that cannot keep up loses frames rather than
// stalling the broadcast.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			b.mu.RLock()
			for l := range b.listeners {
				select {
				case l.C <- frame:
				default:
					l.dropped.Add(1)
				}
			}
			b.mu.RUnlock()
		}
	}
}
