package playout

import "github.com/savonet/ai-radio/internal/logger"

// RequestQueue is a bounded FIFO of pending injections. Generation workers
// push narrations as they finish; the engine pops at track boundaries, ahead
// of the music rotation. Entries come out in push order.
type RequestQueue struct {
	ch chan *Request
}

// NewRequestQueue creates a queue holding at most capacity requests.
func NewRequestQueue(capacity int) *RequestQueue {
	return &RequestQueue{ch: make(chan *Request, capacity)}
}

// Push appends without blocking. A full queue drops the request and returns
// false; playback is never held up by a saturated queue.
func (q *RequestQueue) Push(r *Request) bool {
	select {
	case q.ch <- r:
		return true
	default:
		logger.Warn("injection queue full, dropping request",
			logger.String("id", r.ID),
			logger.String("title", r.Metadata.Title))
		return false
	}
}

// TryPop removes and returns the head of the queue, or nil when empty.
func (q *RequestQueue) TryPop() *Request {
	select {
	case r := <-q.ch:
		return r
	default:
		return nil
	}
}

// C exposes the queue to select loops.
func (q *RequestQueue) C() <-chan *Request {
	return q.ch
}

// Len returns the number of queued requests.
func (q *RequestQueue) Len() int {
	return len(q.ch)
}
