// Package dj batches played tracks into narration breaks. It listens to
// playout metadata events, snapshots the history every few tracks and hands
// the batch to a worker pool that produces a spoken segment for the
// injection queue.
package dj

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/savonet/ai-radio/internal/logger"
	"github.com/savonet/ai-radio/internal/media"
	"github.com/savonet/ai-radio/internal/playout"
)

// Generator produces one narration segment from a batch of played tracks.
type Generator interface {
	Generate(ctx context.Context, history []media.Metadata, next media.Metadata) (*playout.Request, error)
}

// Config holds break-scheduling parameters.
type Config struct {
	TracksPerBreak int // library tracks accumulated before a break
	Workers        int // concurrent generation workers
}

// Status is the scheduler state reported by the HTTP API.
type Status struct {
	History   int    `json:"history"`
	InFlight  int    `json:"in_flight"`
	Generated uint64 `json:"generated"`
	Dropped   uint64 `json:"dropped"`
}

// task carries one snapshot of accumulated history to a worker.
type task struct {
	seq     uint64
	history []media.Metadata
	next    media.Metadata
}

// DJ owns the track history and the generation worker pool. Its event
// handlers never block the playout loop: a saturated pool drops the batch
// and the break simply does not happen this cycle.
type DJ struct {
	cfg   Config
	gen   Generator
	queue *playout.RequestQueue

	mu      sync.Mutex
	history []media.Metadata
	next    *playout.Request
	seq     uint64

	inflight atomic.Int32
	pushed   atomic.Uint64
	dropped  atomic.Uint64

	tasks chan task
	wg    sync.WaitGroup
}

// New creates a DJ feeding generated narration into queue.
func New(gen Generator, queue *playout.RequestQueue, cfg Config) *DJ {
	if cfg.TracksPerBreak < 1 {
		cfg.TracksPerBreak = 4
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &DJ{
		cfg:     cfg,
		gen:     gen,
		queue:   queue,
		history: make([]media.Metadata, 0, cfg.TracksPerBreak),
		tasks:   make(chan task, cfg.Workers),
	}
}

// Attach subscribes the DJ to an engine's metadata events. Call before
// Engine.Run.
func (d *DJ) Attach(e *playout.Engine) {
	e.OnNextResolved(d.NextResolved)
	e.OnTrackStart(d.TrackStarted)
}

// NextResolved records the most recently resolved upcoming request.
func (d *DJ) NextResolved(req *playout.Request) {
	d.mu.Lock()
	d.next = req
	d.mu.Unlock()
}

// TrackStarted accumulates library tracks and, once TracksPerBreak of them
// have played, snapshots the batch, clears it and schedules a break.
// Narration segments never count toward the next break.
func (d *DJ) TrackStarted(ev playout.TrackEvent) {
	if ev.Source != playout.SourceLibrary {
		return
	}

	d.mu.Lock()
	d.history = append(d.history, ev.Metadata)
	if len(d.history) < d.cfg.TracksPerBreak {
		d.mu.Unlock()
		return
	}

	batch := d.history
	d.history = make([]media.Metadata, 0, d.cfg.TracksPerBreak)

	// The lookahead slot may still hold the request that fired this event
	// when the following track has not resolved yet. An unknown next track
	// just drops the intro from the prompt.
	var next media.Metadata
	if d.next != nil && (ev.Request == nil || d.next.ID != ev.Request.ID) {
		next = d.next.Metadata
	}
	d.seq++
	t := task{seq: d.seq, history: batch, next: next}
	d.mu.Unlock()

	d.submit(t)
}

// submit hands a task to the pool without blocking.
func (d *DJ) submit(t task) {
	select {
	case d.tasks <- t:
		logger.Info("dj: break scheduled",
			logger.Uint64("seq", t.seq),
			logger.Int("tracks", len(t.history)),
			logger.String("next", t.next.String()))
	default:
		d.dropped.Add(1)
		logger.Warn("dj: workers saturated, dropping batch",
			logger.Uint64("seq", t.seq))
	}
}

// Run starts the worker pool and blocks until ctx is cancelled and all
// in-flight generations have finished. Tasks still waiting in the pool at
// shutdown are discarded.
func (d *DJ) Run(ctx context.Context) {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	<-ctx.Done()
	d.wg.Wait()
}

func (d *DJ) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-d.tasks:
			d.generate(ctx, t)
		}
	}
}

// generate runs one narration attempt. Failures are logged and dropped; a
// panicking generator must not take the worker down with it.
func (d *DJ) generate(ctx context.Context, t task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("dj: generator panicked",
				logger.Uint64("seq", t.seq), logger.Any("panic", r))
		}
	}()

	d.inflight.Add(1)
	defer d.inflight.Add(-1)

	start := time.Now()
	req, err := d.gen.Generate(ctx, t.history, t.next)
	if err != nil {
		logger.Error("dj: generation failed, no narration this break",
			logger.Uint64("seq", t.seq),
			logger.Duration("after", time.Since(start)),
			logger.Err(err))
		return
	}

	// Breaks land in the queue in completion order, which can differ from
	// trigger order when one generation outruns an earlier one.
	if d.queue.Push(req) {
		d.pushed.Add(1)
		logger.Info("dj: narration queued",
			logger.Uint64("seq", t.seq),
			logger.String("path", req.Path),
			logger.Duration("took", time.Since(start)))
	}
}

// Status reports the scheduler counters.
func (d *DJ) Status() Status {
	d.mu.Lock()
	history := len(d.history)
	d.mu.Unlock()
	return Status{
		History:   history,
		InFlight:  int(d.inflight.Load()),
		Generated: d.pushed.Load(),
		Dropped:   d.dropped.Load(),
	}
}
