package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/voxbridge/voxbridge/internal/observe"
	"github.com/voxbridge/voxbridge/internal/relay"
)

// DefaultQueueDepth bounds the number of frames waiting for the pipeline per
// stream. Speech-service calls take hundreds of milliseconds per frame, so a
// small queue keeps latency bounded while riding out provider jitter.
const DefaultQueueDepth = 4

// Processor consumes one assembled frame. Implemented by [Pipeline].
type Processor interface {
	Process(ctx context.Context, frame relay.Frame) error
}

type streamKey struct {
	sessionID   string
	participant relay.ParticipantType
}

// Dispatcher fans assembled frames out to one worker goroutine per
// (session, participant) stream. Frames for one stream are processed in
// strict arrival order; streams never block each other. When a stream's
// queue is full the oldest pending frame is dropped, so the freshest audio
// wins under provider backpressure.
type Dispatcher struct {
	mu      sync.Mutex
	queues  map[streamKey]chan relay.Frame
	closed  bool
	wg      sync.WaitGroup
	depth   int
	proc    Processor
	logger  *slog.Logger
	metrics *observe.Metrics
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithQueueDepth overrides the per-stream queue depth.
func WithQueueDepth(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.depth = n
		}
	}
}

// WithDispatcherLogger sets the logger for queue events.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithDispatcherMetrics sets the metrics instance for drop counters.
func WithDispatcherMetrics(m *observe.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a Dispatcher feeding proc.
func NewDispatcher(proc Processor, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		queues:  make(map[streamKey]chan relay.Frame),
		depth:   DefaultQueueDepth,
		proc:    proc,
		logger:  slog.Default(),
		metrics: observe.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue hands one frame to the stream's worker, spawning the worker on
// first use. When the stream's queue is full, the oldest queued frame is
// discarded to make room. Frames arriving after Close or CloseStream for the
// key are dropped.
func (d *Dispatcher) Enqueue(frame relay.Frame) {
	key := streamKey{frame.SessionID, frame.Source}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	q, ok := d.queues[key]
	if !ok {
		q = make(chan relay.Frame, d.depth)
		d.queues[key] = q
		d.wg.Add(1)
		go d.work(q)
	}

	for {
		select {
		case q <- frame:
			return
		default:
		}
		// Queue full: evict the oldest frame and retry. The worker may race
		// us for the receive, in which case the retry succeeds immediately.
		select {
		case <-q:
			d.metrics.RecordFrameDrop(context.Background(), "queue_full")
			d.logger.Debug("frame queue full, dropped oldest",
				"session_id", frame.SessionID,
				"participant", string(frame.Source))
		default:
		}
	}
}

// work drains one stream's queue until it is closed. Frames already queued
// when the stream closes are still processed; their output simply finds no
// destination.
func (d *Dispatcher) work(q chan relay.Frame) {
	defer d.wg.Done()
	for frame := range q {
		if err := d.proc.Process(context.Background(), frame); err != nil {
			d.logger.Warn("frame processing failed",
				"session_id", frame.SessionID,
				"participant", string(frame.Source),
				"error", err)
		}
	}
}

// CloseStream shuts down the worker for one stream. Idempotent.
func (d *Dispatcher) CloseStream(sessionID string, participant relay.ParticipantType) {
	key := streamKey{sessionID, participant}

	d.mu.Lock()
	defer d.mu.Unlock()
	if q, ok := d.queues[key]; ok {
		delete(d.queues, key)
		close(q)
	}
}

// Close shuts down all workers and waits for queued frames to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for key, q := range d.queues {
		delete(d.queues, key)
		close(q)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
