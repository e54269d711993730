package engine

import (
	"context"
	"image"
	"sync"

	"github.com/google/uuid"
)

// Detection is one detected face delivered by the capture loop: a bounding
// box with its precomputed embedding and, optionally, the source frame for
// quality assessment.
type Detection struct {
	ID          string
	Box         Box
	Embedding   Embedding
	Frame       image.Image
	WithQuality bool
}

// RecognitionEvent pairs a detection ID with its match result.
type RecognitionEvent struct {
	ID     string
	Result MatchResult
}

// Worker runs recognition off the presentation loop. Detections go in on
// one channel and results come back on another, so the capture/UI side
// never shares mutable state with the matching code. The worker goroutine
// is also the single writer feeding the engine's adaptive selector.
type Worker struct {
	engine  *Engine
	in      chan Detection
	out     chan RecognitionEvent
	started sync.Once
	done    chan struct{}
}

// NewWorker creates a worker with the given queue depth.
func NewWorker(e *Engine, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Worker{
		engine: e,
		in:     make(chan Detection, queueSize),
		out:    make(chan RecognitionEvent, queueSize),
		done:   make(chan struct{}),
	}
}

// Results returns the channel recognition events are delivered on.
func (w *Worker) Results() <-chan RecognitionEvent {
	return w.out
}

// Submit queues a detection for recognition and returns its ID. A zero ID
// on the detection is filled in with a fresh UUID. Returns false when the
// queue is full; the caller drops the frame rather than blocking the
// capture loop.
func (w *Worker) Submit(d Detection) (string, bool) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	select {
	case w.in <- d:
		return d.ID, true
	default:
		return d.ID, false
	}
}

// Start launches the worker goroutine. It runs until the context is
// cancelled, then closes the results channel.
func (w *Worker) Start(ctx context.Context) {
	w.started.Do(func() {
		go w.run(ctx)
	})
}

// Wait blocks until the worker goroutine has exited.
func (w *Worker) Wait() {
	<-w.done
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.out)

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-w.in:
			result := w.engine.Recognize(d.Box, d.Embedding, d.Frame, d.WithQuality)
			select {
			case w.out <- RecognitionEvent{ID: d.ID, Result: result}:
			case <-ctx.Done():
				return
			}
		}
	}
}
