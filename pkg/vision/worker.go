package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/worker"
)

// FrameFunc processes one frame. A nil result means nothing was found.
type FrameFunc[T any] func(frame gocv.Mat) (*T, error)

// Worker pulls frames from a Source, applies a FrameFunc, and offers each
// result to a queue. The queue is best-effort: results are dropped and
// counted while it is full.
type Worker[T any] struct {
	name        string
	src         Source
	fn          FrameFunc[T]
	out         *worker.Queue[*T]
	forwardNone bool
	closers     []func() error

	frames uint64
	log    *slog.Logger
}

// Option configures a Worker.
type Option[T any] func(*Worker[T])

// ForwardNone enqueues nil results too, so the consumer learns that a
// frame arrived without a detection.
func ForwardNone[T any]() Option[T] {
	return func(w *Worker[T]) { w.forwardNone = true }
}

// WithCloser registers a cleanup that runs when the worker closes, such as
// releasing a Detector.
func WithCloser[T any](fn func() error) Option[T] {
	return func(w *Worker[T]) { w.closers = append(w.closers, fn) }
}

// NewWorker creates a vision worker. out may be nil, in which case
// results are discarded.
func NewWorker[T any](name string, src Source, fn FrameFunc[T], out *worker.Queue[*T], opts ...Option[T]) *Worker[T] {
	w := &Worker[T]{
		name: name,
		src:  src,
		fn:   fn,
		out:  out,
		log:  log.With("component", name),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name implements worker.Worker.
func (w *Worker[T]) Name() string { return w.name }

// Start opens the frame source.
func (w *Worker[T]) Start(ctx context.Context) error {
	return w.src.Start(ctx)
}

// Work processes one frame.
func (w *Worker[T]) Work(ctx context.Context) error {
	frame, err := w.src.Next(ctx)
	defer frame.Close()
	if err != nil {
		return err
	}
	w.frames++

	res, err := w.fn(frame)
	if err != nil {
		return fmt.Errorf("process frame %d: %w", w.frames, err)
	}
	if res == nil && !w.forwardNone {
		return nil
	}
	if w.out == nil {
		return nil
	}
	if !w.out.Offer(res) {
		w.log.Debug("result dropped", "frame", w.frames, "dropped", w.out.Dropped())
	}
	return nil
}

// Close closes the source and runs registered cleanups.
func (w *Worker[T]) Close() error {
	errs := []error{w.src.Close()}
	for _, fn := range w.closers {
		errs = append(errs, fn())
	}
	w.closers = nil
	return errors.Join(errs...)
}
