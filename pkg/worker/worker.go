// Package worker runs producers and consumers as isolated, cancellable units
// that talk to each other only through bounded queues.
//
// A Worker performs one step per Work call. Run drives a worker until its
// context is cancelled, the worker reports ErrDone, or a step fails. A Hub
// owns a set of workers, starts each in its own goroutine, and cancels and
// joins all of them on interrupt or Stop.
package worker

import (
	"context"
	"errors"
	"fmt"
)

// Worker is one unit of repeated work.
//
// Work performs a single step and must return within a bounded interval once
// ctx is cancelled; long blocking reads should use deadlines and re-check ctx.
// Close releases resources. It may be called while Work is in flight (the Hub
// closes workers to unblock them) and more than once.
type Worker interface {
	Name() string
	Work(ctx context.Context) error
	Close() error
}

// Starter is implemented by workers that acquire resources (sockets,
// decoders, command channels) before their first step.
type Starter interface {
	Start(ctx context.Context) error
}

type runOptions struct {
	once     bool
	critical bool
}

// Option tunes how Run drives a worker.
type Option func(*runOptions)

// Once makes Run call Work a single time instead of looping. Used by workers
// whose step blocks for their whole life, such as an input listener.
func Once() Option {
	return func(o *runOptions) { o.once = true }
}

// Critical makes a Hub shut down as soon as this worker exits, whether it
// finished or failed. Run itself ignores it.
func Critical() Option {
	return func(o *runOptions) { o.critical = true }
}

// Run starts w, calls Work repeatedly until ctx is done, Work returns
// ErrDone, or Work fails, then closes w. Cancellation is not an error.
func Run(ctx context.Context, w Worker, opts ...Option) (err error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	defer func() {
		if cerr := w.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", w.Name(), cerr))
		}
	}()

	if s, ok := w.(Starter); ok {
		if err := s.Start(ctx); err != nil {
			if stopping(ctx) {
				return nil
			}
			return fmt.Errorf("start %s: %w", w.Name(), err)
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := w.Work(ctx); err != nil {
			if errors.Is(err, ErrDone) || stopping(ctx) {
				return nil
			}
			return err
		}

		if o.once {
			return nil
		}
	}
}

// stopping reports whether ctx is done. Once it is, a failing step is the
// shutdown sweep closing the worker's resources under it, not a fault.
func stopping(ctx context.Context) bool {
	return ctx.Err() != nil
}
