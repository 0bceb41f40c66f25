package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-robomaster/internal/log"
)

// DefaultJoinTimeout bounds how long Run waits for workers after cancelling.
const DefaultJoinTimeout = 5 * time.Second

// Builder constructs a worker. It is called inside the worker's own
// goroutine, so slow setup does not hold up its siblings.
type Builder func() (Worker, error)

// Hub supervises a set of workers: it starts each in its own goroutine,
// waits for an interrupt, Stop, a Critical worker exiting, or every worker
// finishing, then cancels the shared context, closes every worker and joins
// them.
type Hub struct {
	mu      sync.Mutex
	entries []*entry
	running bool

	joinTimeout time.Duration
	signals     []os.Signal

	stop     chan struct{}
	stopOnce sync.Once

	log *slog.Logger
}

// entry is one registered worker and, once built, its live instance.
type entry struct {
	id       string
	name     string
	build    Builder
	opts     []Option
	critical bool

	mu        sync.Mutex
	w         Worker
	started   bool
	closeOnce sync.Once
}

// NewHub creates an empty Hub that stops on SIGINT and SIGTERM.
func NewHub() *Hub {
	return &Hub{
		joinTimeout: DefaultJoinTimeout,
		signals:     []os.Signal{os.Interrupt, syscall.SIGTERM},
		stop:        make(chan struct{}),
		log:         log.With("component", "hub"),
	}
}

// SetJoinTimeout changes how long Run waits for workers to exit.
func (h *Hub) SetJoinTimeout(d time.Duration) {
	h.mu.Lock()
	h.joinTimeout = d
	h.mu.Unlock()
}

// SetSignals replaces the set of OS signals that stop the Hub.
// No signals means only Stop or completion end Run.
func (h *Hub) SetSignals(sigs ...os.Signal) {
	h.mu.Lock()
	h.signals = sigs
	h.mu.Unlock()
}

// Worker registers a worker to be built and run when Run is called.
func (h *Hub) Worker(name string, build Builder, opts ...Option) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		panic("worker: Hub.Worker called after Run")
	}
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	h.entries = append(h.entries, &entry{
		id:       uuid.NewString(),
		name:     name,
		build:    build,
		opts:     opts,
		critical: o.critical,
	})
}

// Add registers an already constructed worker.
func (h *Hub) Add(w Worker, opts ...Option) {
	h.Worker(w.Name(), func() (Worker, error) { return w, nil }, opts...)
}

// Stop asks a running Hub to shut down. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

type result struct {
	e   *entry
	err error
}

// Run starts every registered worker and blocks until the Hub stops.
// It returns the joined faults of workers that failed or did not exit before
// the join timeout; a clean or interrupt-driven shutdown returns nil.
func (h *Hub) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return errors.New("worker: Hub already running")
	}
	h.running = true
	entries := append([]*entry(nil), h.entries...)
	joinTimeout := h.joinTimeout
	sigs := h.signals
	h.mu.Unlock()

	if len(sigs) > 0 {
		var stopSignals context.CancelFunc
		ctx, stopSignals = signal.NotifyContext(ctx, sigs...)
		defer stopSignals()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan result, len(entries))
	for _, e := range entries {
		go h.runEntry(ctx, e, results)
	}
	h.log.Info("hub started", "workers", len(entries))

	var faults []error
	pending := make(map[*entry]bool, len(entries))
	for _, e := range entries {
		pending[e] = true
	}
	record := func(r result) {
		delete(pending, r.e)
		if r.e.critical {
			h.Stop()
		}
		if r.err != nil {
			h.log.Error("worker faulted", "worker", r.e.name, "id", r.e.id, "err", r.err)
			faults = append(faults, &FaultError{Name: r.e.name, ID: r.e.id, Err: r.err})
			return
		}
		h.log.Info("worker finished", "worker", r.e.name, "id", r.e.id)
	}

wait:
	for len(pending) > 0 {
		select {
		case r := <-results:
			record(r)
		case <-ctx.Done():
			h.log.Info("hub interrupted, shutting down")
			break wait
		case <-h.stop:
			h.log.Info("hub stop requested, shutting down")
			break wait
		}
	}

	cancel()
	for _, e := range entries {
		if pending[e] {
			e.close(h.log)
		}
	}

	timer := time.NewTimer(joinTimeout)
	defer timer.Stop()
join:
	for len(pending) > 0 {
		select {
		case r := <-results:
			record(r)
		case <-timer.C:
			break join
		}
	}
	for _, e := range entries {
		if pending[e] {
			h.log.Error("worker did not exit", "worker", e.name, "id", e.id, "timeout", joinTimeout)
			faults = append(faults, &FaultError{Name: e.name, ID: e.id, Err: ErrJoinTimeout})
		}
	}

	return errors.Join(faults...)
}

func (h *Hub) runEntry(ctx context.Context, e *entry, results chan<- result) {
	var err error
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		results <- result{e: e, err: err}
	}()

	w, err := e.build()
	if err != nil {
		err = fmt.Errorf("build: %w", err)
		return
	}

	e.mu.Lock()
	e.w = onceCloser{Worker: w, e: e}
	managed := e.w
	e.mu.Unlock()

	h.log.Debug("worker starting", "worker", e.name, "id", e.id)
	err = Run(ctx, managed, e.opts...)
}

// close closes the live instance to unblock a stuck step. A worker still
// in Start is left to notice the cancelled context; Run closes it after.
func (e *entry) close(l *slog.Logger) {
	e.mu.Lock()
	w, started := e.w, e.started
	e.mu.Unlock()
	if w == nil || !started {
		return
	}
	if err := w.Close(); err != nil {
		l.Warn("worker close failed", "worker", e.name, "id", e.id, "err", err)
	}
}

// onceCloser makes Close idempotent across the Hub sweep and the run driver,
// and records when Start has returned.
type onceCloser struct {
	Worker
	e *entry
}

func (o onceCloser) Start(ctx context.Context) error {
	defer func() {
		o.e.mu.Lock()
		o.e.started = true
		o.e.mu.Unlock()
	}()
	if s, ok := o.Worker.(Starter); ok {
		return s.Start(ctx)
	}
	return nil
}

func (o onceCloser) Close() error {
	var err error
	o.e.closeOnce.Do(func() { err = o.Worker.Close() })
	return err
}
