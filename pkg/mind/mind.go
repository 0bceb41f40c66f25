// Package mind runs a control handler at a fixed rate on its own command
// connection to the robot.
package mind

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/robomaster"
	"github.com/teslashibe/go-robomaster/pkg/worker"
)

// DefaultRate is the tick frequency in Hz.
const DefaultRate = 30

// Handler is invoked once per tick.
type Handler interface {
	Handle(ctx context.Context) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context) error { return f(ctx) }

// Factory builds the handler once the command connection is up.
type Factory func(ctx context.Context, cmd *robomaster.Commander) (Handler, error)

// Config configures a Mind.
type Config struct {
	// Name of the worker.
	Name string

	// Robot is used to dial the private command connection.
	Robot robomaster.Config

	// Rate in Hz. Defaults to DefaultRate.
	Rate float64

	// Once invokes the handler a single time and completes.
	Once bool
}

// Mind is a worker that owns a Commander and drives a Handler.
type Mind struct {
	cfg     Config
	factory Factory

	cmd     *robomaster.Commander
	handler Handler
	ticker  *time.Ticker
	ticks   uint64
	log     *slog.Logger
}

// New creates a Mind.
func New(cfg Config, factory Factory) *Mind {
	if cfg.Name == "" {
		cfg.Name = "mind"
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	return &Mind{
		cfg:     cfg,
		factory: factory,
		log:     log.With("component", cfg.Name),
	}
}

// Name implements worker.Worker.
func (m *Mind) Name() string { return m.cfg.Name }

// Interval is the time between ticks.
func (m *Mind) Interval() time.Duration {
	return time.Duration(float64(time.Second) / m.cfg.Rate)
}

// Start dials the robot and builds the handler.
func (m *Mind) Start(ctx context.Context) error {
	cmd, err := robomaster.Dial(ctx, m.cfg.Robot)
	if err != nil {
		return err
	}
	h, err := m.factory(ctx, cmd)
	if err != nil {
		cmd.Close()
		return fmt.Errorf("build handler: %w", err)
	}
	m.cmd, m.handler = cmd, h
	if !m.cfg.Once {
		m.ticker = time.NewTicker(m.Interval())
	}
	m.log.Info("started", "robot", cmd.Addr(), "rate", m.cfg.Rate, "once", m.cfg.Once)
	return nil
}

// Work waits for the next tick and runs the handler.
func (m *Mind) Work(ctx context.Context) error {
	if m.handler == nil {
		return robomaster.ErrClosed
	}
	if m.cfg.Once {
		if err := m.handler.Handle(ctx); err != nil {
			return err
		}
		return worker.ErrDone
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ticker.C:
	}
	m.ticks++
	return m.handler.Handle(ctx)
}

// Ticks returns how many ticks ran.
func (m *Mind) Ticks() uint64 { return m.ticks }

// Close stops ticking, closes the handler if it is an io.Closer, and ends
// the command session.
func (m *Mind) Close() error {
	if m.ticker != nil {
		m.ticker.Stop()
	}
	var errs []error
	if c, ok := m.handler.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if m.cmd != nil {
		if err := m.cmd.Close(); err != nil && !errors.Is(err, robomaster.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
