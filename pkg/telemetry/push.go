// Package telemetry listens to the robot's push and event streams and
// forwards every decoded record to a bounded queue.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/robomaster"
	"github.com/teslashibe/go-robomaster/pkg/worker"
)

// DefaultReadTimeout bounds each blocking read so cancellation is noticed.
const DefaultReadTimeout = 100 * time.Millisecond

// PushConfig configures a PushListener.
type PushConfig struct {
	// Addr to listen on. Defaults to all interfaces on the push port.
	Addr string

	// ReadTimeout between cancellation checks.
	ReadTimeout time.Duration
}

func (c PushConfig) withDefaults() PushConfig {
	if c.Addr == "" {
		c.Addr = ":" + strconv.Itoa(robomaster.PushPort)
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return c
}

// PushListener receives push datagrams over UDP.
type PushListener struct {
	cfg  PushConfig
	out  *worker.Queue[robomaster.Record]
	mu   sync.Mutex
	conn net.PacketConn
	buf  []byte
	log  *slog.Logger
}

// NewPushListener creates a listener that enqueues records into out.
func NewPushListener(cfg PushConfig, out *worker.Queue[robomaster.Record]) *PushListener {
	return &PushListener{
		cfg: cfg.withDefaults(),
		out: out,
		buf: make([]byte, robomaster.DefaultBufSize),
		log: log.With("component", "push"),
	}
}

// Name implements worker.Worker.
func (l *PushListener) Name() string { return "push" }

// Start opens the UDP socket.
func (l *PushListener) Start(ctx context.Context) error {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp4", l.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", l.cfg.Addr, err)
	}
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	l.log.Info("listening", "addr", conn.LocalAddr().String())
	return nil
}

// LocalAddr returns the bound address, or nil before Start.
func (l *PushListener) LocalAddr() net.Addr {
	conn := l.socket()
	if conn == nil {
		return nil
	}
	return conn.LocalAddr()
}

// Work waits for one datagram, decodes it and enqueues its records.
// Enqueueing blocks while the queue is full.
func (l *PushListener) Work(ctx context.Context) error {
	conn := l.socket()
	if conn == nil {
		return robomaster.ErrClosed
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout)); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("set read deadline: %w", err)
		}

		n, _, err := conn.ReadFrom(l.buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read push: %w", err)
		}

		records, err := robomaster.ParsePush(string(l.buf[:n]))
		if err != nil {
			return err
		}
		for _, r := range records {
			if err := l.out.Put(ctx, r); err != nil {
				return err
			}
		}
		return nil
	}
}

// Close releases the socket.
func (l *PushListener) Close() error {
	conn := l.socket()
	if conn == nil {
		return nil
	}
	err := conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (l *PushListener) socket() net.PacketConn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn
}
