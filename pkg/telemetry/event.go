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

// EventConfig configures an EventListener.
type EventConfig struct {
	// IP of the robot.
	IP string

	// Port defaults to robomaster.EventPort.
	Port int

	// DialTimeout for the initial connection.
	DialTimeout time.Duration

	// ReadTimeout between cancellation checks.
	ReadTimeout time.Duration
}

func (c EventConfig) withDefaults() EventConfig {
	if c.Port == 0 {
		c.Port = robomaster.EventPort
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = robomaster.DefaultTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return c
}

// EventListener receives ';'-terminated event records over TCP.
type EventListener struct {
	cfg      EventConfig
	out      *worker.Queue[robomaster.Record]
	mu       sync.Mutex
	conn     net.Conn
	splitter robomaster.EventSplitter
	buf      []byte
	log      *slog.Logger
}

// NewEventListener creates a listener that enqueues records into out.
func NewEventListener(cfg EventConfig, out *worker.Queue[robomaster.Record]) *EventListener {
	return &EventListener{
		cfg: cfg.withDefaults(),
		out: out,
		buf: make([]byte, robomaster.DefaultBufSize),
		log: log.With("component", "event", "robot", cfg.IP),
	}
}

// Name implements worker.Worker.
func (l *EventListener) Name() string { return "event" }

// Start connects to the robot's event port.
func (l *EventListener) Start(ctx context.Context) error {
	addr := net.JoinHostPort(l.cfg.IP, strconv.Itoa(l.cfg.Port))
	d := net.Dialer{Timeout: l.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	l.log.Info("connected", "addr", addr)
	return nil
}

// Work reads until at least one complete record arrives, then decodes and
// enqueues every record completed by that read.
func (l *EventListener) Work(ctx context.Context) error {
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

		n, err := conn.Read(l.buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read event: %w", err)
		}

		records, splitErr := l.splitter.Feed(l.buf[:n])
		if len(records) == 0 && splitErr == nil {
			continue
		}
		for _, raw := range records {
			rec, err := robomaster.ParseEvent(raw)
			if err != nil {
				return err
			}
			if err := l.out.Put(ctx, rec); err != nil {
				return err
			}
		}
		return splitErr
	}
}

// Close releases the connection.
func (l *EventListener) Close() error {
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

func (l *EventListener) socket() net.Conn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn
}
