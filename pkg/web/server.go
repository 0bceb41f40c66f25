// Package web serves the goalkeeper dashboard: the latest keeper snapshot
// over REST and a live status stream over a websocket.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/hub"
	"github.com/teslashibe/go-robomaster/pkg/keeper"
	"github.com/teslashibe/go-robomaster/pkg/protocol"
)

const (
	// DefaultAddr is where the dashboard listens unless told otherwise.
	DefaultAddr = ":8080"

	// queueEvery is how many snapshots pass between queue reports.
	queueEvery = 30

	shutdownTimeout = 2 * time.Second
)

// QueueStats is the read-only view of a worker queue.
type QueueStats interface {
	Len() int
	Cap() int
	Dropped() uint64
}

type namedQueue struct {
	name string
	q    QueueStats
}

// Server is the dashboard. It is a worker: Start binds the listener, Work
// serves until Close.
type Server struct {
	app    *fiber.App
	addr   string
	status *hub.Hub

	lnMu sync.Mutex
	ln   net.Listener

	mu     sync.RWMutex
	latest *keeper.Snapshot
	queues []namedQueue

	log *slog.Logger
}

// NewServer creates a dashboard listening on addr that fans status out
// through status. The hub must be run separately.
func NewServer(addr string, status *hub.Hub) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		addr:   addr,
		status: status,
		log:    log.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Goalkeeper Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/queues", s.handleQueues)
	api.Get("/health", s.handleHealth)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// AddQueue reports q under name on /api/queues and in periodic queue
// messages.
func (s *Server) AddQueue(name string, q QueueStats) {
	s.mu.Lock()
	s.queues = append(s.queues, namedQueue{name, q})
	s.mu.Unlock()
}

// Publish records snap as the latest status and broadcasts it. It matches
// keeper.Sink and never blocks.
func (s *Server) Publish(snap keeper.Snapshot) {
	s.mu.Lock()
	s.latest = &snap
	s.mu.Unlock()

	s.broadcast(protocol.NewStatusMessage(snap))
	if snap.Tick%queueEvery == 0 {
		s.broadcast(protocol.NewQueuesMessage(s.queueStats()))
	}
}

func (s *Server) broadcast(msg *protocol.Message, err error) {
	if err == nil {
		var b []byte
		if b, err = msg.Bytes(); err == nil {
			s.status.Broadcast(hub.Message{Type: hub.JSONMessage, Data: b})
			return
		}
	}
	s.log.Warn("encode dashboard message", "err", err)
}

func (s *Server) queueStats() []protocol.QueueStat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := make([]protocol.QueueStat, 0, len(s.queues))
	for _, nq := range s.queues {
		stats = append(stats, protocol.QueueStat{
			Name:    nq.name,
			Len:     nq.q.Len(),
			Cap:     nq.q.Cap(),
			Dropped: nq.q.Dropped(),
		})
	}
	return stats
}

func (s *Server) Name() string { return "dashboard" }

// Start binds the listening socket so a busy port fails startup.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("dashboard listen %s: %w", s.addr, err)
	}
	s.lnMu.Lock()
	s.ln = ln
	s.lnMu.Unlock()

	fmt.Printf("🌐 Dashboard: http://%s\n", ln.Addr())
	s.log.Info("dashboard listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.lnMu.Lock()
	defer s.lnMu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Work serves until the server is closed. Run it with worker.Once.
func (s *Server) Work(ctx context.Context) error {
	s.lnMu.Lock()
	ln := s.ln
	s.lnMu.Unlock()
	if ln == nil {
		return errors.New("web: Work before Start")
	}

	err := s.app.Listener(ln)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Close shuts the server down.
func (s *Server) Close() error {
	err := s.app.ShutdownWithTimeout(shutdownTimeout)

	s.lnMu.Lock()
	ln := s.ln
	s.lnMu.Unlock()
	if ln != nil {
		if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = errors.Join(err, cerr)
		}
	}
	return err
}
