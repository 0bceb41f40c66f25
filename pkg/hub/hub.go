// Package hub fans messages out to websocket clients. A Hub runs as a
// worker; each Client has its own buffered send channel and is dropped when
// it falls behind.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-robomaster/internal/log"
)

// broadcastBuffer bounds messages waiting to be fanned out.
const broadcastBuffer = 256

// MessageType is the websocket frame kind a Message is written as.
type MessageType int

const (
	JSONMessage MessageType = iota
	BinaryMessage
)

// Message is one frame to broadcast.
type Message struct {
	Type MessageType
	Data []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	name string

	mu      sync.RWMutex
	clients map[*Client]struct{}

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	done     chan struct{}
	doneOnce sync.Once
	dropped  atomic.Uint64

	log *slog.Logger
}

// New creates a Hub. Nothing is delivered until Work runs.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.With("hub", name),
	}
}

func (h *Hub) Name() string { return h.name + "-hub" }

// Work runs the fan-out loop until ctx is cancelled or the Hub is closed,
// then disconnects every client. Run it with worker.Once.
func (h *Hub) Work(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.done:
			return nil

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client connected", "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client disconnected", "clients", n)

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- m:
				default:
					h.remove(c)
					h.log.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Close stops a running Work loop. Safe to call more than once.
func (h *Hub) Close() error {
	h.doneOnce.Do(func() { close(h.done) })
	return nil
}

func (h *Hub) shutdown() {
	h.Close()
	h.mu.Lock()
	for c := range h.clients {
		h.remove(c)
	}
	h.mu.Unlock()
}

// remove must be called with mu held.
func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues msg for every client. It never blocks; when the backlog
// is full the message is dropped and counted.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
		h.log.Debug("broadcast backlog full, dropping message")
	}
}

// BroadcastJSON encodes v and broadcasts it as a text frame.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(Message{Type: JSONMessage, Data: data})
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped reports how many broadcasts were discarded.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
