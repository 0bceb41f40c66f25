package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-robomaster/pkg/hub"
	"github.com/teslashibe/go-robomaster/pkg/protocol"
)

// handleStatus returns the latest keeper snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no status yet",
		})
	}
	return c.JSON(latest)
}

func (s *Server) handleQueues(c *fiber.Ctx) error {
	return c.JSON(s.queueStats())
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"clients": s.status.ClientCount(),
		"dropped": s.status.Dropped(),
	})
}

// handleStatusWS greets the client with the latest snapshot, then streams
// every published one.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	var greet []hub.Message

	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		if msg, err := protocol.NewStatusMessage(*latest); err == nil {
			if b, err := msg.Bytes(); err == nil {
				greet = append(greet, hub.Message{Type: hub.JSONMessage, Data: b})
			}
		}
	}

	hub.NewClient(s.status, c, greet...).Run()
}
