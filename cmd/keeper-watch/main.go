// Command keeper-watch tails a goalkeeper dashboard's status stream and
// prints one line per snapshot.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli"

	"github.com/teslashibe/go-robomaster/internal/config"
	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/protocol"
)

func main() {
	app := cli.NewApp()
	app.Name = "keeper-watch"
	app.Usage = "tail the goalkeeper dashboard"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "url",
			Value: "ws://localhost:8080/ws/status",
			Usage: "dashboard status websocket",
		},
		cli.StringFlag{
			Name:  config.FlagLogLevel,
			Value: config.LogLevel(config.DefaultLogLevel),
			Usage: "debug, info, warn or error",
		},
	}
	app.Action = func(c *cli.Context) error {
		log.Init(c.String(config.FlagLogLevel))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watch(ctx, c.String("url"), os.Stdout)
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// watch prints every message from url until ctx is done or the server
// closes the stream.
func watch(ctx context.Context, url string, w io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log.Info("watching", "url", url)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Warn("skipping message", "err", err)
			continue
		}
		line, err := format(msg)
		if err != nil {
			log.Warn("skipping message", "type", msg.Type, "err", err)
			continue
		}
		if line != "" {
			fmt.Fprintln(w, line)
		}
	}
}

var errUnknownType = errors.New("unknown message type")

// format renders a message as one line; messages it does not show render
// as "".
func format(m *protocol.Message) (string, error) {
	switch m.Type {
	case protocol.TypeStatus:
		s, err := m.GetStatus()
		if err != nil {
			return "", err
		}
		ball := "no ball"
		if s.Ball != nil {
			ball = fmt.Sprintf("ball %.2f m fwd %+.2f m lat", s.Ball.Forward, s.Ball.Lateral)
		}
		flags := ""
		if s.Moving {
			flags += " moving"
		}
		if s.Paused {
			flags += " paused"
		}
		return fmt.Sprintf("#%-6d %-8s %-30s pos (%+.2f, %+.2f, %+.1f°) ages v%.0f b%.0f p%.0f ms%s",
			s.Tick, s.State, ball, s.Position.X, s.Position.Y, s.Position.Z,
			s.VisionAge, s.BallAge, s.PositionAge, flags), nil

	case protocol.TypeQueues:
		qs, err := m.GetQueues()
		if err != nil {
			return "", err
		}
		line := "queues"
		for _, q := range qs {
			line += fmt.Sprintf(" %s %d/%d dropped %d", q.Name, q.Len, q.Cap, q.Dropped)
		}
		return line, nil

	case protocol.TypePing, protocol.TypePong:
		return "", nil
	}
	return "", fmt.Errorf("%w %q", errUnknownType, m.Type)
}
