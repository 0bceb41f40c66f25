package robomaster

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/go-robomaster/internal/log"
)

// DefaultTimeout applies to connect, discovery and each request.
const DefaultTimeout = 5 * time.Second

// Config describes how to reach the robot's control port.
type Config struct {
	// IP of the robot. Empty means discover it from the address broadcast.
	IP string

	// Timeout for discovery, connect, and each request/response.
	Timeout time.Duration

	// ControlPort overrides ControlPort (tests, port forwarding).
	ControlPort int

	// DiscoveryPort overrides DiscoveryPort.
	DiscoveryPort int
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ControlPort == 0 {
		c.ControlPort = ControlPort
	}
	if c.DiscoveryPort == 0 {
		c.DiscoveryPort = DiscoveryPort
	}
	return c
}

// Commander is a synchronous client for the text control protocol.
// One request is in flight at a time; every call holds mu for its whole
// request/response exchange.
type Commander struct {
	mu      sync.Mutex
	conn    net.Conn
	ip      string
	timeout time.Duration
	closed  bool
	buf     []byte
	log     *slog.Logger
}

// Dial discovers the robot if cfg.IP is empty, connects to the control
// port, and enters SDK mode.
func Dial(ctx context.Context, cfg Config) (*Commander, error) {
	cfg = cfg.withDefaults()

	ip := cfg.IP
	if ip == "" {
		var err error
		ip, err = Discover(ctx, cfg.DiscoveryPort, cfg.Timeout)
		if err != nil {
			return nil, err
		}
	}

	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(ip, strconv.Itoa(cfg.ControlPort)))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", ip, err)
	}

	c, err := NewCommander(conn, ip, cfg.Timeout)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// NewCommander wraps an established control connection and enters SDK mode.
// The robot may answer "Already in SDK mode", which is accepted.
func NewCommander(conn net.Conn, ip string, timeout time.Duration) (*Commander, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Commander{
		conn:    conn,
		ip:      ip,
		timeout: timeout,
		buf:     make([]byte, DefaultBufSize),
		log:     log.With("component", "commander", "robot", ip),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.do("command")
	if err != nil {
		return nil, fmt.Errorf("entering SDK mode: %w", err)
	}
	if resp != replyOK && resp != replyAlreadySDK {
		return nil, &CallError{Command: "command", Reply: resp}
	}
	c.log.Debug("entered SDK mode", "reply", resp)
	return c, nil
}

// Addr returns the robot's IP address.
func (c *Commander) Addr() string {
	return c.ip
}

// Close ends the session and releases the socket. Later calls fail with
// ErrClosed.
func (c *Commander) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	_, quitErr := c.do("quit")
	c.closed = true
	if err := c.conn.Close(); err != nil {
		return err
	}
	if quitErr != nil {
		c.log.Debug("quit failed", "err", quitErr)
	}
	return nil
}

// do sends one request and reads one reply. Caller holds mu.
func (c *Commander) do(args ...any) (string, error) {
	if len(args) == 0 {
		return "", ErrEmptyCommand
	}
	if c.closed {
		return "", ErrClosed
	}

	cmd := join(args)
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", fmt.Errorf("set deadline: %w", err)
	}
	if _, err := c.conn.Write([]byte(cmd + commandTerminate)); err != nil {
		return "", fmt.Errorf("send %q: %w", cmd, err)
	}
	n, err := c.conn.Read(c.buf)
	if err != nil {
		return "", fmt.Errorf("read reply to %q: %w", cmd, err)
	}

	resp := strings.TrimRight(strings.TrimSpace(string(c.buf[:n])), commandTerminate)
	resp = strings.TrimSpace(resp)
	c.log.Debug("exchange", "cmd", cmd, "reply", resp)
	return resp, nil
}

// Do sends a raw command built from args and returns the reply unchecked.
func (c *Commander) Do(args ...any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.do(args...)
}

// call sends a mutating command and requires an "ok" reply.
func (c *Commander) call(args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := c.do(args...)
	if err != nil {
		return err
	}
	if resp != replyOK {
		return &CallError{Command: join(args), Reply: resp}
	}
	return nil
}

// query sends a query and parses a reply of exactly n numbers.
func (c *Commander) query(n int, args ...any) ([]float64, error) {
	c.mu.Lock()
	resp, err := c.do(args...)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return parseFloats(resp, n)
}

// Version returns the SDK version string.
func (c *Commander) Version() (string, error) {
	return c.Do("version")
}

// RobotMode sets the drive mode.
func (c *Commander) RobotMode(mode string) error {
	if err := checkChoice("mode", mode, Modes); err != nil {
		return err
	}
	return c.call("robot", "mode", mode)
}

// GetRobotMode returns the current drive mode.
func (c *Commander) GetRobotMode() (string, error) {
	resp, err := c.Do("robot", "mode", "?")
	if err != nil {
		return "", err
	}
	if checkChoice("mode", resp, Modes) != nil {
		return "", &DecodeError{Input: resp, Reason: "unexpected robot mode"}
	}
	return resp, nil
}

func join(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			parts[i] = v
		case float64:
			if v == 0 {
				v = 0 // no "-0" on the wire
			}
			parts[i] = formatFloat(v)
		case int:
			parts[i] = strconv.Itoa(v)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, " ")
}

func parseFloats(resp string, n int) ([]float64, error) {
	fields := strings.Fields(resp)
	if len(fields) != n {
		return nil, &DecodeError{Input: resp, Reason: fmt.Sprintf("want %d values, got %d", n, len(fields))}
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, &DecodeError{Input: resp, Reason: fmt.Sprintf("value %d: %v", i, err)}
		}
		out[i] = v
	}
	return out, nil
}
