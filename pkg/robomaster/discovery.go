package robomaster

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Discover listens on the discovery port for the robot's address broadcast.
// port 0 uses DiscoveryPort. timeout 0 waits until ctx is done.
func Discover(ctx context.Context, port int, timeout time.Duration) (string, error) {
	if port == 0 {
		port = DiscoveryPort
	}
	conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return "", &DiscoveryError{Err: fmt.Errorf("listen on %d: %w", port, err)}
	}
	defer conn.Close()

	return ReadBroadcast(ctx, conn, timeout)
}

// ReadBroadcast waits for one "robot ip <address>" datagram on conn and
// returns the address. The embedded address must equal the sender's.
func ReadBroadcast(ctx context.Context, conn net.PacketConn, timeout time.Duration) (string, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return "", &DiscoveryError{Err: fmt.Errorf("set deadline: %w", err)}
	}

	// Unblock the read if ctx is cancelled first.
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, DefaultBufSize)
	n, addr, err := conn.ReadFrom(buf)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", &DiscoveryError{Err: ErrDiscoveryTimeout}
		}
		return "", &DiscoveryError{Err: err}
	}

	source := hostOf(addr)
	msg := strings.TrimSpace(string(buf[:n]))
	if !strings.HasPrefix(msg, broadcastPrefix) || len(msg) <= len(broadcastPrefix) {
		return "", &DiscoveryError{Source: source, Reported: msg, Err: ErrMalformedBroadcast}
	}

	reported := strings.TrimSpace(msg[len(broadcastPrefix):])
	if reported != source {
		return "", &DiscoveryError{Source: source, Reported: reported, Err: ErrAddressMismatch}
	}
	return reported, nil
}

func hostOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	if u, ok := addr.(*net.UDPAddr); ok {
		return u.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
