package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/robomaster"
)

// Source yields decoded BGR frames.
type Source interface {
	Start(ctx context.Context) error
	Next(ctx context.Context) (gocv.Mat, error)
	Close() error
}

// FFmpegSource decodes the robot's raw H.264 video stream with a persistent
// ffmpeg process. The TCP stream is piped into ffmpeg's stdin and BGR24
// frames are read back from its stdout.
type FFmpegSource struct {
	ip          string
	port        int
	width       int
	height      int
	dialTimeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr lockedBuffer
	stop   func() bool
	once   sync.Once
	closed bool

	frame []byte
	log   *slog.Logger
}

// NewFFmpegSource creates a source for the robot at ip. port 0 uses the
// video port.
func NewFFmpegSource(ip string, port int, cfg Config) *FFmpegSource {
	if port == 0 {
		port = robomaster.VideoPort
	}
	return &FFmpegSource{
		ip:          ip,
		port:        port,
		width:       cfg.Width,
		height:      cfg.Height,
		dialTimeout: robomaster.DefaultTimeout,
		frame:       make([]byte, cfg.FrameBytes()),
		log:         log.With("component", "video", "robot", ip),
	}
}

// ffmpegArgs decodes H.264 from stdin into fixed-size BGR24 frames on stdout.
func ffmpegArgs(width, height int) []string {
	return []string{
		"-loglevel", "error",
		"-f", "h264",
		"-i", "pipe:0",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-s", strconv.Itoa(width) + "x" + strconv.Itoa(height),
		"pipe:1",
	}
}

// Start connects to the video port and launches the decoder. The stream must
// already be enabled with Commander.Stream.
func (s *FFmpegSource) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.ip, strconv.Itoa(s.port))
	d := net.Dialer{Timeout: s.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}

	cmd := exec.Command("ffmpeg", ffmpegArgs(s.width, s.height)...)
	cmd.Stdin = conn
	cmd.Stderr = &s.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		conn.Close()
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		cmd.Process.Kill()
		cmd.Wait()
		return robomaster.ErrClosed
	}
	s.conn, s.cmd, s.stdout = conn, cmd, stdout
	s.mu.Unlock()

	// A blocked frame read ends when the decoder dies.
	stop := context.AfterFunc(ctx, func() { s.Close() })
	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()

	s.log.Info("decoding", "addr", addr, "size", fmt.Sprintf("%dx%d", s.width, s.height))
	return nil
}

// Next blocks for the next frame. The returned Mat must be closed by the
// caller.
func (s *FFmpegSource) Next(ctx context.Context) (gocv.Mat, error) {
	s.mu.Lock()
	stdout := s.stdout
	s.mu.Unlock()
	if stdout == nil {
		return gocv.NewMat(), robomaster.ErrClosed
	}

	if _, err := io.ReadFull(stdout, s.frame); err != nil {
		if ctx.Err() != nil {
			return gocv.NewMat(), ctx.Err()
		}
		if msg := s.stderr.String(); msg != "" {
			return gocv.NewMat(), fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return gocv.NewMat(), fmt.Errorf("read frame: %w", err)
	}
	view, err := gocv.NewMatFromBytes(s.height, s.width, gocv.MatTypeCV8UC3, s.frame)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer view.Close()
	// The view aliases the read buffer, which the next frame overwrites.
	return view.Clone(), nil
}

// Close stops the decoder and closes the video connection.
func (s *FFmpegSource) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		if s.stop != nil {
			s.stop()
		}
		// Closing the stream first ends ffmpeg's stdin copy so Wait returns.
		if s.conn != nil {
			if cerr := s.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
				err = cerr
			}
		}
		if s.cmd != nil && s.cmd.Process != nil {
			s.cmd.Process.Kill()
			s.cmd.Wait()
		}
	})
	return err
}

// lockedBuffer collects ffmpeg's stderr while frames are being read.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
