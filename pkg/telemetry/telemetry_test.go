package telemetry

import (
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/robomaster"
	"github.com/teslashibe/go-robomaster/pkg/worker"
)

func init() {
	log.Discard()
}

func startPush(t *testing.T, q *worker.Queue[robomaster.Record]) *PushListener {
	t.Helper()
	l := NewPushListener(PushConfig{Addr: "127.0.0.1:0", ReadTimeout: 10 * time.Millisecond}, q)
	require.NoError(t, l.Start(context.Background()))
	t.Cleanup(func() { l.Close() })
	return l
}

func sendDatagram(t *testing.T, to net.Addr, msg string) {
	t.Helper()
	c, err := net.Dial("udp4", to.String())
	require.NoError(t, err)
	defer c.Close()
	_, err = c.Write([]byte(msg))
	require.NoError(t, err)
}

func TestPushListener_EnqueuesRecords(t *testing.T) {
	q := worker.NewQueue[robomaster.Record](6)
	l := startPush(t, q)
	sendDatagram(t, l.LocalAddr(), "chassis push position 0.10 0.20 ;attitude 0 0 15 ;")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Work(ctx))

	require.Equal(t, 2, q.Len())
	first, _ := q.Poll()
	second, _ := q.Poll()
	assert.Equal(t, robomaster.ChassisPosition{X: 0.1, Y: 0.2}, first)
	assert.Equal(t, robomaster.ChassisAttitude{Yaw: 15}, second)
}

func TestPushListener_UnknownRecordIsFatal(t *testing.T) {
	q := worker.NewQueue[robomaster.Record](6)
	l := startPush(t, q)
	sendDatagram(t, l.LocalAddr(), "chassis push torque 1 2 ;")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var decodeErr *robomaster.DecodeError
	require.ErrorAs(t, l.Work(ctx), &decodeErr)
	assert.Zero(t, q.Len())
}

func TestPushListener_StopsPromptlyWhenCancelled(t *testing.T) {
	l := NewPushListener(PushConfig{Addr: "127.0.0.1:0"}, worker.NewQueue[robomaster.Record](1))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- worker.Run(ctx, l) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop after cancellation")
	}
}

func TestPushListener_BlocksOnFullQueue(t *testing.T) {
	q := worker.NewQueue[robomaster.Record](1)
	l := startPush(t, q)
	sendDatagram(t, l.LocalAddr(), "chassis push position 1 1 ;attitude 0 0 1 ;")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// The second record cannot be enqueued until someone reads.
	err := l.Work(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, q.Len())
}

func fakeEventServer(t *testing.T) (port int, conns <-chan net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	ch := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		ch <- c
	}()
	return ln.Addr().(*net.TCPAddr).Port, ch
}

func TestEventListener_ReassemblesRecords(t *testing.T) {
	port, conns := fakeEventServer(t)
	q := worker.NewQueue[robomaster.Record](6)
	l := NewEventListener(EventConfig{IP: "127.0.0.1", Port: port, ReadTimeout: 10 * time.Millisecond}, q)
	require.NoError(t, l.Start(context.Background()))
	defer l.Close()

	server := <-conns
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := server.Write([]byte("armor event hit 1"))
	require.NoError(t, err)
	go func() {
		time.Sleep(20 * time.Millisecond)
		server.Write([]byte(" 0 ;sound event applause 2 ;"))
	}()

	require.NoError(t, l.Work(ctx))
	require.Equal(t, 2, q.Len())
	hit, _ := q.Poll()
	sound, _ := q.Poll()
	assert.Equal(t, robomaster.ArmorHitEvent{Index: 1, Type: 0}, hit)
	assert.Equal(t, robomaster.SoundEvent{Count: 2}, sound)
}

func TestEventListener_UnterminatedStreamIsFatal(t *testing.T) {
	port, conns := fakeEventServer(t)
	q := worker.NewQueue[robomaster.Record](6)
	l := NewEventListener(EventConfig{IP: "127.0.0.1", Port: port, ReadTimeout: 10 * time.Millisecond}, q)
	require.NoError(t, l.Start(context.Background()))
	defer l.Close()

	server := <-conns
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := server.Write([]byte(strings.Repeat("x", 2*robomaster.DefaultBufSize)))
	require.NoError(t, err)

	var decodeErr *robomaster.DecodeError
	require.ErrorAs(t, l.Work(ctx), &decodeErr)
	assert.Zero(t, q.Len())
}

func TestEventListener_StartFailsWithoutRobot(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	l := NewEventListener(EventConfig{IP: "127.0.0.1", Port: port, DialTimeout: 100 * time.Millisecond}, nil)
	err = l.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), strconv.Itoa(port))
}

func TestEventListener_WorkBeforeStart(t *testing.T) {
	l := NewEventListener(EventConfig{IP: "127.0.0.1"}, nil)
	assert.ErrorIs(t, l.Work(context.Background()), robomaster.ErrClosed)
	assert.NoError(t, l.Close())
}
