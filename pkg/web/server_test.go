package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/geometry"
	"github.com/teslashibe/go-robomaster/pkg/hub"
	"github.com/teslashibe/go-robomaster/pkg/keeper"
	"github.com/teslashibe/go-robomaster/pkg/protocol"
	"github.com/teslashibe/go-robomaster/pkg/worker"
)

func init() {
	log.Discard()
}

func get(t *testing.T, s *Server, path string) (int, []byte) {
	t.Helper()
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestStatus_BeforeFirstSnapshot(t *testing.T) {
	s := NewServer("127.0.0.1:0", hub.New("status"))

	code, _ := get(t, s, "/api/status")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestStatus_ReturnsLatest(t *testing.T) {
	s := NewServer("127.0.0.1:0", hub.New("status"))
	s.Publish(keeper.Snapshot{Tick: 1, State: "WATCHING"})
	s.Publish(keeper.Snapshot{Tick: 2, State: "CHASING", Ball: &geometry.Ball{Forward: 0.9}})

	code, body := get(t, s, "/api/status")
	require.Equal(t, http.StatusOK, code)

	var got keeper.Snapshot
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, uint64(2), got.Tick)
	assert.Equal(t, "CHASING", got.State)
	require.NotNil(t, got.Ball)
	assert.Equal(t, 0.9, got.Ball.Forward)
}

func TestQueues(t *testing.T) {
	s := NewServer("127.0.0.1:0", hub.New("status"))
	q := worker.NewQueue[int](2)
	q.Offer(1)
	q.Offer(2)
	q.Offer(3)
	s.AddQueue("vision", q)

	code, body := get(t, s, "/api/queues")
	require.Equal(t, http.StatusOK, code)

	var got []protocol.QueueStat
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, []protocol.QueueStat{{Name: "vision", Len: 2, Cap: 2, Dropped: 1}}, got)
}

func TestHealth(t *testing.T) {
	s := NewServer("127.0.0.1:0", hub.New("status"))

	code, body := get(t, s, "/api/health")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"clients":0,"dropped":0}`, string(body))
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	s := NewServer("127.0.0.1:0", hub.New("status"))

	code, _ := get(t, s, "/ws/status")
	assert.Equal(t, http.StatusUpgradeRequired, code)
}

func TestWork_BeforeStart(t *testing.T) {
	s := NewServer("127.0.0.1:0", hub.New("status"))
	assert.Error(t, s.Work(context.Background()))
}

func TestStart_PortInUse(t *testing.T) {
	a := NewServer("127.0.0.1:0", hub.New("a"))
	require.NoError(t, a.Start(context.Background()))
	defer a.Close()

	b := NewServer(a.Addr(), hub.New("b"))
	assert.Error(t, b.Start(context.Background()))
}

func readStatus(t *testing.T, conn *gorilla.Conn) *protocol.StatusData {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		msg, err := protocol.ParseMessage(data)
		require.NoError(t, err)
		if msg.Type != protocol.TypeStatus {
			continue
		}
		st, err := msg.GetStatus()
		require.NoError(t, err)
		return st
	}
}

func TestStatusStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := hub.New("status")
	go h.Work(ctx)

	s := NewServer("127.0.0.1:0", h)
	require.NoError(t, s.Start(ctx))
	served := make(chan error, 1)
	go func() { served <- s.Work(ctx) }()

	s.Publish(keeper.Snapshot{Tick: 1, State: "WATCHING"})

	conn, _, err := gorilla.DefaultDialer.Dial("ws://"+s.Addr()+"/ws/status", nil)
	require.NoError(t, err)
	defer conn.Close()

	greeting := readStatus(t, conn)
	assert.Equal(t, "WATCHING", greeting.State)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	s.Publish(keeper.Snapshot{Tick: 2, State: "KICKING"})

	next := readStatus(t, conn)
	assert.Equal(t, "KICKING", next.State)
	assert.Equal(t, uint64(2), next.Tick)

	conn.Close()
	require.NoError(t, s.Close())
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Work did not return after Close")
	}
}
