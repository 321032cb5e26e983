package server

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/windfield/app"
	"github.com/pthm-cable/windfield/telemetry"
)

type chanSink chan app.ParamUpdate

func (c chanSink) Submit(u app.ParamUpdate) { c <- u }

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func newHub(sink Sink) *Hub {
	return NewHub(sink, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHubForwardsUpdates(t *testing.T) {
	sink := make(chanSink, 1)
	conn := dial(t, newHub(sink))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"fadeOpacity":0.9,"particles":2048}`)))

	select {
	case u := <-sink:
		require.NotNil(t, u.FadeOpacity)
		assert.Equal(t, float32(0.9), *u.FadeOpacity)
		require.NotNil(t, u.Particles)
		assert.Equal(t, 2048, *u.Particles)
		assert.Nil(t, u.DropRate)
	case <-time.After(time.Second):
		t.Fatal("update not forwarded")
	}
}

func TestHubReportsBadPayload(t *testing.T) {
	sink := make(chanSink, 1)
	conn := dial(t, newHub(sink))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"fadeOpacity":"high"}`)))

	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.NotEmpty(t, msg.Error)

	// The connection survives a bad payload.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"dropRate":0.01}`)))
	select {
	case u := <-sink:
		require.NotNil(t, u.DropRate)
	case <-time.After(time.Second):
		t.Fatal("update after bad payload not forwarded")
	}
}

func TestHubBroadcastsStats(t *testing.T) {
	h := newHub(nil)
	conn := dial(t, h)

	h.Broadcast(telemetry.WindowStats{WindowEndFrame: 60, Particles: 512, Coverage: 0.25})

	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "stats", msg.Type)
	require.NotNil(t, msg.Stats)
	assert.Equal(t, uint64(60), msg.Stats.WindowEndFrame)
	assert.Equal(t, 512, msg.Stats.Particles)
	assert.Equal(t, 0.25, msg.Stats.Coverage)
}

func TestHubDropsClosedClients(t *testing.T) {
	h := newHub(nil)
	conn := dial(t, h)

	conn.Close()
	require.Eventually(t, func() bool { return h.Clients() == 0 }, time.Second, 5*time.Millisecond)

	// Broadcasting with no clients is a no-op.
	h.Broadcast(telemetry.WindowStats{})
}
