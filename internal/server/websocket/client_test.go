package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcec-chess/livefeed/internal/server/pubsub"
)

type echoRouter struct{}

func (echoRouter) HandleSocket(_ context.Context, conn *pubsub.Conn, raw []byte) {
	conn.Send(append([]byte("got:"), raw...))
}

func startServer(t *testing.T, b *pubsub.Broadcaster) (*websocket.Conn, func()) {
	t.Helper()
	logger := zerolog.Nop()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(ws, "127.0.0.1", b, echoRouter{}, &logger).Run(r.Context())
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return ws, func() {
		_ = ws.Close()
		srv.Close()
	}
}

func read(t *testing.T, ws *websocket.Conn) (int, string) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := ws.ReadMessage()
	require.NoError(t, err)
	return kind, string(data)
}

// TestClient_DispatchAndPublish tests replies and published frames.
func TestClient_DispatchAndPublish(t *testing.T) {
	logger := zerolog.Nop()
	b := pubsub.New(pubsub.Config{DefaultTopics: []string{"live.pgn"}}, &logger)
	ws, stop := startServer(t, b)
	defer stop()

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`[1]`)))
	kind, msg := read(t, ws)
	assert.Equal(t, websocket.TextMessage, kind)
	assert.Equal(t, "got:[1]", msg)

	require.Eventually(t, func() bool { return b.ConnCount() == 1 }, time.Second, 10*time.Millisecond)
	b.Publish("live.pgn", 11, "1. e4")
	_, msg = read(t, ws)
	assert.Equal(t, `[11,"1. e4"]`, msg)
}

// TestClient_EchoesZeroFrames tests the latency probe.
func TestClient_EchoesZeroFrames(t *testing.T) {
	logger := zerolog.Nop()
	b := pubsub.New(pubsub.Config{}, &logger)
	ws, stop := startServer(t, b)
	defer stop()

	probe := []byte{0, 1, 2, 3}
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, probe))
	kind, msg := read(t, ws)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, string(probe), msg)
}

// TestClient_CloseUnregisters tests that a client disconnect unregisters the connection.
func TestClient_CloseUnregisters(t *testing.T) {
	logger := zerolog.Nop()
	b := pubsub.New(pubsub.Config{}, &logger)
	ws, stop := startServer(t, b)
	defer stop()

	require.Eventually(t, func() bool { return b.ConnCount() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return b.ConnCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

// TestClient_ServerCloseAll tests that closing the registry closes the socket.
func TestClient_ServerCloseAll(t *testing.T) {
	logger := zerolog.Nop()
	b := pubsub.New(pubsub.Config{}, &logger)
	ws, stop := startServer(t, b)
	defer stop()

	require.Eventually(t, func() bool { return b.ConnCount() == 1 }, time.Second, 10*time.Millisecond)
	b.CloseAll()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
