package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcec-chess/livefeed/cmd/application"
	"github.com/tcec-chess/livefeed/internal/watch"
	"github.com/tcec-chess/livefeed/pkg/constants"
)

type fixture struct {
	srv  *Server
	http *httptest.Server
	dir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	app := &application.Mock{
		WatchesFunc: func() ([]watch.Spec, error) {
			return []watch.Spec{
				{Filename: filepath.Join(dir, "live.pgn"), Class: watch.ClassGameRecord},
				{Filename: filepath.Join(dir, "live.log"), Class: watch.ClassTranscript},
				{Filename: filepath.Join(dir, "banner.txt"), Class: watch.ClassSnapshot},
			}, nil
		},
		SubscribesFunc: func() []string { return []string{"live.pgn"} },
	}

	cfg := DefaultConfig()
	srv, err := New(app, cfg)
	require.NoError(t, err)

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		hs.Close()
	})
	return &fixture{srv: srv, http: hs, dir: dir}
}

func (f *fixture) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(f.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (f *fixture) post(t *testing.T, path, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(f.http.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(out)
}

func (f *fixture) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(f.http.URL, "http")+path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) string {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

// TestServer_New tests construction failures.
func TestServer_New(t *testing.T) {
	app := &application.Mock{
		WatchesFunc: func() ([]watch.Spec, error) {
			return []watch.Spec{{Filename: "a"}, {Filename: "a"}}, nil
		},
	}
	_, err := New(app, DefaultConfig())
	assert.Error(t, err)
}

// TestServer_HTTPRequests tests the request path over HTTP.
func TestServer_HTTPRequests(t *testing.T) {
	f := newFixture(t)

	status, body := f.get(t, "/api?0=1")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `[1,"127.0.0.1"]`, body)

	_, body = f.get(t, "/api/?0=999")
	assert.JSONEq(t, `[-1,0,{"key":999,"method":null}]`, body)

	_, body = f.get(t, "/api/?"+url.Values{"0": {"3"}}.Encode())
	assert.Equal(t, `[]`, body)

	_, body = f.get(t, "/api")
	assert.Equal(t, `[-1,0,{}]`, body)

	_, body = f.post(t, "/api", `[1]`)
	assert.Equal(t, `[1,"127.0.0.1"]`, body)

	_, body = f.post(t, "/api", `garbage`)
	assert.Equal(t, `[-1,0,{}]`, body)

	req, err := http.NewRequest(http.MethodPost, f.http.URL+"/api", strings.NewReader(`[1]`))
	require.NoError(t, err)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	out, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, `[1,"203.0.113.9"]`, string(out))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, err = http.NewRequest(http.MethodPut, f.http.URL+"/api", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// TestServer_Upload tests that the raw body reaches the handler.
func TestServer_Upload(t *testing.T) {
	f := newFixture(t)

	_, body := f.post(t, "/up/?0=1", "some uploaded bytes")
	assert.Equal(t, `[1,"127.0.0.1"]`, body)

	_, body = f.post(t, "/up/", "x")
	assert.Equal(t, `[-1,0,{}]`, body)

	status, _ := f.get(t, "/up/?0=1")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

// TestServer_RootAndHealth tests the fixed endpoints.
func TestServer_RootAndHealth(t *testing.T) {
	f := newFixture(t)

	status, body := f.get(t, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Nothing to see here!!", body)

	_, body = f.get(t, "/anything/else")
	assert.Equal(t, "Nothing to see here!!", body)

	status, body = f.get(t, "/health")
	assert.Equal(t, http.StatusOK, status)
	var health struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "healthy", health.Data["status"])
	assert.EqualValues(t, 3, health.Data["watches"])

	status, body = f.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "livefeed_watches 3")
}

// TestServer_SocketEndToEnd tests subscriptions and file publishing over a socket.
func TestServer_SocketEndToEnd(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.srv.Start())

	ws := f.dial(t, "/api/")
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`[2,{"channels":["banner.txt"]}]`)))
	assert.Equal(t, `[2,["banner.txt"]]`, readFrame(t, ws))

	// unknown code produces no frame; the next reply proves ordering
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`[999]`)))
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`[1]`)))
	assert.Equal(t, `[1,"127.0.0.1"]`, readFrame(t, ws))

	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "banner.txt"), []byte("Welcome"), constants.FilePermissions))
	require.True(t, f.srv.Poller().PollNow(filepath.Join(f.dir, "banner.txt")))
	assert.JSONEq(t, `[12,{"file":"banner.txt","text":"Welcome","full":true}]`, readFrame(t, ws))

	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "live.pgn"), []byte("1. d4 *\n"), constants.FilePermissions))
	f.srv.Poller().PollNow(filepath.Join(f.dir, "live.pgn"))
	assert.JSONEq(t, `[11,{"file":"live.pgn","text":"1. d4 ","full":false}]`, readFrame(t, ws))

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`[4,{"topic":"live.pgn"}]`)))
	assert.JSONEq(t, `[4,{"file":"live.pgn","text":"1. d4 ","full":false}]`, readFrame(t, ws))

	// the transcript topic is not subscribed
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "live.log"), []byte("e <bestmove d2d4\n"), constants.FilePermissions))
	f.srv.Poller().PollNow(filepath.Join(f.dir, "live.log"))
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`[1]`)))
	assert.Equal(t, `[1,"127.0.0.1"]`, readFrame(t, ws))
}

// TestServer_SocketEcho tests the zero-byte latency probe on /ws.
func TestServer_SocketEcho(t *testing.T) {
	f := newFixture(t)
	ws := f.dial(t, "/ws")

	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, []byte{0, 42}))
	assert.Equal(t, string([]byte{0, 42}), readFrame(t, ws))
}

// TestServer_ShutdownClosesSockets tests that shutdown disconnects clients.
func TestServer_ShutdownClosesSockets(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.srv.Start())
	ws := f.dial(t, "/api")

	require.Eventually(t, func() bool { return f.srv.Broadcaster().ConnCount() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.srv.Shutdown(ctx))
	require.NoError(t, f.srv.Shutdown(ctx))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := ws.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, f.srv.Broadcaster().ConnCount())
	for _, w := range f.srv.Registry().All() {
		assert.False(t, w.IsOpen())
	}
}

// TestServer_GameRecordRewrite tests that a rewritten game tail reaches
// clients as a full replacement, and that clients only see their topics.
func TestServer_GameRecordRewrite(t *testing.T) {
	f := newFixture(t)
	pgn := filepath.Join(f.dir, "live.pgn")

	watcher := f.dial(t, "/api")
	other := f.dial(t, "/api")
	require.NoError(t, other.WriteMessage(websocket.TextMessage, []byte(`[2,{"clear":true,"channels":["banner.txt"]}]`)))
	assert.Equal(t, `[2,["banner.txt"]]`, readFrame(t, other))
	require.NoError(t, other.WriteMessage(websocket.TextMessage, []byte(`[3]`)))
	for _, ws := range []*websocket.Conn{watcher, other} {
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`[1]`)))
		assert.Equal(t, `[1,"127.0.0.1"]`, readFrame(t, ws))
	}

	require.NoError(t, os.WriteFile(pgn, []byte("1. e4 e5 2. Nf3 *\n"), constants.FilePermissions))
	f.srv.Poller().PollNow(pgn)
	assert.JSONEq(t, `[11,{"file":"live.pgn","text":"1. e4 e5 2. Nf3 ","full":false}]`, readFrame(t, watcher))

	require.NoError(t, os.WriteFile(pgn, []byte("1. e4 e5 2. Nf3 Nc6 *\n"), constants.FilePermissions))
	f.srv.Poller().PollNow(pgn)
	assert.JSONEq(t, `[11,{"file":"live.pgn","text":"Nc6 ","full":false}]`, readFrame(t, watcher))

	require.NoError(t, os.WriteFile(pgn, []byte("1. e4 c5 2. Nf3 d6 3. d4 *\n"), constants.FilePermissions))
	f.srv.Poller().PollNow(pgn)
	assert.JSONEq(t, `[11,{"file":"live.pgn","text":"1. e4 c5 2. Nf3 d6 3. d4 ","full":true}]`, readFrame(t, watcher))

	// the unsubscribed client went back to the default topic and saw every frame
	assert.Contains(t, readFrame(t, other), `"1. e4 e5 2. Nf3 "`)
}
