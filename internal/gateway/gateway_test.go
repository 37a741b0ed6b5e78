package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dicearena/server/internal/metrics"
	"github.com/dicearena/server/internal/registry"
	"github.com/dicearena/server/internal/store"
)

func testLog() slog.Logger {
	backend := slog.NewBackend(discardWriter{})
	l := backend.Logger("TEST")
	l.SetLevel(slog.LevelError)
	return l
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	reg := registry.New(store.NewMemoryStore(time.Minute), testLog())
	return New(Config{
		Registry:    reg,
		Log:         testLog(),
		Metrics:     metrics.New(),
		CORSOrigins: []string{"*"},
		Version:     "test",
		Environment: "test",
	})
}

func TestHealthEndpointReportsOK(t *testing.T) {
	hub := newTestHub(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	hub.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestReadyEndpointFlipsOnDrain(t *testing.T) {
	hub := newTestHub(t)

	rec := httptest.NewRecorder()
	hub.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	hub.Drain()

	rec = httptest.NewRecorder()
	hub.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpointExposesRegisteredCollectors(t *testing.T) {
	hub := newTestHub(t)
	rec := httptest.NewRecorder()
	hub.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "dicearena_active_rooms")
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	hub := newTestHub(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	hub.Router().ServeHTTP(rec, req)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// wsClient dials the Hub's /ws endpoint over a real httptest.Server and
// gorilla/websocket client, exercising the full upgrade/dispatch/broadcast
// path rather than fabricating gateway-internal session state.
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialHub(t *testing.T, srv *httptest.Server) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(frameType string, payload interface{}) {
	c.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(inboundFrame{Type: frameType, Payload: raw}))
}

func (c *wsClient) recv() outboundFrame {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame outboundFrame
	require.NoError(c.t, c.conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketRoomCreateAndJoinBroadcast(t *testing.T) {
	hub := newTestHub(t)
	srv := httptest.NewServer(hub.Router())
	defer srv.Close()

	host := dialHub(t, srv)
	defer host.conn.Close()

	host.send("room:create", map[string]string{"playerName": "Alice"})
	created := host.recv()
	require.Equal(t, "room:created", created.Event)
	data := created.Data.(map[string]interface{})
	roomCode := data["roomCode"].(string)
	require.Len(t, roomCode, 6)

	guest := dialHub(t, srv)
	defer guest.conn.Close()

	guest.send("room:join", map[string]string{"roomCode": roomCode, "playerName": "Bob"})
	joined := guest.recv()
	require.Equal(t, "room:joined", joined.Event)

	hostNotice := host.recv()
	require.Equal(t, "room:playerJoined", hostNotice.Event)
}

func TestWebSocketUnknownFrameTypeIsANoOp(t *testing.T) {
	hub := newTestHub(t)
	srv := httptest.NewServer(hub.Router())
	defer srv.Close()

	client := dialHub(t, srv)
	defer client.conn.Close()

	client.send("not:a:real:event", map[string]string{})
	client.send("room:create", map[string]string{"playerName": "Carol"})
	created := client.recv()
	require.Equal(t, "room:created", created.Event)
}
