package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blueplan/stickies-go/internal/stickies/auth"
	"github.com/blueplan/stickies-go/internal/stickies/config"
	logx "github.com/blueplan/stickies-go/internal/stickies/log"
	"github.com/blueplan/stickies-go/internal/stickies/monitoring"
	"github.com/blueplan/stickies-go/internal/stickies/note"
	"github.com/blueplan/stickies-go/internal/stickies/room"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Name: "stickies", Version: "test", Environment: "production"},
		API:  config.APIConfig{CORSOrigins: []string{"*"}},
		Room: config.RoomConfig{Name: "main-room", SendBufferSize: 16},
		Auth: config.AuthConfig{CookieName: "user_session"},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, note.Store) {
	t.Helper()

	cfg := testConfig()
	logger := logx.NewStderrLogger()
	monitor := monitoring.NewMonitor()
	store := note.NewInMemStore()
	boardRoom := room.New(cfg.Room.Name, store, logger, monitor)
	authService := auth.NewService(cfg.Auth, logger)

	router := NewRouter(cfg, logger, boardRoom, store, authService, monitor)
	server := httptest.NewServer(router.Engine())
	t.Cleanup(server.Close)
	return server, store
}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestWebSocketInitAndFanout(t *testing.T) {
	server, store := newTestServer(t)

	a := dialWS(t, server)
	init := readEvent(t, a)
	assert.Equal(t, "init", init["type"])
	assert.Empty(t, init["notes"])

	require.NoError(t, a.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"create_note","id":"n1","content":"hi","x":10,"y":20,"color":"#fff740","author":"u1"}`)))

	// wait for the write to land before the second session joins
	require.Eventually(t, func() bool {
		notes, err := store.ListAll(context.Background())
		return err == nil && len(notes) == 1
	}, 5*time.Second, 10*time.Millisecond)

	// B joins after the create and must see n1 in its snapshot
	b := dialWS(t, server)
	bInit := readEvent(t, b)
	assert.Equal(t, "init", bInit["type"])
	notes := bInit["notes"].([]interface{})
	require.Len(t, notes, 1)
	first := notes[0].(map[string]interface{})
	assert.Equal(t, "n1", first["id"])
	assert.Equal(t, "hi", first["content"])

	// A moves the note; B gets the confirmation
	require.NoError(t, a.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"move_note","id":"n1","x":50,"y":60}`)))

	moved := readEvent(t, b)
	assert.Equal(t, "note_moved", moved["type"])
	assert.Equal(t, "n1", moved["id"])
	assert.Equal(t, 50.0, moved["x"])
	assert.Equal(t, 60.0, moved["y"])

	// the sender must not receive its own event
	require.NoError(t, a.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := a.ReadMessage()
	assert.Error(t, err)
}

func TestHealthAndPing(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])

	pingResp, err := http.Get(server.URL + "/ping")
	require.NoError(t, err)
	defer pingResp.Body.Close()
	assert.Equal(t, http.StatusOK, pingResp.StatusCode)
}

func TestMonitorEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	conn := dialWS(t, server)
	readEvent(t, conn)

	resp, err := http.Get(server.URL + "/monitor/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "main-room", status["room"])
	assert.Equal(t, 1.0, status["sessions_active"])

	metricsResp, err := http.Get(server.URL + "/monitor/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()

	var metrics map[string]interface{}
	require.NoError(t, json.NewDecoder(metricsResp.Body).Decode(&metrics))
	assert.Equal(t, 1.0, metrics["sessions_active"])
}

func TestAuthRedirectsToGoogle(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.GoogleClientID = "client-id"
	logger := logx.NewStderrLogger()
	monitor := monitoring.NewMonitor()
	store := note.NewInMemStore()
	boardRoom := room.New(cfg.Room.Name, store, logger, monitor)
	router := NewRouter(cfg, logger, boardRoom, store, auth.NewService(cfg.Auth, logger), monitor)

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	rec := httptest.NewRecorder()
	router.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	assert.Contains(t, location, "accounts.google.com")
	assert.Contains(t, location, "client_id=client-id")
}
