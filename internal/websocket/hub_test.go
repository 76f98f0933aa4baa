package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinematch/cinematch/internal/testutil"
)

type fakeSessions struct {
	mu       sync.Mutex
	publish  map[string]func(string, any)
	handled  []string
	detached int
}

func (f *fakeSessions) Exists(id string) bool {
	return id == "known"
}

func (f *fakeSessions) Attach(id string, publish func(string, any)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publish == nil {
		f.publish = make(map[string]func(string, any))
	}
	f.publish[id] = publish
	publish(TypeSessionState, map[string]string{"query": ""})
	return func() {
		f.mu.Lock()
		f.detached++
		f.mu.Unlock()
	}, nil
}

func (f *fakeSessions) Handle(id, msgType string, payload json.RawMessage) error {
	f.mu.Lock()
	f.handled = append(f.handled, msgType+" "+string(payload))
	publish := f.publish[id]
	f.mu.Unlock()

	if msgType != "query:changed" {
		return errors.New("unknown message type")
	}
	publish(TypeSessionState, map[string]string{"query": "echoed"})
	return nil
}

func setupHub(t *testing.T) (*Hub, *fakeSessions, string) {
	t.Helper()

	sessions := &fakeSessions{}
	hub := NewHub(sessions, testutil.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	e := echo.New()
	e.GET("/ws", hub.HandleWebSocket)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	return hub, sessions, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func readMessage(t *testing.T, conn *websocket.Conn) outgoingMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg outgoingMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_PushesStateAndRoutesMessages(t *testing.T) {
	hub, sessions, url := setupHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?session=known", nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readMessage(t, conn)
	assert.Equal(t, TypeSessionState, msg.Type)
	assert.Equal(t, map[string]any{"query": ""}, msg.Payload)
	assert.Equal(t, 1, hub.ClientCount())

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "query:changed", "payload": map[string]string{"text": "bat"}}))
	msg = readMessage(t, conn)
	assert.Equal(t, TypeSessionState, msg.Type)
	assert.Equal(t, map[string]any{"query": "echoed"}, msg.Payload)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "bogus"}))
	msg = readMessage(t, conn)
	assert.Equal(t, TypeError, msg.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg = readMessage(t, conn)
	assert.Equal(t, TypeError, msg.Type)

	sessions.mu.Lock()
	assert.Equal(t, []string{`query:changed {"text":"bat"}`, "bogus "}, sessions.handled)
	sessions.mu.Unlock()

	conn.Close()
	require.Eventually(t, func() bool {
		sessions.mu.Lock()
		defer sessions.mu.Unlock()
		return sessions.detached == 1 && hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishIsScopedToSession(t *testing.T) {
	hub, _, url := setupHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?session=known", nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	require.NoError(t, hub.Publish("other", TypeSessionState, "not for you"))
	require.NoError(t, hub.Publish("known", TypeSessionState, "for you"))

	msg := readMessage(t, conn)
	assert.Equal(t, "for you", msg.Payload)
}

func TestHub_RejectsUnknownSession(t *testing.T) {
	_, _, url := setupHub(t)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?session=missing", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
