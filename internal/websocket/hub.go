package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Message types.
const (
	TypeSessionState = "session:state"
	TypeError        = "error"
)

var ErrSessionRequired = errors.New("session query parameter is required")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Sessions connects websocket clients to the sessions they drive.
type Sessions interface {
	// Exists reports whether sessionID is live.
	Exists(sessionID string) bool
	// Attach publishes the session's current state and every later one
	// through publish, until detach is called.
	Attach(sessionID string, publish func(msgType string, payload any)) (detach func(), err error)
	// Handle applies a message received from a client of the session.
	Handle(sessionID, msgType string, payload json.RawMessage) error
}

type outgoing struct {
	session string
	data    []byte
}

// Hub manages WebSocket connections and delivers each session's messages to
// the clients attached to it.
type Hub struct {
	sessions   Sessions
	logger     zerolog.Logger
	clients    map[*Client]bool
	broadcast  chan outgoing
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// Client represents a WebSocket connection bound to one session.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session string
	detach  func()
}

// Message represents a WebSocket message.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

// NewHub creates a new WebSocket hub.
func NewHub(sessions Sessions, logger zerolog.Logger) *Hub {
	return &Hub{
		sessions:   sessions,
		logger:     logger.With().Str("component", "websocket").Logger(),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outgoing, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns when ctx is done, closing every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.session != message.session {
					continue
				}
				select {
				case client.send <- message.data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues a message for every client of sessionID. It never blocks:
// when the hub is stopped or saturated the message is dropped.
func (h *Hub) Publish(sessionID, msgType string, payload any) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- outgoing{session: sessionID, data: data}:
	case <-h.done:
	default:
		h.logger.Warn().Str("session", sessionID).Str("type", msgType).Msg("Dropped websocket message, hub saturated")
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles WebSocket connection upgrade.
// GET /ws?session=...
func (h *Hub) HandleWebSocket(c echo.Context) error {
	sessionID := c.QueryParam("session")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, ErrSessionRequired.Error())
	}

	if !h.sessions.Exists(sessionID) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 256),
		session: sessionID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	// attach after registering so the current state reaches this client
	detach, err := h.sessions.Attach(sessionID, func(msgType string, payload any) {
		if err := h.Publish(sessionID, msgType, payload); err != nil {
			h.logger.Error().Err(err).Str("session", sessionID).Msg("Failed to encode websocket message")
		}
	})
	if err != nil {
		h.unregisterClient(client)
		conn.Close()
		return nil
	}
	client.detach = detach

	h.logger.Debug().Str("session", sessionID).Msg("Websocket client connected")

	go client.writePump()
	go client.readPump()

	return nil
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(outgoingMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// reply sends a message to this client only.
func (c *Client) reply(msgType string, payload any) {
	data, err := encode(msgType, payload)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump applies messages from the websocket connection to the session.
func (c *Client) readPump() {
	defer func() {
		c.detach()
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Str("session", c.session).Msg("Websocket closed unexpectedly")
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(TypeError, map[string]string{"error": "malformed message"})
			continue
		}

		if err := c.hub.sessions.Handle(c.session, msg.Type, msg.Payload); err != nil {
			c.reply(TypeError, map[string]string{"type": msg.Type, "error": err.Error()})
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Send any queued messages as separate frames
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
