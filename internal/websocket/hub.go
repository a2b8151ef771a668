// Package websocket connects UI clients to the concierge. Clients
// observe session events and issue the three control commands; all
// audio stays on the appliance, so the socket carries only JSON.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/omnilodge/concierge/domain/entities"
	"github.com/omnilodge/concierge/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Control messages are tiny.
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Controller is the slice of the concierge the hub drives on behalf of
// UI clients.
type Controller interface {
	StartSession(ctx context.Context, guest entities.Guest) (*usecase.Session, error)
	EndSession()
	SetMuted(muted bool) error
}

// Hub maintains the set of active clients and broadcasts session events
// to them.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Session events to fan out.
	events chan usecase.Event

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	controller Controller
	logger     *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(controller Controller, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan usecase.Event, 64),
		controller: controller,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("UI client connected", zap.String("clientID", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("UI client disconnected", zap.String("clientID", client.id))

		case event := <-h.events:
			h.broadcast(event)
		}
	}
}

// Publish queues a session event for broadcast. It never blocks: when
// the queue is full the event is dropped, since every event is a
// snapshot the UI can live without.
func (h *Hub) Publish(event usecase.Event) {
	select {
	case h.events <- event:
	default:
		h.logger.Warn("Dropping UI event, queue full", zap.String("type", string(event.Type)))
	}
}

func (h *Hub) broadcast(event usecase.Event) {
	payload, err := EncodeEvent(MessageType(event.Type), event.Payload)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Slow consumer: skip rather than stall the broadcast.
			h.logger.Warn("Skipping slow UI client", zap.String("clientID", client.id))
		}
	}
}

// ClientCount reports how many UI clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Client ID for logging
	id string

	// The authenticated guest behind this connection
	guest entities.Guest

	logger *zap.Logger
}

// HandleWebSocket handles websocket requests from a pre-authenticated guest.
func HandleWebSocket(hub *Hub, c echo.Context, guest entities.Guest, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		id:     uuid.New().String(),
		guest:  guest,
		logger: logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps control messages from the websocket connection to the
// concierge.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		c.processControl(message)
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processControl routes one inbound command to the concierge.
func (c *Client) processControl(message []byte) {
	msg, err := ParseControlMessage(message)
	if err != nil {
		c.logger.Warn("Rejected control message", zap.Error(err))
		c.sendError(err.Error())
		return
	}

	switch msg.Type {
	case MessageTypeSessionStart:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if _, err := c.hub.controller.StartSession(ctx, c.guest); err != nil {
			c.logger.Warn("Failed to start session",
				zap.String("guest", c.guest.Email),
				zap.Error(err))
			c.sendError(err.Error())
		}

	case MessageTypeSessionEnd:
		c.hub.controller.EndSession()

	case MessageTypeSetMuted:
		if err := c.hub.controller.SetMuted(msg.Muted); err != nil {
			c.sendError(err.Error())
		}
	}
}

func (c *Client) sendError(message string) {
	payload, err := EncodeEvent(MessageTypeError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}
