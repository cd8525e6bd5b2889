package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/trailgame/game/engine"
	"github.com/wricardo/trailgame/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Time allowed for one inbound action to reach the session loop.
	actionTimeout = 5 * time.Second

	// Events queued for fan-out before Publish starts dropping.
	broadcastBuffer = 1024
)

// EventSync carries a full board; EventError is sent only by the hub.
const (
	EventSync  = service.EventSync
	EventError = "error"
)

// Inbound actions.
const (
	ActionEnterCell = "enter_cell"
	ActionNewGame   = "new_game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// Message represents an outgoing WebSocket message
type Message struct {
	SessionID string      `json:"session_id"`
	GameID    string      `json:"game_id,omitempty"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Action is a message sent by a client.
type Action struct {
	Action string `json:"action"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

// InputHandler applies client actions to a session. service.GameService
// satisfies it. SyncBoard must publish an EventSync for the session in order
// with its other events.
type InputHandler interface {
	EnterCell(ctx context.Context, sessionID string, cell engine.Coord) (*service.EnterResult, error)
	NewGame(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	SyncBoard(ctx context.Context, sessionID string) error
}

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string

	// synced is owned by the hub goroutine. Until the first EventSync the
	// client receives no broadcasts, so nothing older than its board
	// snapshot reaches it.
	synced bool
}

// directMessage is a message for a single client.
type directMessage struct {
	client  *Client
	payload []byte
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool

	// Messages to fan out to a session's clients
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Messages for a single client
	direct chan directMessage

	// Closed when Run returns
	done chan struct{}

	input InputHandler
	log   *logrus.Entry
}

// NewHub creates a new WebSocket hub. A nil input makes the hub
// broadcast-only.
func NewHub(input InputHandler) *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directMessage, broadcastBuffer),
		done:       make(chan struct{}),
		input:      input,
		log:        logrus.WithField("component", "websocket"),
	}
}

// SetInputHandler sets where client actions go. It must be called before
// ServeWS.
func (h *Hub) SetInputHandler(input InputHandler) {
	h.input = input
}

// Run starts the hub's event loop. It returns when ctx is done. Only this
// goroutine touches the client set and closes send channels.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case r := <-h.direct:
			h.deliver(r)

		case <-ctx.Done():
			for _, clients := range h.sessions {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return
		}
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, engine.WebSocketBufferSize),
		sessionID: sessionID,

		// A broadcast-only hub has nobody to ask for a board.
		synced: h.input == nil,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()

	client.sync(r.Context())
}

// Publish implements service.EventSink. It never blocks the session loop
// that produced the event; when the queue is full the event is dropped.
func (h *Hub) Publish(event service.GameEvent) {
	message := &Message{
		SessionID: event.SessionID,
		GameID:    event.GameID,
		Event:     event.Type,
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}

	select {
	case h.broadcast <- message:
	default:
		h.log.WithFields(logrus.Fields{
			"session": event.SessionID,
			"event":   event.Type,
		}).Warn("Broadcast queue full, dropping event")
	}
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	select {
	case h.broadcast <- &Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
		Timestamp: time.Now(),
	}:
	case <-h.done:
	}
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	h.log.WithFields(logrus.Fields{
		"session": client.sessionID,
		"clients": len(h.sessions[client.sessionID]),
	}).Info("Client registered")
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.sessions[client.sessionID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			// Clean up empty sessions
			if len(clients) == 0 {
				delete(h.sessions, client.sessionID)
			}

			h.log.WithFields(logrus.Fields{
				"session": client.sessionID,
				"clients": len(clients),
			}).Info("Client unregistered")
		}
	}
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.WithError(err).Error("Failed to marshal broadcast message")
		return
	}

	if clients, ok := h.sessions[message.SessionID]; ok {
		for client := range clients {
			if message.Event == EventSync {
				// Later syncs are for clients that connected after this one.
				if client.synced {
					continue
				}
				client.synced = true
			} else if !client.synced {
				continue
			}

			select {
			case client.send <- data:
			default:
				h.unregisterClient(client)
			}
		}
	}
}

// deliver queues a reply if its client is still registered.
func (h *Hub) deliver(r directMessage) {
	if !h.sessions[r.client.sessionID][r.client] {
		return
	}
	select {
	case r.client.send <- r.payload:
	default:
		h.log.WithField("session", r.client.sessionID).Warn("Client queue full, dropping reply")
	}
}

// sync asks the session to publish its board. The client starts receiving
// broadcasts with that frame.
func (c *Client) sync(ctx context.Context) {
	if c.hub.input == nil {
		return
	}
	if err := c.hub.input.SyncBoard(ctx, c.sessionID); err != nil {
		c.reply(EventError, err.Error())
	}
}

// reply sends a message to this client only, through the hub goroutine.
func (c *Client) reply(event string, data interface{}) {
	payload, err := json.Marshal(&Message{
		SessionID: c.sessionID,
		Event:     event,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		c.hub.log.WithError(err).Error("Failed to marshal reply")
		return
	}

	select {
	case c.hub.direct <- directMessage{client: c, payload: payload}:
	case <-c.hub.done:
	}
}

// handle applies one inbound action.
func (c *Client) handle(raw []byte) {
	var action Action
	if err := json.Unmarshal(raw, &action); err != nil {
		c.reply(EventError, "malformed action")
		return
	}
	if c.hub.input == nil {
		c.reply(EventError, "input not accepted")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	var err error
	switch action.Action {
	case ActionEnterCell:
		_, err = c.hub.input.EnterCell(ctx, c.sessionID, engine.Coord{Row: action.Row, Col: action.Col})
	case ActionNewGame:
		_, err = c.hub.input.NewGame(ctx, c.sessionID)
	default:
		c.reply(EventError, "unknown action: "+action.Action)
		return
	}
	if err != nil {
		c.hub.log.WithError(err).WithFields(logrus.Fields{
			"session": c.sessionID,
			"action":  action.Action,
		}).Debug("Action failed")
		c.reply(EventError, err.Error())
	}
}

// readPump pumps actions from the WebSocket connection to the input handler
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Warn("WebSocket error")
			}
			break
		}
		c.handle(raw)
	}
}

// writePump pumps messages from the hub to the WebSocket connection. Every
// message is its own frame so clients can parse frames independently.
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
