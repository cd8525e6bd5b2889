package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/trailgame/game/engine"
)

const writeWait = 10 * time.Second

// Envelope is one frame received from the server. Data is decoded by
// the receiver according to Event.
type Envelope struct {
	SessionID string          `json:"session_id"`
	GameID    string          `json:"game_id,omitempty"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Conn is a live event stream for one session. Events are delivered to the
// handler passed to Connect from a single reader goroutine.
type Conn struct {
	sessionID string
	ws        *websocket.Conn

	writeMu sync.Mutex
	done    chan struct{}
	err     error
}

// Connect opens the session's WebSocket and starts delivering envelopes to
// handle. The server sends a sync frame first.
func (c *Client) Connect(ctx context.Context, sessionID string, handle func(Envelope)) (*Conn, error) {
	addr, err := c.wsURL(sessionID)
	if err != nil {
		return nil, err
	}

	ws, _, err := c.dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c.log.WithField("session_id", sessionID).Debug("WebSocket connected")

	conn := &Conn{
		sessionID: sessionID,
		ws:        ws,
		done:      make(chan struct{}),
	}
	go conn.readLoop(handle)
	return conn, nil
}

func (c *Conn) readLoop(handle func(Envelope)) {
	defer close(c.done)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.err = err
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		handle(env)
	}
}

// SessionID returns the session the stream belongs to.
func (c *Conn) SessionID() string {
	return c.sessionID
}

// Done is closed when the stream ends.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns why the stream ended, once Done is closed.
func (c *Conn) Err() error {
	<-c.done
	return c.err
}

func (c *Conn) send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// EnterCell sends a pointer-enter on cell.
func (c *Conn) EnterCell(cell engine.Coord) error {
	return c.send(map[string]interface{}{"action": "enter_cell", "row": cell.Row, "col": cell.Col})
}

// NewGame asks the server to restart the game.
func (c *Conn) NewGame() error {
	return c.send(map[string]string{"action": "new_game"})
}

// Close ends the stream and waits for the reader to stop.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	err := c.ws.Close()
	<-c.done
	return err
}
