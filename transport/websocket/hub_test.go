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
	"github.com/wricardo/trailgame/game/board"
	"github.com/wricardo/trailgame/game/engine"
	"github.com/wricardo/trailgame/game/service"
)

// fakeInput records actions and publishes a fixed board through hub.
type fakeInput struct {
	hub      *Hub
	mu       sync.Mutex
	entered  []engine.Coord
	newGames int
	err      error
}

func (f *fakeInput) EnterCell(ctx context.Context, sessionID string, cell engine.Coord) (*service.EnterResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.entered = append(f.entered, cell)
	return &service.EnterResult{Cell: cell, Outcome: engine.OutcomeMatch}, nil
}

func (f *fakeInput) NewGame(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newGames++
	return &engine.Snapshot{Phase: engine.PhaseComputerTurn}, nil
}

func (f *fakeInput) SyncBoard(ctx context.Context, sessionID string) error {
	if sessionID == "missing" {
		return service.ErrSessionNotFound
	}
	f.hub.Publish(service.GameEvent{
		SessionID: sessionID,
		Type:      service.EventSync,
		Data:      board.Snapshot{Rows: 3, Cols: 3, Origin: engine.Coord{Row: 1, Col: 1}},
		Timestamp: time.Now(),
	})
	return nil
}

func newInputHub() (*Hub, *fakeInput) {
	input := &fakeInput{}
	hub := NewHub(input)
	input.hub = hub
	return hub, input
}

func (f *fakeInput) enteredCells() []engine.Coord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.Coord(nil), f.entered...)
}

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
		synced:    true,
	}
}

// startServer runs the hub behind an httptest server routing ?session= to ServeWS.
func startServer(t *testing.T, hub *Hub) (*httptest.Server, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if sessionID == "" {
			sessionID = "default"
		}
		hub.ServeWS(w, r, sessionID)
	}))
	return server, cancel
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return message
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}

	if cap(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected broadcast buffer %d, got %d", broadcastBuffer, cap(hub.broadcast))
	}

	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub register channels are nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if len(hub.sessions["test-session"]) != 1 {
		t.Errorf("Expected 1 client in session, got %d", len(hub.sessions["test-session"]))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "test-session")

	// Register then unregister
	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}

	// The send channel is closed so writePump exits.
	if _, ok := <-client.send; ok {
		t.Error("Expected send channel to be closed")
	}
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub(nil)
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID)
	client2 := newTestClient(hub, sessionID)

	hub.registerClient(client1)
	hub.registerClient(client2)

	if len(hub.sessions[sessionID]) != 2 {
		t.Errorf("Expected 2 clients in session, got %d", len(hub.sessions[sessionID]))
	}

	hub.unregisterClient(client1)

	if len(hub.sessions[sessionID]) != 1 {
		t.Errorf("Expected 1 client remaining in session, got %d", len(hub.sessions[sessionID]))
	}
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubPublish(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "publish-test")
	other := newTestClient(hub, "other-session")
	hub.registerClient(client)
	hub.registerClient(other)

	hub.Publish(service.GameEvent{
		SessionID: "publish-test",
		GameID:    "game-1",
		Type:      service.EventCell,
		Data:      board.CellChange{Row: 4, Col: 4, Active: true},
		Timestamp: time.Now(),
	})
	hub.broadcastMessage(<-hub.broadcast)

	select {
	case data := <-client.send:
		var message struct {
			SessionID string           `json:"session_id"`
			GameID    string           `json:"game_id"`
			Event     string           `json:"event"`
			Data      board.CellChange `json:"data"`
		}
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.SessionID != "publish-test" || message.GameID != "game-1" {
			t.Errorf("Unexpected routing fields: %+v", message)
		}
		if message.Event != service.EventCell {
			t.Errorf("Expected event %q, got %q", service.EventCell, message.Event)
		}
		if message.Data != (board.CellChange{Row: 4, Col: 4, Active: true}) {
			t.Errorf("Unexpected payload: %+v", message.Data)
		}
	default:
		t.Error("No message delivered to session client")
	}

	select {
	case <-other.send:
		t.Error("Event leaked to another session")
	default:
	}
}

func TestHubPublish_DoesNotBlockWhenFull(t *testing.T) {
	hub := NewHub(nil)
	for i := 0; i < broadcastBuffer; i++ {
		hub.Publish(service.GameEvent{SessionID: "s", Type: service.EventMessage})
	}

	done := make(chan struct{})
	go func() {
		hub.Publish(service.GameEvent{SessionID: "s", Type: service.EventMessage})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected %d queued events, got %d", broadcastBuffer, len(hub.broadcast))
	}
}

func TestHubSlowClientIsDropped(t *testing.T) {
	hub := NewHub(nil)
	slow := &Client{hub: hub, sessionID: "slow", send: make(chan []byte), synced: true}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "slow", Event: service.EventMessage})

	if _, exists := hub.sessions["slow"]; exists {
		t.Error("Expected client with a full queue to be unregistered")
	}
}

func TestWebSocketSyncOnConnect(t *testing.T) {
	hub, _ := newInputHub()
	server, cancel := startServer(t, hub)
	defer cancel()
	defer server.Close()

	conn := dial(t, server, "ws-test")
	defer conn.Close()

	message := readMessage(t, conn)
	if message.Event != EventSync {
		t.Fatalf("Expected sync event, got %q", message.Event)
	}
	data, _ := message.Data.(map[string]interface{})
	if data["rows"] != float64(3) {
		t.Errorf("Expected board rows in sync payload, got %v", message.Data)
	}

	missing := dial(t, server, "missing")
	defer missing.Close()
	if message := readMessage(t, missing); message.Event != EventError {
		t.Errorf("Expected error event for unknown session, got %q", message.Event)
	}
}

func TestWebSocketPublishedEventsArrive(t *testing.T) {
	hub := NewHub(nil)
	server, cancel := startServer(t, hub)
	defer cancel()
	defer server.Close()

	conn := dial(t, server, "msg-test")
	defer conn.Close()

	// Give time for registration
	time.Sleep(50 * time.Millisecond)

	hub.Publish(service.GameEvent{SessionID: "msg-test", Type: service.EventMessage, Data: board.MessageChange{Text: "Start tracing the trail"}})
	hub.Publish(service.GameEvent{SessionID: "msg-test", Type: service.EventSound, Data: service.SoundData{Cue: engine.CuePlayerMove}})

	first := readMessage(t, conn)
	second := readMessage(t, conn)
	if first.Event != service.EventMessage || second.Event != service.EventSound {
		t.Errorf("Expected message then sound, got %q then %q", first.Event, second.Event)
	}
	if first.SessionID != "msg-test" {
		t.Errorf("Expected sessionID 'msg-test', got %s", first.SessionID)
	}
}

func TestWebSocketActions(t *testing.T) {
	hub, input := newInputHub()
	server, cancel := startServer(t, hub)
	defer cancel()
	defer server.Close()

	conn := dial(t, server, "input-test")
	defer conn.Close()
	readMessage(t, conn) // sync

	if err := conn.WriteJSON(Action{Action: ActionEnterCell, Row: 1, Col: 2}); err != nil {
		t.Fatalf("Failed to send action: %v", err)
	}
	if err := conn.WriteJSON(Action{Action: ActionNewGame}); err != nil {
		t.Fatalf("Failed to send action: %v", err)
	}
	if err := conn.WriteJSON(Action{Action: "fly"}); err != nil {
		t.Fatalf("Failed to send action: %v", err)
	}

	// Actions are handled in order, so the error proves the first two ran.
	message := readMessage(t, conn)
	if message.Event != EventError || !strings.Contains(message.Data.(string), "unknown action") {
		t.Errorf("Expected unknown action error, got %+v", message)
	}

	cells := input.enteredCells()
	if len(cells) != 1 || cells[0] != (engine.Coord{Row: 1, Col: 2}) {
		t.Errorf("Expected one entered cell (1,2), got %v", cells)
	}
	input.mu.Lock()
	if input.newGames != 1 {
		t.Errorf("Expected 1 new game, got %d", input.newGames)
	}
	input.mu.Unlock()
}

func TestWebSocketActionError(t *testing.T) {
	hub, input := newInputHub()
	input.err = errors.New("invalid coordinate")
	server, cancel := startServer(t, hub)
	defer cancel()
	defer server.Close()

	conn := dial(t, server, "err-test")
	defer conn.Close()
	readMessage(t, conn) // sync

	conn.WriteJSON(Action{Action: ActionEnterCell, Row: 9, Col: 9})
	message := readMessage(t, conn)
	if message.Event != EventError || message.Data != "invalid coordinate" {
		t.Errorf("Expected error reply, got %+v", message)
	}
}

func TestHubRunStopsOnCancel(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := newTestClient(hub, "stop-test")
	hub.register <- client
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, ok := <-client.send; ok {
		t.Error("Expected clients to be closed on shutdown")
	}
}

func TestHubPendingClientStartsAtSync(t *testing.T) {
	hub := NewHub(nil)
	pending := newTestClient(hub, "sync-order")
	pending.synced = false
	hub.registerClient(pending)

	// Already part of the board the client is about to receive.
	hub.broadcastMessage(&Message{SessionID: "sync-order", Event: service.EventLine})
	if len(pending.send) != 0 {
		t.Fatal("Expected no events before the sync frame")
	}

	hub.broadcastMessage(&Message{SessionID: "sync-order", Event: EventSync})
	hub.broadcastMessage(&Message{SessionID: "sync-order", Event: service.EventLine})
	hub.broadcastMessage(&Message{SessionID: "sync-order", Event: EventSync})

	var events []string
	for len(pending.send) > 0 {
		var message Message
		if err := json.Unmarshal(<-pending.send, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		events = append(events, message.Event)
	}
	if len(events) != 2 || events[0] != EventSync || events[1] != service.EventLine {
		t.Errorf("Expected sync then line, got %v", events)
	}
}

func TestWebSocketSyncIsOrderedWithEvents(t *testing.T) {
	hub, _ := newInputHub()
	server, cancel := startServer(t, hub)
	defer cancel()
	defer server.Close()

	// Queued before the client connects, so it must never reach it.
	hub.Publish(service.GameEvent{SessionID: "ordered", Type: service.EventLine})

	conn := dial(t, server, "ordered")
	defer conn.Close()

	if message := readMessage(t, conn); message.Event != EventSync {
		t.Fatalf("Expected sync first, got %q", message.Event)
	}
	hub.Publish(service.GameEvent{SessionID: "ordered", Type: service.EventClearLines})
	if message := readMessage(t, conn); message.Event != service.EventClearLines {
		t.Errorf("Expected clear_lines after sync, got %q", message.Event)
	}
}

func TestHubRepliesRaceWithUnregister(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	for i := 0; i < 20; i++ {
		client := newTestClient(hub, "race")
		hub.register <- client

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				client.reply(EventError, "boom")
			}
		}()
		go func() {
			defer wg.Done()
			hub.unregister <- client
		}()
		wg.Wait()

		// Drain what was delivered before the channel closed.
		timeout := time.After(time.Second)
	drain:
		for {
			select {
			case _, ok := <-client.send:
				if !ok {
					break drain
				}
			case <-timeout:
				t.Fatal("send channel was never closed")
			}
		}
	}
}

func TestHubDeliverSkipsUnregisteredClient(t *testing.T) {
	hub := NewHub(nil)
	gone := newTestClient(hub, "gone")

	hub.deliver(directMessage{client: gone, payload: []byte("{}")})

	if len(gone.send) != 0 {
		t.Error("Expected no reply for a client that is not registered")
	}
}
