package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/trailgame/api"
	"github.com/wricardo/trailgame/game/board"
	"github.com/wricardo/trailgame/game/config"
	"github.com/wricardo/trailgame/game/engine"
	"github.com/wricardo/trailgame/game/service"
	"github.com/wricardo/trailgame/game/session"
	hub "github.com/wricardo/trailgame/transport/websocket"
)

// startServer runs the full server stack on a 1x3 corridor with a fast tick.
func startServer(t *testing.T) *Client {
	t.Helper()

	dir := t.TempDir()
	corridor := `{"name": "corridor", "rows": 1, "cols": 3, "tick_ms": 50}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corridor.json"), []byte(corridor), 0644))
	configs, err := config.NewManager(dir)
	require.NoError(t, err)

	h := hub.NewHub(nil)
	sessions := session.NewManager(session.WithEventSink(h))
	svc := service.NewGameService(sessions, configs)
	h.SetInputHandler(svc)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	server := httptest.NewServer(api.NewServer(svc, h))
	t.Cleanup(func() {
		server.Close()
		cancel()
		sessions.StopAll()
	})

	return New(server.URL + "/")
}

func envelope(t *testing.T, event string, data interface{}) Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return Envelope{SessionID: "s1", Event: event, Data: raw}
}

func TestMirror_Apply(t *testing.T) {
	m := NewMirror()

	require.NoError(t, m.Apply(envelope(t, "sync", board.Snapshot{
		Rows:    3,
		Cols:    5,
		Origin:  engine.Coord{Row: 1, Col: 2},
		Active:  []engine.Coord{{Row: 1, Col: 2}},
		Message: "hello",
	})))
	view := m.View()
	assert.Equal(t, 3, view.Rows)
	assert.Equal(t, 5, view.Cols)
	assert.True(t, view.IsActive(engine.Coord{Row: 1, Col: 2}))
	assert.Equal(t, "hello", view.Message)

	require.NoError(t, m.Apply(envelope(t, service.EventCell, board.CellChange{Row: 1, Col: 3, Active: true})))
	require.NoError(t, m.Apply(envelope(t, service.EventLine, board.Line{
		From: engine.Coord{Row: 1, Col: 2},
		To:   engine.Coord{Row: 1, Col: 3},
	})))
	require.NoError(t, m.Apply(envelope(t, service.EventMessage, board.MessageChange{Text: "watch"})))
	require.NoError(t, m.Apply(envelope(t, service.EventSound, service.SoundData{Cue: engine.CueComputerMove})))

	view = m.View()
	assert.Equal(t, []engine.Coord{{Row: 1, Col: 2}, {Row: 1, Col: 3}}, view.Active)
	assert.Len(t, view.Lines, 1)
	assert.Equal(t, "watch", view.Message)
	assert.Equal(t, []engine.Cue{engine.CueComputerMove}, m.TakeCues())
	assert.Empty(t, m.TakeCues())

	require.NoError(t, m.Apply(envelope(t, service.EventCell, board.CellChange{Row: 1, Col: 2, Active: false})))
	require.NoError(t, m.Apply(Envelope{Event: service.EventClearLines}))
	view = m.View()
	assert.Equal(t, []engine.Coord{{Row: 1, Col: 3}}, view.Active)
	assert.Empty(t, view.Lines)

	require.NoError(t, m.Apply(envelope(t, service.EventPhase, engine.Snapshot{Phase: engine.PhaseAwaitOrigin, TrailLength: 2})))
	require.NoError(t, m.Apply(envelope(t, "error", "session not found")))
	view = m.View()
	assert.Equal(t, engine.PhaseAwaitOrigin, view.Phase)
	require.NotNil(t, view.State)
	assert.Equal(t, 2, view.State.TrailLength)
	assert.Equal(t, "session not found", view.Error)

	assert.Error(t, m.Apply(Envelope{Event: "teleport"}))
	assert.Error(t, m.Apply(Envelope{Event: service.EventCell, Data: json.RawMessage(`"oops"`)}))
}

func TestMirror_PhaseSizesEmptyBoard(t *testing.T) {
	m := NewMirror()
	require.NoError(t, m.Apply(envelope(t, service.EventPhase, engine.Snapshot{
		Phase:  engine.PhaseComputerTurn,
		Rows:   9,
		Cols:   9,
		Origin: engine.Coord{Row: 4, Col: 4},
	})))

	view := m.View()
	assert.Equal(t, 9, view.Rows)
	assert.Equal(t, engine.Coord{Row: 4, Col: 4}, view.Origin)
}

func TestClient_WSURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws?session=abc"},
		{"https://example.ngrok.app/", "wss://example.ngrok.app/ws?session=abc"},
		{"http://localhost:8080/game", "ws://localhost:8080/game/ws?session=abc"},
	}

	for _, tt := range tests {
		got, err := New(tt.base).wsURL("abc")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.base)
	}
}

func TestClient_REST(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	configs, err := c.ListConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "corridor", configs[0].ConfigID)

	info, err := c.CreateSession(ctx, "corridor")
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, engine.PhaseComputerTurn, info.GameState.Phase)

	got, err := c.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, got.ID)
	assert.Equal(t, 3, got.GameConfig.Cols)

	state, err := c.GetState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.Coord{Row: 0, Col: 1}, state.Origin)

	snap, err := c.GetBoard(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Rows)

	_, err = c.EnterCell(ctx, info.ID, engine.Coord{Row: 5, Col: 5})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	restarted, err := c.NewGame(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseComputerTurn, restarted.Phase)

	require.NoError(t, c.DeleteSession(ctx, info.ID))
	_, err = c.GetSession(ctx, info.ID)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	_, err = c.CreateSession(ctx, "missing")
	assert.Error(t, err)
}

func TestClient_Stream(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	info, err := c.CreateSession(ctx, "corridor")
	require.NoError(t, err)

	m := NewMirror()
	conn, err := c.Connect(ctx, info.ID, func(env Envelope) {
		m.Apply(env)
	})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, info.ID, conn.SessionID())

	// Restart once the sync frame arrived so no event of the game is missed.
	require.Eventually(t, func() bool {
		return m.View().Rows == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.NewGame())

	require.Eventually(t, func() bool {
		return m.View().Phase == engine.PhaseAwaitOrigin
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotEmpty(t, m.TakeCues(), "playback should have played cues")

	origin := engine.Coord{Row: 0, Col: 1}
	require.NoError(t, conn.EnterCell(origin))
	require.Eventually(t, func() bool {
		return m.View().Phase == engine.PhasePlayerTurn
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, m.View().IsActive(origin))

	// Either (0,0) is the next trail cell and the game is won once the
	// trail cannot grow, or it is wrong and the game is lost.
	require.NoError(t, conn.EnterCell(engine.Coord{Row: 0, Col: 0}))
	require.Eventually(t, func() bool {
		return m.View().Phase.Terminal()
	}, 3*time.Second, 10*time.Millisecond)
	assert.Empty(t, m.View().Active)

	require.NoError(t, conn.NewGame())
	require.Eventually(t, func() bool {
		return m.View().Phase == engine.PhaseComputerTurn
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	select {
	case <-conn.Done():
	case <-time.After(time.Second):
		t.Fatal("stream did not end after Close")
	}
}

func TestClient_ConnectUnknownSession(t *testing.T) {
	c := startServer(t)

	_, err := c.Connect(context.Background(), "missing", func(Envelope) {})
	assert.Error(t, err)
}
