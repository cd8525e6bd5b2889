package service

import (
	"errors"
	"time"

	"github.com/wricardo/trailgame/game/board"
	"github.com/wricardo/trailgame/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidCoord    = errors.New("invalid coordinate")
)

// Event types published to an EventSink. Board events reuse the names of
// package board.
const (
	EventCell       = board.EventCell
	EventLine       = board.EventLine
	EventClearLines = board.EventClearLines
	EventMessage    = board.EventMessage
	EventSound      = "sound"
	EventPhase      = "phase"
	EventSync       = "sync"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.Snapshot   `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// EnterResult contains the result of a cell activation
type EnterResult struct {
	Cell      engine.Coord     `json:"cell"`
	Outcome   engine.Outcome   `json:"outcome"`
	GameState *engine.Snapshot `json:"game_state"`
	Message   string           `json:"message"`
}

// GameEvent is one visual, audio or phase change of a session's game,
// in the order it happened.
type GameEvent struct {
	SessionID string      `json:"session_id"`
	GameID    string      `json:"game_id,omitempty"`
	Type      string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SoundData is the payload of EventSound.
type SoundData struct {
	Cue engine.Cue `json:"cue"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	TickMs      int    `json:"tick_ms"`
}
