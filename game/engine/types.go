package engine

import (
	"fmt"
	"time"
)

// Phase is the stage of the turn-based state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseComputerTurn
	PhaseAwaitOrigin
	PhasePlayerTurn
	PhaseWin
	PhaseLose
)

var phaseNames = map[Phase]string{
	PhaseIdle:         "idle",
	PhaseComputerTurn: "computer_turn",
	PhaseAwaitOrigin:  "await_origin",
	PhasePlayerTurn:   "player_turn",
	PhaseWin:          "win",
	PhaseLose:         "lose",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Terminal reports whether the phase ends the game.
func (p Phase) Terminal() bool {
	return p == PhaseWin || p == PhaseLose
}

// MarshalText encodes the phase as its snake_case name.
func (p Phase) MarshalText() ([]byte, error) {
	if _, ok := phaseNames[p]; !ok {
		return nil, fmt.Errorf("unknown phase %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a snake_case phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(text))
}

// Cue identifies one of the fixed audio cues.
type Cue string

const (
	CueComputerMove Cue = "computer_move"
	CuePlayerMove   Cue = "player_move"
	CueGameOver     Cue = "game_over"
)

// Outcome describes how the engine reacted to a cell activation.
type Outcome string

const (
	OutcomeIgnored  Outcome = "ignored"
	OutcomeOrigin   Outcome = "origin"
	OutcomeMatch    Outcome = "match"
	OutcomeComplete Outcome = "complete"
	OutcomeMismatch Outcome = "mismatch"
)

const (
	// Validation constants
	MinGridSize = 1
	MaxGridSize = 25
	MinTickMs   = 50
	MaxTickMs   = 10000

	DefaultRows        = 9
	DefaultCols        = 9
	DefaultTickMs      = 1200
	DefaultBoardWidth  = 540
	DefaultBoardHeight = 540

	WebSocketBufferSize = 256
)

// Coord addresses a single grid cell.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Messages holds the status texts shown at each phase transition.
type Messages struct {
	ComputerTurn string `json:"computer_turn"`
	GoToOrigin   string `json:"go_to_origin"`
	StartTracing string `json:"start_tracing"`
	Win          string `json:"win"`
	Lose         string `json:"lose"`
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Rows        int      `json:"rows"`
	Cols        int      `json:"cols"`
	TickMs      int      `json:"tick_ms"`
	BoardWidth  int      `json:"board_width,omitempty"`
	BoardHeight int      `json:"board_height,omitempty"`
	Messages    Messages `json:"messages"`
}

// Tick returns the inter-step delay of trail playback.
func (c *GameConfig) Tick() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

// GameState is the session-owned state of the current game.
// Trail is never serialized; clients only learn it through playback.
type GameState struct {
	GameID   string `json:"game_id"`
	Epoch    int    `json:"epoch"`
	Phase    Phase  `json:"phase"`
	Trail    Trail  `json:"-"`
	Progress int    `json:"progress"`
	Round    int    `json:"round"`
	Message  string `json:"message"`
}

// Snapshot is a read-only view of a GameState safe to hand to clients.
type Snapshot struct {
	GameID      string `json:"game_id"`
	Epoch       int    `json:"epoch"`
	Phase       Phase  `json:"phase"`
	TrailLength int    `json:"trail_length"`
	Progress    int    `json:"progress"`
	Round       int    `json:"round"`
	Message     string `json:"message"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	Origin      Coord  `json:"origin"`
	GameOver    bool   `json:"game_over"`
	Victory     bool   `json:"victory"`
}
