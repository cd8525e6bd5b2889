package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// RandSource picks a uniform index in [0, n). *rand.Rand satisfies it.
type RandSource interface {
	Intn(n int) int
}

// RandFunc adapts a plain function to RandSource.
type RandFunc func(n int) int

// Intn implements RandSource.
func (f RandFunc) Intn(n int) int { return f(n) }

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Snapshot() Snapshot
	Grid() Grid
	GetConfig() *GameConfig

	// Turn sequencing
	StartNewGame() *GameState
	ExtendTrail() bool
	BeginComputerTurn() bool
	EnterAwaitOrigin()
	EnterPlayerTurn() bool
	Activate(c Coord) Outcome
	Lose() bool
}

// GameEngine implements the Engine interface. It holds no timers; callers
// decide when each transition happens.
type GameEngine struct {
	state  *GameState
	config *GameConfig
	grid   Grid
	rng    RandSource
}

// NewEngine creates a new game engine with the provided configuration. A nil
// rng falls back to a time-seeded source.
func NewEngine(config *GameConfig, rng RandSource) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	grid, err := NewGrid(config.Rows, config.Cols)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &GameEngine{
		config: config,
		grid:   grid,
		rng:    rng,
		state:  &GameState{Phase: PhaseIdle, Trail: NewTrail(grid.Origin())},
	}, nil
}

// NewEngineWithDefaults creates a new game engine with default configuration
func NewEngineWithDefaults() *GameEngine {
	eng, err := NewEngine(DefaultConfig(), nil)
	if err != nil {
		panic(fmt.Sprintf("engine: default config invalid: %v", err))
	}
	return eng
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState replaces the game state after checking the trail invariants.
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if !state.Trail.Valid(e.grid) {
		return fmt.Errorf("state trail is not a valid walk from %s", e.grid.Origin())
	}
	if state.Progress < 0 || state.Progress > len(state.Trail) {
		return fmt.Errorf("progress %d out of range [0,%d]", state.Progress, len(state.Trail))
	}
	e.state = state
	return nil
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// Grid returns the board geometry.
func (e *GameEngine) Grid() Grid {
	return e.grid
}

// Snapshot returns a client-safe copy of the state.
func (e *GameEngine) Snapshot() Snapshot {
	s := e.state
	return Snapshot{
		GameID:      s.GameID,
		Epoch:       s.Epoch,
		Phase:       s.Phase,
		TrailLength: len(s.Trail),
		Progress:    s.Progress,
		Round:       s.Round,
		Message:     s.Message,
		Rows:        e.grid.Rows,
		Cols:        e.grid.Cols,
		Origin:      e.grid.Origin(),
		GameOver:    s.Phase.Terminal(),
		Victory:     s.Phase == PhaseWin,
	}
}

// StartNewGame resets the trail to the origin and enters the computer turn.
// The epoch is bumped so anything scheduled for the previous game can be
// recognised as stale.
func (e *GameEngine) StartNewGame() *GameState {
	e.state = &GameState{
		GameID:   uuid.NewString(),
		Epoch:    e.state.Epoch + 1,
		Phase:    PhaseComputerTurn,
		Trail:    NewTrail(e.grid.Origin()),
		Progress: 0,
		Round:    0,
	}
	return e.state
}

// ExtendTrail appends a random free neighbour of the last trail cell. It
// returns true when no free neighbour exists, which means the player has won.
func (e *GameEngine) ExtendTrail() bool {
	free := FreeNeighbours(e.grid, e.state.Trail)
	if len(free) == 0 {
		return true
	}
	e.state.Trail = append(e.state.Trail, free[e.rng.Intn(len(free))])
	return false
}

// BeginComputerTurn grows the trail for the next round. It returns true when
// the trail could not grow and the game is won.
func (e *GameEngine) BeginComputerTurn() bool {
	e.state.Phase = PhaseComputerTurn
	e.state.Progress = 0

	if e.ExtendTrail() {
		e.win()
		return true
	}

	e.state.Round++
	e.state.Message = fmt.Sprintf(e.config.Messages.ComputerTurn, len(e.state.Trail))
	return false
}

// EnterAwaitOrigin waits for the player to point at the origin.
func (e *GameEngine) EnterAwaitOrigin() {
	e.state.Phase = PhaseAwaitOrigin
	e.state.Progress = 0
	e.state.Message = e.config.Messages.GoToOrigin
}

// EnterPlayerTurn starts the tracing phase. It is a no-op unless the game is
// waiting at the origin.
func (e *GameEngine) EnterPlayerTurn() bool {
	if e.state.Phase != PhaseAwaitOrigin {
		return false
	}
	e.state.Phase = PhasePlayerTurn
	e.state.Message = e.config.Messages.StartTracing
	return true
}

// Activate applies a pointer-enter on c and reports what happened. It never
// changes the phase; the caller schedules the follow-up transition.
func (e *GameEngine) Activate(c Coord) Outcome {
	if !e.grid.Contains(c) {
		return OutcomeIgnored
	}

	s := e.state
	switch s.Phase {
	case PhaseAwaitOrigin:
		// A lit origin stays lit until the player turn starts.
		if c != e.grid.Origin() || s.Progress > 0 {
			return OutcomeIgnored
		}
		s.Progress = 1
		return OutcomeOrigin

	case PhasePlayerTurn:
		// Completed trail waiting for the next round.
		if s.Progress >= len(s.Trail) {
			return OutcomeIgnored
		}
		// Already active cells are exactly the traced prefix.
		if s.Trail[:s.Progress].Contains(c) {
			return OutcomeIgnored
		}
		if c != s.Trail[s.Progress] {
			return OutcomeMismatch
		}
		s.Progress++
		if s.Progress == len(s.Trail) {
			return OutcomeComplete
		}
		return OutcomeMatch
	}

	return OutcomeIgnored
}

// IsActive reports whether c is lit for the player in the current turn.
func (e *GameEngine) IsActive(c Coord) bool {
	s := e.state
	if s.Phase != PhaseAwaitOrigin && s.Phase != PhasePlayerTurn {
		return false
	}
	return s.Trail[:s.Progress].Contains(c)
}

// Lose ends the game after a wrong activation. Only a game in progress can
// be lost.
func (e *GameEngine) Lose() bool {
	if e.state.Phase == PhaseIdle || e.state.Phase.Terminal() {
		return false
	}
	e.state.Phase = PhaseLose
	e.state.Message = fmt.Sprintf(e.config.Messages.Lose, len(e.state.Trail)-1)
	return true
}

func (e *GameEngine) win() {
	e.state.Phase = PhaseWin
	e.state.Message = fmt.Sprintf(e.config.Messages.Win, len(e.state.Trail))
}
