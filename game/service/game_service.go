package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/trailgame/game/board"
	"github.com/wricardo/trailgame/game/controller"
	"github.com/wricardo/trailgame/game/engine"
	"github.com/wricardo/trailgame/game/scheduler"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	NewGame(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	EnterCell(ctx context.Context, sessionID string, cell engine.Coord) (*EnterResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	GetBoard(ctx context.Context, sessionID string) (*board.Snapshot, error)
	SyncBoard(ctx context.Context, sessionID string) error

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// EventSink receives the events of every session.
type EventSink interface {
	Publish(event GameEvent)
}

// EventSinkFunc adapts a plain function to EventSink.
type EventSinkFunc func(event GameEvent)

// Publish implements EventSink.
func (f EventSinkFunc) Publish(event GameEvent) { f(event) }

// Session represents an active game session. Engine, Board and Controller
// belong to Executor's thread of control and must only be touched through
// Executor.Do or from scheduled callbacks.
type Session struct {
	ID         string
	Config     *engine.GameConfig
	Engine     *engine.GameEngine
	Board      *board.Board
	Controller *controller.Controller
	Executor   scheduler.Executor
	CreatedAt  time.Time

	publish      func(event string, data interface{})
	accessMu     sync.Mutex
	lastAccessed time.Time
}

// PublishBoard sends the whole board as an EventSync, ordered with the
// session's other events. It must run on Executor.
func (s *Session) PublishBoard() {
	if s.publish != nil {
		s.publish(EventSync, s.Board.Snapshot())
	}
}

// Touch records an access at t.
func (s *Session) Touch(t time.Time) {
	s.accessMu.Lock()
	s.lastAccessed = t
	s.accessMu.Unlock()
}

// LastAccessed returns the time of the latest access.
func (s *Session) LastAccessed() time.Time {
	s.accessMu.Lock()
	defer s.accessMu.Unlock()
	return s.lastAccessed
}
