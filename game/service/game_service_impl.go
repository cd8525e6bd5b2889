package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wricardo/trailgame/game/board"
	"github.com/wricardo/trailgame/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a new game session and starts its first game
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s': %w. Available configs: %v", configName, ErrConfigNotFound, configIDs)
				}
				return nil, fmt.Errorf("config '%s': %w. Use /api/configs to list available configurations", configName, ErrConfigNotFound)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := session.Executor.Do(ctx, session.Controller.StartNewGame); err != nil {
		s.sessions.Delete(session.ID)
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	// Prefer the input configName if provided, otherwise look up the
	// config_id by display name
	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return s.sessionInfo(ctx, session, configID)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return s.sessionInfo(ctx, session, s.getConfigID(session.Config.Name))
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		info, err := s.sessionInfo(ctx, sess, s.getConfigID(sess.Config.Name))
		if err != nil {
			// Deleted while listing
			continue
		}
		result = append(result, info)
	}

	return result, nil
}

// DeleteSession removes a session and stops its scheduler
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	return nil
}

// NewGame abandons the session's current game and starts a new one
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var snap engine.Snapshot
	err = session.Executor.Do(ctx, func() {
		session.Controller.StartNewGame()
		snap = session.Controller.Snapshot()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}
	return &snap, nil
}

// EnterCell reports that the player's pointer entered a cell
func (s *gameServiceImpl) EnterCell(ctx context.Context, sessionID string, cell engine.Coord) (*EnterResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if grid := session.Engine.Grid(); !grid.Contains(cell) {
		return nil, fmt.Errorf("%w: %s is outside the %dx%d grid", ErrInvalidCoord, cell, grid.Rows, grid.Cols)
	}

	result := &EnterResult{Cell: cell}
	err = session.Executor.Do(ctx, func() {
		result.Outcome = session.Controller.HandleCellActivation(cell)
		snap := session.Controller.Snapshot()
		result.GameState = &snap
		result.Message = snap.Message
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enter cell: %w", err)
	}
	return result, nil
}

// GetGameState returns the current game snapshot
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, session)
}

// GetBoard returns what the session's Grid View currently shows
func (s *gameServiceImpl) GetBoard(ctx context.Context, sessionID string) (*board.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var snap board.Snapshot
	if err := session.Executor.Do(ctx, func() { snap = session.Board.Snapshot() }); err != nil {
		return nil, fmt.Errorf("failed to read board: %w", err)
	}
	return &snap, nil
}

// SyncBoard publishes the session's board to its event sink
func (s *gameServiceImpl) SyncBoard(ctx context.Context, sessionID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	if err := session.Executor.Do(ctx, session.PublishBoard); err != nil {
		return fmt.Errorf("failed to sync board: %w", err)
	}
	return nil
}

// ListConfigs returns all available configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return session, nil
}

func (s *gameServiceImpl) snapshot(ctx context.Context, session *Session) (*engine.Snapshot, error) {
	var snap engine.Snapshot
	if err := session.Executor.Do(ctx, func() { snap = session.Controller.Snapshot() }); err != nil {
		return nil, fmt.Errorf("failed to read game state: %w", err)
	}
	return &snap, nil
}

func (s *gameServiceImpl) sessionInfo(ctx context.Context, session *Session, configID string) (*SessionInfo, error) {
	snap, err := s.snapshot(ctx, session)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     configID, // Return the config_id, not the display name
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessed(),
		GameState:      snap,
		GameConfig:     session.Config,
	}, nil
}
