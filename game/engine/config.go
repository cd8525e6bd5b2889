package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Default status texts, used for any message a config leaves empty.
const (
	DefaultComputerTurnMessage = "Computer's turn - %d circles"
	DefaultGoToOriginMessage   = "Move cursor to the origin circle to begin your move"
	DefaultStartTracingMessage = "Start tracing the trail"
	DefaultWinMessage          = "You win! You survived through %d circles and the trail can't grow anymore"
	DefaultLoseMessage         = "Wrong circle - you survived through %d circles. Want to try again?"
)

// DefaultConfig returns the classic 9x9 board with a 1200ms tick.
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:        "classic",
		Description: "Classic 9x9 trail, 1.2 seconds per step",
		Rows:        DefaultRows,
		Cols:        DefaultCols,
		TickMs:      DefaultTickMs,
	}
	ApplyDefaults(config)
	return config
}

// ApplyDefaults fills optional fields that a config file may omit.
func ApplyDefaults(config *GameConfig) {
	if config.BoardWidth == 0 {
		config.BoardWidth = DefaultBoardWidth
	}
	if config.BoardHeight == 0 {
		config.BoardHeight = DefaultBoardHeight
	}

	m := &config.Messages
	if m.ComputerTurn == "" {
		m.ComputerTurn = DefaultComputerTurnMessage
	}
	if m.GoToOrigin == "" {
		m.GoToOrigin = DefaultGoToOriginMessage
	}
	if m.StartTracing == "" {
		m.StartTracing = DefaultStartTracingMessage
	}
	if m.Win == "" {
		m.Win = DefaultWinMessage
	}
	if m.Lose == "" {
		m.Lose = DefaultLoseMessage
	}
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	// Validate grid size
	if config.Rows < MinGridSize || config.Rows > MaxGridSize {
		return fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Rows)
	}
	if config.Cols < MinGridSize || config.Cols > MaxGridSize {
		return fmt.Errorf("config validation: cols must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Cols)
	}
	if config.Rows%2 == 0 || config.Cols%2 == 0 {
		return fmt.Errorf("config validation: rows and cols must be odd so the grid has a centre, got %dx%d", config.Rows, config.Cols)
	}

	// Validate timing
	if config.TickMs < MinTickMs || config.TickMs > MaxTickMs {
		return fmt.Errorf("config validation: tick_ms must be between %d and %d, got %d", MinTickMs, MaxTickMs, config.TickMs)
	}

	if config.BoardWidth < 0 || config.BoardHeight < 0 {
		return fmt.Errorf("config validation: board dimensions must be positive, got %dx%d", config.BoardWidth, config.BoardHeight)
	}

	// Validate format strings
	m := config.Messages
	if m.ComputerTurn != "" && !strings.Contains(m.ComputerTurn, "%d") {
		return fmt.Errorf("config validation: messages.computer_turn must contain %%d for trail length")
	}
	if m.Win != "" && !strings.Contains(m.Win, "%d") {
		return fmt.Errorf("config validation: messages.win must contain %%d for trail length")
	}
	if m.Lose != "" && !strings.Contains(m.Lose, "%d") {
		return fmt.Errorf("config validation: messages.lose must contain %%d for trail length")
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	return ParseGameConfig(data)
}

// ParseGameConfig decodes, defaults and validates a JSON configuration.
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	ApplyDefaults(&config)

	return &config, nil
}
