package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidConfig() *GameConfig {
	return &GameConfig{
		Name:        "Test Config",
		Description: "A valid test configuration",
		Rows:        5,
		Cols:        5,
		TickMs:      500,
		Messages: Messages{
			ComputerTurn: "Watch %d circles",
			GoToOrigin:   "Go to the centre",
			StartTracing: "Trace it",
			Win:          "Won with %d",
			Lose:         "Lost after %d",
		},
	}
}

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	config := createValidConfig()
	if err := ValidateGameConfig(config); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidateGameConfig_Nil(t *testing.T) {
	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestValidateGameConfig_MissingName(t *testing.T) {
	config := createValidConfig()
	config.Name = ""

	err := ValidateGameConfig(config)
	if err == nil {
		t.Fatal("Expected error for missing name")
	}
	if !strings.Contains(err.Error(), "name is required") {
		t.Errorf("Expected name validation error, got: %v", err)
	}
}

func TestValidateGameConfig_InvalidGridSize(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		wantErr    string
	}{
		{"zero rows", 0, 5, "rows must be between"},
		{"too many cols", 5, 27, "cols must be between"},
		{"even rows", 4, 5, "must be odd"},
		{"even cols", 5, 8, "must be odd"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := createValidConfig()
			config.Rows = test.rows
			config.Cols = test.cols
			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatalf("Expected error for grid %dx%d", test.rows, test.cols)
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Expected %q in error, got: %v", test.wantErr, err)
			}
		})
	}
}

func TestValidateGameConfig_InvalidTick(t *testing.T) {
	for _, tick := range []int{0, MinTickMs - 1, MaxTickMs + 1} {
		config := createValidConfig()
		config.TickMs = tick
		err := ValidateGameConfig(config)
		if err == nil {
			t.Errorf("Expected error for tick_ms %d", tick)
			continue
		}
		if !strings.Contains(err.Error(), "tick_ms must be between") {
			t.Errorf("Expected tick validation error, got: %v", err)
		}
	}
}

func TestValidateGameConfig_FormatStrings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GameConfig)
	}{
		{"computer turn", func(c *GameConfig) { c.Messages.ComputerTurn = "Watch closely" }},
		{"win", func(c *GameConfig) { c.Messages.Win = "You win" }},
		{"lose", func(c *GameConfig) { c.Messages.Lose = "You lose" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := createValidConfig()
			test.mutate(config)
			if err := ValidateGameConfig(config); err == nil {
				t.Errorf("Expected error for message without %%d")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	config := &GameConfig{Name: "bare", Rows: 3, Cols: 3, TickMs: 100}
	ApplyDefaults(config)

	if config.Messages.ComputerTurn != DefaultComputerTurnMessage {
		t.Errorf("Expected default computer turn message, got %q", config.Messages.ComputerTurn)
	}
	if config.Messages.Lose != DefaultLoseMessage {
		t.Errorf("Expected default lose message, got %q", config.Messages.Lose)
	}
	if config.BoardWidth != DefaultBoardWidth || config.BoardHeight != DefaultBoardHeight {
		t.Errorf("Expected default board size, got %dx%d", config.BoardWidth, config.BoardHeight)
	}
	if config.Tick().Milliseconds() != 100 {
		t.Errorf("Expected 100ms tick, got %v", config.Tick())
	}
}

func TestLoadGameConfig(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_config.json")

	configContent := `{
		"name": "Test Config",
		"description": "Test description",
		"rows": 7,
		"cols": 5,
		"tick_ms": 800,
		"messages": {
			"computer_turn": "Computer shows %d circles"
		}
	}`

	err := os.WriteFile(tempFile, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := LoadGameConfig(tempFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Name != "Test Config" {
		t.Errorf("Expected config name 'Test Config', got '%s'", config.Name)
	}
	if config.Rows != 7 || config.Cols != 5 {
		t.Errorf("Expected 7x5 grid, got %dx%d", config.Rows, config.Cols)
	}
	if config.Messages.ComputerTurn != "Computer shows %d circles" {
		t.Errorf("Expected custom computer turn message, got %q", config.Messages.ComputerTurn)
	}
	if config.Messages.GoToOrigin != DefaultGoToOriginMessage {
		t.Errorf("Expected default origin message, got %q", config.Messages.GoToOrigin)
	}

	// Test loading non-existent file
	_, err = LoadGameConfig("nonexistent.json")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestParseGameConfig_Invalid(t *testing.T) {
	if _, err := ParseGameConfig([]byte(`{"name":`)); err == nil {
		t.Error("Expected error for malformed JSON")
	}
	if _, err := ParseGameConfig([]byte(`{"name":"even","rows":4,"cols":4,"tick_ms":100}`)); err == nil {
		t.Error("Expected error for even grid")
	}
}
