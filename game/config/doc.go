// Package config provides configuration management for the trail game.
//
// The config package handles:
//   - Loading game configurations from JSON files
//   - Configuration validation and defaulting
//   - Default configuration management
//   - Configuration discovery, listing and saving
//
// Configuration Format:
//
// Game configurations are stored as JSON files in the configs directory.
// Each configuration defines:
//   - Grid dimensions (rows and cols, both odd so the origin is the centre)
//   - Tick duration between playback steps in milliseconds
//   - Optional drawing surface size for graphical clients
//   - Status messages shown at each phase transition
//
// Available Configurations:
//
//   - classic: 9x9 grid, 1.2 seconds per step
//   - easy: 5x5 grid with a slower tick
//   - tiny: 3x3 grid that is quickly exhausted
//   - large: 11x11 grid with a faster tick
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration
//	gameConfig, err := manager.LoadConfig("easy")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Get default configuration
//	defaultConfig := manager.GetDefault()
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
//
// Defaults:
//
// When classic.json is missing the first valid file becomes the default. With
// no valid file at all the built-in classic board is used.
package config
