// Package engine provides the core game logic for the trail memory game.
//
// The engine package implements the game mechanics including:
//   - Grid geometry with a single centre origin and 4-connectivity
//   - Trail growth as a random walk that never revisits a cell
//   - Turn sequencing between computer playback and player tracing
//   - Win detection when the trail cannot grow, loss on a wrong cell
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState holds the trail, phase and player
// progress of one game, while GameConfig defines grid size, tick duration
// and status messages loaded from JSON files.
//
// The engine owns no timers. It only performs transitions when told to;
// package controller decides when each transition happens.
//
// Usage:
//
//	eng, err := engine.NewEngine(engine.DefaultConfig(), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng.StartNewGame()
//	if won := eng.BeginComputerTurn(); !won {
//		eng.EnterAwaitOrigin()
//	}
//	outcome := eng.Activate(eng.Grid().Origin())
//
// Game Rules:
//
// Every round the computer extends the trail by one cell and plays it back.
// The player then starts at the origin and retraces the trail in order. A
// wrong cell loses the game. When the trail's last cell has no free
// neighbour the trail cannot grow and the player wins.
package engine
