// Package service provides the business logic layer for the trail game.
//
// The service package implements:
//   - Multi-session game management
//   - Configuration management and loading
//   - Routing of cell activations to the right session
//   - Publication of every visual, audio and phase change as a GameEvent
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
// EventSink receives the event stream of every session.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game controller. Each session owns an engine, a board, a controller and
// a scheduler executor. All game work for a session runs on that executor, so
// transports call in through Executor.Do and never touch game state directly.
//
// Usage:
//
//	sessionMgr := session.NewManager(session.WithEventSink(hub))
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	// Create a new session; its first game starts immediately
//	sessionInfo, err := gameService.CreateSession(ctx, "easy")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Report that the pointer entered the origin
//	result, err := gameService.EnterCell(ctx, sessionInfo.ID, sessionInfo.GameState.Origin)
//
// Session Management:
//
// Sessions are identified by unique 4-character IDs and are fully
// independent: each has its own game, trail, epoch and thread of control.
package service
