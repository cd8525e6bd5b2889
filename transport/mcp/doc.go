// Package mcp provides a Model Context Protocol server for the trail game.
//
// The server is a thin client of the REST API: every tool call becomes one
// or more HTTP requests against /api, so an agent plays exactly the game a
// browser plays.
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - create_session: Create new game session with config selection
//   - list_sessions: List all active sessions
//   - get_session: Get specific session details
//   - game_state: Phase, trail length, progress and message
//   - board_state: Lit circles and lines as a text grid
//   - new_game: Start a new game in a session
//   - enter_cell: Pointer enters one circle
//   - enter_cells: Pointer enters several circles, stopping at a wrong one
//   - list_configs: List available game configurations
//   - game_instructions: Rules and tips for agents
//
// Agents cannot receive playback events, so they watch the trail by polling
// board_state during the computer turn.
//
// Transport Modes:
//
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp on the main server, handled by HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
