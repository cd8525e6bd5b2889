// Package api provides HTTP REST API handlers for the trail game.
//
// The api package implements:
//   - Session management endpoints
//   - Game operations (new game, cell entry, state and board reads)
//   - Configuration listing, lookup and creation
//   - WebSocket upgrade handling
//   - Serving the web client
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session and stop its timers
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game snapshot
//   - GET /api/sessions/{id}/board - What the Grid View shows
//   - POST /api/sessions/{id}/new-game - Start a new game
//   - POST /api/sessions/{id}/cells - Pointer entered a cell ({"row": 4, "col": 5})
//
// Configuration:
//   - GET /api/configs - List available configurations
//   - GET /api/configs/{name} - Get one configuration
//   - POST /api/configs - Save a configuration
//
// Other:
//   - GET /api/health - Liveness probe
//   - GET /ws?session={id} - Event stream of one session
//
// The trail itself is never returned. Clients learn it only from playback
// events on the WebSocket.
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "session ab12: session not found",
//	  "code": 404
//	}
//
// Unknown sessions and configurations map to 404, invalid configurations and
// out-of-grid cells to 400.
package api
