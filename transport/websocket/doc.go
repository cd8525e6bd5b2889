// Package websocket provides WebSocket transport for the trail game.
//
// The websocket package implements:
//   - Session-scoped fan-out of game events
//   - Player input over the same connection
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. The Hub is the service.EventSink of the session
// manager: every board, sound and phase change of a session is queued by
// Publish and written to that session's clients in order. Publish never
// blocks the session loop; a full queue drops the event with a warning.
//
// Message Protocol:
//
// Outgoing messages are JSON objects:
//
//	{"session_id": "ab12", "game_id": "...", "event": "cell", "data": {"row": 4, "col": 4, "active": true}}
//
// Events are cell, line, clear_lines, message, sound and phase, plus sync
// (the board snapshot sent on connect) and error (a failed action). The sync
// frame is published by the session itself, so a new client sees exactly
// the events that follow its snapshot. Replies are handed to the hub
// goroutine, the only writer and closer of a client's queue.
//
// Incoming messages are actions:
//
//	{"action": "enter_cell", "row": 4, "col": 5}
//	{"action": "new_game"}
//
// Usage:
//
//	hub := websocket.NewHub(nil)
//	go hub.Run(ctx)
//
//	sessions := session.NewManager(session.WithEventSink(hub))
//	svc := service.NewGameService(sessions, configs)
//	hub.SetInputHandler(svc)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
