// Package session provides session management for the trail game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Per-session scheduler lifecycle
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each session (service.Session) owns its own engine, board, controller and
// scheduler, created together by service.NewSession.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are
// case-insensitive. Generated IDs are checked against live sessions and
// regenerated on collision.
//
// Concurrency:
//
// The manager's map is guarded by a RWMutex. Game state is not: every
// session runs its game on one scheduler loop, and callers reach it through
// Executor.Do. Deleting or expiring a session stops that loop, so timers of
// the removed game never fire.
//
// Usage:
//
//	manager := session.NewManager(session.WithEventSink(hub))
//
//	// Create a new session
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Start its first game on the session loop
//	err = sess.Executor.Do(ctx, sess.Controller.StartNewGame)
//
// Cleanup:
//
// CleanupExpiredSessions removes sessions idle for longer than a maximum
// age. StopAll stops every session on shutdown.
package session
