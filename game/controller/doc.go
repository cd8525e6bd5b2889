// Package controller implements the Trail Game Controller.
//
// The controller owns no state of its own beyond bookkeeping: game data
// lives in an engine.GameEngine, visual state in a View and audio in a
// SoundPlayer. The controller decides when each engine transition happens
// and what the player sees and hears while it does.
//
// Every delayed step is scheduled on a scheduler.Scheduler and captures the
// game epoch at scheduling time. Starting a new game bumps the epoch, so any
// step still pending from the previous game is dropped when it fires.
//
// A Controller is not safe for concurrent use. Call it only from the
// scheduler's thread of control.
package controller
