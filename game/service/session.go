package service

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/trailgame/game/board"
	"github.com/wricardo/trailgame/game/controller"
	"github.com/wricardo/trailgame/game/engine"
	"github.com/wricardo/trailgame/game/scheduler"
)

// SessionOptions carries the collaborators of a new session. Zero values
// pick production defaults.
type SessionOptions struct {
	Executor scheduler.Executor
	Rand     engine.RandSource
	Sink     EventSink
	Logger   *logrus.Entry
}

// NewSession wires an engine, board and controller for one independent game.
// The game is not started.
func NewSession(id string, config *engine.GameConfig, opts SessionOptions) (*Session, error) {
	eng, err := engine.NewEngine(config, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	exec := opts.Executor
	if exec == nil {
		exec = scheduler.NewLoop(id)
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("session", id)

	publish := func(event string, data interface{}) {
		if opts.Sink == nil {
			return
		}
		opts.Sink.Publish(GameEvent{
			SessionID: id,
			GameID:    eng.GetState().GameID,
			Type:      event,
			Data:      data,
			Timestamp: time.Now(),
		})
	}

	b := board.New(eng.Grid())
	b.SetObserver(publish)

	sound := controller.SoundFunc(func(cue engine.Cue) {
		publish(EventSound, SoundData{Cue: cue})
	})
	ctrl := controller.New(eng, b, sound, exec,
		controller.WithLogger(log),
		controller.WithPhaseObserver(func(snap engine.Snapshot) {
			publish(EventPhase, snap)
		}),
	)

	now := time.Now()
	return &Session{
		ID:           id,
		Config:       config,
		Engine:       eng,
		Board:        b,
		Controller:   ctrl,
		Executor:     exec,
		CreatedAt:    now,
		publish:      publish,
		lastAccessed: now,
	}, nil
}
