package controller

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/trailgame/game/engine"
	"github.com/wricardo/trailgame/game/scheduler"
)

// View is the Grid View the controller draws on.
type View interface {
	SetCellActive(c engine.Coord, active bool)
	IsCellActive(c engine.Coord) bool
	DrawLine(from, to engine.Coord)
	RemoveLines()
	ShowMessage(text string)
}

// SoundPlayer plays fire-and-forget audio cues.
type SoundPlayer interface {
	Play(cue engine.Cue)
}

// SoundFunc adapts a plain function to SoundPlayer.
type SoundFunc func(cue engine.Cue)

// Play implements SoundPlayer.
func (f SoundFunc) Play(cue engine.Cue) { f(cue) }

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the log entry used for controller events.
func WithLogger(entry *logrus.Entry) Option {
	return func(c *Controller) { c.log = entry }
}

// WithPhaseObserver registers fn to be called after every phase change.
func WithPhaseObserver(fn func(engine.Snapshot)) Option {
	return func(c *Controller) { c.onPhase = fn }
}

// Controller sequences turns between computer playback and player tracing.
type Controller struct {
	engine *engine.GameEngine
	view   View
	sound  SoundPlayer
	sched  scheduler.Scheduler
	tick   time.Duration

	// playback identifies the newest DisplayTrail run; older runs stop.
	playback int

	log     *logrus.Entry
	onPhase func(engine.Snapshot)
}

// New wires a controller. The engine's configured tick drives playback.
func New(eng *engine.GameEngine, view View, sound SoundPlayer, sched scheduler.Scheduler, opts ...Option) *Controller {
	c := &Controller{
		engine: eng,
		view:   view,
		sound:  sound,
		sched:  sched,
		tick:   eng.GetConfig().Tick(),
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the client-safe state of the current game.
func (c *Controller) Snapshot() engine.Snapshot {
	return c.engine.Snapshot()
}

// Phase returns the current phase.
func (c *Controller) Phase() engine.Phase {
	return c.engine.GetState().Phase
}

// Tick returns the delay between playback steps.
func (c *Controller) Tick() time.Duration {
	return c.tick
}

// StartNewGame abandons whatever is in progress and starts over from the
// origin with a computer turn.
func (c *Controller) StartNewGame() {
	c.engine.StartNewGame()
	c.logger().Info("New game started")
	c.beginComputerTurn()
}

// ExtendTrail grows the trail by one random free neighbour and reports
// whether it could not grow, which wins the game.
func (c *Controller) ExtendTrail() bool {
	return c.engine.ExtendTrail()
}

// DisplayTrail plays the whole trail back one tick at a time and then asks
// the player to return to the origin. It only runs during a computer turn.
func (c *Controller) DisplayTrail() {
	state := c.engine.GetState()
	if state.Phase != engine.PhaseComputerTurn {
		c.logger().WithField("phase", state.Phase).Debug("Ignoring trail playback outside the computer turn")
		return
	}

	c.playback++
	trail := state.Trail.Clone()
	c.view.ShowMessage(fmt.Sprintf(c.engine.GetConfig().Messages.ComputerTurn, len(trail)))
	c.displayStep(state.Epoch, c.playback, trail, 0)
}

func (c *Controller) displayStep(epoch, playback int, trail engine.Trail, index int) {
	if playback != c.playback {
		return
	}
	if index >= len(trail) {
		c.schedule(epoch, 0, c.awaitOrigin)
		return
	}

	c.sound.Play(engine.CueComputerMove)
	c.view.SetCellActive(trail[index], true)
	if index > 0 {
		c.view.DrawLine(trail[index-1], trail[index])
	}
	c.schedule(epoch, c.tick, func() {
		c.displayStep(epoch, playback, trail, index+1)
	})
}

// HandleCellActivation is the single input: the player's pointer entered c.
func (c *Controller) HandleCellActivation(coord engine.Coord) engine.Outcome {
	outcome := c.engine.Activate(coord)
	state := c.engine.GetState()

	switch outcome {
	case engine.OutcomeOrigin:
		c.sound.Play(engine.CuePlayerMove)
		c.view.SetCellActive(coord, true)
		c.schedule(state.Epoch, 0, c.beginPlayerTurn)

	case engine.OutcomeMatch, engine.OutcomeComplete:
		c.sound.Play(engine.CuePlayerMove)
		c.view.SetCellActive(coord, true)
		c.view.DrawLine(state.Trail[state.Progress-2], coord)
		if outcome == engine.OutcomeComplete {
			c.schedule(state.Epoch, c.tick, c.beginComputerTurn)
		}

	case engine.OutcomeMismatch:
		c.schedule(state.Epoch, 0, c.lose)
	}

	if outcome != engine.OutcomeIgnored {
		c.logger().WithFields(logrus.Fields{
			"cell":     coord.String(),
			"outcome":  outcome,
			"progress": state.Progress,
		}).Debug("Cell activated")
	}
	return outcome
}

// ClearBoard dims every cell and removes every line. Game data is untouched.
func (c *Controller) ClearBoard() {
	for _, cell := range c.engine.Grid().Cells() {
		if c.view.IsCellActive(cell) {
			c.view.SetCellActive(cell, false)
		}
	}
	c.view.RemoveLines()
}

func (c *Controller) beginComputerTurn() {
	c.ClearBoard()
	if c.engine.BeginComputerTurn() {
		c.finish()
		return
	}
	c.logger().WithField("trail_length", len(c.engine.GetState().Trail)).Debug("Computer turn")
	c.notifyPhase()
	c.DisplayTrail()
}

func (c *Controller) awaitOrigin() {
	if c.Phase() != engine.PhaseComputerTurn {
		return
	}
	c.ClearBoard()
	c.engine.EnterAwaitOrigin()
	c.view.ShowMessage(c.engine.GetState().Message)
	c.notifyPhase()
}

func (c *Controller) beginPlayerTurn() {
	if !c.engine.EnterPlayerTurn() {
		return
	}
	c.view.ShowMessage(c.engine.GetState().Message)
	c.notifyPhase()
}

func (c *Controller) lose() {
	if c.engine.Lose() {
		c.finish()
	}
}

// finish shows the final message of a won or lost game.
func (c *Controller) finish() {
	state := c.engine.GetState()
	c.sound.Play(engine.CueGameOver)
	c.ClearBoard()
	c.view.ShowMessage(state.Message)
	c.logger().WithField("trail_length", len(state.Trail)).Info("Game over")
	c.notifyPhase()
}

// schedule runs fn after d unless a new game has started in the meantime.
func (c *Controller) schedule(epoch int, d time.Duration, fn func()) {
	c.sched.AfterFunc(d, func() {
		if current := c.engine.GetState().Epoch; current != epoch {
			c.log.WithFields(logrus.Fields{
				"scheduled_epoch": epoch,
				"current_epoch":   current,
			}).Debug("Dropping stale callback")
			return
		}
		fn()
	})
}

func (c *Controller) notifyPhase() {
	if c.onPhase != nil {
		c.onPhase(c.engine.Snapshot())
	}
}

func (c *Controller) logger() *logrus.Entry {
	state := c.engine.GetState()
	return c.log.WithFields(logrus.Fields{
		"game":  state.GameID,
		"phase": state.Phase,
	})
}
