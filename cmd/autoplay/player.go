package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/trailgame/game/board"
	"github.com/wricardo/trailgame/game/engine"
	"github.com/wricardo/trailgame/game/service"
	"github.com/wricardo/trailgame/transport/client"
)

// Result is the outcome of one played game.
type Result struct {
	GameID      string `json:"game_id"`
	Victory     bool   `json:"victory"`
	TrailLength int    `json:"trail_length"`
	Rounds      int    `json:"rounds"`
	Message     string `json:"message"`
}

// Summary aggregates every game of a run.
type Summary struct {
	SessionID string   `json:"session_id"`
	Wins      int      `json:"wins"`
	Losses    int      `json:"losses"`
	Results   []Result `json:"results"`
}

// Options controls a run.
type Options struct {
	SessionID string
	ConfigID  string
	Games     int
	// Step is the pause between two entered cells.
	Step time.Duration
	// Timeout bounds a single game.
	Timeout time.Duration
}

// player memorizes the trail from playback events and retraces it.
type player struct {
	gameID string
	phase  engine.Phase
	trail  []engine.Coord
	log    *logrus.Entry
}

// observe folds one event into the player. It returns the cells to enter
// next, or a result once the game is over.
func (p *player) observe(env client.Envelope) ([]engine.Coord, *Result, error) {
	switch env.Event {
	case service.EventPhase:
		var snap engine.Snapshot
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			return nil, nil, fmt.Errorf("decode phase: %w", err)
		}

		if p.gameID == "" {
			// Wait for the start of a game we have seen from the beginning.
			// A board with no room to grow is won before the first round.
			started := snap.Phase == engine.PhaseComputerTurn && snap.Round == 1
			wonAtOnce := snap.Phase == engine.PhaseWin && snap.Round == 0
			if !started && !wonAtOnce {
				return nil, nil, nil
			}
			p.gameID = env.GameID
		}
		if env.GameID != p.gameID {
			return nil, nil, nil
		}

		p.phase = snap.Phase
		switch snap.Phase {
		case engine.PhaseComputerTurn:
			p.trail = p.trail[:0]
		case engine.PhaseAwaitOrigin:
			return []engine.Coord{snap.Origin}, nil, nil
		case engine.PhasePlayerTurn:
			if len(p.trail) < 2 {
				return nil, nil, fmt.Errorf("player turn with %d recorded cells", len(p.trail))
			}
			return append([]engine.Coord(nil), p.trail[1:]...), nil, nil
		case engine.PhaseWin, engine.PhaseLose:
			p.gameID = ""
			return nil, &Result{
				GameID:      env.GameID,
				Victory:     snap.Victory,
				TrailLength: snap.TrailLength,
				Rounds:      snap.Round,
				Message:     snap.Message,
			}, nil
		}

	case service.EventCell:
		if env.GameID != p.gameID || p.phase != engine.PhaseComputerTurn {
			return nil, nil, nil
		}
		var change board.CellChange
		if err := json.Unmarshal(env.Data, &change); err != nil {
			return nil, nil, fmt.Errorf("decode cell: %w", err)
		}
		if !change.Active {
			return nil, nil, nil
		}
		c := engine.Coord{Row: change.Row, Col: change.Col}
		// Playback always starts at the origin; seeing it again means a redraw.
		if len(p.trail) > 0 && c == p.trail[0] {
			p.trail = p.trail[:0]
		}
		p.trail = append(p.trail, c)

	case "error":
		var text string
		json.Unmarshal(env.Data, &text)
		p.log.WithField("error", text).Warn("Server rejected an action")
	}
	return nil, nil, nil
}

// run plays opts.Games games on one session and reports the results.
func run(ctx context.Context, c *client.Client, opts Options, log *logrus.Entry) (*Summary, error) {
	if opts.Games <= 0 {
		return nil, fmt.Errorf("games must be positive, got %d", opts.Games)
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		info, err := c.CreateSession(ctx, opts.ConfigID)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		sessionID = info.ID
		log.WithFields(logrus.Fields{"session": sessionID, "config": info.ConfigName}).Info("Created session")
	}

	events := make(chan client.Envelope, 1024)
	stop := make(chan struct{})
	conn, err := c.Connect(ctx, sessionID, func(env client.Envelope) {
		select {
		case events <- env:
		case <-stop:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()
	defer close(stop)

	// Events only reach us once the server has sent the sync frame.
	if err := awaitSync(ctx, conn, events, opts.Timeout); err != nil {
		return nil, err
	}

	summary := &Summary{SessionID: sessionID}
	p := &player{log: log.WithField("session", sessionID)}

	for len(summary.Results) < opts.Games {
		// The game in progress may have started before we connected.
		if err := conn.NewGame(); err != nil {
			return summary, fmt.Errorf("new game: %w", err)
		}

		result, err := playOne(ctx, conn, p, events, opts)
		if err != nil {
			return summary, err
		}

		summary.Results = append(summary.Results, *result)
		if result.Victory {
			summary.Wins++
		} else {
			summary.Losses++
		}
		log.WithFields(logrus.Fields{
			"game":         len(summary.Results),
			"victory":      result.Victory,
			"trail_length": result.TrailLength,
		}).Info(result.Message)
	}
	return summary, nil
}

func awaitSync(ctx context.Context, conn *client.Conn, events <-chan client.Envelope, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("no sync frame within %v", timeout)
		case <-conn.Done():
			return fmt.Errorf("connection closed: %w", conn.Err())
		case env := <-events:
			switch env.Event {
			case "sync":
				return nil
			case "error":
				var text string
				json.Unmarshal(env.Data, &text)
				return fmt.Errorf("sync failed: %s", text)
			}
		}
	}
}

func playOne(ctx context.Context, conn *client.Conn, p *player, events <-chan client.Envelope, opts Options) (*Result, error) {
	timeout := time.NewTimer(opts.Timeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout.C:
			return nil, fmt.Errorf("game did not finish within %v", opts.Timeout)
		case <-conn.Done():
			return nil, fmt.Errorf("connection closed: %w", conn.Err())
		case env := <-events:
			cells, result, err := p.observe(env)
			if err != nil {
				return nil, err
			}
			if result != nil {
				return result, nil
			}
			for i, cell := range cells {
				if i > 0 && opts.Step > 0 {
					time.Sleep(opts.Step)
				}
				if err := conn.EnterCell(cell); err != nil {
					return nil, fmt.Errorf("enter %s: %w", cell, err)
				}
			}
		}
	}
}
