package client

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/wricardo/trailgame/game/board"
	"github.com/wricardo/trailgame/game/engine"
	"github.com/wricardo/trailgame/game/service"
)

// Mirror rebuilds a session's board from its event stream. It is safe for
// concurrent use: Apply runs on the stream goroutine while a UI reads View.
type Mirror struct {
	mu      sync.RWMutex
	rows    int
	cols    int
	origin  engine.Coord
	active  map[engine.Coord]bool
	lines   []board.Line
	message string
	phase   engine.Phase
	state   *engine.Snapshot
	lastErr string
	cues    []engine.Cue
}

// View is a point-in-time copy of a Mirror.
type View struct {
	Rows    int
	Cols    int
	Origin  engine.Coord
	Active  []engine.Coord
	Lines   []board.Line
	Message string
	Phase   engine.Phase
	State   *engine.Snapshot
	Error   string
}

// IsActive reports whether c is lit in the view.
func (v View) IsActive(c engine.Coord) bool {
	for _, a := range v.Active {
		if a == c {
			return true
		}
	}
	return false
}

// NewMirror creates an empty mirror. It is sized by the first sync frame.
func NewMirror() *Mirror {
	return &Mirror{active: make(map[engine.Coord]bool)}
}

// Apply folds one envelope into the mirror.
func (m *Mirror) Apply(env Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch env.Event {
	case "sync":
		var snap board.Snapshot
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			return fmt.Errorf("decode sync: %w", err)
		}
		m.rows, m.cols, m.origin = snap.Rows, snap.Cols, snap.Origin
		m.active = make(map[engine.Coord]bool, len(snap.Active))
		for _, c := range snap.Active {
			m.active[c] = true
		}
		m.lines = append([]board.Line(nil), snap.Lines...)
		m.message = snap.Message

	case service.EventCell:
		var change board.CellChange
		if err := json.Unmarshal(env.Data, &change); err != nil {
			return fmt.Errorf("decode cell: %w", err)
		}
		c := engine.Coord{Row: change.Row, Col: change.Col}
		if change.Active {
			m.active[c] = true
		} else {
			delete(m.active, c)
		}

	case service.EventLine:
		var line board.Line
		if err := json.Unmarshal(env.Data, &line); err != nil {
			return fmt.Errorf("decode line: %w", err)
		}
		m.lines = append(m.lines, line)

	case service.EventClearLines:
		m.lines = nil

	case service.EventMessage:
		var msg board.MessageChange
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		m.message = msg.Text

	case service.EventSound:
		var sound service.SoundData
		if err := json.Unmarshal(env.Data, &sound); err != nil {
			return fmt.Errorf("decode sound: %w", err)
		}
		m.cues = append(m.cues, sound.Cue)

	case service.EventPhase:
		var snap engine.Snapshot
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			return fmt.Errorf("decode phase: %w", err)
		}
		m.phase = snap.Phase
		m.state = &snap
		if m.rows == 0 {
			m.rows, m.cols, m.origin = snap.Rows, snap.Cols, snap.Origin
		}

	case "error":
		var text string
		if err := json.Unmarshal(env.Data, &text); err != nil {
			return fmt.Errorf("decode error: %w", err)
		}
		m.lastErr = text

	default:
		return fmt.Errorf("unknown event %q", env.Event)
	}
	return nil
}

// View returns a copy of the mirrored board. Active cells are sorted by
// row, then column.
func (m *Mirror) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make([]engine.Coord, 0, len(m.active))
	for c := range m.active {
		active = append(active, c)
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].Row != active[j].Row {
			return active[i].Row < active[j].Row
		}
		return active[i].Col < active[j].Col
	})

	var state *engine.Snapshot
	if m.state != nil {
		s := *m.state
		state = &s
	}

	return View{
		Rows:    m.rows,
		Cols:    m.cols,
		Origin:  m.origin,
		Active:  active,
		Lines:   append([]board.Line(nil), m.lines...),
		Message: m.message,
		Phase:   m.phase,
		State:   state,
		Error:   m.lastErr,
	}
}

// TakeCues returns and forgets the audio cues received since the last call.
func (m *Mirror) TakeCues() []engine.Cue {
	m.mu.Lock()
	defer m.mu.Unlock()
	cues := m.cues
	m.cues = nil
	return cues
}
