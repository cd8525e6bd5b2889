// Package board models the Grid View the controller draws on: which cells
// are lit, which connecting lines are drawn and the current status message.
// Every change is published to an optional Observer so remote clients can
// mirror the board.
package board

import (
	"github.com/wricardo/trailgame/game/engine"
)

// Event names published to the Observer.
const (
	EventCell       = "cell"
	EventLine       = "line"
	EventClearLines = "clear_lines"
	EventMessage    = "message"
)

// CellChange is the payload of EventCell.
type CellChange struct {
	Row    int  `json:"row"`
	Col    int  `json:"col"`
	Active bool `json:"active"`
}

// Line connects the centres of two cells. It is purely visual.
type Line struct {
	From engine.Coord `json:"from"`
	To   engine.Coord `json:"to"`
}

// MessageChange is the payload of EventMessage.
type MessageChange struct {
	Text string `json:"text"`
}

// Observer receives every board change in the order it happened.
type Observer func(event string, data interface{})

// Snapshot is a copy of the visible board.
type Snapshot struct {
	Rows    int            `json:"rows"`
	Cols    int            `json:"cols"`
	Origin  engine.Coord   `json:"origin"`
	Active  []engine.Coord `json:"active"`
	Lines   []Line         `json:"lines"`
	Message string         `json:"message"`
}

// Board is the in-memory Grid View of one session. It is not safe for
// concurrent use; the owning session's loop serializes access.
type Board struct {
	grid     engine.Grid
	active   map[engine.Coord]bool
	lines    []Line
	message  string
	observer Observer
}

// New creates an empty board for grid.
func New(grid engine.Grid) *Board {
	return &Board{
		grid:   grid,
		active: make(map[engine.Coord]bool),
	}
}

// SetObserver installs o; nil disables publishing.
func (b *Board) SetObserver(o Observer) {
	b.observer = o
}

// Grid returns the geometry the board was created for.
func (b *Board) Grid() engine.Grid {
	return b.grid
}

// SetCellActive lights or dims a cell. Out-of-grid coordinates are ignored.
func (b *Board) SetCellActive(c engine.Coord, active bool) {
	if !b.grid.Contains(c) || b.active[c] == active {
		return
	}
	if active {
		b.active[c] = true
	} else {
		delete(b.active, c)
	}
	b.publish(EventCell, CellChange{Row: c.Row, Col: c.Col, Active: active})
}

// IsCellActive reports whether the cell is lit.
func (b *Board) IsCellActive(c engine.Coord) bool {
	return b.active[c]
}

// DrawLine adds a connector between two cell centres.
func (b *Board) DrawLine(from, to engine.Coord) {
	line := Line{From: from, To: to}
	b.lines = append(b.lines, line)
	b.publish(EventLine, line)
}

// RemoveLines erases every connector.
func (b *Board) RemoveLines() {
	if len(b.lines) == 0 {
		return
	}
	b.lines = nil
	b.publish(EventClearLines, nil)
}

// ShowMessage replaces the status text.
func (b *Board) ShowMessage(text string) {
	b.message = text
	b.publish(EventMessage, MessageChange{Text: text})
}

// Message returns the current status text.
func (b *Board) Message() string {
	return b.message
}

// ActiveCells returns the lit cells in row-major order.
func (b *Board) ActiveCells() []engine.Coord {
	cells := make([]engine.Coord, 0, len(b.active))
	for _, c := range b.grid.Cells() {
		if b.active[c] {
			cells = append(cells, c)
		}
	}
	return cells
}

// Lines returns a copy of the drawn connectors in drawing order.
func (b *Board) Lines() []Line {
	lines := make([]Line, len(b.lines))
	copy(lines, b.lines)
	return lines
}

// Snapshot returns a copy of everything visible.
func (b *Board) Snapshot() Snapshot {
	return Snapshot{
		Rows:    b.grid.Rows,
		Cols:    b.grid.Cols,
		Origin:  b.grid.Origin(),
		Active:  b.ActiveCells(),
		Lines:   b.Lines(),
		Message: b.message,
	}
}

func (b *Board) publish(event string, data interface{}) {
	if b.observer != nil {
		b.observer(event, data)
	}
}
