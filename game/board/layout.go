package board

import (
	"math"

	"github.com/wricardo/trailgame/game/engine"
)

// Layout maps grid cells onto a Width×Height drawing surface. Each cell is
// drawn as a circle centred in its slot.
type Layout struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Rows   int `json:"rows"`
	Cols   int `json:"cols"`
}

// NewLayout builds the layout of grid on a width×height surface.
func NewLayout(width, height int, grid engine.Grid) Layout {
	return Layout{Width: width, Height: height, Rows: grid.Rows, Cols: grid.Cols}
}

// CellSize returns the unrounded width and height of one cell slot.
func (l Layout) CellSize() (float64, float64) {
	return float64(l.Width) / float64(l.Cols), float64(l.Height) / float64(l.Rows)
}

// Centre returns the pixel centre of c.
func (l Layout) Centre(c engine.Coord) (int, int) {
	cw, ch := l.CellSize()
	return round((float64(c.Col) + 0.5) * cw), round((float64(c.Row) + 0.5) * ch)
}

// Radius returns the circle radius shared by every cell.
func (l Layout) Radius() int {
	cw, ch := l.CellSize()
	return round(math.Min(cw, ch) * 0.3)
}

// HitTest returns the cell whose circle contains the point (x, y).
func (l Layout) HitTest(x, y float64) (engine.Coord, bool) {
	if l.Rows <= 0 || l.Cols <= 0 || x < 0 || y < 0 {
		return engine.Coord{}, false
	}
	cw, ch := l.CellSize()
	c := engine.Coord{Row: int(y / ch), Col: int(x / cw)}
	if c.Row >= l.Rows || c.Col >= l.Cols {
		return engine.Coord{}, false
	}

	cx, cy := l.Centre(c)
	dx, dy := x-float64(cx), y-float64(cy)
	r := float64(l.Radius())
	if dx*dx+dy*dy > r*r {
		return engine.Coord{}, false
	}
	return c, true
}

// round rounds half away from zero for the non-negative values used here.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
