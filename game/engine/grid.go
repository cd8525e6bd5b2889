package engine

import "fmt"

// Grid is a fixed rows×cols matrix of cells with a single centre origin.
type Grid struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// NewGrid creates a grid; both dimensions must be odd so a unique centre exists.
func NewGrid(rows, cols int) (Grid, error) {
	if rows < MinGridSize || rows > MaxGridSize || cols < MinGridSize || cols > MaxGridSize {
		return Grid{}, fmt.Errorf("grid must be between %dx%d and %dx%d, got %dx%d",
			MinGridSize, MinGridSize, MaxGridSize, MaxGridSize, rows, cols)
	}
	if rows%2 == 0 || cols%2 == 0 {
		return Grid{}, fmt.Errorf("grid dimensions must be odd, got %dx%d", rows, cols)
	}
	return Grid{Rows: rows, Cols: cols}, nil
}

// Origin returns the centre cell where every trail starts.
func (g Grid) Origin() Coord {
	return Coord{Row: (g.Rows - 1) / 2, Col: (g.Cols - 1) / 2}
}

// Contains reports whether c lies within the grid bounds.
func (g Grid) Contains(c Coord) bool {
	return c.Row >= 0 && c.Row < g.Rows && c.Col >= 0 && c.Col < g.Cols
}

// Size returns the number of cells.
func (g Grid) Size() int {
	return g.Rows * g.Cols
}

// Cells lists every coordinate in row-major order.
func (g Grid) Cells() []Coord {
	cells := make([]Coord, 0, g.Size())
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			cells = append(cells, Coord{Row: row, Col: col})
		}
	}
	return cells
}

// Neighbours returns the in-bounds 4-adjacent cells of c, ordered left, right, up, down.
func (g Grid) Neighbours(c Coord) []Coord {
	candidates := [4]Coord{
		{Row: c.Row, Col: c.Col - 1},
		{Row: c.Row, Col: c.Col + 1},
		{Row: c.Row - 1, Col: c.Col},
		{Row: c.Row + 1, Col: c.Col},
	}

	neighbours := make([]Coord, 0, 4)
	for _, n := range candidates {
		if g.Contains(n) {
			neighbours = append(neighbours, n)
		}
	}
	return neighbours
}

// Adjacent reports whether a and b share an edge.
func Adjacent(a, b Coord) bool {
	dr := a.Row - b.Row
	if dr < 0 {
		dr = -dr
	}
	dc := a.Col - b.Col
	if dc < 0 {
		dc = -dc
	}
	return dr+dc == 1
}
