package engine

// Trail is the ordered sequence of cells the player must reproduce.
type Trail []Coord

// NewTrail returns a trail holding only the origin.
func NewTrail(origin Coord) Trail {
	return Trail{origin}
}

// Last returns the most recently appended coordinate. An empty trail is a
// programming error.
func (t Trail) Last() Coord {
	if len(t) == 0 {
		panic("engine: trail is empty")
	}
	return t[len(t)-1]
}

// Contains reports whether c is already part of the trail.
func (t Trail) Contains(c Coord) bool {
	for _, tc := range t {
		if tc == c {
			return true
		}
	}
	return false
}

// Index returns the position of c in the trail, or -1.
func (t Trail) Index(c Coord) int {
	for i, tc := range t {
		if tc == c {
			return i
		}
	}
	return -1
}

// Clone returns an independent copy.
func (t Trail) Clone() Trail {
	out := make(Trail, len(t))
	copy(out, t)
	return out
}

// FreeNeighbours returns the neighbours of the trail's last cell that are in
// bounds and not yet on the trail.
func FreeNeighbours(g Grid, t Trail) []Coord {
	var free []Coord
	for _, n := range g.Neighbours(t.Last()) {
		if !t.Contains(n) {
			free = append(free, n)
		}
	}
	return free
}

// Valid reports whether t starts at the grid origin, stays in bounds, never
// repeats a cell and only steps between adjacent cells.
func (t Trail) Valid(g Grid) bool {
	if len(t) == 0 || t[0] != g.Origin() {
		return false
	}
	seen := make(map[Coord]bool, len(t))
	for i, c := range t {
		if !g.Contains(c) || seen[c] {
			return false
		}
		seen[c] = true
		if i > 0 && !Adjacent(t[i-1], c) {
			return false
		}
	}
	return true
}
