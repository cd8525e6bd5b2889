package board

import (
	"testing"

	"github.com/wricardo/trailgame/game/engine"
)

func TestLayout_CentresAndRadius(t *testing.T) {
	grid, _ := engine.NewGrid(9, 9)
	layout := NewLayout(540, 540, grid)

	tests := []struct {
		cell  engine.Coord
		wantX int
		wantY int
	}{
		{engine.Coord{Row: 0, Col: 0}, 30, 30},
		{engine.Coord{Row: 4, Col: 4}, 270, 270},
		{engine.Coord{Row: 8, Col: 1}, 90, 510},
	}

	for _, test := range tests {
		x, y := layout.Centre(test.cell)
		if x != test.wantX || y != test.wantY {
			t.Errorf("Centre(%v) = (%d,%d), want (%d,%d)", test.cell, x, y, test.wantX, test.wantY)
		}
	}

	if r := layout.Radius(); r != 18 {
		t.Errorf("Expected radius 18, got %d", r)
	}
}

func TestLayout_NonSquareRounding(t *testing.T) {
	grid, _ := engine.NewGrid(3, 7)
	layout := NewLayout(500, 200, grid)

	// cell width 71.43, height 66.67
	x, y := layout.Centre(engine.Coord{Row: 1, Col: 3})
	if x != 250 || y != 100 {
		t.Errorf("Expected (250,100), got (%d,%d)", x, y)
	}
	x, y = layout.Centre(engine.Coord{Row: 0, Col: 0})
	if x != 36 || y != 33 {
		t.Errorf("Expected (36,33), got (%d,%d)", x, y)
	}
	if r := layout.Radius(); r != 20 {
		t.Errorf("Expected radius 20, got %d", r)
	}
}

func TestLayout_HitTest(t *testing.T) {
	grid, _ := engine.NewGrid(9, 9)
	layout := NewLayout(540, 540, grid)

	tests := []struct {
		name   string
		x, y   float64
		want   engine.Coord
		wantOK bool
	}{
		{"origin centre", 270, 270, engine.Coord{Row: 4, Col: 4}, true},
		{"inside radius", 280, 260, engine.Coord{Row: 4, Col: 4}, true},
		{"slot corner outside circle", 241, 241, engine.Coord{}, false},
		{"top left", 30, 45, engine.Coord{Row: 0, Col: 0}, true},
		{"negative", -1, 10, engine.Coord{}, false},
		{"past edge", 545, 30, engine.Coord{}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := layout.HitTest(test.x, test.y)
			if ok != test.wantOK || got != test.want {
				t.Errorf("HitTest(%v,%v) = %v,%v want %v,%v", test.x, test.y, got, ok, test.want, test.wantOK)
			}
		})
	}
}
