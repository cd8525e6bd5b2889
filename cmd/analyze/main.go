// Command analyze prints quick, human-readable heuristics about configuration
// files in the project's configs directory. For each board it simulates many
// perfectly traced games and summarizes how long the trail grows before it
// runs out of room, and how much playback a flawless player sits through.
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/wricardo/trailgame/game/engine"
)

// DefaultGames is the number of simulated games per config.
const DefaultGames = 500

// Analysis summarizes the simulated games of one config.
type Analysis struct {
	Name       string
	Rows, Cols int
	Games      int
	MinLength  int
	MaxLength  int
	MeanLength float64
	// Fill is the mean share of the grid covered by a finished trail.
	Fill float64
	// Playback is the mean total playback time of a flawless game.
	Playback time.Duration
	// Histogram counts games by final trail length.
	Histogram map[int]int
}

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}

	for _, configFile := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(configFile))
		analysis, err := analyzeConfig(configFile, DefaultGames, time.Now().UnixNano())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analysis)
	}
}

// analyzeConfig loads path and simulates games flawless games with seed.
func analyzeConfig(path string, games int, seed int64) (*Analysis, error) {
	config, err := engine.LoadGameConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return simulate(config, games, rand.New(rand.NewSource(seed)))
}

// simulate plays games where the player never makes a mistake, so every game
// ends in a win once the trail cannot grow.
func simulate(config *engine.GameConfig, games int, rng *rand.Rand) (*Analysis, error) {
	if games <= 0 {
		return nil, fmt.Errorf("games must be positive, got %d", games)
	}

	eng, err := engine.NewEngine(config, rng)
	if err != nil {
		return nil, err
	}
	grid := eng.Grid()

	a := &Analysis{
		Name:      config.Name,
		Rows:      grid.Rows,
		Cols:      grid.Cols,
		Games:     games,
		MinLength: grid.Size() + 1,
		Histogram: make(map[int]int),
	}

	var totalLength int
	var totalPlayback time.Duration
	for i := 0; i < games; i++ {
		eng.StartNewGame()
		for !eng.BeginComputerTurn() {
			// Each round replays the whole trail, one tick per cell.
			totalPlayback += time.Duration(len(eng.GetState().Trail)) * config.Tick()
		}

		length := len(eng.GetState().Trail)
		totalLength += length
		a.Histogram[length]++
		if length < a.MinLength {
			a.MinLength = length
		}
		if length > a.MaxLength {
			a.MaxLength = length
		}
	}

	a.MeanLength = float64(totalLength) / float64(games)
	a.Fill = a.MeanLength / float64(grid.Size())
	a.Playback = totalPlayback / time.Duration(games)
	return a, nil
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid: %d x %d (%d cells)\n", a.Rows, a.Cols, a.Rows*a.Cols)
	fmt.Fprintf(w, "Simulated games: %d\n", a.Games)
	fmt.Fprintf(w, "Final trail length: min %d, mean %.1f, max %d\n", a.MinLength, a.MeanLength, a.MaxLength)
	fmt.Fprintf(w, "Mean grid fill: %.0f%%\n", a.Fill*100)
	fmt.Fprintf(w, "Mean playback of a flawless game: %v\n", a.Playback.Round(time.Second))

	if a.MinLength <= 2 {
		fmt.Fprintf(w, "⚠️  WARNING: some games are won after a single round\n")
	} else {
		fmt.Fprintf(w, "✅ Every game lasts at least %d rounds\n", a.MinLength-1)
	}
}
