// Command validate provides a small CLI that validates game configuration JSON
// files in the ../configs directory (or the directory given as the first
// argument). It checks:
//   - JSON structure, grid size, tick and board bounds via the engine parser
//   - Message templates: win, lose and computer_turn take exactly one %d
//   - Board geometry: every circle is large enough to be hit with a pointer
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/trailgame/game/board"
	"github.com/wricardo/trailgame/game/engine"
)

// MinRadius is the smallest circle radius, in pixels, that is still playable.
const MinRadius = 4

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.ParseGameConfig(data)
	if err != nil {
		result.fail("Invalid config: %v", err)
		return result
	}

	// Validate messages
	templates := map[string]string{
		"computer_turn": config.Messages.ComputerTurn,
		"win":           config.Messages.Win,
		"lose":          config.Messages.Lose,
	}
	for _, key := range []string{"computer_turn", "win", "lose"} {
		if n := countVerbs(templates[key]); n != 1 {
			result.fail("messages.%s must contain exactly one %%d, found %d verbs", key, n)
		}
	}
	plain := map[string]string{
		"go_to_origin":  config.Messages.GoToOrigin,
		"start_tracing": config.Messages.StartTracing,
	}
	for _, key := range []string{"go_to_origin", "start_tracing"} {
		if n := countVerbs(plain[key]); n != 0 {
			result.fail("messages.%s is shown verbatim and must not contain format verbs", key)
		}
	}

	grid, err := engine.NewGrid(config.Rows, config.Cols)
	if err != nil {
		result.fail("Invalid grid: %v", err)
		return result
	}
	layout := board.NewLayout(config.BoardWidth, config.BoardHeight, grid)
	if layout.Radius() < MinRadius {
		result.fail("Circles are too small: radius %dpx on a %dx%d board (minimum %dpx)",
			layout.Radius(), config.BoardWidth, config.BoardHeight, MinRadius)
	}

	// Add informational data
	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d (%d cells)", grid.Rows, grid.Cols, grid.Size()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Origin: %s", grid.Origin()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Tick: %v", config.Tick()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Board: %dx%d, radius %dpx", config.BoardWidth, config.BoardHeight, layout.Radius()))
	}

	return result
}

// countVerbs counts format directives in s, treating %% as a literal.
func countVerbs(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '%' {
			i++
			continue
		}
		n++
	}
	return n
}

// main scans the config directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
