// Command validate provides a small CLI that validates level configuration JSON
// files in the ../configs directory (or the directory given as the first
// argument). It checks:
//   - JSON structure, with unknown fields rejected to catch typos
//   - Every rule enforced by engine.ValidateGameConfig
//   - That the requested number of shrines fits on the grid
//   - Connectivity: which shrines can be reached from the start without breaking stones
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/hexmath"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
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

	var config engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
		return result
	}

	state := engine.InitGameStateFromConfig(&config)

	wantTiles := len(engine.StoneTypes) * config.ShrinesPerType
	if len(state.MegaTiles) < wantTiles {
		result.fail("Only %d of %d mega-tiles fit on a radius %d grid", len(state.MegaTiles), wantTiles, config.GridRadius)
	}
	if config.RevealRadius > config.GridRadius {
		result.info("⚠ reveal_radius %d exceeds grid_radius %d; the whole board starts revealed", config.RevealRadius, config.GridRadius)
	}

	if result.Valid {
		result.Errors = append(result.Errors, validateConnectivity(state).Errors...)

		counts := engine.CountBoardStones(state.Grid)
		var stones []string
		for _, t := range engine.StoneTypes {
			if counts[t] > 0 {
				stones = append(stones, fmt.Sprintf("%s %d", t, counts[t]))
			}
		}

		result.info("✓ Name: %s (level %d)", config.Name, config.Level)
		result.info("✓ Grid: radius %d, %d hexes, %d revealed", config.GridRadius, state.Grid.Len(), state.Grid.CountRevealed())
		result.info("✓ Shrines: %d", len(state.MegaTiles))
		result.info("✓ AP: %d per turn, turn limit %d", config.APPerTurn, config.TurnLimit)
		if len(stones) > 0 {
			result.info("✓ Stones on board: %s", strings.Join(stones, ", "))
		}
	}

	return result
}

// validateConnectivity flood fills from the player's start over hexes that
// can be entered without a sacrifice (anything but earth and fire) and reports
// which shrine centres are reached. Unreached shrines are warnings only, since
// the player can break stones.
func validateConnectivity(state *engine.GameState) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}
	if len(state.MegaTiles) == 0 {
		return result
	}

	grid := state.Grid
	passable := func(c hexmath.Coord) bool {
		if !grid.IsValidHex(c) {
			return false
		}
		s := grid.Stone(c)
		return s != engine.Earth && s != engine.Fire
	}

	start := grid.Player()
	visited := map[hexmath.Coord]bool{start: true}
	queue := []hexmath.Coord{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, n := range hexmath.Neighbors(current) {
			if !visited[n] && passable(n) {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}

	var blocked []string
	for _, m := range state.MegaTiles {
		if !visited[m.Center] {
			blocked = append(blocked, fmt.Sprintf("%s shrine at (%s)", m.Type, m.Center))
		}
	}
	if len(blocked) > 0 {
		result.info("⚠ Connectivity: %d/%d shrines need stones broken to reach", len(blocked), len(state.MegaTiles))
		for _, b := range blocked {
			result.info("⚠ Blocked: %s", b)
		}
	} else {
		result.info("✓ Connectivity: All %d shrines reachable from the start", len(state.MegaTiles))
	}
	return result
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
