// Command analyze prints quick, human-readable heuristics about configuration
// files in the project's configs directory. It summarizes board size, AP budget,
// starting inventory and shrine layout, and highlights shrines that cannot be
// walked to within the turn limit even on open ground.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/hexmath"
)

// Analysis is the summary of one config.
type Analysis struct {
	Name          string
	Hexes         int
	Revealed      int
	APBudget      int // AP over the whole turn limit; 0 when unlimited
	StartingTotal int
	BoardStones   map[engine.StoneType]int
	Shrines       []ShrineReach
	Pressure      string
}

// ShrineReach is how far a shrine is from the start in moves and turns.
type ShrineReach struct {
	Center   hexmath.Coord
	Type     engine.StoneType
	Distance int
	Turns    int
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No config files found in %s\n", dir)
		os.Exit(1)
	}
	sort.Strings(files)

	for _, configFile := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(configFile))
		config, err := engine.LoadGameConfig(configFile)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, config, analyzeConfig(config))
	}
}

func analyzeConfig(config *engine.GameConfig) *Analysis {
	state := engine.InitGameStateFromConfig(config)
	a := &Analysis{
		Name:          config.Name,
		Hexes:         state.Grid.Len(),
		Revealed:      state.Grid.CountRevealed(),
		StartingTotal: state.Inventory.Total(),
		BoardStones:   engine.CountBoardStones(state.Grid),
		Pressure:      engine.AnalyzeTurnPressure(state),
	}
	if config.TurnLimit > 0 {
		a.APBudget = config.APPerTurn * config.TurnLimit
	}

	start := state.Grid.Player()
	for _, m := range state.MegaTiles {
		d := hexmath.Distance(start, m.Center)
		a.Shrines = append(a.Shrines, ShrineReach{
			Center:   m.Center,
			Type:     m.Type,
			Distance: d,
			Turns:    turnsToWalk(d, config.APPerTurn),
		})
	}
	sort.SliceStable(a.Shrines, func(i, j int) bool {
		return a.Shrines[i].Distance < a.Shrines[j].Distance
	})
	return a
}

// turnsToWalk is the number of turns needed to cover distance empty hexes at
// one AP each.
func turnsToWalk(distance, apPerTurn int) int {
	if distance == 0 {
		return 0
	}
	return (distance + apPerTurn - 1) / apPerTurn
}

func printAnalysis(w io.Writer, config *engine.GameConfig, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid Radius: %d (%d hexes, %d revealed)\n", config.GridRadius, a.Hexes, a.Revealed)
	fmt.Fprintf(w, "AP per Turn: %d\n", config.APPerTurn)
	if a.APBudget > 0 {
		fmt.Fprintf(w, "Turn Limit: %d (AP budget %d)\n", config.TurnLimit, a.APBudget)
	} else {
		fmt.Fprintf(w, "Turn Limit: none\n")
	}
	fmt.Fprintf(w, "Starting Stones: %d\n", a.StartingTotal)
	for _, t := range engine.StoneTypes {
		if n := a.BoardStones[t]; n > 0 {
			fmt.Fprintf(w, "  On board: %s %d\n", t, n)
		}
	}
	fmt.Fprintf(w, "Pressure: %s\n", a.Pressure)
	fmt.Fprintf(w, "Shrines: %d\n", len(a.Shrines))

	var unreachable []ShrineReach
	for _, s := range a.Shrines {
		fmt.Fprintf(w, "  %s shrine at (%s): %d hexes, %d turns\n", s.Type, s.Center, s.Distance, s.Turns)
		if config.TurnLimit > 0 && s.Turns > config.TurnLimit {
			unreachable = append(unreachable, s)
		}
	}

	if len(unreachable) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d shrines cannot be walked to within %d turns!\n", len(unreachable), config.TurnLimit)
		for i, s := range unreachable {
			if i < 5 {
				fmt.Fprintf(w, "   Unreachable: %s shrine at (%s)\n", s.Type, s.Center)
			}
		}
		if len(unreachable) > 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(unreachable)-5)
		}
	} else if len(a.Shrines) > 0 {
		fmt.Fprintf(w, "✅ All shrines are within walking range of the turn limit\n")
	}
}
