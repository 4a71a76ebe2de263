package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wricardo/hexstones/game/engine"
)

func TestTurnsToWalk(t *testing.T) {
	tests := []struct {
		distance, ap, expected int
	}{
		{0, 5, 0},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{12, 4, 3},
	}

	for _, test := range tests {
		if got := turnsToWalk(test.distance, test.ap); got != test.expected {
			t.Errorf("turnsToWalk(%d, %d) = %d, expected %d", test.distance, test.ap, got, test.expected)
		}
	}
}

func TestAnalyzeConfig(t *testing.T) {
	config := engine.DefaultConfig()
	config.StartingStones = map[engine.StoneType]int{engine.Earth: 2, engine.Void: 1}

	a := analyzeConfig(config)

	if a.Hexes != 469 {
		t.Errorf("Expected 469 hexes for radius 12, got %d", a.Hexes)
	}
	if a.APBudget != config.APPerTurn*config.TurnLimit {
		t.Errorf("Unexpected AP budget %d", a.APBudget)
	}
	if a.StartingTotal != 3 {
		t.Errorf("Expected 3 starting stones, got %d", a.StartingTotal)
	}
	if len(a.Shrines) != 5 {
		t.Fatalf("Expected 5 shrines, got %d", len(a.Shrines))
	}
	if a.Shrines[0].Distance != 0 || a.Shrines[0].Type != engine.Earth {
		t.Errorf("Expected the earth shrine under the start first, got %+v", a.Shrines[0])
	}
	for i := 1; i < len(a.Shrines); i++ {
		if a.Shrines[i].Distance < a.Shrines[i-1].Distance {
			t.Errorf("Shrines not sorted by distance: %+v", a.Shrines)
		}
	}
}

func TestPrintAnalysis(t *testing.T) {
	tests := []struct {
		name      string
		turnLimit int
		want      string
	}{
		{"unlimited", 0, "Turn Limit: none"},
		{"generous", 50, "✅ All shrines are within walking range"},
		{"too tight", 1, "⚠️  WARNING: 4 shrines cannot be walked to within 1 turns!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := engine.DefaultConfig()
			config.APPerTurn = 1
			config.TurnLimit = tt.turnLimit

			var buf bytes.Buffer
			printAnalysis(&buf, config, analyzeConfig(config))
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("Expected %q in output:\n%s", tt.want, buf.String())
			}
		})
	}
}
