package engine

import "testing"

func TestCountBoardStones(t *testing.T) {
	g := NewGrid(3)
	g.SetStone(at(1, 0), Earth)
	g.SetStone(at(2, 0), Earth)
	g.SetStone(at(0, 1), Void)

	counts := CountBoardStones(g)
	if counts[Earth] != 2 || counts[Void] != 1 || counts[Fire] != 0 {
		t.Errorf("Unexpected counts %+v", counts)
	}
	if len(counts) != len(StoneTypes) {
		t.Errorf("Expected every stone type to be reported, got %d", len(counts))
	}
}

func TestAnalyzeTurnPressure(t *testing.T) {
	tests := []struct {
		name  string
		state GameState
		want  string
	}{
		{"over", GameState{GameOver: true, TurnLimit: 10}, "OVER: Game has ended"},
		{"no limit", GameState{Turn: 99}, "SAFE: No turn limit"},
		{"last turn", GameState{Turn: 10, TurnLimit: 10}, "CRITICAL: Last turn before the limit!"},
		{"few left", GameState{Turn: 8, TurnLimit: 10}, "DANGER: Only a few turns left"},
		{"approaching", GameState{Turn: 37, TurnLimit: 50}, "CAUTION: Turn limit approaching"},
		{"plenty", GameState{Turn: 1, TurnLimit: 50}, "SAFE: Plenty of turns left"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnalyzeTurnPressure(&tt.state); got != tt.want {
				t.Errorf("AnalyzeTurnPressure() = %q, want %q", got, tt.want)
			}
		})
	}
}
