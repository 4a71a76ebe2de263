package engine

import "github.com/wricardo/hexstones/game/hexmath"

// CountBoardStones counts the stones of every type on the board.
func CountBoardStones(g *Grid) map[StoneType]int {
	counts := make(map[StoneType]int, len(StoneTypes))
	for _, t := range StoneTypes {
		counts[t] = g.CountStones(t)
	}
	return counts
}

// FindNearestShrine finds the closest shrine whose mega-tile is undiscovered
// if onlyUndiscovered is set, otherwise the closest of all. It returns the
// tile and its distance.
func FindNearestShrine(state *GameState, onlyUndiscovered bool) (*MegaTile, int, bool) {
	player := state.Grid.Player()
	var nearest *MegaTile
	minDistance := -1
	for _, m := range state.MegaTiles {
		if onlyUndiscovered && m.Revealed {
			continue
		}
		d := hexmath.Distance(player, m.Center)
		if minDistance == -1 || d < minDistance {
			minDistance = d
			nearest = m
		}
	}
	return nearest, minDistance, nearest != nil
}

// AnalyzeTurnPressure assesses how close the player is to the turn limit.
func AnalyzeTurnPressure(state *GameState) string {
	if state.GameOver {
		return "OVER: Game has ended"
	}
	if state.TurnLimit <= 0 {
		return "SAFE: No turn limit"
	}

	remaining := state.TurnLimit - state.Turn
	switch {
	case remaining <= 0:
		return "CRITICAL: Last turn before the limit!"
	case remaining <= 3:
		return "DANGER: Only a few turns left"
	case remaining <= state.TurnLimit/4:
		return "CAUTION: Turn limit approaching"
	}
	return "SAFE: Plenty of turns left"
}
