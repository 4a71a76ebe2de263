package main

import (
	"fmt"
	"log/slog"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/hexmath"
)

// DecisionKind is what the player does next.
type DecisionKind string

const (
	DecideMove    DecisionKind = "move"
	DecideEndTurn DecisionKind = "end_turn"
	DecideStop    DecisionKind = "stop"
)

// Decision is a single step chosen by a strategy.
type Decision struct {
	Kind   DecisionKind
	To     hexmath.Coord
	Reason string
}

// ShrineStrategy discovers every mega-tile and then collects from each
// shrine once. It plans on open ground only: earth and fire are walls and
// unrevealed hexes are assumed walkable until proven otherwise.
type ShrineStrategy struct {
	visitedCells map[hexmath.Coord]int
	collected    map[hexmath.Coord]bool
	apPerTurn    int
	logger       *slog.Logger
}

func NewShrineStrategy(apPerTurn int, logger *slog.Logger) *ShrineStrategy {
	return &ShrineStrategy{
		apPerTurn:    apPerTurn,
		visitedCells: make(map[hexmath.Coord]int),
		collected:    make(map[hexmath.Coord]bool),
		logger:       logger,
	}
}

// Collected is the number of shrines the strategy has ended a turn on.
func (s *ShrineStrategy) Collected() int {
	return len(s.collected)
}

func (s *ShrineStrategy) Reset() {
	s.visitedCells = make(map[hexmath.Coord]int)
	s.collected = make(map[hexmath.Coord]bool)
}

// NextMove picks the next action for the given state. movable is the list the
// server reports for the current position.
func (s *ShrineStrategy) NextMove(state *engine.GameState, movable []engine.MovableHex) Decision {
	if state.GameOver {
		return Decision{Kind: DecideStop, Reason: "game over"}
	}
	player := state.Grid.Player()
	s.visitedCells[player]++

	for _, m := range state.MegaTiles {
		if m.Revealed && m.Center == player && !s.collected[m.Center] {
			s.collected[m.Center] = true
			return Decision{Kind: DecideEndTurn, Reason: fmt.Sprintf("collect %s shrine", m.Type)}
		}
	}

	target, ok := s.chooseTarget(state)
	if !ok {
		return Decision{Kind: DecideStop, Reason: "all shrines discovered and collected"}
	}

	affordable := make(map[hexmath.Coord]engine.MovableHex)
	for _, m := range movable {
		if m.Kind == engine.MoveAP || m.Kind == "" {
			affordable[hexmath.Coord{Q: m.Q, R: m.R}] = m
		}
	}

	if step, ok := s.findPath(state.Grid, player, target); ok {
		if _, ok := affordable[step]; ok {
			return Decision{Kind: DecideMove, To: step, Reason: fmt.Sprintf("towards (%s)", target)}
		}
		if state.AP.RegularAP < s.apPerTurn {
			return Decision{Kind: DecideEndTurn, Reason: fmt.Sprintf("need AP to step to (%s)", step)}
		}
		s.logger.Debug("Path step not movable with full AP", "step", step.String())
	}

	if step, ok := s.exploreMove(player, affordable); ok {
		return Decision{Kind: DecideMove, To: step, Reason: "explore"}
	}
	return Decision{Kind: DecideEndTurn, Reason: "no affordable move"}
}

// chooseTarget prefers the nearest undiscovered tile, then the nearest
// discovered shrine not yet collected.
func (s *ShrineStrategy) chooseTarget(state *engine.GameState) (hexmath.Coord, bool) {
	if m, _, ok := engine.FindNearestShrine(state, true); ok {
		return m.Center, true
	}
	player := state.Grid.Player()
	best, bestDist := hexmath.Coord{}, -1
	for _, m := range state.MegaTiles {
		if s.collected[m.Center] {
			continue
		}
		if d := hexmath.Distance(player, m.Center); bestDist == -1 || d < bestDist {
			best, bestDist = m.Center, d
		}
	}
	return best, bestDist != -1
}

func passable(g *engine.Grid, c hexmath.Coord) bool {
	h, ok := g.Hex(c)
	if !ok {
		return false
	}
	if !h.Revealed {
		return true
	}
	return g.IntrinsicCost(c).Finite()
}

// findPath runs a BFS from start to goal and returns the first step.
func (s *ShrineStrategy) findPath(g *engine.Grid, start, goal hexmath.Coord) (hexmath.Coord, bool) {
	if start == goal {
		return hexmath.Coord{}, false
	}
	parent := map[hexmath.Coord]hexmath.Coord{start: start}
	queue := []hexmath.Coord{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == goal {
			for parent[current] != start {
				current = parent[current]
			}
			return current, true
		}
		for _, n := range hexmath.Neighbors(current) {
			if _, seen := parent[n]; seen || !passable(g, n) {
				continue
			}
			parent[n] = current
			queue = append(queue, n)
		}
	}
	return hexmath.Coord{}, false
}

// exploreMove picks the least visited affordable neighbour.
func (s *ShrineStrategy) exploreMove(player hexmath.Coord, affordable map[hexmath.Coord]engine.MovableHex) (hexmath.Coord, bool) {
	var best hexmath.Coord
	bestVisits := -1
	for _, n := range hexmath.Neighbors(player) {
		if _, ok := affordable[n]; !ok {
			continue
		}
		if v := s.visitedCells[n]; bestVisits == -1 || v < bestVisits {
			best, bestVisits = n, v
		}
	}
	return best, bestVisits != -1
}
