package engine

import "github.com/wricardo/hexstones/game/hexmath"

// IsWindActive reports whether the hex at c has no Void neighbor. It is only
// meaningful for hexes holding Wind.
func (g *Grid) IsWindActive(c hexmath.Coord) bool {
	return !g.IsNullified(c)
}

// isWindSource is an active Wind stone or a water stone chain-mimicking Wind.
func (g *Grid) isWindSource(c hexmath.Coord) bool {
	switch g.Stone(c) {
	case Wind:
		return g.IsWindActive(c)
	case Water:
		return g.IsChainMimicking(Wind, c)
	}
	return false
}

// IsWindZone reports whether c is a wind source or touches one.
func (g *Grid) IsWindZone(c hexmath.Coord) bool {
	if g.isWindSource(c) {
		return true
	}
	for _, nb := range hexmath.Neighbors(c) {
		if g.isWindSource(nb) {
			return true
		}
	}
	return false
}

// IntrinsicCost is the cost of entering c ignoring wind-zone transitions.
func (g *Grid) IntrinsicCost(c hexmath.Coord) Cost {
	h, ok := g.hexes[c]
	if !ok || !h.Revealed {
		return Impassable
	}
	if h.Stone != Water {
		return h.Stone.BaseCost()
	}

	// Void blocks mimicry but not water's own cost.
	if g.IsNullified(c) {
		return Water.BaseCost()
	}
	if g.HasAdjacentStoneType(c, Earth) || g.IsChainMimicking(Earth, c) {
		return Impassable
	}
	for _, nb := range hexmath.Neighbors(c) {
		if g.Stone(nb) == Wind && g.IsWindActive(nb) {
			return Wind.BaseCost()
		}
	}
	if g.IsChainMimicking(Wind, c) {
		return Wind.BaseCost()
	}
	if g.HasAdjacentStoneType(c, Fire) || g.IsChainMimicking(Fire, c) {
		return Impassable
	}
	return Water.BaseCost()
}

// MovementCostFrom is the cost of stepping from one hex to another. Moving
// within a wind zone is free and crossing its edge costs exactly 1.
func (g *Grid) MovementCostFrom(from, to hexmath.Coord) Cost {
	fromWind := g.IsWindZone(from)
	toWind := g.IsWindZone(to)
	switch {
	case fromWind && toWind:
		return 0
	case fromWind != toWind:
		return 1
	}
	return g.IntrinsicCost(to)
}
