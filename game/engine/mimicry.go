package engine

import "github.com/wricardo/hexstones/game/hexmath"

// Water mimicry queries. A water stone takes on the behavior of the stones it
// touches, directly or through a chain of connected water stones. A water
// stone next to a Void stone neither mimics nor passes mimicry along.

// mimicOrder is the ranked scan used by MimicType. Water never mimics water.
var mimicOrder = []StoneType{Earth, Fire, Wind, Void}

// HasAdjacentStoneType reports whether any neighbor of c holds t.
func (g *Grid) HasAdjacentStoneType(c hexmath.Coord, t StoneType) bool {
	for _, nb := range hexmath.Neighbors(c) {
		if h, ok := g.hexes[nb]; ok && h.Stone == t {
			return true
		}
	}
	return false
}

// IsNullified reports whether the stone at c has a Void neighbor.
func (g *Grid) IsNullified(c hexmath.Coord) bool {
	return g.HasAdjacentStoneType(c, Void)
}

// IsChainMimicking reports whether the water stone at c, or any water stone
// connected to it, touches a stone of type t. Wind only counts while active.
func (g *Grid) IsChainMimicking(t StoneType, c hexmath.Coord) bool {
	start, ok := g.hexes[c]
	if !ok || start.Stone != Water || g.IsNullified(c) {
		return false
	}

	visited := map[hexmath.Coord]bool{}
	queue := []hexmath.Coord{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		if h, ok := g.hexes[cur]; !ok || !h.Revealed {
			continue
		}

		for _, nb := range hexmath.Neighbors(cur) {
			nh, ok := g.hexes[nb]
			if !ok || !nh.Revealed {
				continue
			}
			if nh.Stone == t && (t != Wind || g.IsWindActive(nb)) {
				return true
			}
			if nh.Stone == Water && !visited[nb] && !g.IsNullified(nb) {
				queue = append(queue, nb)
			}
		}
	}
	return false
}

// MimicType returns the type a water stone at c behaves like. Direct
// adjacency of any type wins over chain mimicry of any type; within each pass
// the higher rank wins.
func (g *Grid) MimicType(c hexmath.Coord) (StoneType, bool) {
	if g.IsNullified(c) {
		return None, false
	}
	for _, t := range mimicOrder {
		if g.HasAdjacentStoneType(c, t) {
			return t, true
		}
	}
	for _, t := range mimicOrder {
		if g.IsChainMimicking(t, c) {
			return t, true
		}
	}
	return None, false
}

// FindConnectedWaterStones returns the water component reachable from c.
// A water stone next to Void is included but the search does not continue
// through it.
func (g *Grid) FindConnectedWaterStones(c hexmath.Coord) []hexmath.Coord {
	var out []hexmath.Coord
	visited := map[hexmath.Coord]bool{}
	queue := []hexmath.Coord{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		h, ok := g.hexes[cur]
		if !ok || h.Stone != Water {
			continue
		}
		out = append(out, cur)
		if g.IsNullified(cur) {
			continue
		}
		for _, nb := range hexmath.Neighbors(cur) {
			if g.Stone(nb) == Water && !visited[nb] {
				queue = append(queue, nb)
			}
		}
	}
	return out
}

// FindWaterConnections lists each adjacent pair of revealed water stones once,
// skipping pairs severed by Void. Pairs are annotated with Wind or Earth when
// the chain mimics one of them, Wind first.
func (g *Grid) FindWaterConnections() []WaterConnection {
	var out []WaterConnection
	visited := map[hexmath.Coord]bool{}
	for _, c := range g.Coords() {
		h := g.hexes[c]
		if !h.Revealed || h.Stone != Water {
			continue
		}
		for _, nb := range hexmath.Neighbors(c) {
			nh, ok := g.hexes[nb]
			if !ok || !nh.Revealed || nh.Stone != Water || visited[nb] {
				continue
			}
			if g.IsNullified(c) || g.IsNullified(nb) {
				continue
			}
			conn := WaterConnection{From: c, To: nb}
			switch {
			case g.IsChainMimicking(Wind, c):
				conn.MimicType = Wind
			case g.IsChainMimicking(Earth, c):
				conn.MimicType = Earth
			}
			out = append(out, conn)
		}
		visited[c] = true
	}
	return out
}

// MarkWaterChainAreaDirty marks c and every water stone connected to it, plus
// their neighbors, for redraw.
func (g *Grid) MarkWaterChainAreaDirty(c hexmath.Coord) {
	visited := map[hexmath.Coord]bool{}
	queue := []hexmath.Coord{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		h, ok := g.hexes[cur]
		if !ok {
			continue
		}
		g.MarkDirty(cur)
		if h.Stone != Water || g.IsNullified(cur) {
			continue
		}
		for _, nb := range hexmath.Neighbors(cur) {
			if g.Stone(nb) == Water && !visited[nb] {
				queue = append(queue, nb)
			}
		}
	}
}
