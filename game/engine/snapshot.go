package engine

import (
	"maps"
	"slices"

	"github.com/wricardo/hexstones/game/hexmath"
)

// Clone returns a deep copy of the grid, dirty set included.
func (g *Grid) Clone() *Grid {
	if g == nil {
		return nil
	}
	out := &Grid{
		radius: g.radius,
		player: g.player,
		hexes:  make(map[hexmath.Coord]*Hex, len(g.hexes)),
		dirty:  maps.Clone(g.dirty),
	}
	for c, h := range g.hexes {
		cp := *h
		out.hexes[c] = &cp
	}
	if out.dirty == nil {
		out.dirty = make(map[hexmath.Coord]struct{})
	}
	return out
}

// Clone returns an inventory that shares no maps with inv.
func (inv Inventory) Clone() Inventory {
	return Inventory{
		Counts:   maps.Clone(inv.Counts),
		Capacity: maps.Clone(inv.Capacity),
	}
}

// Clone returns a copy of the chain reaction.
func (c *ChainReaction) Clone() *ChainReaction {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Water = slices.Clone(c.Water)
	return &cp
}

// Clone returns a deep copy of the state. Callers outside the engine's owner
// read clones, never the live state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Grid = s.Grid.Clone()
	cp.Inventory = s.Inventory.Clone()
	cp.PendingChain = s.PendingChain.Clone()
	cp.MoveHistory = slices.Clone(s.MoveHistory)
	cp.CurrentMoves = slices.Clone(s.CurrentMoves)
	if s.MegaTiles != nil {
		cp.MegaTiles = make([]*MegaTile, len(s.MegaTiles))
		for i, m := range s.MegaTiles {
			tile := *m
			cp.MegaTiles[i] = &tile
		}
	}
	return &cp
}

// Snapshot returns a deep copy of the current state.
func (e *GameEngine) Snapshot() *GameState {
	return e.state.Clone()
}
