package engine

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/wricardo/hexstones/game/hexmath"
)

// Grid owns every hex of the board and the player position. Hexes are created
// once for the whole radius and never removed; only their fields change.
type Grid struct {
	radius int
	hexes  map[hexmath.Coord]*Hex
	player hexmath.Coord
	dirty  map[hexmath.Coord]struct{}
}

// NewGrid creates a hexagon-shaped grid of the given radius centered on the
// origin. Every hex starts hidden and empty.
func NewGrid(radius int) *Grid {
	g := &Grid{
		radius: radius,
		hexes:  make(map[hexmath.Coord]*Hex, 3*radius*(radius+1)+1),
		dirty:  make(map[hexmath.Coord]struct{}),
	}
	for _, c := range hexmath.HexesInRange(hexmath.Coord{}, radius) {
		g.hexes[c] = &Hex{Q: c.Q, R: c.R}
	}
	return g
}

// Radius returns the grid radius.
func (g *Grid) Radius() int {
	return g.radius
}

// Len returns the number of hexes on the grid.
func (g *Grid) Len() int {
	return len(g.hexes)
}

// Hex returns the hex at c, if it exists.
func (g *Grid) Hex(c hexmath.Coord) (*Hex, bool) {
	h, ok := g.hexes[c]
	return h, ok
}

// Stone returns the stone at c, or None for empty or missing hexes.
func (g *Grid) Stone(c hexmath.Coord) StoneType {
	if h, ok := g.hexes[c]; ok {
		return h.Stone
	}
	return None
}

// IsValidHex reports whether c exists and has been revealed.
func (g *Grid) IsValidHex(c hexmath.Coord) bool {
	h, ok := g.hexes[c]
	return ok && h.Revealed
}

// SetStone writes t at c without running interactions. It returns false when
// the hex does not exist.
func (g *Grid) SetStone(c hexmath.Coord, t StoneType) bool {
	h, ok := g.hexes[c]
	if !ok {
		return false
	}
	h.Stone = t
	g.MarkDirty(c)
	return true
}

// Reveal marks a single hex revealed. It returns true if the hex was hidden.
func (g *Grid) Reveal(c hexmath.Coord) bool {
	h, ok := g.hexes[c]
	if !ok || h.Revealed {
		return false
	}
	h.Revealed = true
	g.dirty[c] = struct{}{}
	return true
}

// RevealAdjacent reveals every neighbor of c.
func (g *Grid) RevealAdjacent(c hexmath.Coord) int {
	n := 0
	for _, nb := range hexmath.Neighbors(c) {
		if g.Reveal(nb) {
			n++
		}
	}
	return n
}

// RevealBox reveals every hex with |q| < size and |r| < size.
func (g *Grid) RevealBox(size int) int {
	n := 0
	for c := range g.hexes {
		if abs(c.Q) < size && abs(c.R) < size && g.Reveal(c) {
			n++
		}
	}
	return n
}

// RevealAll reveals the whole board.
func (g *Grid) RevealAll() int {
	n := 0
	for c := range g.hexes {
		if g.Reveal(c) {
			n++
		}
	}
	return n
}

// Player returns the player position.
func (g *Grid) Player() hexmath.Coord {
	return g.player
}

// SetPlayer moves the player marker. Callers are responsible for cost checks.
func (g *Grid) SetPlayer(c hexmath.Coord) {
	g.MarkDirty(g.player)
	g.player = c
	g.MarkDirty(c)
}

// MarkDirty records c and its six neighbors as needing a redraw.
func (g *Grid) MarkDirty(c hexmath.Coord) {
	g.dirty[c] = struct{}{}
	for _, nb := range hexmath.Neighbors(c) {
		g.dirty[nb] = struct{}{}
	}
}

// DrainDirty returns the dirty coordinates in (q, r) order and clears the set.
func (g *Grid) DrainDirty() []hexmath.Coord {
	out := make([]hexmath.Coord, 0, len(g.dirty))
	for c := range g.dirty {
		out = append(out, c)
	}
	sortCoords(out)
	clear(g.dirty)
	return out
}

// Coords returns every coordinate on the grid in (q, r) order.
func (g *Grid) Coords() []hexmath.Coord {
	out := make([]hexmath.Coord, 0, len(g.hexes))
	for c := range g.hexes {
		out = append(out, c)
	}
	sortCoords(out)
	return out
}

// CountStones counts stones of type t on the board.
func (g *Grid) CountStones(t StoneType) int {
	n := 0
	for _, h := range g.hexes {
		if h.Stone == t {
			n++
		}
	}
	return n
}

// CountRevealed counts revealed hexes.
func (g *Grid) CountRevealed() int {
	n := 0
	for _, h := range g.hexes {
		if h.Revealed {
			n++
		}
	}
	return n
}

type gridJSON struct {
	Radius int           `json:"radius"`
	Player hexmath.Coord `json:"player"`
	Hexes  []Hex         `json:"hexes"`
}

// MarshalJSON writes the grid as a flat list of hexes in (q, r) order.
func (g *Grid) MarshalJSON() ([]byte, error) {
	out := gridJSON{Radius: g.radius, Player: g.player, Hexes: make([]Hex, 0, len(g.hexes))}
	for _, c := range g.Coords() {
		out.Hexes = append(out.Hexes, *g.hexes[c])
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the grid from MarshalJSON output.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var in gridJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	fresh := NewGrid(in.Radius)
	for _, h := range in.Hexes {
		c := hexmath.Coord{Q: h.Q, R: h.R}
		dst, ok := fresh.hexes[c]
		if !ok {
			return fmt.Errorf("hex %s is outside grid radius %d", c, in.Radius)
		}
		*dst = h
	}
	fresh.player = in.Player
	*g = *fresh
	return nil
}

func sortCoords(cs []hexmath.Coord) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Q != cs[j].Q {
			return cs[i].Q < cs[j].Q
		}
		return cs[i].R < cs[j].R
	})
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
