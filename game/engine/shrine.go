package engine

import (
	"fmt"
	"sort"

	"github.com/wricardo/hexstones/game/hexmath"
)

const (
	// MegaTileRadius is the radius of every mega-tile around its shrine.
	MegaTileRadius = 2

	// megaTileGap is the minimum number of hexes between two mega-tile edges.
	megaTileGap = 1

	// megaTileSearch is how many rings past the minimum spacing are searched.
	megaTileSearch = 4

	proximityWeight  = 2.0
	centerPreference = 0.5
)

// shrineSymbols decorate discovery messages.
var shrineSymbols = map[StoneType]string{
	Earth: "🏔️",
	Water: "🌊",
	Fire:  "🔥",
	Wind:  "💨",
	Void:  "✨",
}

// MegaTile is a radius-2 patch of the board with a shrine at its center.
// Ending a turn on a discovered shrine awards stones of the tile's type.
type MegaTile struct {
	Center            hexmath.Coord `json:"center"`
	Type              StoneType     `json:"type"`
	Revealed          bool          `json:"revealed"`
	LastActivatedTurn int           `json:"last_activated_turn"`
}

// Reward is the number of stones a shrine of this tile awards.
func (m *MegaTile) Reward() int {
	return m.Type.Rank()
}

// Contains reports whether c lies on the mega-tile.
func (m *MegaTile) Contains(c hexmath.Coord) bool {
	return hexmath.Distance(m.Center, c) <= MegaTileRadius
}

// Hexes returns every coordinate of the mega-tile.
func (m *MegaTile) Hexes() []hexmath.Coord {
	return hexmath.HexesInRange(m.Center, MegaTileRadius)
}

// PlaceMegaTiles lays out perType tiles of every stone type on a grid of the
// given radius. The first tile sits on the origin and each later one takes the
// best scoring free spot near the tiles already placed. Placement stops early
// when no spot fits.
func PlaceMegaTiles(gridRadius, perType int) []*MegaTile {
	total := len(StoneTypes) * perType
	if total == 0 {
		return nil
	}

	var placed []*MegaTile
	origin := hexmath.Coord{}
	if canPlaceMegaTile(origin, gridRadius, placed) {
		placed = append(placed, &MegaTile{Center: origin, Type: StoneTypes[0], LastActivatedTurn: -1})
	}

	typeIndex := 1
	for i := 1; i < total; i++ {
		pos, ok := bestMegaTilePosition(gridRadius, placed)
		if !ok {
			break
		}
		placed = append(placed, &MegaTile{
			Center:            pos,
			Type:              StoneTypes[typeIndex%len(StoneTypes)],
			LastActivatedTurn: -1,
		})
		typeIndex++
	}
	return placed
}

func canPlaceMegaTile(c hexmath.Coord, gridRadius int, placed []*MegaTile) bool {
	limit := gridRadius - MegaTileRadius
	if abs(c.Q) > limit || abs(c.R) > limit || abs(c.Q+c.R) > limit {
		return false
	}
	required := MegaTileRadius*2 + megaTileGap
	for _, m := range placed {
		if hexmath.Distance(c, m.Center) < required {
			return false
		}
	}
	return true
}

func bestMegaTilePosition(gridRadius int, placed []*MegaTile) (hexmath.Coord, bool) {
	type candidate struct {
		pos   hexmath.Coord
		score float64
	}
	var candidates []candidate

	minDist := MegaTileRadius*2 + megaTileGap + 1
	maxDist := minDist + megaTileSearch
	for _, m := range placed {
		for d := minDist; d <= maxDist; d++ {
			for _, pos := range hexmath.HexRing(m.Center, d) {
				if canPlaceMegaTile(pos, gridRadius, placed) {
					candidates = append(candidates, candidate{pos, proximityScore(pos, gridRadius, placed)})
				}
			}
		}
	}
	if len(candidates) == 0 {
		return hexmath.Coord{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return candidates[0].pos, true
}

func proximityScore(pos hexmath.Coord, gridRadius int, placed []*MegaTile) float64 {
	score := 0.0
	for _, m := range placed {
		if d := hexmath.Distance(pos, m.Center); d > 0 {
			score += proximityWeight / float64(d)
		}
	}
	if hexmath.Distance(pos, hexmath.Coord{}) < gridRadius-MegaTileRadius {
		score += centerPreference
	}
	return score
}

// MegaTileAt returns the mega-tile covering c.
func (e *GameEngine) MegaTileAt(c hexmath.Coord) (*MegaTile, bool) {
	for _, m := range e.state.MegaTiles {
		if m.Contains(c) {
			return m, true
		}
	}
	return nil, false
}

// discoverMegaTile reveals the mega-tile under c the first time the player
// steps on it.
func (e *GameEngine) discoverMegaTile(c hexmath.Coord) bool {
	m, ok := e.MegaTileAt(c)
	if !ok || m.Revealed {
		return false
	}
	m.Revealed = true
	for _, h := range m.Hexes() {
		e.state.Grid.MarkDirty(h)
	}
	e.emit(Event{
		Type:    EventMegaTileDiscovered,
		Coord:   m.Center,
		Stone:   m.Type,
		Message: fmt.Sprintf("Discovered %s Tile with a %s Shrine in its center!", m.Type.Title(), shrineSymbols[m.Type]),
	})
	return true
}

// activateShrine awards stones when the player ends a turn on a discovered
// shrine center. Each shrine activates at most once per turn. The returned
// message is empty when no shrine was under the player.
func (e *GameEngine) activateShrine() (bool, string) {
	player := e.state.Grid.Player()
	m, ok := e.MegaTileAt(player)
	if !ok || !m.Revealed || m.Center != player || m.LastActivatedTurn == e.state.Turn {
		return false, ""
	}
	m.LastActivatedTurn = e.state.Turn

	gained := e.state.Inventory.Add(m.Type, m.Reward())
	if gained == 0 {
		return false, fmt.Sprintf("Shrine activated, but your %s stone capacity is full!", m.Type)
	}
	plural := "s"
	if gained == 1 {
		plural = ""
	}
	msg := fmt.Sprintf("Shrine activated! Gained %d %s stone%s.", gained, m.Type, plural)
	e.emit(Event{Type: EventShrineActivated, Coord: m.Center, Stone: m.Type, Message: msg})
	return true, msg
}

// RevealMegaTiles marks every mega-tile discovered. It is a debugging aid.
func (e *GameEngine) RevealMegaTiles() int {
	for _, m := range e.state.MegaTiles {
		m.Revealed = true
		for _, h := range m.Hexes() {
			e.state.Grid.MarkDirty(h)
		}
	}
	return len(e.state.MegaTiles)
}
