package engine

import (
	"fmt"
	"time"

	"github.com/wricardo/hexstones/game/hexmath"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Snapshot() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsGameOver() bool
	GetPlayerPosition() hexmath.Coord

	// Board mutation
	PlaceStone(c hexmath.Coord, t StoneType) bool
	BreakStone(c hexmath.Coord) bool

	// Player actions
	MovePlayer(c hexmath.Coord) (*MoveOutcome, error)
	SacrificeMove(c hexmath.Coord, a, b StoneType) (*MoveOutcome, error)
	PlaceFromInventory(c hexmath.Coord, t StoneType) (*ActionOutcome, error)
	BreakAdjacentStone(c hexmath.Coord) (*ActionOutcome, error)
	EndTurn() (*TurnOutcome, error)

	// Queries
	MovableHexes() []MovableHex
	TotalAvailableAP() APInfo
	MimicType(c hexmath.Coord) (StoneType, bool)
	MovementCostFrom(from, to hexmath.Coord) Cost
	WaterConnections() []WaterConnection
	HexInfo(c hexmath.Coord) (*HexInfo, bool)

	// Chain reactions
	PendingChain() *ChainReaction
	ResolveChain(now time.Time) (*ChainResult, bool)
	FlushChain() (*ChainResult, bool)

	// Change notification
	DrainDirty() []hexmath.Coord
	DrainEvents() []Event

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetMoveHistory() []HistoryEntry
	GetLastMove() *HistoryEntry
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialise access.
type GameEngine struct {
	state  *GameState
	config *GameConfig
	events []Event
	now    func() time.Time
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	engine := &GameEngine{
		config: config,
		state:  InitGameStateFromConfig(config),
		now:    time.Now,
	}

	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with default configuration
func NewEngineWithDefaults() *GameEngine {
	config := DefaultConfig()
	return &GameEngine{
		config: config,
		state:  InitGameStateFromConfig(config),
		now:    time.Now,
	}
}

// SetClock replaces the time source used to schedule chain reactions.
func (e *GameEngine) SetClock(now func() time.Time) {
	e.now = now
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Grid == nil {
		return fmt.Errorf("state has no grid")
	}
	if state.Inventory.Counts == nil {
		capacity := DefaultStoneCapacity
		if e.config != nil {
			capacity = e.config.StoneCapacity
		}
		state.Inventory = NewInventory(capacity)
	}
	e.state = state
	return nil
}

// Reset resets the game to initial state
func (e *GameEngine) Reset() *GameState {
	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = InitGameStateFromConfig(e.config)
	e.events = nil

	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.CurrentMoves = []HistoryEntry{}
	e.state.CurrentMovesCount = 0

	return e.state
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// GetPlayerPosition returns the current player position
func (e *GameEngine) GetPlayerPosition() hexmath.Coord {
	return e.state.Grid.Player()
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and resets the game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.state = InitGameStateFromConfig(config)
	e.events = nil
	return nil
}

// GetMoveHistory returns the complete action history
func (e *GameEngine) GetMoveHistory() []HistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last action taken, or nil if none
func (e *GameEngine) GetLastMove() *HistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// PlaceStone puts t on an empty revealed hex and resolves its interactions.
// It returns false, leaving the board unchanged, when the hex is missing,
// hidden or occupied.
func (e *GameEngine) PlaceStone(c hexmath.Coord, t StoneType) bool {
	g := e.state.Grid
	h, ok := g.Hex(c)
	if !ok || !h.Revealed || h.Stone != None || !t.Valid() {
		return false
	}

	// A chain past its ready time resolves against the board as it was.
	e.resolveDueChain()

	g.SetStone(c, t)
	if t == Water {
		g.MarkWaterChainAreaDirty(c)
	}
	e.emit(Event{Type: EventStonePlaced, Coord: c, Stone: t})
	e.ProcessInteraction(c)
	e.resolveDueChain()
	return true
}

// BreakStone empties an occupied hex. Adjacency and AP are the caller's
// concern; see BreakAdjacentStone.
func (e *GameEngine) BreakStone(c hexmath.Coord) bool {
	g := e.state.Grid
	old := g.Stone(c)
	if old == None {
		return false
	}
	g.SetStone(c, None)
	if old == Water {
		g.MarkWaterChainAreaDirty(c)
		for _, nb := range hexmath.Neighbors(c) {
			if g.Stone(nb) == Water {
				g.MarkWaterChainAreaDirty(nb)
			}
		}
	}
	e.emit(Event{Type: EventStoneBroken, Coord: c, Stone: old})
	return true
}

// BreakStoneCost returns the AP needed to break a stone of type t.
func BreakStoneCost(t StoneType) int {
	return t.BreakCost()
}

// MimicType returns what the water stone at c currently behaves like.
func (e *GameEngine) MimicType(c hexmath.Coord) (StoneType, bool) {
	return e.state.Grid.MimicType(c)
}

// MovementCostFrom returns the cost of stepping from one hex to another.
func (e *GameEngine) MovementCostFrom(from, to hexmath.Coord) Cost {
	return e.state.Grid.MovementCostFrom(from, to)
}

// WaterConnections lists linked water pairs for overlays.
func (e *GameEngine) WaterConnections() []WaterConnection {
	return e.state.Grid.FindWaterConnections()
}

// HexInfo describes the hex at c including derived mimicry and cost.
func (e *GameEngine) HexInfo(c hexmath.Coord) (*HexInfo, bool) {
	g := e.state.Grid
	h, ok := g.Hex(c)
	if !ok {
		return nil, false
	}
	info := &HexInfo{
		Hex:           *h,
		IntrinsicCost: g.IntrinsicCost(c),
		WindZone:      g.IsWindZone(c),
		Nullified:     h.Stone != None && g.IsNullified(c),
	}
	if h.Stone == Water {
		info.MimicType, _ = g.MimicType(c)
	}
	if m, ok := e.MegaTileAt(c); ok && m.Revealed {
		tile := *m
		info.MegaTile = &tile
	}
	return info, true
}

// RevealAll reveals every hex and mega-tile. It is a debugging aid.
func (e *GameEngine) RevealAll() int {
	n := e.state.Grid.RevealAll()
	tiles := e.RevealMegaTiles()
	e.status(fmt.Sprintf("Revealed all %d mega-tiles for debugging.", tiles))
	return n
}

// DrainDirty returns the hexes changed since the last drain.
func (e *GameEngine) DrainDirty() []hexmath.Coord {
	return e.state.Grid.DrainDirty()
}
