package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/wricardo/hexstones/game/hexmath"
)

// StoneType is the elemental type of a stone. The zero value means no stone.
type StoneType string

const (
	None  StoneType = ""
	Earth StoneType = "earth"
	Water StoneType = "water"
	Fire  StoneType = "fire"
	Wind  StoneType = "wind"
	Void  StoneType = "void"

	// Validation constants
	MinGridRadius     = 3
	MaxGridRadius     = 40
	MinAPPerTurn      = 1
	MaxAPPerTurn      = 20
	MaxChainDelayMS   = 10000
	MaxStoneCapacity  = 99
	MaxShrinesPerType = 5
	MaxHistoryPage    = 200

	DefaultGridRadius    = 12
	DefaultAPPerTurn     = 5
	DefaultStoneCapacity = 5
	DefaultChainDelayMS  = 800
	DefaultTurnLimit     = 50
)

// StoneTypes lists every stone type in descending rank order.
var StoneTypes = []StoneType{Earth, Water, Fire, Wind, Void}

// Rank orders stone types for mimicry priority. Higher wins.
func (t StoneType) Rank() int {
	switch t {
	case Earth:
		return 5
	case Water:
		return 4
	case Fire:
		return 3
	case Wind:
		return 2
	case Void:
		return 1
	}
	return 0
}

// BreakCost is the AP needed to break a stone of this type.
func (t StoneType) BreakCost() int {
	switch t {
	case Void:
		return 1
	case Wind:
		return 2
	case Fire:
		return 3
	case Water:
		return 4
	case Earth:
		return 5
	}
	return 0
}

// BaseCost is the movement cost of a hex holding this stone, ignoring mimicry
// and wind zones.
func (t StoneType) BaseCost() Cost {
	switch t {
	case Earth, Fire:
		return Impassable
	case Water:
		return 2
	case Wind:
		return 0
	case Void, None:
		return 1
	}
	return Impassable
}

// Valid reports whether t names a real stone.
func (t StoneType) Valid() bool {
	return t.Rank() > 0
}

// Title returns the capitalised name used in status messages.
func (t StoneType) Title() string {
	if t == None {
		return "Empty"
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseStoneType accepts any casing of a stone name.
func ParseStoneType(s string) (StoneType, error) {
	t := StoneType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return None, fmt.Errorf("%w: %q", ErrUnknownStone, s)
	}
	return t, nil
}

// Cost is a movement cost. Impassable stands in for an infinite cost.
type Cost int

// Impassable compares greater than any AP total.
const Impassable Cost = math.MaxInt32

// Finite reports whether the hex can be entered with AP at all.
func (c Cost) Finite() bool {
	return c != Impassable
}

func (c Cost) String() string {
	if !c.Finite() {
		return "impassable"
	}
	return fmt.Sprintf("%d", int(c))
}

// MarshalJSON renders Impassable as the string "impassable".
func (c Cost) MarshalJSON() ([]byte, error) {
	if !c.Finite() {
		return []byte(`"impassable"`), nil
	}
	return json.Marshal(int(c))
}

// UnmarshalJSON accepts a number or the string "impassable".
func (c *Cost) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "impassable" {
			return fmt.Errorf("invalid cost %q", s)
		}
		*c = Impassable
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Cost(n)
	return nil
}

// Hex is a single cell of the grid.
type Hex struct {
	Q        int       `json:"q"`
	R        int       `json:"r"`
	Stone    StoneType `json:"stone,omitempty"`
	Revealed bool      `json:"revealed"`
}

// Coord returns the axial coordinate of the hex.
func (h *Hex) Coord() hexmath.Coord {
	return hexmath.Coord{Q: h.Q, R: h.R}
}

// MoveKind distinguishes AP moves from fire hexes that need a sacrifice.
type MoveKind string

const (
	MoveAP              MoveKind = "ap"
	MoveSacrifice       MoveKind = "Sacrifice"
	MoveNeedsMoreStones MoveKind = "NeedsMoreStones"
)

// MovableHex is a neighbor of the player that can be entered this turn.
type MovableHex struct {
	Q    int      `json:"q"`
	R    int      `json:"r"`
	Cost Cost     `json:"-"`
	Kind MoveKind `json:"-"`
}

// MarshalJSON emits cost as a number for AP moves and as the sentinel string
// for fire hexes.
func (m MovableHex) MarshalJSON() ([]byte, error) {
	out := struct {
		Q    int `json:"q"`
		R    int `json:"r"`
		Cost any `json:"cost"`
	}{Q: m.Q, R: m.R}
	if m.Kind == MoveAP || m.Kind == "" {
		out.Cost = int(m.Cost)
	} else {
		out.Cost = string(m.Kind)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON.
func (m *MovableHex) UnmarshalJSON(data []byte) error {
	var in struct {
		Q    int             `json:"q"`
		R    int             `json:"r"`
		Cost json.RawMessage `json:"cost"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	m.Q, m.R = in.Q, in.R
	var kind string
	if err := json.Unmarshal(in.Cost, &kind); err == nil {
		m.Kind = MoveKind(kind)
		m.Cost = Impassable
		return nil
	}
	var n int
	if err := json.Unmarshal(in.Cost, &n); err != nil {
		return err
	}
	m.Kind = MoveAP
	m.Cost = Cost(n)
	return nil
}

// APInfo summarises the AP available to the player.
type APInfo struct {
	RegularAP int `json:"regular_ap"`
	VoidAP    int `json:"void_ap"`
	TotalAP   int `json:"total_ap"`
}

// WaterConnection is an adjacent pair of linked water stones.
type WaterConnection struct {
	From      hexmath.Coord `json:"from"`
	To        hexmath.Coord `json:"to"`
	MimicType StoneType     `json:"mimic_type,omitempty"`
}

// HexInfo describes a single hex for overlays and tooling.
type HexInfo struct {
	Hex
	MimicType     StoneType `json:"mimic_type,omitempty"`
	IntrinsicCost Cost      `json:"intrinsic_cost"`
	WindZone      bool      `json:"wind_zone"`
	Nullified     bool      `json:"nullified"`
	MegaTile      *MegaTile `json:"mega_tile,omitempty"`
}

// GameState represents the complete game state
type GameState struct {
	Grid       *Grid       `json:"grid"`
	Inventory  Inventory   `json:"inventory"`
	AP         APPool      `json:"ap"`
	Turn       int         `json:"turn"`
	TurnLimit  int         `json:"turn_limit"`
	Level      int         `json:"level"`
	MegaTiles  []*MegaTile `json:"mega_tiles"`
	Message    string      `json:"message"`
	GameOver   bool        `json:"game_over"`
	ConfigName string      `json:"config_name"`

	// PendingChain is set while a chain reaction waits for its delay to elapse.
	PendingChain *ChainReaction `json:"pending_chain,omitempty"`

	MoveHistory []HistoryEntry `json:"move_history"`
	TotalMoves  int            `json:"total_moves"`

	// CurrentMoves tracks only the actions since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []HistoryEntry `json:"current_moves"`
	CurrentMovesCount int            `json:"current_moves_count"`
}

// HistoryEntry represents a single player action in the game history
type HistoryEntry struct {
	Action     string        `json:"action"`
	From       hexmath.Coord `json:"from"`
	To         hexmath.Coord `json:"to"`
	Stone      StoneType     `json:"stone,omitempty"`
	Cost       int           `json:"cost"`
	RegularAP  int           `json:"regular_ap"`
	VoidAPUsed int           `json:"void_ap_used"`
	Turn       int           `json:"turn"`
	Timestamp  int64         `json:"timestamp"`
	Success    bool          `json:"success"`
	MoveNumber int           `json:"move_number"`
	Message    string        `json:"message,omitempty"`
}
