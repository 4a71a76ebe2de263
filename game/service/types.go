package service

import (
	"time"

	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/hexmath"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// ActionResult contains the result of a player action
type ActionResult struct {
	Success   bool              `json:"success"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`

	// ReasonCode is a machine-friendly failure code:
	// game_over|invalid_target|not_adjacent|occupied|empty_hex|impassable|
	// insufficient_ap|no_stone|need_more_stones|fire_requires_sacrifice|not_fire|unknown_stone
	ReasonCode string `json:"reason_code,omitempty"`

	Events []GameEvent      `json:"events"`
	Dirty  []hexmath.Coord `json:"dirty,omitempty"`

	Move   *engine.MoveOutcome   `json:"move,omitempty"`
	Action *engine.ActionOutcome `json:"action,omitempty"`
	Turn   *engine.TurnOutcome   `json:"turn,omitempty"`

	// PendingChain is set when the action left a chain reaction waiting.
	PendingChain *engine.ChainReaction `json:"pending_chain,omitempty"`

	// Decision aids
	AP            engine.APInfo       `json:"ap"`
	MovableHexes  []engine.MovableHex `json:"movable_hexes"`
	TurnPressure  string              `json:"turn_pressure"`
	NearestShrine *ShrineHint         `json:"nearest_shrine,omitempty"`
}

// ShrineHint points at the closest undiscovered shrine.
type ShrineHint struct {
	Center   hexmath.Coord    `json:"center"`
	Type     engine.StoneType `json:"type"`
	Distance int              `json:"distance"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string           `json:"type"` // engine event types plus "reset"
	Message   string           `json:"message,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Coord     hexmath.Coord    `json:"coord"`
	Stone     engine.StoneType `json:"stone,omitempty"`
	ChainID   string           `json:"chain_id,omitempty"`
}

// Update types pushed to a Notifier.
const (
	UpdateState         = "state_update"
	UpdateChainStarted  = "chain_started"
	UpdateChainResolved = "chain_resolved"
)

// StateUpdate is pushed to live clients after every change to a session.
type StateUpdate struct {
	Type        string                `json:"type"`
	SessionID   string                `json:"session_id"`
	GameState   *engine.GameState     `json:"game_state"`
	Events      []GameEvent           `json:"events,omitempty"`
	Dirty       []hexmath.Coord       `json:"dirty,omitempty"`
	Chain       *engine.ChainReaction `json:"chain,omitempty"`
	ChainResult *engine.ChainResult   `json:"chain_result,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.HistoryEntry `json:"moves"`
	TotalMoves  int                   `json:"total_moves"`
	Page        int                   `json:"page"`
	PageSize    int                   `json:"page_size"`
	TotalPages  int                   `json:"total_pages"`
	HasNext     bool                  `json:"has_next"`
	HasPrevious bool                  `json:"has_previous"`
}

// ConfigInfo provides information about a level configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Level       int    `json:"level"`
	GridRadius  int    `json:"grid_radius"`
	TurnLimit   int    `json:"turn_limit"`
	APPerTurn   int    `json:"ap_per_turn"`
}
