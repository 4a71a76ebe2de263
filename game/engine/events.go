package engine

import "github.com/wricardo/hexstones/game/hexmath"

// EventType names something that happened on the board.
type EventType string

const (
	EventStonePlaced        EventType = "stone_placed"
	EventStoneBroken        EventType = "stone_broken"
	EventStoneDestroyed     EventType = "stone_destroyed"
	EventChainStarted       EventType = "chain_started"
	EventChainDestroyed     EventType = "chain_destroyed"
	EventWaterConsumed      EventType = "water_consumed"
	EventChainResolved      EventType = "chain_resolved"
	EventPlayerMoved        EventType = "player_moved"
	EventMegaTileDiscovered EventType = "megatile_discovered"
	EventShrineActivated    EventType = "shrine_activated"
	EventTurnEnded          EventType = "turn_ended"
	EventGameOver           EventType = "game_over"
)

// Event is reported to callers after each action so presentation layers can
// animate and show status text.
type Event struct {
	Type    EventType     `json:"type"`
	Coord   hexmath.Coord `json:"coord"`
	Stone   StoneType     `json:"stone,omitempty"`
	ChainID string        `json:"chain_id,omitempty"`
	Message string        `json:"message,omitempty"`
}

// emit records an event and makes its message the current status.
func (e *GameEngine) emit(ev Event) {
	e.events = append(e.events, ev)
	if ev.Message != "" {
		e.state.Message = ev.Message
	}
}

// status sets the human-readable status without recording an event.
func (e *GameEngine) status(msg string) {
	e.state.Message = msg
}

// DrainEvents returns the events recorded since the last drain.
func (e *GameEngine) DrainEvents() []Event {
	out := e.events
	e.events = nil
	return out
}
