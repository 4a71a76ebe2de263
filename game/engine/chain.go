package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/hexstones/game/hexmath"
)

// ChainReaction is a water chain that touched live fire and is waiting for
// its delay to pass. Only one can exist at a time.
type ChainReaction struct {
	ID        string          `json:"id"`
	Seed      hexmath.Coord   `json:"seed"`
	Water     []hexmath.Coord `json:"water"`
	StartedAt time.Time       `json:"started_at"`
	ReadyAt   time.Time       `json:"ready_at"`
}

// DestroyedStone records one stone removed by a chain reaction.
type DestroyedStone struct {
	Coord hexmath.Coord `json:"coord"`
	Stone StoneType     `json:"stone"`
}

// ChainResult is what a resolved chain reaction did to the board.
type ChainResult struct {
	ID        string           `json:"id"`
	Destroyed []DestroyedStone `json:"destroyed"`
	Consumed  []hexmath.Coord  `json:"consumed"`
}

// triggerChain starts a chain reaction seeded at a water hex. Triggers while
// another reaction is pending are dropped.
func (e *GameEngine) triggerChain(seed hexmath.Coord) bool {
	if e.state.PendingChain != nil {
		return false
	}
	water := e.state.Grid.FindConnectedWaterStones(seed)
	if len(water) == 0 {
		return false
	}

	now := e.now()
	chain := &ChainReaction{
		ID:        uuid.NewString(),
		Seed:      seed,
		Water:     water,
		StartedAt: now,
		ReadyAt:   now.Add(e.chainDelay()),
	}
	e.state.PendingChain = chain
	for _, c := range water {
		e.state.Grid.MarkDirty(c)
	}
	e.emit(Event{
		Type:    EventChainStarted,
		Coord:   seed,
		Stone:   Water,
		ChainID: chain.ID,
		Message: "Chain reaction started: water stones mimicking fire's destructive ability!",
	})
	return true
}

// PendingChain returns the chain reaction waiting to resolve, if any.
func (e *GameEngine) PendingChain() *ChainReaction {
	return e.state.PendingChain
}

// ChainInProgress reports whether a chain reaction is pending.
func (e *GameEngine) ChainInProgress() bool {
	return e.state.PendingChain != nil
}

// ResolveChain runs the pending chain reaction if its delay has passed by now.
// Stones next to the chain are destroyed first, then the water itself is
// consumed.
func (e *GameEngine) ResolveChain(now time.Time) (*ChainResult, bool) {
	chain := e.state.PendingChain
	if chain == nil || now.Before(chain.ReadyAt) {
		return nil, false
	}
	return e.runChain(chain), true
}

// FlushChain resolves the pending chain reaction immediately.
func (e *GameEngine) FlushChain() (*ChainResult, bool) {
	chain := e.state.PendingChain
	if chain == nil {
		return nil, false
	}
	return e.runChain(chain), true
}

func (e *GameEngine) runChain(chain *ChainReaction) *ChainResult {
	g := e.state.Grid
	result := &ChainResult{ID: chain.ID}

	var targets []DestroyedStone
	seen := map[DestroyedStone]bool{}
	for _, w := range chain.Water {
		for _, nb := range hexmath.Neighbors(w) {
			t := g.Stone(nb)
			switch t {
			case None, Water, Void, Fire:
				continue
			}
			d := DestroyedStone{Coord: nb, Stone: t}
			if !seen[d] {
				seen[d] = true
				targets = append(targets, d)
			}
		}
	}

	for _, d := range targets {
		if g.Stone(d.Coord) != d.Stone {
			continue
		}
		g.SetStone(d.Coord, None)
		result.Destroyed = append(result.Destroyed, d)
		e.emit(Event{
			Type:    EventChainDestroyed,
			Coord:   d.Coord,
			Stone:   d.Stone,
			ChainID: chain.ID,
			Message: fmt.Sprintf("Chain reaction: Water stone destroyed adjacent %s stone!", d.Stone),
		})
	}

	for _, w := range chain.Water {
		if g.Stone(w) != Water {
			continue
		}
		g.SetStone(w, None)
		result.Consumed = append(result.Consumed, w)
		e.emit(Event{
			Type:    EventWaterConsumed,
			Coord:   w,
			Stone:   Water,
			ChainID: chain.ID,
			Message: fmt.Sprintf("Water stone at (%d,%d) was consumed in the chain reaction!", w.Q, w.R),
		})
	}

	e.state.PendingChain = nil
	e.emit(Event{Type: EventChainResolved, Coord: chain.Seed, ChainID: chain.ID})
	return result
}

// resolveDueChain resolves a chain whose delay has already elapsed, which is
// always the case when the delay is zero.
func (e *GameEngine) resolveDueChain() {
	if e.state.PendingChain != nil {
		e.ResolveChain(e.now())
	}
}

func (e *GameEngine) chainDelay() time.Duration {
	if e.config == nil {
		return DefaultChainDelayMS * time.Millisecond
	}
	return time.Duration(e.config.ChainDelayMS) * time.Millisecond
}
