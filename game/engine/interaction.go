package engine

import (
	"fmt"

	"github.com/wricardo/hexstones/game/hexmath"
)

// ProcessInteraction resolves the effects of the stone at c on its neighbors
// and of its neighbors on it. Outgoing effects fully resolve before incoming
// ones. A stone next to Void has no effects at all.
func (e *GameEngine) ProcessInteraction(c hexmath.Coord) {
	g := e.state.Grid
	placed := g.Stone(c)
	if placed == None || g.IsNullified(c) {
		return
	}

	for _, nb := range hexmath.Neighbors(c) {
		if target := g.Stone(nb); target != None {
			e.applyRule(placed, c, target, nb)
		}
	}

	// Live fire kills anything placed next to it except fire and void.
	if placed != Fire && placed != Void {
		for _, nb := range hexmath.Neighbors(c) {
			if g.Stone(nb) == Fire && !g.IsNullified(nb) {
				e.destroyByFire(nb, c)
				return
			}
		}
	}

	for _, nb := range hexmath.Neighbors(c) {
		actor := g.Stone(nb)
		if actor == None || g.IsNullified(nb) {
			continue
		}
		target := g.Stone(c)
		if target == None {
			return
		}
		e.applyRule(actor, nb, target, c)
	}
}

// applyRule is the interaction table: actor at a acting on target at b.
func (e *GameEngine) applyRule(actor StoneType, a hexmath.Coord, target StoneType, b hexmath.Coord) {
	g := e.state.Grid
	switch actor {
	case Fire:
		switch target {
		case Earth, Wind:
			e.destroyByFire(a, b)
		case Water:
			e.triggerChain(b)
		case Void, Fire:
		}
	case Water:
		switch target {
		case Fire:
			if !g.IsNullified(b) {
				e.triggerChain(a)
			}
		case Earth, Wind, Void:
			g.MarkDirty(a)
		case Water:
			g.MarkDirty(a)
			g.MarkDirty(b)
		}
	}
}

// destroyByFire empties target if the fire at fire is live and the target is
// something fire burns. Water is left to the chain reaction.
func (e *GameEngine) destroyByFire(fire, target hexmath.Coord) bool {
	g := e.state.Grid
	t := g.Stone(target)
	if t == None || g.IsNullified(fire) {
		return false
	}
	switch t {
	case Void, Fire, Water:
		return false
	}

	g.SetStone(target, None)
	e.emit(Event{
		Type:    EventStoneDestroyed,
		Coord:   target,
		Stone:   t,
		Message: fmt.Sprintf("%s stone was destroyed by adjacent fire stone!", t),
	})
	return true
}
