package engine

import (
	"fmt"

	"github.com/wricardo/hexstones/game/hexmath"
)

// MoveOutcome describes a completed move.
type MoveOutcome struct {
	From       hexmath.Coord `json:"from"`
	To         hexmath.Coord `json:"to"`
	Cost       int           `json:"cost"`
	RegularAP  int           `json:"regular_ap_spent"`
	VoidAP     int           `json:"void_ap_spent"`
	Sacrificed []StoneType   `json:"sacrificed,omitempty"`
	Revealed   int           `json:"revealed"`
	Discovered bool          `json:"discovered_mega_tile"`
}

// ActionOutcome describes a completed place or break action.
type ActionOutcome struct {
	Coord  hexmath.Coord `json:"coord"`
	Stone  StoneType     `json:"stone"`
	APCost int           `json:"ap_cost,omitempty"`
}

// TurnOutcome describes the end of a turn.
type TurnOutcome struct {
	Turn            int  `json:"turn"`
	TurnLimit       int  `json:"turn_limit"`
	ShrineActivated bool `json:"shrine_activated"`
	GameOver        bool `json:"game_over"`
}

// TotalAvailableAP returns regular AP plus AP from unused Void stones.
func (e *GameEngine) TotalAvailableAP() APInfo {
	return e.state.AP.Available(e.state.Inventory.Count(Void))
}

// MovableHexes lists the player's neighbors that can be entered now. Fire
// hexes are listed with a sacrifice sentinel and Earth hexes are never listed.
func (e *GameEngine) MovableHexes() []MovableHex {
	g := e.state.Grid
	player := g.Player()
	total := e.TotalAvailableAP().TotalAP

	var out []MovableHex
	for _, nb := range hexmath.Neighbors(player) {
		if !g.IsValidHex(nb) {
			continue
		}
		switch g.Stone(nb) {
		case Fire:
			kind := MoveNeedsMoreStones
			if e.state.Inventory.Total() >= 2 {
				kind = MoveSacrifice
			}
			out = append(out, MovableHex{Q: nb.Q, R: nb.R, Cost: Impassable, Kind: kind})
			continue
		case Earth:
			continue
		}
		cost := g.MovementCostFrom(player, nb)
		if cost.Finite() && int(cost) <= total {
			out = append(out, MovableHex{Q: nb.Q, R: nb.R, Cost: cost, Kind: MoveAP})
		}
	}
	return out
}

func (e *GameEngine) fail(action string, from, to hexmath.Coord, stone StoneType, err error, msg string) error {
	e.status(msg)
	e.addHistory(action, from, to, stone, 0, false)
	return fmt.Errorf("%w: %s", err, msg)
}

// MovePlayer moves the player to an adjacent hex, paying its cost from
// regular AP first and void AP after.
func (e *GameEngine) MovePlayer(c hexmath.Coord) (*MoveOutcome, error) {
	g := e.state.Grid
	from := g.Player()
	if e.state.GameOver {
		return nil, e.fail("move", from, c, None, ErrGameOver, "Game Over! Reset to play again.")
	}
	if !g.IsValidHex(c) {
		return nil, e.fail("move", from, c, None, ErrInvalidTarget, "Cannot move there.")
	}
	if !hexmath.IsAdjacent(from, c) {
		return nil, e.fail("move", from, c, None, ErrNotAdjacent, "Cannot move there.")
	}

	switch g.Stone(c) {
	case Fire:
		if n := e.state.Inventory.Total(); n < 2 {
			return nil, e.fail("move", from, c, Fire, ErrNeedMoreStones,
				fmt.Sprintf("Cannot move to fire stone. Need 2 stones to sacrifice, but only have %d.", n))
		}
		return nil, e.fail("move", from, c, Fire, ErrFireRequiresSacrifice,
			"Moving onto fire requires sacrificing two stones.")
	case Earth:
		return nil, e.fail("move", from, c, Earth, ErrImpassable, "Hex is impassable.")
	}

	cost := g.MovementCostFrom(from, c)
	if !cost.Finite() {
		return nil, e.fail("move", from, c, None, ErrImpassable, "Hex is impassable.")
	}
	ap := e.TotalAvailableAP()
	if int(cost) > ap.TotalAP {
		return nil, e.fail("move", from, c, None, ErrInsufficientAP,
			fmt.Sprintf("Not enough AP (need %d, have %d total).", cost, ap.TotalAP))
	}

	before := e.state.AP
	e.state.AP.Spend(int(cost), e.state.Inventory.Count(Void))
	out := &MoveOutcome{
		From:      from,
		To:        c,
		Cost:      int(cost),
		RegularAP: before.RegularAP - e.state.AP.RegularAP,
		VoidAP:    e.state.AP.VoidAPUsed - before.VoidAPUsed,
	}

	e.status(moveMessage(out))
	e.arrive(c, out)
	e.addHistory("move", from, c, None, out.Cost, true)
	return out, nil
}

func moveMessage(out *MoveOutcome) string {
	msg := fmt.Sprintf("Moved to (%d,%d), cost: %d", out.To.Q, out.To.R, out.Cost)
	if out.VoidAP > 0 {
		return msg + fmt.Sprintf(" (using %d regular AP and %d void AP)", out.RegularAP, out.VoidAP)
	}
	return msg + fmt.Sprintf(" (using %d regular AP)", out.Cost)
}

// arrive moves the player marker, reveals the surroundings and discovers any
// mega-tile underneath.
func (e *GameEngine) arrive(c hexmath.Coord, out *MoveOutcome) {
	g := e.state.Grid
	g.SetPlayer(c)
	out.Discovered = e.discoverMegaTile(c)
	out.Revealed = g.RevealAdjacent(c)
	e.emit(Event{Type: EventPlayerMoved, Coord: c})
}

// SacrificeMove enters an adjacent fire hex by giving up stones a and b. The
// move costs no AP.
func (e *GameEngine) SacrificeMove(c hexmath.Coord, a, b StoneType) (*MoveOutcome, error) {
	g := e.state.Grid
	from := g.Player()
	inv := e.state.Inventory
	if e.state.GameOver {
		return nil, e.fail("sacrifice", from, c, None, ErrGameOver, "Game Over! Reset to play again.")
	}
	if !g.IsValidHex(c) || !hexmath.IsAdjacent(from, c) {
		return nil, e.fail("sacrifice", from, c, None, ErrInvalidTarget, "Cannot move there.")
	}
	if g.Stone(c) != Fire {
		return nil, e.fail("sacrifice", from, c, g.Stone(c), ErrNotFire, "Only fire stones require a sacrifice.")
	}
	if n := inv.Total(); n < 2 {
		return nil, e.fail("sacrifice", from, c, Fire, ErrNeedMoreStones,
			fmt.Sprintf("Cannot move to fire stone. Need 2 stones to sacrifice, but only have %d.", n))
	}
	if !a.Valid() || !b.Valid() {
		return nil, e.fail("sacrifice", from, c, Fire, ErrUnknownStone, "Choose two stones to sacrifice.")
	}
	need := map[StoneType]int{a: 1}
	need[b]++
	for t, n := range need {
		if inv.Count(t) < n {
			return nil, e.fail("sacrifice", from, c, Fire, ErrNoStone,
				fmt.Sprintf("Not enough %s stones to sacrifice (need %d, have %d).", t, n, inv.Count(t)))
		}
	}

	inv.Take(a)
	inv.Take(b)
	out := &MoveOutcome{From: from, To: c, Sacrificed: []StoneType{a, b}}
	e.status(fmt.Sprintf("Sacrificed %s and %s stones to move onto fire.", a, b))
	e.arrive(c, out)
	e.addHistory("sacrifice", from, c, Fire, 0, true)
	return out, nil
}

// PlaceFromInventory places a stone from the inventory on an empty hex next
// to the player.
func (e *GameEngine) PlaceFromInventory(c hexmath.Coord, t StoneType) (*ActionOutcome, error) {
	g := e.state.Grid
	player := g.Player()
	if e.state.GameOver {
		return nil, e.fail("place", player, c, t, ErrGameOver, "Game Over! Reset to play again.")
	}
	if !t.Valid() {
		return nil, e.fail("place", player, c, t, ErrUnknownStone, fmt.Sprintf("Unknown stone type %q.", t))
	}
	if !hexmath.IsAdjacent(player, c) {
		return nil, e.fail("place", player, c, t, ErrNotAdjacent, "Cannot place stone on a hex that is not adjacent to you.")
	}
	if !g.IsValidHex(c) {
		return nil, e.fail("place", player, c, t, ErrInvalidTarget, "Cannot place stone on an unrevealed hex.")
	}
	if g.Stone(c) != None {
		return nil, e.fail("place", player, c, t, ErrOccupied, "Cannot place stone on an occupied hex.")
	}
	if e.state.Inventory.Count(t) == 0 {
		return nil, e.fail("place", player, c, t, ErrNoStone, fmt.Sprintf("No %s stones left in your pool.", t))
	}

	e.state.Inventory.Take(t)
	e.status(fmt.Sprintf("Placed %s stone at (%d,%d)", t, c.Q, c.R))
	e.PlaceStone(c, t)
	e.addHistory("place", player, c, t, 0, true)
	return &ActionOutcome{Coord: c, Stone: t}, nil
}

// BreakAdjacentStone pays the break cost of an adjacent stone and removes it.
func (e *GameEngine) BreakAdjacentStone(c hexmath.Coord) (*ActionOutcome, error) {
	g := e.state.Grid
	player := g.Player()
	if e.state.GameOver {
		return nil, e.fail("break", player, c, None, ErrGameOver, "Game Over! Reset to play again.")
	}
	e.resolveDueChain()
	t := g.Stone(c)
	if t == None {
		return nil, e.fail("break", player, c, None, ErrEmptyHex, "No stone to break at this location.")
	}
	if !g.IsValidHex(c) {
		return nil, e.fail("break", player, c, t, ErrInvalidTarget, "Cannot break unrevealed stones.")
	}
	if !hexmath.IsAdjacent(player, c) {
		return nil, e.fail("break", player, c, t, ErrNotAdjacent, "You can only break adjacent stones.")
	}
	cost := BreakStoneCost(t)
	ap := e.TotalAvailableAP()
	if cost > ap.TotalAP {
		return nil, e.fail("break", player, c, t, ErrInsufficientAP,
			fmt.Sprintf("Not enough AP to break this %s stone. Need %d, have %d.", t, cost, ap.TotalAP))
	}

	e.state.AP.Spend(cost, e.state.Inventory.Count(Void))
	e.BreakStone(c)
	e.status(fmt.Sprintf("Broke the %s stone for %d AP.", t, cost))
	e.addHistory("break", player, c, t, cost, true)
	return &ActionOutcome{Coord: c, Stone: t, APCost: cost}, nil
}

// EndTurn activates a shrine under the player, restores AP and advances the
// turn counter. Passing the turn limit ends the game.
func (e *GameEngine) EndTurn() (*TurnOutcome, error) {
	player := e.state.Grid.Player()
	if e.state.GameOver {
		return nil, e.fail("end_turn", player, player, None, ErrGameOver, "Game Over! Reset to play again.")
	}

	activated, shrineMsg := e.activateShrine()

	e.state.Turn++
	apPerTurn := DefaultAPPerTurn
	if e.config != nil {
		apPerTurn = e.config.APPerTurn
	}
	e.state.AP.Reset(apPerTurn)

	out := &TurnOutcome{Turn: e.state.Turn, TurnLimit: e.state.TurnLimit, ShrineActivated: activated}
	e.emit(Event{Type: EventTurnEnded, Coord: player, Message: e.turnMessage()})
	if shrineMsg != "" {
		e.status(shrineMsg + " " + e.state.Message)
	}

	if e.state.TurnLimit > 0 && e.state.Turn > e.state.TurnLimit {
		e.state.GameOver = true
		out.GameOver = true
		msg := fmt.Sprintf("You took too many turns. Max allowed: %d turns.", e.state.TurnLimit)
		if e.config != nil && e.config.Messages.GameOver != "" {
			msg = e.config.Messages.GameOver
		}
		e.emit(Event{Type: EventGameOver, Coord: player, Message: msg})
	}

	e.addHistory("end_turn", player, player, None, 0, true)
	return out, nil
}

func (e *GameEngine) turnMessage() string {
	format := "Turn ended. Action Points restored. (Turn %d/%d)"
	if e.config != nil && e.config.Messages.TurnEnded != "" {
		format = e.config.Messages.TurnEnded
	}
	return fmt.Sprintf(format, e.state.Turn, e.state.TurnLimit)
}

// addHistory adds an action to the game's history
func (e *GameEngine) addHistory(action string, from, to hexmath.Coord, stone StoneType, cost int, success bool) {
	entry := HistoryEntry{
		Action:     action,
		From:       from,
		To:         to,
		Stone:      stone,
		Cost:       cost,
		RegularAP:  e.state.AP.RegularAP,
		VoidAPUsed: e.state.AP.VoidAPUsed,
		Turn:       e.state.Turn,
		Timestamp:  e.now().Unix(),
		Success:    success,
		MoveNumber: e.state.TotalMoves + 1,
		Message:    e.state.Message,
	}
	// Append to cumulative history (never cleared by reset) and increment total
	e.state.MoveHistory = append(e.state.MoveHistory, entry)
	e.state.TotalMoves++

	e.state.CurrentMoves = append(e.state.CurrentMoves, entry)
	e.state.CurrentMovesCount++
}
