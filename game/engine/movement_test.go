package engine

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/wricardo/hexstones/game/hexmath"
)

func TestIntrinsicCost(t *testing.T) {
	tests := []struct {
		name   string
		stones map[hexmath.Coord]StoneType
		target hexmath.Coord
		want   Cost
	}{
		{"empty hex", nil, at(0, 0), 1},
		{"earth", map[hexmath.Coord]StoneType{at(0, 0): Earth}, at(0, 0), Impassable},
		{"fire", map[hexmath.Coord]StoneType{at(0, 0): Fire}, at(0, 0), Impassable},
		{"wind", map[hexmath.Coord]StoneType{at(0, 0): Wind}, at(0, 0), 0},
		{"void", map[hexmath.Coord]StoneType{at(0, 0): Void}, at(0, 0), 1},
		{"plain water", map[hexmath.Coord]StoneType{at(0, 0): Water}, at(0, 0), 2},
		{"off the grid", nil, at(40, 0), Impassable},
		{
			"water next to void keeps its own cost",
			map[hexmath.Coord]StoneType{at(0, 0): Water, at(1, 0): Earth, at(-1, 0): Void},
			at(0, 0), 2,
		},
		{
			"water next to earth",
			map[hexmath.Coord]StoneType{at(0, 0): Water, at(1, 0): Earth},
			at(0, 0), Impassable,
		},
		{
			"water chained to earth",
			map[hexmath.Coord]StoneType{at(0, 0): Water, at(1, 0): Water, at(2, 0): Earth},
			at(0, 0), Impassable,
		},
		{
			"earth outranks active wind",
			map[hexmath.Coord]StoneType{at(0, 0): Water, at(1, 0): Earth, at(-1, 0): Wind},
			at(0, 0), Impassable,
		},
		{
			"water next to active wind",
			map[hexmath.Coord]StoneType{at(0, 0): Water, at(-1, 0): Wind},
			at(0, 0), 0,
		},
		{
			"water next to inactive wind",
			map[hexmath.Coord]StoneType{at(0, 0): Water, at(1, 0): Wind, at(2, 0): Void},
			at(0, 0), 2,
		},
		{
			"water chained to wind",
			map[hexmath.Coord]StoneType{at(0, 0): Water, at(1, 0): Water, at(2, 0): Wind},
			at(0, 0), 0,
		},
		{
			"wind outranks fire",
			map[hexmath.Coord]StoneType{at(0, 0): Water, at(-1, 0): Wind, at(1, 0): Fire},
			at(0, 0), 0,
		},
		{
			"water chained to fire",
			map[hexmath.Coord]StoneType{at(0, 0): Water, at(1, 0): Water, at(2, 0): Fire},
			at(0, 0), Impassable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(5)
			g.RevealAll()
			setStones(t, g, tt.stones)
			if got := g.IntrinsicCost(tt.target); got != tt.want {
				t.Errorf("IntrinsicCost(%v) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestIntrinsicCostHiddenHex(t *testing.T) {
	g := NewGrid(3)
	if got := g.IntrinsicCost(at(1, 0)); got != Impassable {
		t.Errorf("Expected hidden hex to be impassable, got %v", got)
	}
}

func TestWindZones(t *testing.T) {
	g := NewGrid(6)
	g.RevealAll()
	setStones(t, g, map[hexmath.Coord]StoneType{at(3, 0): Wind})

	nbs := hexmath.Neighbors(at(3, 0))
	for _, c := range append([]hexmath.Coord{at(3, 0)}, nbs[:]...) {
		if !g.IsWindZone(c) {
			t.Errorf("Expected %v to be in the wind zone", c)
		}
	}
	if g.IsWindZone(at(1, 0)) {
		t.Error("Expected (1,0) to be outside the wind zone")
	}

	// Void next to the wind stone switches the zone off.
	g.SetStone(at(4, 0), Void)
	if g.IsWindActive(at(3, 0)) {
		t.Error("Expected wind next to void to be inactive")
	}
	if g.IsWindZone(at(2, 0)) {
		t.Error("Expected inactive wind to have no zone")
	}
}

func TestMovementCostFrom(t *testing.T) {
	g := NewGrid(6)
	g.RevealAll()
	setStones(t, g, map[hexmath.Coord]StoneType{
		at(3, 0):  Wind,
		at(-1, 0): Water,
	})

	tests := []struct {
		name     string
		from, to hexmath.Coord
		want     Cost
	}{
		{"outside to outside uses intrinsic cost", at(0, 0), at(-1, 0), 2},
		{"outside to empty", at(0, 0), at(0, 1), 1},
		{"entering the wind zone", at(1, 0), at(2, 0), 1},
		{"leaving the wind zone", at(2, 0), at(1, 0), 1},
		{"inside the wind zone", at(2, 0), at(3, -1), 0},
		{"onto the wind stone", at(2, 0), at(3, 0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.MovementCostFrom(tt.from, tt.to); got != tt.want {
				t.Errorf("MovementCostFrom(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestMovementIntoWaterChainMimickingWind(t *testing.T) {
	g := NewGrid(5)
	g.RevealAll()
	setStones(t, g, map[hexmath.Coord]StoneType{
		at(0, 0): Water, at(1, 0): Water, at(1, 1): Water,
		at(2, 1): Wind,
	})

	if got := g.MovementCostFrom(at(-1, 0), at(0, 0)); got != 0 {
		t.Errorf("Expected free move into wind-mimicking water, got %v", got)
	}
	if got := g.IntrinsicCost(at(0, 0)); got != 0 {
		t.Errorf("Expected intrinsic cost 0, got %v", got)
	}
}

func TestMovableHexes(t *testing.T) {
	engine := newTestEngine(t)
	g := engine.GetState().Grid
	setStones(t, g, map[hexmath.Coord]StoneType{
		at(1, 0):  Fire,
		at(0, 1):  Earth,
		at(-1, 0): Water,
	})

	byCoord := func(list []MovableHex) map[hexmath.Coord]MovableHex {
		out := map[hexmath.Coord]MovableHex{}
		for _, m := range list {
			out[at(m.Q, m.R)] = m
		}
		return out
	}

	moves := byCoord(engine.MovableHexes())
	if len(moves) != 5 {
		t.Fatalf("Expected 5 movable hexes, got %+v", moves)
	}
	if _, ok := moves[at(0, 1)]; ok {
		t.Error("Earth must never be listed")
	}
	if m := moves[at(1, 0)]; m.Kind != MoveSacrifice {
		t.Errorf("Expected fire to need a sacrifice, got %+v", m)
	}
	if m := moves[at(-1, 0)]; m.Kind != MoveAP || m.Cost != 2 {
		t.Errorf("Expected water to cost 2, got %+v", m)
	}
	if m := moves[at(1, -1)]; m.Cost != 1 {
		t.Errorf("Expected empty hex to cost 1, got %+v", m)
	}

	engine.GetState().AP.RegularAP = 1
	moves = byCoord(engine.MovableHexes())
	if _, ok := moves[at(-1, 0)]; ok {
		t.Error("Water should not be listed with only 1 AP")
	}

	engine.GetState().Inventory = NewInventory(5)
	engine.GetState().Inventory.Add(Wind, 1)
	moves = byCoord(engine.MovableHexes())
	if m := moves[at(1, 0)]; m.Kind != MoveNeedsMoreStones {
		t.Errorf("Expected NeedsMoreStones with one stone, got %+v", m)
	}
}

func TestMovableHexJSON(t *testing.T) {
	data, err := json.Marshal([]MovableHex{
		{Q: 1, R: 0, Cost: 2, Kind: MoveAP},
		{Q: 0, R: 1, Cost: Impassable, Kind: MoveSacrifice},
	})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	want := `[{"q":1,"r":0,"cost":2},{"q":0,"r":1,"cost":"Sacrifice"}]`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}

	var back []MovableHex
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if back[0].Cost != 2 || back[0].Kind != MoveAP || back[1].Kind != MoveSacrifice {
		t.Errorf("Unexpected round trip %+v", back)
	}
}

func TestMovePlayer(t *testing.T) {
	t.Run("spends regular AP and reveals", func(t *testing.T) {
		config := createTestConfig()
		config.RevealRadius = 1
		engine, err := NewEngine(config)
		if err != nil {
			t.Fatal(err)
		}
		g := engine.GetState().Grid
		if g.IsValidHex(at(2, 0)) {
			t.Fatal("Expected (2,0) to start hidden")
		}

		out, err := engine.MovePlayer(at(1, 0))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if out.Cost != 1 || out.RegularAP != 1 || out.VoidAP != 0 {
			t.Errorf("Unexpected outcome %+v", out)
		}
		if engine.GetPlayerPosition() != at(1, 0) {
			t.Errorf("Expected player at (1,0), got %v", engine.GetPlayerPosition())
		}
		if !g.IsValidHex(at(2, 0)) {
			t.Error("Expected neighbors of the new position to be revealed")
		}
		if engine.GetState().Message != "Moved to (1,0), cost: 1 (using 1 regular AP)" {
			t.Errorf("Unexpected message %q", engine.GetState().Message)
		}
	})

	t.Run("overflows into void AP", func(t *testing.T) {
		engine := newTestEngine(t)
		state := engine.GetState()
		state.Inventory.Add(Void, 2)
		state.AP.RegularAP = 1
		setStones(t, state.Grid, map[hexmath.Coord]StoneType{at(1, 0): Water})

		out, err := engine.MovePlayer(at(1, 0))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if out.RegularAP != 1 || out.VoidAP != 1 {
			t.Errorf("Expected 1 regular and 1 void AP, got %+v", out)
		}
		if state.AP.RegularAP != 0 || state.AP.VoidAPUsed != 1 {
			t.Errorf("Unexpected AP pool %+v", state.AP)
		}
		if !strings.Contains(state.Message, "1 void AP") {
			t.Errorf("Unexpected message %q", state.Message)
		}
	})

	tests := []struct {
		name    string
		stones  map[hexmath.Coord]StoneType
		target  hexmath.Coord
		ap      int
		wantErr error
		wantMsg string
	}{
		{"not adjacent", nil, at(2, 0), 5, ErrNotAdjacent, "Cannot move there."},
		{"off the grid", nil, at(30, 0), 5, ErrInvalidTarget, "Cannot move there."},
		{"earth", map[hexmath.Coord]StoneType{at(1, 0): Earth}, at(1, 0), 5, ErrImpassable, "Hex is impassable."},
		{
			"water mimicking earth",
			map[hexmath.Coord]StoneType{at(1, 0): Water, at(2, 0): Earth},
			at(1, 0), 5, ErrImpassable, "Hex is impassable.",
		},
		{"fire", map[hexmath.Coord]StoneType{at(1, 0): Fire}, at(1, 0), 5, ErrFireRequiresSacrifice, "sacrificing"},
		{"not enough AP", map[hexmath.Coord]StoneType{at(1, 0): Water}, at(1, 0), 1, ErrInsufficientAP, "Not enough AP (need 2, have 1 total)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t)
			state := engine.GetState()
			setStones(t, state.Grid, tt.stones)
			state.AP.RegularAP = tt.ap

			_, err := engine.MovePlayer(tt.target)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if !strings.Contains(state.Message, tt.wantMsg) {
				t.Errorf("Expected message containing %q, got %q", tt.wantMsg, state.Message)
			}
			if engine.GetPlayerPosition() != at(0, 0) {
				t.Error("Player must not move on failure")
			}
			if state.AP.RegularAP != tt.ap {
				t.Error("AP must not be spent on failure")
			}
		})
	}
}

func TestSacrificeMove(t *testing.T) {
	engine := newTestEngine(t)
	state := engine.GetState()
	setStones(t, state.Grid, map[hexmath.Coord]StoneType{at(1, 0): Fire, at(-1, 0): Fire})

	if _, err := engine.SacrificeMove(at(1, 0), Fire, Fire); !errors.Is(err, ErrNoStone) {
		t.Errorf("Expected ErrNoStone for two fire with one held, got %v", err)
	}
	if _, err := engine.SacrificeMove(at(0, 1), Earth, Water); !errors.Is(err, ErrNotFire) {
		t.Errorf("Expected ErrNotFire, got %v", err)
	}

	out, err := engine.SacrificeMove(at(1, 0), Earth, Earth)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(out.Sacrificed) != 2 || out.Cost != 0 {
		t.Errorf("Unexpected outcome %+v", out)
	}
	if state.Inventory.Count(Earth) != 0 {
		t.Errorf("Expected both earth stones spent, got %d", state.Inventory.Count(Earth))
	}
	if state.AP.RegularAP != 5 {
		t.Errorf("Sacrifice must not spend AP, got %d", state.AP.RegularAP)
	}
	if engine.GetPlayerPosition() != at(1, 0) {
		t.Errorf("Expected player on the fire hex, got %v", engine.GetPlayerPosition())
	}
	if state.Grid.Stone(at(1, 0)) != Fire {
		t.Error("The fire stone stays where it is")
	}
	if state.Message != "Sacrificed earth and earth stones to move onto fire." {
		t.Errorf("Unexpected message %q", state.Message)
	}

	state.Inventory = NewInventory(5)
	state.Inventory.Add(Wind, 1)
	state.Grid.SetPlayer(at(0, 0))
	if _, err := engine.SacrificeMove(at(-1, 0), Wind, Wind); !errors.Is(err, ErrNeedMoreStones) {
		t.Errorf("Expected ErrNeedMoreStones, got %v", err)
	}
}
