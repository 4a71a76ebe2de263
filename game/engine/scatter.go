package engine

import (
	"math"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/wricardo/hexstones/game/hexmath"
)

// Dice is an NdM roll such as 3d4.
type Dice struct {
	Count int `json:"count"`
	Sides int `json:"sides"`
}

// Roll sums Count rolls of a Sides-sided die.
func (d Dice) Roll(rng *rand.Rand) int {
	total := 0
	for i := 0; i < d.Count; i++ {
		if d.Sides > 0 {
			total += rng.Intn(d.Sides) + 1
		}
	}
	return total
}

// ScatterConfig describes stones pre-placed on the board at game start.
type ScatterConfig struct {
	Seed       int64              `json:"seed"`
	SafeRadius int                `json:"safe_radius"`
	Dice       map[StoneType]Dice `json:"dice,omitempty"`
}

// DefaultScatterDice rolls more of the higher ranked stones.
var DefaultScatterDice = map[StoneType]Dice{
	Earth: {Count: 5, Sides: 4},
	Water: {Count: 4, Sides: 4},
	Fire:  {Count: 3, Sides: 4},
	Wind:  {Count: 2, Sides: 4},
	Void:  {Count: 1, Sides: 4},
}

const (
	scatterFrequency = 0.35
	// scatterMinWeight keeps hexes in the lowest noise still drawable.
	scatterMinWeight = 0.25
)

// ScatterStones rolls stone counts and writes them onto revealed, empty hexes
// outside the safe radius around the player. Every free hex can be picked;
// OpenSimplex noise only weights the draw so stones thin out in low areas.
// Stone types are shuffled across the picked hexes, so types mix instead of
// forming single-type patches. A seed always yields the same board. Stones
// are written directly without running interactions. It returns how many
// stones of each type were placed.
func ScatterStones(g *Grid, cfg ScatterConfig) map[StoneType]int {
	dice := cfg.Dice
	if len(dice) == 0 {
		dice = DefaultScatterDice
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	noise := opensimplex.NewNormalized(cfg.Seed)

	type spot struct {
		c   hexmath.Coord
		key float64
	}
	var spots []spot
	player := g.Player()
	for _, c := range g.Coords() {
		h := g.hexes[c]
		if !h.Revealed || h.Stone != None || hexmath.Distance(c, player) <= cfg.SafeRadius {
			continue
		}
		x, y := hexmath.AxialToPixel(c, 1)
		weight := scatterMinWeight + noise.Eval2(x*scatterFrequency, y*scatterFrequency)
		// Weighted sampling without replacement: the largest u^(1/w) keys win.
		spots = append(spots, spot{c: c, key: math.Pow(rng.Float64(), 1/weight)})
	}
	sort.SliceStable(spots, func(i, j int) bool {
		return spots[i].key > spots[j].key
	})

	var pool []StoneType
	for _, t := range StoneTypes {
		d, ok := dice[t]
		if !ok {
			continue
		}
		for n := d.Roll(rng); n > 0; n-- {
			pool = append(pool, t)
		}
	}
	if len(pool) > len(spots) {
		pool = pool[:len(spots)]
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	placed := make(map[StoneType]int)
	for i, t := range pool {
		g.SetStone(spots[i].c, t)
		placed[t]++
	}
	return placed
}
