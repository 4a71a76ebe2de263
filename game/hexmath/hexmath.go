package hexmath

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coord is an axial hex coordinate. It is comparable and safe as a map key.
type Coord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (c Coord) S() int {
	return -c.Q - c.R
}

// Add returns c offset by d.
func (c Coord) Add(d Coord) Coord {
	return Coord{Q: c.Q + d.Q, R: c.R + d.R}
}

// String renders the coordinate as "q,r".
func (c Coord) String() string {
	return fmt.Sprintf("%d,%d", c.Q, c.R)
}

// ParseCoord parses the "q,r" form produced by String.
func ParseCoord(s string) (Coord, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Coord{}, fmt.Errorf("invalid coordinate %q: expected q,r", s)
	}
	q, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Coord{}, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	r, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Coord{}, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	return Coord{Q: q, R: r}, nil
}

// Cube is a (possibly fractional) cube coordinate.
type Cube struct {
	X, Y, Z float64
}

// Directions are the six neighbor offsets, in the order Neighbors reports them.
var Directions = [6]Coord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// ringSides is the walk order used by HexRing, starting north of center.
var ringSides = [6]Coord{
	{Q: 1, R: 0},
	{Q: 0, R: 1},
	{Q: -1, R: 1},
	{Q: -1, R: 0},
	{Q: 0, R: -1},
	{Q: 1, R: -1},
}

// AxialToCube converts fractional axial coordinates to cube form.
func AxialToCube(q, r float64) Cube {
	return Cube{X: q, Y: -q - r, Z: r}
}

// CubeToAxial converts an integral cube coordinate back to axial form.
func CubeToAxial(c Cube) Coord {
	return Coord{Q: int(math.Round(c.X)), R: int(math.Round(c.Z))}
}

// RoundCube rounds every component to the nearest integer and then recomputes
// the component with the largest rounding delta from the other two so that
// x+y+z stays zero.
func RoundCube(c Cube) Cube {
	rx := math.Round(c.X)
	ry := math.Round(c.Y)
	rz := math.Round(c.Z)

	dx := math.Abs(rx - c.X)
	dy := math.Abs(ry - c.Y)
	dz := math.Abs(rz - c.Z)

	switch {
	case dx > dy && dx > dz:
		rx = -ry - rz
	case dy > dz:
		ry = -rx - rz
	default:
		rz = -rx - ry
	}
	return Cube{X: rx, Y: ry, Z: rz}
}

// Distance returns the hex distance between a and b.
func Distance(a, b Coord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	return max(dq, dr, ds)
}

// Neighbors returns the six adjacent coordinates of c.
func Neighbors(c Coord) [6]Coord {
	var out [6]Coord
	for i, d := range Directions {
		out[i] = c.Add(d)
	}
	return out
}

// IsAdjacent reports whether a and b are distinct neighbors.
func IsAdjacent(a, b Coord) bool {
	return Distance(a, b) == 1
}

// HexesInRange returns every coordinate within radius of center, center included.
func HexesInRange(center Coord, radius int) []Coord {
	if radius < 0 {
		return nil
	}
	out := make([]Coord, 0, 3*radius*(radius+1)+1)
	for q := -radius; q <= radius; q++ {
		rMin := max(-radius, -q-radius)
		rMax := min(radius, -q+radius)
		for r := rMin; r <= rMax; r++ {
			out = append(out, Coord{Q: center.Q + q, R: center.R + r})
		}
	}
	return out
}

// HexRing returns the 6*radius coordinates exactly radius away from center.
// The walk starts at the hex directly north of center.
func HexRing(center Coord, radius int) []Coord {
	if radius <= 0 {
		return nil
	}
	out := make([]Coord, 0, 6*radius)
	cur := Coord{Q: center.Q, R: center.R - radius}
	for _, side := range ringSides {
		for i := 0; i < radius; i++ {
			out = append(out, cur)
			cur = cur.Add(side)
		}
	}
	return out
}

// AxialToPixel returns the center of a flat-top hex of the given size.
func AxialToPixel(c Coord, size float64) (x, y float64) {
	x = size * 1.5 * float64(c.Q)
	y = size * (math.Sqrt(3)/2*float64(c.Q) + math.Sqrt(3)*float64(c.R))
	return x, y
}

// PixelToAxial returns the flat-top hex containing the point (x, y).
func PixelToAxial(x, y, size float64) Coord {
	q := (2.0 / 3.0 * x) / size
	r := (-1.0/3.0*x + math.Sqrt(3)/3*y) / size
	return CubeToAxial(RoundCube(AxialToCube(q, r)))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
