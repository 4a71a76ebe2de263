// Package hexmath provides axial and cube coordinate helpers for the hex grid.
//
// Coordinates are axial (q, r). The cube form used for distance and rounding
// is (x=q, y=-q-r, z=r). Every function is pure and never fails; ranges and
// rings of non-positive radius degrade to the center hex or nothing.
//
// Usage:
//
//	c := hexmath.Coord{Q: 1, R: -1}
//	for _, n := range hexmath.Neighbors(c) {
//		fmt.Println(n, hexmath.Distance(c, n))
//	}
//
// Pixel conversion assumes flat-top hexes centered on the origin.
package hexmath
