package command

import (
	"fmt"
	"math"
)

// Point is an integer offset on the horizontal plane.
type Point struct {
	X int
	Y int
}

// CirclePoints spreads n points evenly on a circle of the given radius,
// starting at 90° and moving clockwise. Coordinates are rounded half to
// even. Callers must validate n and radius; out-of-range values panic.
func CirclePoints(n, radius int) []Point {
	if n < 1 {
		panic(fmt.Sprintf("command: CirclePoints needs n >= 1, got %d", n))
	}
	if radius < 1 {
		panic(fmt.Sprintf("command: CirclePoints needs radius >= 1, got %d", radius))
	}

	r := float64(radius)
	step := 2 * math.Pi / float64(n)

	points := make([]Point, n)
	for i := range points {
		angle := math.Pi/2 - float64(i)*step
		points[i] = Point{
			X: int(math.RoundToEven(r * math.Cos(angle))),
			Y: int(math.RoundToEven(r * math.Sin(angle))),
		}
	}
	return points
}
