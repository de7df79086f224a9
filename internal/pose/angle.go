package pose

import (
	"errors"
	"math"
)

// ErrInvalidGeometry is returned when an angle cannot be measured, e.g. when
// a ray has zero length because two points coincide.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Point is a 2D coordinate, either normalized [0,1] or in pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) isFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Angle returns the angle in degrees at vertex b between the rays b->a and
// b->c, folded into [0,180] and rounded to two decimals.
func Angle(a, b, c Point) (float64, error) {
	if !a.isFinite() || !b.isFinite() || !c.isFinite() {
		return 0, ErrInvalidGeometry
	}
	if a == b || c == b {
		return 0, ErrInvalidGeometry
	}

	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	degrees := math.Abs(radians * 180.0 / math.Pi)
	if degrees > 180 {
		degrees = 360 - degrees
	}
	return math.Round(degrees*100) / 100, nil
}
