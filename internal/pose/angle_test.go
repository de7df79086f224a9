package pose

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAngle_RightAngle(t *testing.T) {
	angle, err := Angle(Point{1, 0}, Point{0, 0}, Point{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 90.0, angle)
}

func TestAngle_Cases(t *testing.T) {
	tests := []struct {
		name     string
		a, b, c  Point
		expected float64
	}{
		{name: "straight line", a: Point{1, 0}, b: Point{0, 0}, c: Point{-1, 0}, expected: 180},
		{name: "same direction", a: Point{1, 0}, b: Point{0, 0}, c: Point{2, 0}, expected: 0},
		{name: "45 degrees", a: Point{1, 0}, b: Point{0, 0}, c: Point{1, 1}, expected: 45},
		{name: "negative difference", a: Point{0, 1}, b: Point{0, 0}, c: Point{1, 0}, expected: 90},
		{name: "reflex angle folded", a: Point{-1, 0}, b: Point{0, 0}, c: Point{0, -1}, expected: 90},
		{name: "obtuse", a: Point{1, 0}, b: Point{0, 0}, c: Point{-1, -1}, expected: 135},
		{name: "rounded to two decimals", a: Point{1, 0}, b: Point{0, 0}, c: Point{1, 2}, expected: 63.43},
		{name: "offset vertex", a: Point{11, 5}, b: Point{10, 5}, c: Point{10, 6}, expected: 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			angle, err := Angle(tt.a, tt.b, tt.c)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, angle, 1e-9)
		})
	}
}

func TestAngle_SymmetricAndInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		a := Point{rng.Float64()*2 - 1, rng.Float64()*2 - 1}
		b := Point{rng.Float64()*2 - 1, rng.Float64()*2 - 1}
		c := Point{rng.Float64()*2 - 1, rng.Float64()*2 - 1}

		abc, err := Angle(a, b, c)
		require.NoError(t, err)
		cba, err := Angle(c, b, a)
		require.NoError(t, err)

		assert.Equal(t, abc, cba)
		assert.GreaterOrEqual(t, abc, 0.0)
		assert.LessOrEqual(t, abc, 180.0)
	}
}

func TestAngle_InvalidGeometry(t *testing.T) {
	_, err := Angle(Point{0, 0}, Point{0, 0}, Point{1, 1})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = Angle(Point{1, 1}, Point{0, 0}, Point{0, 0})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = Angle(Point{0, 0}, Point{0, 0}, Point{0, 0})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = Angle(Point{math.NaN(), 0}, Point{0, 0}, Point{0, 1})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = Angle(Point{1, 0}, Point{math.Inf(1), 0}, Point{0, 1})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestAngle_CoincidentEndpointsIsValid(t *testing.T) {
	// a and c may coincide as long as neither ray is zero length
	angle, err := Angle(Point{1, 1}, Point{0, 0}, Point{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, angle)
}
