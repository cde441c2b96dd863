package imagegen

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIlluminatedOutline_Discs(t *testing.T) {
	center := Point{X: 50, Y: 60}

	for _, phase := range []float64{0, 1} {
		shape, err := IlluminatedOutline(center, 20, phase, 30)
		require.NoError(t, err)
		assert.Equal(t, MoonNewDisc, shape.Kind, "phase %v", phase)
		assert.Nil(t, shape.Polygon)
		assert.Equal(t, center, shape.Center)
		assert.Equal(t, 20.0, shape.Radius)
	}

	shape, err := IlluminatedOutline(center, 20, 0.5, 30)
	require.NoError(t, err)
	assert.Equal(t, MoonFullDisc, shape.Kind)
}

func TestIlluminatedOutline_PolygonInsideDisc(t *testing.T) {
	center := Point{X: 120, Y: -40}
	const radius = 75.0

	for i := 1; i < 40; i++ {
		phase := float64(i) / 40
		if phase == 0.5 {
			continue
		}
		for _, rot := range []float64{0, 48, -120} {
			shape, err := IlluminatedOutline(center, radius, phase, rot)
			require.NoError(t, err)
			require.Equal(t, MoonPolygon, shape.Kind)
			require.Len(t, shape.Polygon, 2*180/MoonAngleStep)

			for _, p := range shape.Polygon {
				d := math.Hypot(p.X-center.X, p.Y-center.Y)
				assert.LessOrEqual(t, d, radius+1e-9, "phase %.3f rot %.0f", phase, rot)
				assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y))
			}
		}
	}
}

func TestIlluminatedOutline_LitArea(t *testing.T) {
	// lit area tracks (1 - cos 2πf)/2 of the disc: a sliver near new, half at the quarters
	area := func(phase float64) float64 {
		shape, err := IlluminatedOutline(Point{}, 1, phase, 0)
		require.NoError(t, err)
		return polygonArea(shape.Polygon) / math.Pi
	}

	assert.Less(t, area(0.02), 0.05)
	assert.InDelta(t, 0.5, area(0.25), 0.02)
	assert.InDelta(t, 0.5, area(0.75), 0.02)
	assert.Greater(t, area(0.45), 0.9)
	assert.Greater(t, area(0.55), 0.9)
	assert.Less(t, area(0.98), 0.05)
}

func TestIlluminatedOutline_WaxingAndWaningMirror(t *testing.T) {
	waxing, err := IlluminatedOutline(Point{}, 1, 0.2, 0)
	require.NoError(t, err)
	waning, err := IlluminatedOutline(Point{}, 1, 0.8, 0)
	require.NoError(t, err)

	// waxing is lit on +x, waning on -x
	assert.Greater(t, centroidX(waxing.Polygon), 0.0)
	assert.Less(t, centroidX(waning.Polygon), 0.0)
}

func TestIlluminatedOutline_RotationNegatedWhenWaning(t *testing.T) {
	plain, err := IlluminatedOutline(Point{}, 1, 0.7, 0)
	require.NoError(t, err)
	rotated, err := IlluminatedOutline(Point{}, 1, 0.7, 90)
	require.NoError(t, err)

	// rotating by -90°: (x, y) -> (y, -x)
	for i := range plain.Polygon {
		assert.InDelta(t, plain.Polygon[i].Y, rotated.Polygon[i].X, 1e-9)
		assert.InDelta(t, -plain.Polygon[i].X, rotated.Polygon[i].Y, 1e-9)
	}
}

func TestIlluminatedOutline_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		phase  float64
		rot    float64
	}{
		{"zero radius", 0, 0.3, 0},
		{"negative radius", -1, 0.3, 0},
		{"NaN radius", math.NaN(), 0.3, 0},
		{"phase below zero", 10, -0.1, 0},
		{"phase above one", 10, 1.1, 0},
		{"NaN phase", 10, math.NaN(), 0},
		{"infinite rotation", 10, 0.3, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IlluminatedOutline(Point{}, tt.radius, tt.phase, tt.rot)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "err = %v", err)
		})
	}
}

func polygonArea(ps []Point) float64 {
	var sum float64
	for i := range ps {
		j := (i + 1) % len(ps)
		sum += ps[i].X*ps[j].Y - ps[j].X*ps[i].Y
	}
	return math.Abs(sum) / 2
}

func centroidX(ps []Point) float64 {
	var sum float64
	for _, p := range ps {
		sum += p.X
	}
	return sum / float64(len(ps))
}
