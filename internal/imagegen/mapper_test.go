package imagegen

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tideline/internal/models"
)

func testSpan(days int) models.TimeSpan {
	from := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	return models.TimeSpan{From: from, To: from.AddDate(0, 0, days)}
}

func TestMapper_Endpoints(t *testing.T) {
	span := testSpan(2)
	m, err := NewMapper(span, 2560)
	require.NoError(t, err)

	assert.Equal(t, 0.0, m.X(span.From))
	assert.Equal(t, 2560.0, m.X(span.To))
	assert.InDelta(t, 1280.0, m.X(span.From.Add(span.Duration()/2)), 1e-9)
}

func TestMapper_Monotonic(t *testing.T) {
	span := testSpan(3)
	m, err := NewMapper(span, 1000)
	require.NoError(t, err)

	prev := math.Inf(-1)
	for ts := span.From; !ts.After(span.To); ts = ts.Add(37 * time.Minute) {
		x := m.X(ts)
		assert.GreaterOrEqual(t, x, prev, "X(%s)", ts)
		prev = x
	}
}

func TestMapper_Extrapolates(t *testing.T) {
	span := testSpan(1)
	m, err := NewMapper(span, 240)
	require.NoError(t, err)

	assert.InDelta(t, -10.0, m.X(span.From.Add(-time.Hour)), 1e-9)
	assert.InDelta(t, 250.0, m.X(span.To.Add(time.Hour)), 1e-9)
}

func TestNewMapper_Invalid(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		span  models.TimeSpan
		width float64
	}{
		{"zero length span", models.TimeSpan{From: from, To: from}, 100},
		{"reversed span", models.TimeSpan{From: from, To: from.Add(-time.Hour)}, 100},
		{"zero width", models.TimeSpan{From: from, To: from.Add(time.Hour)}, 0},
		{"negative width", models.TimeSpan{From: from, To: from.Add(time.Hour)}, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMapper(tt.span, tt.width)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "err = %v", err)
		})
	}
}
