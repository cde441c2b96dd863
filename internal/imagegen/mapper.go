package imagegen

import (
	"errors"
	"fmt"
	"time"

	"github.com/lox/tideline/internal/models"
)

// ErrInvalidConfig is returned for geometry that would otherwise produce NaN or
// infinite coordinates: empty time spans, non-positive sizes, out-of-range phases.
var ErrInvalidConfig = errors.New("invalid render configuration")

// Point is a position in canvas pixels.
type Point struct {
	X, Y float64
}

// Mapper converts instants to horizontal pixel offsets across a time span.
type Mapper struct {
	from  int64
	span  float64
	width float64
}

// NewMapper maps span onto [0, width]. Instants outside the span extrapolate linearly.
func NewMapper(span models.TimeSpan, width float64) (*Mapper, error) {
	if !span.To.After(span.From) {
		return nil, fmt.Errorf("%w: time span %s..%s is empty", ErrInvalidConfig,
			span.From.Format(time.RFC3339), span.To.Format(time.RFC3339))
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: canvas width %.0f", ErrInvalidConfig, width)
	}
	return &Mapper{
		from:  span.From.UnixNano(),
		span:  float64(span.To.UnixNano() - span.From.UnixNano()),
		width: width,
	}, nil
}

// X returns width * (t - from) / (to - from).
func (m *Mapper) X(t time.Time) float64 {
	return m.width * (float64(t.UnixNano()-m.from) / m.span)
}

func (m *Mapper) Width() float64 {
	return m.width
}
