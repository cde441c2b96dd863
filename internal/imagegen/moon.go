package imagegen

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// MoonAngleStep is the angular resolution, in degrees, of limb and terminator arcs.
const MoonAngleStep = 5

type MoonShapeKind int

const (
	MoonPolygon MoonShapeKind = iota
	MoonNewDisc
	MoonFullDisc
)

// MoonShape describes the lit region of the moon's disc. Disc kinds carry no
// polygon; MoonPolygon is implicitly closed (last point connects to the first).
type MoonShape struct {
	Kind    MoonShapeKind
	Center  Point
	Radius  float64
	Polygon []Point
}

// IlluminatedOutline builds the lit region for phase in [0,1] (0 and 1 new,
// 0.5 full) with the terminator rotated by rotationDeg around the centre.
func IlluminatedOutline(center Point, radius, phase, rotationDeg float64) (MoonShape, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return MoonShape{}, fmt.Errorf("%w: moon radius %v", ErrInvalidConfig, radius)
	}
	if math.IsNaN(phase) || phase < 0 || phase > 1 {
		return MoonShape{}, fmt.Errorf("%w: moon phase %v outside [0,1]", ErrInvalidConfig, phase)
	}
	if math.IsNaN(rotationDeg) || math.IsInf(rotationDeg, 0) {
		return MoonShape{}, fmt.Errorf("%w: moon rotation %v", ErrInvalidConfig, rotationDeg)
	}

	shape := MoonShape{Center: center, Radius: radius}
	switch {
	case phase == 0 || phase == 1:
		shape.Kind = MoonNewDisc
		return shape, nil
	case phase == 0.5:
		shape.Kind = MoonFullDisc
		return shape, nil
	}

	m := terminatorMinorAxis(phase)
	rotation := rotationDeg * math.Pi / 180
	var unit []Point
	if phase < 0.5 {
		unit = append(unit, limbArc(0, 180)...)
		unit = append(unit, terminatorArc(180, 0, m)...)
	} else {
		rotation = -rotation
		unit = append(unit, terminatorArc(360, 180, m)...)
		unit = append(unit, limbArc(180, 360)...)
	}

	sin, cos := math.Sincos(rotation)
	shape.Kind = MoonPolygon
	shape.Polygon = make([]Point, len(unit))
	for i, p := range unit {
		x, y := p.X*radius, p.Y*radius
		shape.Polygon[i] = Point{
			X: x*cos - y*sin + center.X,
			Y: x*sin + y*cos + center.Y,
		}
	}
	return shape, nil
}

// terminatorMinorAxis scales the terminator ellipse: +1 at new moon, 0 at the
// quarters, -1 at full.
func terminatorMinorAxis(phase float64) float64 {
	return math.Cos(2 * math.Pi * phase)
}

// limbArc walks the unit circle from `from` up to, but excluding, `to` degrees.
func limbArc(from, to int) []Point {
	var ps []Point
	for t := from; t < to; t += MoonAngleStep {
		a := float64(t) * math.Pi / 180
		ps = append(ps, Point{X: math.Sin(a), Y: math.Cos(a)})
	}
	return ps
}

// terminatorArc walks the ellipse (m·sin θ, cos θ) from `from` down to, but excluding, `to` degrees.
func terminatorArc(from, to int, m float64) []Point {
	var ps []Point
	for t := from; t > to; t -= MoonAngleStep {
		a := float64(t) * math.Pi / 180
		ps = append(ps, Point{X: m * math.Sin(a), Y: math.Cos(a)})
	}
	return ps
}

// MoonColors is the fill and outline pair for each disc state.
type MoonColors struct {
	Lit          color.Color
	LitOutline   color.Color
	Dark         color.Color
	DarkOutline  color.Color
	OutlineWidth float64
}

// DrawMoon paints a shape. Partial phases get the dark disc first so the
// unlit side stays visible against the background.
func DrawMoon(dc *gg.Context, shape MoonShape, c MoonColors) {
	dc.SetLineWidth(c.OutlineWidth)
	disc := func(fill, outline color.Color) {
		dc.DrawCircle(shape.Center.X, shape.Center.Y, shape.Radius)
		dc.SetColor(fill)
		dc.FillPreserve()
		dc.SetColor(outline)
		dc.Stroke()
	}

	switch shape.Kind {
	case MoonNewDisc:
		disc(c.Dark, c.DarkOutline)
	case MoonFullDisc:
		disc(c.Lit, c.LitOutline)
	default:
		disc(c.Dark, c.DarkOutline)
		tracePolygon(dc, shape.Polygon)
		dc.SetColor(c.Lit)
		dc.FillPreserve()
		dc.SetColor(c.LitOutline)
		dc.Stroke()
	}
}

func tracePolygon(dc *gg.Context, poly []Point) {
	dc.NewSubPath()
	for i, p := range poly {
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
		} else {
			dc.LineTo(p.X, p.Y)
		}
	}
	dc.ClosePath()
}
