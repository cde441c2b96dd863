package imagegen

// CurveSteps is the number of points evaluated per Bezier segment, endpoints included.
const CurveSteps = 101

// Interpolate threads a smooth curve through samples using one cubic Bezier per
// consecutive pair. Control points sit at one and two thirds of the horizontal
// gap, at the left and right sample's height respectively, so the curve is flat
// at every sample. Consecutive segments share their boundary point.
func Interpolate(samples []Point) []Point {
	switch len(samples) {
	case 0:
		return nil
	case 1:
		return []Point{samples[0]}
	}

	out := make([]Point, 0, CurveSteps*(len(samples)-1))
	for i := 0; i+1 < len(samples); i++ {
		p0, p3 := samples[i], samples[i+1]
		dx := p3.X - p0.X
		p1 := Point{X: p0.X + dx/3, Y: p0.Y}
		p2 := Point{X: p0.X + 2*dx/3, Y: p3.Y}
		for s := 0; s < CurveSteps; s++ {
			out = append(out, bezier(p0, p1, p2, p3, float64(s)/float64(CurveSteps-1)))
		}
	}
	return out
}

func bezier(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}
