package imagegen

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// MoonStrip draws n moons side by side with phases 0, 1/n, 2/n, ... so the
// whole cycle can be inspected in one image.
func MoonStrip(n int, radius, rotationDeg float64, style Style) (*image.RGBA, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: moon strip needs at least one phase", ErrInvalidConfig)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("%w: moon radius %v", ErrInvalidConfig, radius)
	}
	pal, err := style.palette()
	if err != nil {
		return nil, err
	}

	gap := radius / 5
	d := 2 * radius
	w := int(float64(n)*(d+gap) + gap)
	h := int(d + 2*gap)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	dc := gg.NewContextForRGBA(img)
	dc.SetColor(color.RGBA{R: 128, G: 128, B: 128, A: 255})
	dc.Clear()

	colors := pal.moon
	colors.OutlineWidth = radius / 50
	x := gap + radius
	for i := 0; i < n; i++ {
		shape, err := IlluminatedOutline(Point{X: x, Y: gap + radius}, radius, float64(i)/float64(n), rotationDeg)
		if err != nil {
			return nil, err
		}
		DrawMoon(dc, shape, colors)
		x += d + gap
	}
	return img, nil
}
