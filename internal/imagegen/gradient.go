package imagegen

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
)

// FillVerticalGradient paints the inside of poly with a gradient that runs from
// top at the canvas' first row to bottom at its last row. The colour of a pixel
// depends only on its row; pixels outside the polygon are left untouched.
func FillVerticalGradient(dst draw.Image, poly []Point, bottom, top color.Color) error {
	if len(poly) < 3 {
		return fmt.Errorf("%w: gradient polygon needs 3 vertices, got %d", ErrInvalidConfig, len(poly))
	}
	bounds := dst.Bounds()
	if bounds.Empty() {
		return fmt.Errorf("%w: empty canvas", ErrInvalidConfig)
	}

	gradient := verticalGradient(bounds, bottom, top)

	mask := gg.NewContext(bounds.Dx(), bounds.Dy())
	mask.Translate(-float64(bounds.Min.X), -float64(bounds.Min.Y))
	tracePolygon(mask, poly)
	mask.SetColor(color.Black)
	mask.Fill()

	draw.DrawMask(dst, bounds, gradient, bounds.Min, mask.AsMask(), image.Point{}, draw.Over)
	return nil
}

// verticalGradient returns an image of the given bounds whose rows interpolate
// linearly from top (first row) to bottom (last row).
func verticalGradient(bounds image.Rectangle, bottom, top color.Color) *image.RGBA {
	img := image.NewRGBA(bounds)
	b := color.RGBAModel.Convert(bottom).(color.RGBA)
	t := color.RGBAModel.Convert(top).(color.RGBA)

	h := bounds.Dy()
	for row := 0; row < h; row++ {
		// 0 on the bottom row, 1 on the top row
		f := 1.0
		if h > 1 {
			f = float64(h-1-row) / float64(h-1)
		}
		c := color.RGBA{
			R: lerp8(b.R, t.R, f),
			G: lerp8(b.G, t.G, f),
			B: lerp8(b.B, t.B, f),
			A: lerp8(b.A, t.A, f),
		}
		y := bounds.Min.Y + row
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func lerp8(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
}
