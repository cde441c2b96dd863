package display

import (
	"image"
	"image/color"
	"image/draw"
)

var monoPalette = color.Palette{color.Black, color.White}

// Monochrome error-diffuses src down to black and white.
func Monochrome(src image.Image) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), monoPalette)
	draw.FloydSteinberg.Draw(dst, dst.Bounds(), src, b.Min)
	return dst
}

// RotateClockwise turns a landscape frame into the panel's portrait orientation.
func RotateClockwise(src image.Image) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, h, w))
	for y := 0; y < w; y++ {
		for x := 0; x < h; x++ {
			c := color.GrayModel.Convert(src.At(b.Min.X+y, b.Min.Y+h-1-x)).(color.Gray)
			dst.SetGray(x, y, c)
		}
	}
	return dst
}

// fitPanel orients src to match a panel of the given bounds, rotating
// landscape frames onto portrait panels.
func fitPanel(src image.Image, panel image.Rectangle) image.Image {
	sb := src.Bounds()
	landscape := sb.Dx() > sb.Dy()
	portraitPanel := panel.Dy() > panel.Dx()
	if landscape && portraitPanel {
		return RotateClockwise(src)
	}
	return src
}
