package imagegen

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Fonts holds the faces used by one render pass.
type Fonts struct {
	Title font.Face
	Label font.Face
	Small font.Face
}

// LoadFonts parses the embedded Go fonts at sizes proportional to the canvas height.
func LoadFonts(canvasHeight int) (*Fonts, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse Go Regular: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse Go Bold: %w", err)
	}

	unit := float64(canvasHeight) / 100
	title, err := newFace(bold, 6*unit)
	if err != nil {
		return nil, fmt.Errorf("create title face: %w", err)
	}
	label, err := newFace(bold, 4*unit)
	if err != nil {
		return nil, fmt.Errorf("create label face: %w", err)
	}
	small, err := newFace(regular, 3*unit)
	if err != nil {
		return nil, fmt.Errorf("create small face: %w", err)
	}

	return &Fonts{Title: title, Label: label, Small: small}, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	if size < 6 {
		size = 6
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
