package imagegen

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Style defines the colours and proportions of the timeline. Colours are hex
// strings; sizes are fractions of the canvas height unless noted.
type Style struct {
	Night            string
	AstronomicalTwil string
	NauticalTwil     string
	CivilTwil        string
	Day              string

	Tide      string
	TideLabel string

	WaveBottom string
	WaveTop    string

	Separator string
	DayLabel  string
	Reference string
	Now       string
	Title     string

	MoonLit         string
	MoonLitOutline  string
	MoonDark        string
	MoonDarkOutline string

	// WaveScale is the histogram height of one metre of swell.
	WaveScale float64
	// TideBaseline is the vertical position of mean sea level.
	TideBaseline float64
	// TideScale is the curve height of one metre of tide.
	TideScale float64
	// LineWidth is the stroke width of the tide curve and markers.
	LineWidth float64
	// MoonRadius is the radius of the per-day moon disc.
	MoonRadius float64
}

// DefaultStyle is the colour theme for full-colour displays and PNG output.
var DefaultStyle = Style{
	Night:            "#0b1026",
	AstronomicalTwil: "#141c3d",
	NauticalTwil:     "#22305e",
	CivilTwil:        "#3b4f86",
	Day:              "#dfe9f3",

	Tide:      "#1f6fb2",
	TideLabel: "#1f4f7a",

	WaveBottom: "#0a3d62",
	WaveTop:    "#7fd3e6",

	Separator: "#8a8f99",
	DayLabel:  "#f4f1e8",
	Reference: "#c4c9d1",
	Now:       "#e4572e",
	Title:     "#1b2a41",

	MoonLit:         "#fdf6e3",
	MoonLitOutline:  "#2b2b2b",
	MoonDark:        "#1a1a1a",
	MoonDarkOutline: "#fdf6e3",

	WaveScale:    0.12,
	TideBaseline: 0.42,
	TideScale:    0.09,
	LineWidth:    0.006,
	MoonRadius:   0.045,
}

// MonoStyle renders in greys that survive 1-bit dithering on e-paper.
var MonoStyle = Style{
	Night:            "#000000",
	AstronomicalTwil: "#303030",
	NauticalTwil:     "#606060",
	CivilTwil:        "#a0a0a0",
	Day:              "#ffffff",

	Tide:      "#000000",
	TideLabel: "#000000",

	WaveBottom: "#000000",
	WaveTop:    "#707070",

	Separator: "#808080",
	DayLabel:  "#ffffff",
	Reference: "#808080",
	Now:       "#000000",
	Title:     "#000000",

	MoonLit:         "#ffffff",
	MoonLitOutline:  "#000000",
	MoonDark:        "#000000",
	MoonDarkOutline: "#ffffff",

	WaveScale:    0.12,
	TideBaseline: 0.42,
	TideScale:    0.09,
	LineWidth:    0.008,
	MoonRadius:   0.045,
}

// StyleByName returns the named theme; unknown names fall back to DefaultStyle.
func StyleByName(name string) Style {
	if strings.EqualFold(name, "mono") {
		return MonoStyle
	}
	return DefaultStyle
}

// ParseHex parses #rgb or #rrggbb into an opaque colour.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: colour %q", ErrInvalidConfig, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: colour %q: %v", ErrInvalidConfig, s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// palette is a Style with its colours parsed once per render.
type palette struct {
	night, astronomical, nautical, civil, day color.RGBA
	tide, tideLabel                           color.RGBA
	waveBottom, waveTop                       color.RGBA
	separator, dayLabel, reference, now       color.RGBA
	title                                     color.RGBA
	moon                                      MoonColors
}

func (s Style) palette() (palette, error) {
	var p palette
	var err error
	parse := func(dst *color.RGBA, hex string) {
		if err != nil {
			return
		}
		*dst, err = ParseHex(hex)
	}
	parse(&p.night, s.Night)
	parse(&p.astronomical, s.AstronomicalTwil)
	parse(&p.nautical, s.NauticalTwil)
	parse(&p.civil, s.CivilTwil)
	parse(&p.day, s.Day)
	parse(&p.tide, s.Tide)
	parse(&p.tideLabel, s.TideLabel)
	parse(&p.waveBottom, s.WaveBottom)
	parse(&p.waveTop, s.WaveTop)
	parse(&p.separator, s.Separator)
	parse(&p.dayLabel, s.DayLabel)
	parse(&p.reference, s.Reference)
	parse(&p.now, s.Now)
	parse(&p.title, s.Title)

	var lit, litOutline, dark, darkOutline color.RGBA
	parse(&lit, s.MoonLit)
	parse(&litOutline, s.MoonLitOutline)
	parse(&dark, s.MoonDark)
	parse(&darkOutline, s.MoonDarkOutline)
	if err != nil {
		return palette{}, err
	}
	p.moon = MoonColors{Lit: lit, LitOutline: litOutline, Dark: dark, DarkOutline: darkOutline}
	return p, nil
}
