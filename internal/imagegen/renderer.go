package imagegen

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"

	"github.com/lox/tideline/internal/lunar"
	"github.com/lox/tideline/internal/models"
)

// RenderContext carries the per-invocation values every layer reads. It is
// built once per render and never mutated.
type RenderContext struct {
	Now          time.Time
	Location     *time.Location
	Spot         models.Spot
	Span         models.TimeSpan
	Title        string
	MoonRotation float64 // degrees
}

// waveReferences are the labelled swell heights drawn across the histogram.
var waveReferences = []struct {
	Height float64
	Label  string
}{
	{0.5, "small"},
	{1.5, "large"},
	{3.0, "huge"},
}

// Renderer owns one canvas for one render pass.
type Renderer struct {
	img    *image.RGBA
	dc     *gg.Context
	rc     RenderContext
	style  Style
	pal    palette
	fonts  *Fonts
	mapper *Mapper
	log    logrus.FieldLogger

	width, height float64
}

// NewRenderer allocates a width×height canvas mapped to rc.Span.
func NewRenderer(width, height int, style Style, rc RenderContext, log logrus.FieldLogger) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canvas %dx%d", ErrInvalidConfig, width, height)
	}
	if rc.Location == nil {
		rc.Location = time.Local
	}
	mapper, err := NewMapper(rc.Span, float64(width))
	if err != nil {
		return nil, err
	}
	pal, err := style.palette()
	if err != nil {
		return nil, err
	}
	fonts, err := LoadFonts(height)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	return &Renderer{
		img:    img,
		dc:     gg.NewContextForRGBA(img),
		rc:     rc,
		style:  style,
		pal:    pal,
		fonts:  fonts,
		mapper: mapper,
		log:    log,
		width:  float64(width),
		height: float64(height),
	}, nil
}

// Render draws every layer in order and returns the canvas.
func (r *Renderer) Render(data models.Dataset) (*image.RGBA, error) {
	r.DrawDayNight(data.Astronomy)
	r.DrawTides(data.Tides)
	if err := r.DrawWaves(data.Weather); err != nil {
		return nil, fmt.Errorf("draw waves: %w", err)
	}
	r.DrawDaySeparators()
	if err := r.DrawMoons(data.Astronomy); err != nil {
		return nil, fmt.Errorf("draw moons: %w", err)
	}
	r.DrawWaveReferences()
	r.DrawNow()
	r.DrawTitle()
	return r.img, nil
}

func (r *Renderer) Mapper() *Mapper {
	return r.mapper
}

// Bottom is the histogram baseline.
func (r *Renderer) Bottom() float64 {
	return r.height
}

// WaveScale is the histogram height in pixels of one metre of swell.
func (r *Renderer) WaveScale() float64 {
	return r.style.WaveScale * r.height
}

func (r *Renderer) lineWidth() float64 {
	return r.style.LineWidth * r.height
}

func (r *Renderer) pad() float64 {
	return 0.015 * r.height
}

// DrawDayNight fills the night background, then nested twilight bands and daylight.
func (r *Renderer) DrawDayNight(astro []models.AstronomyRecord) {
	r.dc.SetColor(r.pal.night)
	r.dc.DrawRectangle(0, 0, r.width, r.height)
	r.dc.Fill()

	for _, rec := range astro {
		r.band(rec.AstronomicalDawn.Time, rec.AstronomicalDusk.Time, rec.AstronomicalDawn.Valid && rec.AstronomicalDusk.Valid, r.pal.astronomical)
		r.band(rec.NauticalDawn.Time, rec.NauticalDusk.Time, rec.NauticalDawn.Valid && rec.NauticalDusk.Valid, r.pal.nautical)
		r.band(rec.CivilDawn.Time, rec.CivilDusk.Time, rec.CivilDawn.Valid && rec.CivilDusk.Valid, r.pal.civil)
		r.band(rec.Sunrise.Time, rec.Sunset.Time, rec.Sunrise.Valid && rec.Sunset.Valid, r.pal.day)
	}
}

func (r *Renderer) band(from, to time.Time, ok bool, c color.Color) {
	if !ok {
		return
	}
	x0, x1 := r.mapper.X(from), r.mapper.X(to)
	if x1 <= x0 {
		return
	}
	r.dc.SetColor(c)
	r.dc.DrawRectangle(x0, 0, x1-x0, r.height)
	r.dc.Fill()
}

// TidePoints maps tide extremes into canvas coordinates.
func (r *Renderer) TidePoints(tides []models.TideExtreme) []Point {
	baseline := r.style.TideBaseline * r.height
	scale := r.style.TideScale * r.height
	pts := make([]Point, 0, len(tides))
	for _, t := range tides {
		pts = append(pts, Point{X: r.mapper.X(t.Time), Y: baseline - t.Height*scale})
	}
	return pts
}

// DrawTides strokes a smooth curve through the tide extremes and labels those inside the span.
func (r *Renderer) DrawTides(tides []models.TideExtreme) {
	pts := r.TidePoints(tides)
	if len(pts) < 2 {
		r.log.WithField("extremes", len(pts)).Warn("not enough tide extremes for a curve")
		return
	}

	curve := Interpolate(pts)
	r.dc.NewSubPath()
	for i, p := range curve {
		if i == 0 {
			r.dc.MoveTo(p.X, p.Y)
		} else {
			r.dc.LineTo(p.X, p.Y)
		}
	}
	r.dc.SetColor(r.pal.tide)
	r.dc.SetLineWidth(r.lineWidth())
	r.dc.Stroke()

	r.dc.SetFontFace(r.fonts.Small)
	r.dc.SetColor(r.pal.tideLabel)
	for i, t := range tides {
		if !r.rc.Span.Contains(t.Time) {
			continue
		}
		label := fmt.Sprintf("%.1fm %s", t.Height, t.Time.In(r.rc.Location).Format("15:04"))
		p := pts[i]
		if t.Kind == models.TideHigh {
			r.dc.DrawStringAnchored(label, p.X, p.Y-r.pad(), 0.5, 0)
		} else {
			r.dc.DrawStringAnchored(label, p.X, p.Y+r.pad(), 0.5, 1)
		}
	}
}

// WavePolygon builds the stair-stepped histogram outline: baseline, then for
// every sample its value followed by a step across to the next sample's x,
// then back down to the baseline. Absent heights sit on the baseline.
func (r *Renderer) WavePolygon(samples []models.WeatherSample) []Point {
	if len(samples) == 0 {
		return nil
	}
	bottom := r.Bottom()
	scale := r.WaveScale()

	poly := make([]Point, 0, 2*len(samples)+1)
	poly = append(poly, Point{X: r.mapper.X(samples[0].Time), Y: bottom})
	for i, s := range samples {
		y := bottom
		if s.WaveHeight.Valid {
			y = bottom - s.WaveHeight.Float64*scale
		}
		p := Point{X: r.mapper.X(s.Time), Y: y}
		poly = append(poly, p)
		if i+1 < len(samples) {
			poly = append(poly, Point{X: r.mapper.X(samples[i+1].Time), Y: p.Y})
		}
	}
	poly = append(poly, Point{X: poly[len(poly)-1].X, Y: bottom})
	return poly
}

// DrawWaves fills the wave histogram with the vertical gradient.
func (r *Renderer) DrawWaves(samples []models.WeatherSample) error {
	if len(samples) < 2 {
		r.log.WithField("samples", len(samples)).Warn("not enough weather samples for a histogram")
		return nil
	}
	return FillVerticalGradient(r.img, r.WavePolygon(samples), r.pal.waveBottom, r.pal.waveTop)
}

// DrawDaySeparators draws a vertical line at each midnight and the day name after it.
func (r *Renderer) DrawDaySeparators() {
	r.dc.SetFontFace(r.fonts.Label)
	for i, day := range r.rc.Span.Days(r.rc.Location) {
		x := r.mapper.X(day)
		if i > 0 {
			r.dc.SetColor(r.pal.separator)
			r.dc.SetLineWidth(r.lineWidth() / 2)
			r.dc.DrawLine(x, 0, x, r.height)
			r.dc.Stroke()
		}
		r.dc.SetColor(r.pal.dayLabel)
		r.dc.DrawStringAnchored(day.Format("Mon 2"), x+r.pad(), r.pad(), 0, 1)
	}
}

// DrawMoons draws the moon phase in the top-right corner of every day column.
func (r *Renderer) DrawMoons(astro []models.AstronomyRecord) error {
	radius := r.style.MoonRadius * r.height
	for _, day := range r.rc.Span.Days(r.rc.Location) {
		phase := MoonPhaseFor(day, astro)
		center := Point{
			X: r.mapper.X(day.AddDate(0, 0, 1)) - 2*r.pad() - radius,
			Y: 2*r.pad() + radius,
		}
		shape, err := IlluminatedOutline(center, radius, phase, r.rc.MoonRotation)
		if err != nil {
			return err
		}
		c := r.pal.moon
		c.OutlineWidth = r.lineWidth() / 3
		DrawMoon(r.dc, shape, c)
	}
	return nil
}

// MoonPhaseFor returns the cycle fraction for the local calendar day starting
// at day. Provider records are stamped at UTC midnight, so they are matched on
// their UTC date; days without one fall back to the mean cycle at local noon.
func MoonPhaseFor(day time.Time, astro []models.AstronomyRecord) float64 {
	y, m, d := day.Date()
	for _, rec := range astro {
		ry, rm, rd := rec.Date.UTC().Date()
		if ry == y && rm == m && rd == d && rec.MoonPhase != nil {
			return rec.MoonPhase.Current.Value
		}
	}
	return lunar.Fraction(day.Add(12 * time.Hour))
}

// DrawWaveReferences draws dashed lines at the named swell heights.
func (r *Renderer) DrawWaveReferences() {
	r.dc.SetFontFace(r.fonts.Small)
	r.dc.SetColor(r.pal.reference)
	r.dc.SetLineWidth(r.lineWidth() / 3)
	r.dc.SetDash(4*r.pad(), 2*r.pad())
	for _, ref := range waveReferences {
		y := r.Bottom() - ref.Height*r.WaveScale()
		r.dc.DrawLine(0, y, r.width, y)
		r.dc.Stroke()
	}
	r.dc.SetDash()
	for _, ref := range waveReferences {
		y := r.Bottom() - ref.Height*r.WaveScale()
		r.dc.DrawStringAnchored(ref.Label, r.pad(), y-r.pad()/2, 0, 0)
	}
}

// DrawNow marks the current time with a vertical line and its clock time.
func (r *Renderer) DrawNow() {
	x := r.mapper.X(r.rc.Now)
	r.dc.SetColor(r.pal.now)
	r.dc.SetLineWidth(r.lineWidth())
	r.dc.DrawLine(x, 0, x, r.height)
	r.dc.Stroke()

	r.dc.SetFontFace(r.fonts.Small)
	label := r.rc.Now.In(r.rc.Location).Format("15:04")
	ax := 0.0
	if x > r.width*0.9 {
		ax = 1
	}
	offset := r.pad()
	if ax == 1 {
		offset = -offset
	}
	r.dc.DrawStringAnchored(label, x+offset, r.height*0.12, ax, 1)
}

// DrawTitle writes the title centred along the top edge.
func (r *Renderer) DrawTitle() {
	title := r.rc.Title
	if title == "" {
		title = r.rc.Spot.Name
	}
	if title == "" {
		return
	}
	r.dc.SetFontFace(r.fonts.Title)
	r.dc.SetColor(r.pal.title)
	r.dc.DrawStringAnchored(title, r.width/2, r.pad(), 0.5, 1)
}
