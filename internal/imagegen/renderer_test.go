package imagegen

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tideline/internal/models"
)

func newTestRenderer(t *testing.T, width, height int, span models.TimeSpan) (*Renderer, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	r, err := NewRenderer(width, height, DefaultStyle, RenderContext{
		Now:      span.From.Add(14 * time.Hour),
		Location: time.UTC,
		Spot:     models.Spot{Name: "Ericeira", Latitude: 38.96, Longitude: -9.42},
		Span:     span,
	}, logger)
	require.NoError(t, err)
	return r, hook
}

func wave(h float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: h, Valid: true}
}

func at(tm time.Time) sql.NullTime {
	return sql.NullTime{Time: tm, Valid: true}
}

func TestWavePolygon_StairSteps(t *testing.T) {
	span := testSpan(2)
	r, _ := newTestRenderer(t, 2560, 1536, span)

	t0 := span.From.Add(6 * time.Hour)
	t1 := t0.Add(time.Hour)
	t2 := t1.Add(time.Hour)
	samples := []models.WeatherSample{
		{Time: t0, WaveHeight: wave(1.0)},
		{Time: t1, WaveHeight: wave(1.5)},
		{Time: t2, WaveHeight: wave(0.8)},
	}

	poly := r.WavePolygon(samples)
	bottom, scale, m := r.Bottom(), r.WaveScale(), r.Mapper()
	x0, x1, x2 := m.X(t0), m.X(t1), m.X(t2)

	want := []Point{
		{x0, bottom},
		{x0, bottom - 1.0*scale},
		{x1, bottom - 1.0*scale},
		{x1, bottom - 1.5*scale},
		{x2, bottom - 1.5*scale},
		{x2, bottom - 0.8*scale},
		{x2, bottom},
	}
	require.Len(t, poly, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, poly[i].X, 1e-9, "vertex %d x", i)
		assert.InDelta(t, want[i].Y, poly[i].Y, 1e-9, "vertex %d y", i)
	}
	assert.InDelta(t, 2560.0/48*7, x1, 1e-9)
}

func TestWavePolygon_AbsentHeightSitsOnBaseline(t *testing.T) {
	span := testSpan(1)
	r, _ := newTestRenderer(t, 480, 300, span)

	samples := []models.WeatherSample{
		{Time: span.From, WaveHeight: wave(2)},
		{Time: span.From.Add(time.Hour)},
		{Time: span.From.Add(2 * time.Hour), WaveHeight: wave(1)},
	}
	poly := r.WavePolygon(samples)
	assert.Equal(t, r.Bottom(), poly[3].Y)
	assert.Equal(t, r.Bottom(), poly[4].Y)
}

func TestRender_AllLayers(t *testing.T) {
	span := testSpan(2)
	r, _ := newTestRenderer(t, 960, 576, span)

	var weather []models.WeatherSample
	for h := 0; h < 48; h++ {
		weather = append(weather, models.WeatherSample{
			Time:       span.From.Add(time.Duration(h) * time.Hour),
			WaveHeight: wave(1 + float64(h%12)/10),
		})
	}
	tides := []models.TideExtreme{
		{Time: span.From.Add(-4 * time.Hour), Kind: models.TideLow, Height: -1.1},
		{Time: span.From.Add(2 * time.Hour), Kind: models.TideHigh, Height: 1.2},
		{Time: span.From.Add(8 * time.Hour), Kind: models.TideLow, Height: -1.0},
		{Time: span.From.Add(14 * time.Hour), Kind: models.TideHigh, Height: 1.3},
		{Time: span.From.Add(20 * time.Hour), Kind: models.TideLow, Height: -0.9},
		{Time: span.From.Add(26 * time.Hour), Kind: models.TideHigh, Height: 1.1},
		{Time: span.From.Add(52 * time.Hour), Kind: models.TideLow, Height: -1.2},
	}
	var astro []models.AstronomyRecord
	for d := 0; d < 2; d++ {
		day := span.From.AddDate(0, 0, d)
		rec := models.AstronomyRecord{
			Date:             day,
			AstronomicalDawn: at(day.Add(5 * time.Hour)),
			AstronomicalDusk: at(day.Add(21 * time.Hour)),
			NauticalDawn:     at(day.Add(5*time.Hour + 30*time.Minute)),
			NauticalDusk:     at(day.Add(20*time.Hour + 30*time.Minute)),
			CivilDawn:        at(day.Add(6 * time.Hour)),
			CivilDusk:        at(day.Add(20 * time.Hour)),
			Sunrise:          at(day.Add(6*time.Hour + 30*time.Minute)),
			Sunset:           at(day.Add(19*time.Hour + 30*time.Minute)),
		}
		if d == 0 {
			rec.MoonPhase = &models.MoonPhaseInfo{Current: models.MoonPhaseMarker{Text: "Waxing crescent", Value: 0.2}}
		}
		astro = append(astro, rec)
	}

	img, err := r.Render(models.Dataset{Weather: weather, Tides: tides, Astronomy: astro})
	require.NoError(t, err)
	require.NotNil(t, img)

	night, day := r.pal.night, r.pal.day
	// 02:00 on day one is night, noon is daylight; sample just below the title row
	assert.Equal(t, night, img.RGBAAt(int(r.Mapper().X(span.From.Add(2*time.Hour))), 200))
	assert.Equal(t, day, img.RGBAAt(int(r.Mapper().X(span.From.Add(10*time.Hour))), 200))

	// the histogram reaches the bottom row
	x := int(r.Mapper().X(span.From.Add(3 * time.Hour)))
	assert.NotEqual(t, night, img.RGBAAt(x, 575))
}

func TestRender_WarnsOnSparseData(t *testing.T) {
	span := testSpan(1)
	r, hook := newTestRenderer(t, 320, 200, span)

	_, err := r.Render(models.Dataset{})
	require.NoError(t, err)

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestRender_RejectsBadMoonPhase(t *testing.T) {
	span := testSpan(1)
	r, _ := newTestRenderer(t, 320, 200, span)

	astro := []models.AstronomyRecord{{
		Date:      span.From,
		MoonPhase: &models.MoonPhaseInfo{Current: models.MoonPhaseMarker{Value: 1.7}},
	}}
	_, err := r.Render(models.Dataset{Astronomy: astro})
	assert.True(t, errors.Is(err, ErrInvalidConfig), "err = %v", err)
}

func TestNewRenderer_Invalid(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	span := testSpan(1)

	_, err := NewRenderer(0, 100, DefaultStyle, RenderContext{Span: span}, logger)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = NewRenderer(100, 100, DefaultStyle, RenderContext{Span: models.TimeSpan{From: span.From, To: span.From}}, logger)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	bad := DefaultStyle
	bad.Night = "not-a-colour"
	_, err = NewRenderer(100, 100, bad, RenderContext{Span: span}, logger)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestMoonPhaseFor_FallsBackToLunarCycle(t *testing.T) {
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	astro := []models.AstronomyRecord{{
		Date:      day,
		MoonPhase: &models.MoonPhaseInfo{Current: models.MoonPhaseMarker{Value: 0.31}},
	}}

	assert.Equal(t, 0.31, MoonPhaseFor(day, astro))

	next := day.AddDate(0, 0, 1)
	got := MoonPhaseFor(next, astro)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.Less(t, got, 1.0)
}

func TestMoonPhaseFor_MatchesUTCDateWestOfGreenwich(t *testing.T) {
	pacific := time.FixedZone("PDT", -7*3600)
	astro := []models.AstronomyRecord{
		{
			Date:      time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
			MoonPhase: &models.MoonPhaseInfo{Current: models.MoonPhaseMarker{Value: 0.31}},
		},
		{
			Date:      time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
			MoonPhase: &models.MoonPhaseInfo{Current: models.MoonPhaseMarker{Value: 0.35}},
		},
	}

	day := time.Date(2026, 10, 16, 0, 0, 0, 0, pacific)
	assert.Equal(t, 0.31, MoonPhaseFor(day, astro))
	assert.Equal(t, 0.35, MoonPhaseFor(day.AddDate(0, 0, 1), astro))
}

func TestDownsample(t *testing.T) {
	src := filled(200, 100, navy)
	dst, err := Downsample(src, 50, 25)
	require.NoError(t, err)
	assert.Equal(t, 50, dst.Bounds().Dx())
	got := dst.RGBAAt(25, 12)
	assert.InDelta(t, navy.B, got.B, 1)
	assert.InDelta(t, navy.R, got.R, 1)

	_, err = Downsample(src, 0, 25)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestMoonStrip(t *testing.T) {
	img, err := MoonStrip(8, 40, 48, DefaultStyle)
	require.NoError(t, err)
	assert.Equal(t, 8*(80+8)+8, img.Bounds().Dx())
}
