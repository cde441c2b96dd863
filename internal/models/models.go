package models

import (
	"database/sql"
	"strings"
	"time"
)

type Spot struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Slug returns a filesystem-safe name for the spot's data directory.
func (s Spot) Slug() string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s.Name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "spot"
	}
	return slug
}

// TimeSpan is the half-open interval [From, To).
type TimeSpan struct {
	From time.Time
	To   time.Time
}

// DaySpan spans `days` whole calendar days starting at local midnight of now.
func DaySpan(now time.Time, days int, loc *time.Location) TimeSpan {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return TimeSpan{From: start, To: start.AddDate(0, 0, days)}
}

func (s TimeSpan) Duration() time.Duration {
	return s.To.Sub(s.From)
}

func (s TimeSpan) Contains(t time.Time) bool {
	return !t.Before(s.From) && t.Before(s.To)
}

// Pad widens the span by d on both sides.
func (s TimeSpan) Pad(d time.Duration) TimeSpan {
	return TimeSpan{From: s.From.Add(-d), To: s.To.Add(d)}
}

// Days returns local midnight for every calendar day the span touches.
func (s TimeSpan) Days(loc *time.Location) []time.Time {
	var days []time.Time
	from := s.From.In(loc)
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	for day.Before(s.To) {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}
	return days
}

type DatasetKind string

const (
	KindWeather   DatasetKind = "weather"
	KindTides     DatasetKind = "tides"
	KindAstronomy DatasetKind = "astronomy"
)

// Endpoint is the provider path relative to the API base URL.
func (k DatasetKind) Endpoint() string {
	switch k {
	case KindWeather:
		return "weather/point"
	case KindTides:
		return "tide/extremes/point"
	case KindAstronomy:
		return "astronomy/point"
	default:
		return ""
	}
}

func (k DatasetKind) FileName() string {
	return string(k) + ".json"
}

type WeatherSample struct {
	Time       time.Time
	WaveHeight sql.NullFloat64 // metres
}

type TideKind string

const (
	TideHigh TideKind = "high"
	TideLow  TideKind = "low"
)

type TideExtreme struct {
	Time   time.Time
	Kind   TideKind
	Height float64 // metres relative to mean sea level
}

type MoonPhaseMarker struct {
	Text  string
	Time  time.Time
	Value float64 // 0 new, 0.25 first quarter, 0.5 full, 0.75 last quarter
}

type MoonPhaseInfo struct {
	Current MoonPhaseMarker
	Closest MoonPhaseMarker
}

type AstronomyRecord struct {
	Date             time.Time
	Sunrise          sql.NullTime
	Sunset           sql.NullTime
	Moonrise         sql.NullTime
	Moonset          sql.NullTime
	AstronomicalDawn sql.NullTime
	AstronomicalDusk sql.NullTime
	NauticalDawn     sql.NullTime
	NauticalDusk     sql.NullTime
	CivilDawn        sql.NullTime
	CivilDusk        sql.NullTime
	MoonFraction     sql.NullFloat64
	MoonPhase        *MoonPhaseInfo
}

// Dataset bundles everything one render pass consumes.
type Dataset struct {
	Weather   []WeatherSample
	Tides     []TideExtreme
	Astronomy []AstronomyRecord
}
