package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpot_Slug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Ericeira", "ericeira"},
		{"  Praia do Norte, Nazaré ", "praia-do-norte-nazar"},
		{"Bells Beach!", "bells-beach"},
		{"", "spot"},
		{"***", "spot"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Spot{Name: tt.name}.Slug(), "Slug(%q)", tt.name)
	}
}

func TestDaySpan(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Lisbon")
	require.NoError(t, err)

	now := time.Date(2026, 10, 16, 15, 30, 0, 0, loc)
	span := DaySpan(now, 2, loc)

	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, loc), span.From)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, loc), span.To)
	assert.True(t, span.Contains(now))
	assert.False(t, span.Contains(span.To))
}

func TestTimeSpan_Pad(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	span := TimeSpan{From: from, To: from.Add(48 * time.Hour)}

	padded := span.Pad(12 * time.Hour)
	assert.Equal(t, from.Add(-12*time.Hour), padded.From)
	assert.Equal(t, from.Add(60*time.Hour), padded.To)
	assert.Equal(t, 72*time.Hour, padded.Duration())
	assert.Equal(t, 48*time.Hour, span.Duration(), "Pad must not mutate the receiver")
}

func TestTimeSpan_Days(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	span := TimeSpan{From: from, To: from.AddDate(0, 0, 3)}

	days := span.Days(time.UTC)
	require.Len(t, days, 3)
	assert.Equal(t, from, days[0])
	assert.Equal(t, from.AddDate(0, 0, 2), days[2])
}

func TestDatasetKind(t *testing.T) {
	assert.Equal(t, "weather/point", KindWeather.Endpoint())
	assert.Equal(t, "tide/extremes/point", KindTides.Endpoint())
	assert.Equal(t, "astronomy/point", KindAstronomy.Endpoint())
	assert.Equal(t, "tides.json", KindTides.FileName())
	assert.Empty(t, DatasetKind("bogus").Endpoint())
}
