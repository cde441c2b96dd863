package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tideline/internal/models"
)

func lisbon(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Lisbon")
	require.NoError(t, err)
	return loc
}

func indented(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.Indent(&buf, []byte(body), "", "    "))
	return buf.Bytes()
}

func TestCache_SaveWritesIndentedBodyAndSidecar(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "ericeira"))
	fetched := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	span := models.TimeSpan{From: fetched.Add(-8 * time.Hour), To: fetched.Add(64 * time.Hour)}

	require.NoError(t, c.Save(models.KindTides, []byte(tidesBody), CacheMeta{FetchedAt: fetched, SpanFrom: span.From, SpanTo: span.To}))

	got, err := os.ReadFile(c.Path(models.KindTides))
	require.NoError(t, err)
	assert.Equal(t, indented(t, tidesBody), got)
	assert.Contains(t, string(got), "\n    \"data\": [")

	meta, err := c.Meta(models.KindTides)
	require.NoError(t, err)
	assert.Equal(t, models.KindTides, meta.Kind)
	assert.True(t, meta.FetchedAt.Equal(fetched))
	assert.True(t, meta.Span().From.Equal(span.From))

	// no temp files left behind
	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCache_SidecarFailureDropsStaleSidecar(t *testing.T) {
	c := NewCache(t.TempDir())
	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)

	require.NoError(t, c.Save(models.KindTides, []byte(tidesBody), CacheMeta{FetchedAt: yesterday}))
	require.False(t, c.IsFresh(models.KindTides, now, time.Local))

	orig := writeFile
	t.Cleanup(func() { writeFile = orig })
	writeFile = func(path string, data []byte, perm os.FileMode) error {
		if filepath.Base(path) == "tides.meta.json" {
			return errors.New("disk full")
		}
		return orig(path, data, perm)
	}

	err := c.Save(models.KindTides, []byte(tidesBody), CacheMeta{FetchedAt: now})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(c.Dir(), "tides.meta.json"))
	assert.True(t, os.IsNotExist(statErr), "stale sidecar removed")
	assert.True(t, c.IsFresh(models.KindTides, now, time.Local), "payload mtime makes it fresh")
}

func TestCache_SaveRejectsInvalidJSON(t *testing.T) {
	c := NewCache(t.TempDir())
	err := c.Save(models.KindWeather, []byte(`{"hours": [`), CacheMeta{})
	assert.Error(t, err)
	_, statErr := os.Stat(c.Path(models.KindWeather))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCache_IsFresh(t *testing.T) {
	loc := lisbon(t)
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, loc)

	tests := []struct {
		name      string
		fetchedAt time.Time
		want      bool
	}{
		{"earlier today", now.Add(-9 * time.Hour), true},
		{"just now", now, true},
		{"yesterday evening", now.Add(-10 * time.Hour), false},
		{"tomorrow", now.Add(24 * time.Hour), false},
		// 23:30 UTC on the 15th is already the 16th in Lisbon (UTC+1)
		{"local midnight crossing", time.Date(2026, 10, 15, 23, 30, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache(t.TempDir())
			require.NoError(t, c.Save(models.KindWeather, []byte(weatherBody), CacheMeta{FetchedAt: tt.fetchedAt}))
			assert.Equal(t, tt.want, c.IsFresh(models.KindWeather, now, loc))
		})
	}
}

func TestCache_IsFresh_Missing(t *testing.T) {
	c := NewCache(t.TempDir())
	assert.False(t, c.IsFresh(models.KindAstronomy, time.Now(), time.UTC))

	// a sidecar without its payload is not a cache entry
	require.NoError(t, c.Save(models.KindAstronomy, []byte(astronomyBody), CacheMeta{FetchedAt: time.Now()}))
	require.NoError(t, os.Remove(c.Path(models.KindAstronomy)))
	assert.False(t, c.IsFresh(models.KindAstronomy, time.Now(), time.UTC))
}

func TestCache_IsFresh_FallsBackToModTime(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir)
	path := c.Path(models.KindTides)
	require.NoError(t, os.WriteFile(path, []byte(tidesBody), 0644))

	now := time.Now()
	assert.True(t, c.IsFresh(models.KindTides, now, time.Local))

	yesterday := now.AddDate(0, 0, -1)
	require.NoError(t, os.Chtimes(path, yesterday, yesterday))
	assert.False(t, c.IsFresh(models.KindTides, now, time.Local))

	// an unreadable sidecar also falls back to the modification time
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tides.meta.json"), []byte("{"), 0644))
	assert.False(t, c.IsFresh(models.KindTides, now, time.Local))
}
