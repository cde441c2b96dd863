package ingest

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/lox/tideline/internal/metrics"
	"github.com/lox/tideline/internal/models"
	"github.com/lox/tideline/internal/store"
)

// TidePadding widens the tide request so the curve runs off both canvas edges.
const TidePadding = 12 * time.Hour

// DefaultWeatherParams are requested when no weather parameters are given.
var DefaultWeatherParams = []string{"waveHeight"}

// Auditor records provider calls. *store.Store implements it.
type Auditor interface {
	StartFetchRun(runID, kind, endpoint, spot string, from, to time.Time) (*store.FetchRun, error)
	CompleteFetchRun(run *store.FetchRun) error
	StoreRawPayload(runID *int64, kind, endpoint, spot string, payload []byte) (int64, error)
	GetRawPayloadByHash(hash string) (*store.RawPayload, error)
}

// Manager serves datasets from the daily cache, fetching from Stormglass when
// the cache was not written today.
type Manager struct {
	client *Client
	cache  *Cache
	loc    *time.Location
	now    func() time.Time
	audit  Auditor
	runID  string
	log    logrus.FieldLogger
}

type ManagerOption func(*Manager)

// WithAuditor records every provider call under runID.
func WithAuditor(a Auditor, runID string) ManagerOption {
	return func(m *Manager) {
		m.audit = a
		m.runID = runID
	}
}

// WithClock overrides time.Now for freshness checks and sidecar timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(client *Client, cache *Cache, loc *time.Location, log logrus.FieldLogger, opts ...ManagerOption) *Manager {
	if loc == nil {
		loc = time.Local
	}
	m := &Manager{
		client: client,
		cache:  cache,
		loc:    loc,
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// decodeFunc normalizes a payload and returns the record and flag counts.
type decodeFunc func(body []byte) (records, flagged int, err error)

// Weather returns hourly samples for span. params default to DefaultWeatherParams.
func (m *Manager) Weather(ctx context.Context, spot models.Spot, span models.TimeSpan, params ...string) ([]models.WeatherSample, error) {
	if len(params) == 0 {
		params = DefaultWeatherParams
	}
	extra := url.Values{"params": {strings.Join(params, ",")}}

	var samples []models.WeatherSample
	err := m.load(ctx, models.KindWeather, spot, span, extra, func(body []byte) (int, int, error) {
		var err error
		if samples, err = DecodeWeather(body); err != nil {
			return 0, 0, err
		}
		return len(samples), m.report(models.KindWeather, ValidateWeather(samples)), nil
	})
	return samples, err
}

// Tides returns tide extremes for span padded by TidePadding on both sides.
func (m *Manager) Tides(ctx context.Context, spot models.Spot, span models.TimeSpan) ([]models.TideExtreme, error) {
	var tides []models.TideExtreme
	err := m.load(ctx, models.KindTides, spot, span.Pad(TidePadding), nil, func(body []byte) (int, int, error) {
		var err error
		if tides, err = DecodeTides(body); err != nil {
			return 0, 0, err
		}
		return len(tides), m.report(models.KindTides, ValidateTides(tides)), nil
	})
	return tides, err
}

// Astronomy returns one record per day of span.
func (m *Manager) Astronomy(ctx context.Context, spot models.Spot, span models.TimeSpan) ([]models.AstronomyRecord, error) {
	var records []models.AstronomyRecord
	err := m.load(ctx, models.KindAstronomy, spot, span, nil, func(body []byte) (int, int, error) {
		var err error
		if records, err = DecodeAstronomy(body); err != nil {
			return 0, 0, err
		}
		return len(records), 0, nil
	})
	return records, err
}

// Dataset loads all three kinds for one render.
func (m *Manager) Dataset(ctx context.Context, spot models.Spot, span models.TimeSpan, weatherParams ...string) (models.Dataset, error) {
	var ds models.Dataset
	var err error
	if ds.Weather, err = m.Weather(ctx, spot, span, weatherParams...); err != nil {
		return ds, err
	}
	if ds.Tides, err = m.Tides(ctx, spot, span); err != nil {
		return ds, err
	}
	if ds.Astronomy, err = m.Astronomy(ctx, spot, span); err != nil {
		return ds, err
	}
	return ds, nil
}

func (m *Manager) load(ctx context.Context, kind models.DatasetKind, spot models.Spot, span models.TimeSpan, extra url.Values, decode decodeFunc) error {
	now := m.now()
	log := m.log.WithField("kind", kind)

	if m.cache.IsFresh(kind, now, m.loc) {
		body, err := m.cache.Load(kind)
		if err == nil {
			metrics.CacheLookups.WithLabelValues(string(kind), "hit").Inc()
			m.checkSpan(log, kind, span)
			n, _, err := decode(body)
			if err != nil {
				return err
			}
			metrics.RecordsNormalized.WithLabelValues(string(kind)).Add(float64(n))
			log.WithField("records", n).Debug("using cached data")
			return nil
		}
		log.WithError(err).Warn("cached data unreadable, fetching")
	}
	metrics.CacheLookups.WithLabelValues(string(kind), "miss").Inc()

	log.WithField("endpoint", kind.Endpoint()).Info("fetching data")
	run := m.startRun(kind, spot, span)
	body, result, err := m.client.Fetch(ctx, kind, spot, span, extra)
	if err != nil {
		m.completeRun(run, result, 0, 0, err)
		return err
	}

	n, flagged, decodeErr := decode(body)
	if decodeErr == nil {
		meta := CacheMeta{FetchedAt: now, SpanFrom: span.From, SpanTo: span.To}
		if err := m.cache.Save(kind, body, meta); err != nil {
			log.WithError(err).Warn("could not write cache, continuing with fetched data")
		}
		metrics.RecordsNormalized.WithLabelValues(string(kind)).Add(float64(n))
	}
	m.archive(run, kind, spot, body)
	m.completeRun(run, result, n, flagged, decodeErr)

	log.WithFields(logrus.Fields{
		"records": n,
		"size":    humanize.Bytes(uint64(len(body))),
	}).Info("fetched data")
	return decodeErr
}

// checkSpan logs when a fresh cache covers a different span than requested.
// The cache is still used: freshness is by calendar day only.
func (m *Manager) checkSpan(log logrus.FieldLogger, kind models.DatasetKind, span models.TimeSpan) {
	meta, err := m.cache.Meta(kind)
	if err != nil {
		return
	}
	if !meta.SpanFrom.Equal(span.From) || !meta.SpanTo.Equal(span.To) {
		log.WithFields(logrus.Fields{
			"cached_from":    meta.SpanFrom,
			"cached_to":      meta.SpanTo,
			"requested_from": span.From,
			"requested_to":   span.To,
		}).Debug("cached span differs from requested span")
	}
}

func (m *Manager) report(kind models.DatasetKind, r QualityReport) int {
	if n := r.Flagged(); n > 0 {
		fields := logrus.Fields{"kind": kind}
		for flag, c := range r {
			fields[flag] = c
		}
		m.log.WithFields(fields).Warn("implausible records")
		return n
	}
	return 0
}

func (m *Manager) startRun(kind models.DatasetKind, spot models.Spot, span models.TimeSpan) *store.FetchRun {
	if m.audit == nil {
		return nil
	}
	run, err := m.audit.StartFetchRun(m.runID, string(kind), kind.Endpoint(), spot.Slug(), span.From, span.To)
	if err != nil {
		m.log.WithError(err).Warn("could not record fetch run")
		return nil
	}
	return run
}

func (m *Manager) completeRun(run *store.FetchRun, result *FetchResult, records, flagged int, err error) {
	if m.audit == nil || run == nil {
		return
	}
	run.Success = err == nil
	if result != nil {
		run.HTTPStatus = sql.NullInt64{Int64: int64(result.HTTPStatus), Valid: result.HTTPStatus > 0}
		run.ResponseSizeBytes = sql.NullInt64{Int64: int64(result.ResponseSize), Valid: result.ResponseSize > 0}
	}
	if err == nil {
		run.RecordsParsed = sql.NullInt64{Int64: int64(records), Valid: true}
		run.QualityFlags = sql.NullInt64{Int64: int64(flagged), Valid: true}
	} else {
		var fe *FetchError
		if errors.As(err, &fe) {
			run.HTTPStatus = sql.NullInt64{Int64: int64(fe.StatusCode), Valid: true}
		}
		run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	}
	if err := m.audit.CompleteFetchRun(run); err != nil {
		m.log.WithError(err).Warn("could not complete fetch run")
	}
}

func (m *Manager) archive(run *store.FetchRun, kind models.DatasetKind, spot models.Spot, body []byte) {
	if m.audit == nil {
		return
	}
	var runID *int64
	if run != nil {
		runID = &run.ID
	}
	id, err := m.audit.StoreRawPayload(runID, string(kind), kind.Endpoint(), spot.Slug(), body)
	if err != nil {
		m.log.WithError(err).Warn("could not archive raw payload")
		return
	}
	if id != 0 {
		return
	}
	prev, err := m.audit.GetRawPayloadByHash(store.PayloadHash(body))
	if err != nil || prev == nil {
		return
	}
	m.log.WithFields(logrus.Fields{
		"kind":        kind,
		"archived_at": prev.FetchedAt,
	}).Debug("payload unchanged since last archive")
}
