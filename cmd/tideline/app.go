package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lox/tideline/internal/config"
	"github.com/lox/tideline/internal/display"
	"github.com/lox/tideline/internal/imagegen"
	"github.com/lox/tideline/internal/ingest"
	"github.com/lox/tideline/internal/metrics"
	"github.com/lox/tideline/internal/models"
	"github.com/lox/tideline/internal/store"
)

// app is everything one invocation shares across passes.
type app struct {
	cfg     *config.Config
	log     *logrus.Entry
	loc     *time.Location
	spot    models.Spot
	now     func() time.Time
	store   *store.Store
	manager *ingest.Manager
}

// loadConfig reads the TOML config. The --env-file flag has already populated
// the environment by the time a command runs. validate is false for commands
// that never talk to Stormglass.
func loadConfig(g *Globals, validate bool) (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// clock returns time.Now, or a fixed instant when --now is set.
func clock(g *Globals) (func() time.Time, error) {
	if g.Now == "" {
		return time.Now, nil
	}
	t, err := time.Parse(time.RFC3339, g.Now)
	if err != nil {
		return nil, fmt.Errorf("--now: %w", err)
	}
	return func() time.Time { return t }, nil
}

func newApp(g *Globals) (*app, error) {
	cfg, err := loadConfig(g, true)
	if err != nil {
		return nil, err
	}
	now, err := clock(g)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := newLogger(cfg.Log).WithField("run_id", runID)
	a := &app{
		cfg:  cfg,
		log:  log,
		loc:  loc,
		spot: cfg.SpotModel(),
		now:  now,
	}

	client := ingest.NewClient(cfg.Stormglass.APIKey, log,
		ingest.WithBaseURL(cfg.Stormglass.BaseURL),
		ingest.WithRetries(cfg.Stormglass.Retries),
	)
	opts := []ingest.ManagerOption{ingest.WithClock(now)}

	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path, log)
		if err != nil {
			log.WithError(err).Warn("fetch audit disabled")
		} else {
			a.store = st
			opts = append(opts, ingest.WithAuditor(st, runID))
		}
	}

	a.manager = ingest.NewManager(client, ingest.NewCache(cfg.SpotDir()), loc, log, opts...)
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.WithError(err).Warn("close store")
		}
	}
}

func (a *app) span() models.TimeSpan {
	return models.DaySpan(a.now(), a.cfg.Days, a.loc)
}

// renderOnce runs one full pass: fetch-or-reuse, draw, downsample, present.
func (a *app) renderOnce(ctx context.Context, sink display.Sink) error {
	now := a.now()
	span := a.span()

	data, err := a.manager.Dataset(ctx, a.spot, span, a.cfg.Stormglass.WeatherParams...)
	if err != nil {
		return err
	}

	start := time.Now()
	r, err := imagegen.NewRenderer(a.cfg.Render.Width, a.cfg.Render.Height,
		imagegen.StyleByName(a.cfg.Render.Style),
		imagegen.RenderContext{
			Now:          now,
			Location:     a.loc,
			Spot:         a.spot,
			Span:         span,
			Title:        a.cfg.Render.Title,
			MoonRotation: a.cfg.Render.MoonRotation,
		}, a.log)
	if err != nil {
		return err
	}
	canvas, err := r.Render(data)
	if err != nil {
		return err
	}
	frame, err := imagegen.Downsample(canvas, a.cfg.Display.Width, a.cfg.Display.Height)
	if err != nil {
		return err
	}
	metrics.RenderDuration.Observe(time.Since(start).Seconds())

	if err := sink.Present(ctx, frame); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	metrics.LastRenderTimestamp.SetToCurrentTime()

	a.log.WithFields(logrus.Fields{
		"weather":   len(data.Weather),
		"tides":     len(data.Tides),
		"astronomy": len(data.Astronomy),
		"elapsed":   time.Since(start).Round(time.Millisecond),
	}).Info("rendered timeline")
	a.flushMetrics()
	return nil
}

func (a *app) flushMetrics() {
	if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.log.WithError(err).Warn("could not write metrics textfile")
	}
}

// pruneArchive drops raw payloads past store.retention_days. Failures are
// warnings; the archive is best effort.
func (a *app) pruneArchive() {
	if a.store == nil || a.cfg.Store.RetentionDays <= 0 {
		return
	}
	n, err := a.store.CleanupOldRawPayloads(a.cfg.Store.RetentionDays)
	if err != nil {
		a.log.WithError(err).Warn("could not prune raw payload archive")
		return
	}
	stats, err := a.store.GetRawPayloadStats()
	if err != nil {
		a.log.WithError(err).Warn("could not read raw payload archive stats")
		return
	}
	a.log.WithFields(logrus.Fields{
		"deleted":  n,
		"payloads": stats.TotalCount,
		"size":     humanize.Bytes(uint64(stats.TotalSizeBytes)),
	}).Debug("pruned raw payload archive")
}
