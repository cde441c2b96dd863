package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/tideline/internal/api"
	"github.com/lox/tideline/internal/display"
	"github.com/lox/tideline/internal/imagegen"
	"github.com/lox/tideline/internal/ingest"
	"github.com/lox/tideline/internal/lunar"
	"github.com/lox/tideline/internal/models"
)

type RenderCmd struct{}

func (c *RenderCmd) Run(g *Globals, ctx context.Context) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.Close()

	sink, err := display.New(a.cfg.Display, a.log)
	if err != nil {
		return err
	}
	defer sink.Close()

	return a.renderOnce(ctx, sink)
}

type FetchCmd struct{}

func (c *FetchCmd) Run(g *Globals, ctx context.Context) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := a.manager.Dataset(ctx, a.spot, a.span(), a.cfg.Stormglass.WeatherParams...)
	if err != nil {
		return err
	}
	a.flushMetrics()

	return writeFetchSummary(os.Stdout, ingest.NewCache(a.cfg.SpotDir()), data, a.span().From, a.loc)
}

// writeFetchSummary prints one row per dataset and today's moon phase.
func writeFetchSummary(out io.Writer, cache *ingest.Cache, data models.Dataset, day time.Time, loc *time.Location) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tRECORDS\tFETCHED\tFILE")
	for _, row := range []struct {
		kind models.DatasetKind
		n    int
	}{
		{models.KindWeather, len(data.Weather)},
		{models.KindTides, len(data.Tides)},
		{models.KindAstronomy, len(data.Astronomy)},
	} {
		fetched := "-"
		if t, ok := cache.FetchedAt(row.kind); ok {
			fetched = t.In(loc).Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", row.kind, row.n, fetched, cache.Path(row.kind))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	phase := imagegen.MoonPhaseFor(day, data.Astronomy)
	_, err := fmt.Fprintf(out, "\nMoon %s: %s, %.0f%% lit\n", day.Format("Mon 2 Jan"),
		lunar.PhaseOf(phase).Name(), 100*lunar.Illumination(phase))
	return err
}

type RunCmd struct{}

func (c *RunCmd) Run(g *Globals, ctx context.Context) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.Close()

	sink, err := display.New(a.cfg.Display, a.log)
	if err != nil {
		return err
	}

	var srv *api.Server
	if addr := a.cfg.Server.Listen; addr != "" {
		srv = api.NewServer(addr, a.store, a.log)
		sink = display.Tee(sink, srv)
	}
	defer sink.Close()

	s := ingest.NewScheduler(a.cfg.Schedule.Cron, a.loc, func(ctx context.Context) error {
		defer a.pruneArchive()
		return a.renderOnce(ctx, sink)
	}, a.log)
	if srv == nil {
		return s.Run(ctx)
	}
	return runTogether(ctx, s, srv)
}

type runner interface {
	Run(ctx context.Context) error
}

// runTogether runs every runner until ctx ends. The first failure cancels the
// others and is returned.
func runTogether(ctx context.Context, runners ...runner) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		g.Go(func() error { return r.Run(ctx) })
	}
	return g.Wait()
}

type MoonCmd struct {
	Steps    int      `help:"Number of phases across the cycle." default:"8"`
	Radius   float64  `help:"Moon radius in pixels." default:"100"`
	Rotation *float64 `help:"Rotation in degrees (defaults to render.moon_rotation)."`
	Out      string   `help:"Output PNG path." default:"moon.png" type:"path"`
}

func (c *MoonCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g, false)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log)

	rotation := cfg.Render.MoonRotation
	if c.Rotation != nil {
		rotation = *c.Rotation
	}
	img, err := imagegen.MoonStrip(c.Steps, c.Radius, rotation, imagegen.StyleByName(cfg.Render.Style))
	if err != nil {
		return err
	}

	sink, err := display.NewFileSink(filepath.Clean(c.Out), log.WithField("command", "moon"))
	if err != nil {
		return err
	}
	return sink.Present(context.Background(), img)
}
