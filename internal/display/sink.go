// Package display presents rendered timelines: as a PNG on disk, uploaded to
// an FTP share for photo frames, or on a Waveshare e-paper HAT.
package display

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/lox/tideline/internal/config"
)

// Sink shows one finished frame.
type Sink interface {
	Present(ctx context.Context, img image.Image) error
	Close() error
}

// New builds the sink named by cfg.Sink.
func New(cfg config.DisplayConfig, log logrus.FieldLogger) (Sink, error) {
	log = log.WithField("sink", cfg.Sink)
	switch cfg.Sink {
	case "file", "":
		return NewFileSink(cfg.Path, log)
	case "ftp":
		return NewFTPSink(cfg.FTPAddr, cfg.FTPUser, cfg.FTPPassword, cfg.FTPPath, log)
	case "epaper":
		return NewEPaperSink(log)
	default:
		return nil, fmt.Errorf("unknown display sink %q", cfg.Sink)
	}
}

type tee []Sink

// Tee presents each frame to every sink in order, stopping at the first error.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

func (t tee) Present(ctx context.Context, img image.Image) error {
	for _, s := range t {
		if err := s.Present(ctx, img); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) Close() error {
	var errs []error
	for _, s := range t {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
