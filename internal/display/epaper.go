package display

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
	"periph.io/x/host/v3"
)

// EPaperSink drives a Waveshare 2.13" v4 HAT over SPI. The panel sleeps
// between frames.
type EPaperSink struct {
	port    spi.PortCloser
	dev     *waveshare2in13v4.Dev
	log     logrus.FieldLogger
	asleep  bool
	cleared bool
}

func NewEPaperSink(log logrus.FieldLogger) (*EPaperSink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	port, err := spireg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open spi: %w", err)
	}

	opts := waveshare2in13v4.EPD2in13v4
	dev, err := waveshare2in13v4.NewHat(port, &opts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("open e-paper hat: %w", err)
	}
	if err := dev.Init(); err != nil {
		port.Close()
		return nil, fmt.Errorf("init e-paper: %w", err)
	}
	return &EPaperSink{port: port, dev: dev, log: log}, nil
}

func (s *EPaperSink) Present(ctx context.Context, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.asleep {
		if err := s.dev.Init(); err != nil {
			return fmt.Errorf("wake e-paper: %w", err)
		}
		s.asleep = false
	}
	if !s.cleared {
		if err := s.dev.Clear(color.White); err != nil {
			return fmt.Errorf("clear e-paper: %w", err)
		}
		s.cleared = true
	}

	bounds := s.dev.Bounds()
	frame := image1bit.NewVerticalLSB(bounds)
	draw.Draw(frame, frame.Bounds(), fitPanel(Monochrome(img), bounds), image.Point{}, draw.Src)

	if err := s.dev.Draw(bounds, frame, image.Point{}); err != nil {
		return fmt.Errorf("draw e-paper: %w", err)
	}
	if err := s.dev.Sleep(); err != nil {
		s.log.WithError(err).Warn("e-paper sleep failed")
	} else {
		s.asleep = true
	}

	s.log.WithField("bounds", bounds).Info("refreshed e-paper")
	return nil
}

func (s *EPaperSink) Close() error {
	if err := s.dev.Halt(); err != nil {
		s.log.WithError(err).Warn("e-paper halt failed")
	}
	return s.port.Close()
}
