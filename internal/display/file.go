package display

import (
	"context"
	"fmt"
	"image"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/lox/tideline/internal/fsutil"
	"github.com/lox/tideline/internal/imagegen"
)

// FileSink writes each frame as a PNG, replacing the previous one atomically.
type FileSink struct {
	path string
	log  logrus.FieldLogger
}

func NewFileSink(path string, log logrus.FieldLogger) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("file sink: empty path")
	}
	return &FileSink{path: path, log: log}, nil
}

func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Present(ctx context.Context, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := imagegen.EncodePNG(img)
	if err != nil {
		return err
	}

	if err := fsutil.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("write png: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"path": s.path,
		"size": humanize.Bytes(uint64(len(data))),
	}).Info("wrote timeline")
	return nil
}

func (s *FileSink) Close() error {
	return nil
}
