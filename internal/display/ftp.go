package display

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jlaffaye/ftp"
	"github.com/sirupsen/logrus"

	"github.com/lox/tideline/internal/imagegen"
)

// FTPSink uploads each frame as a PNG to an FTP server, for picture frames
// that poll a network share.
type FTPSink struct {
	addr     string
	user     string
	password string
	path     string
	timeout  time.Duration
	log      logrus.FieldLogger
}

func NewFTPSink(addr, user, password, path string, log logrus.FieldLogger) (*FTPSink, error) {
	if addr == "" {
		return nil, fmt.Errorf("ftp sink: empty address")
	}
	if path == "" {
		path = "/timeline.png"
	}
	if user == "" {
		user, password = "anonymous", "anonymous"
	}
	return &FTPSink{
		addr:     addr,
		user:     user,
		password: password,
		path:     path,
		timeout:  30 * time.Second,
		log:      log,
	}, nil
}

func (s *FTPSink) Present(ctx context.Context, img image.Image) error {
	data, err := imagegen.EncodePNG(img)
	if err != nil {
		return err
	}

	conn, err := ftp.Dial(s.addr, ftp.DialWithTimeout(s.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login(s.user, s.password); err != nil {
		return fmt.Errorf("ftp login: %w", err)
	}

	if err := conn.Stor(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("ftp stor %s: %w", s.path, err)
	}

	s.log.WithFields(logrus.Fields{
		"addr": s.addr,
		"path": s.path,
		"size": humanize.Bytes(uint64(len(data))),
	}).Info("uploaded timeline")
	return nil
}

func (s *FTPSink) Close() error {
	return nil
}
