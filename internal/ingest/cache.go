package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/lox/tideline/internal/fsutil"
	"github.com/lox/tideline/internal/models"
)

// CacheMeta is the sidecar written next to every cached payload.
type CacheMeta struct {
	FetchedAt time.Time          `json:"fetched_at"`
	Kind      models.DatasetKind `json:"kind"`
	SpanFrom  time.Time          `json:"span_from"`
	SpanTo    time.Time          `json:"span_to"`
}

func (m CacheMeta) Span() models.TimeSpan {
	return models.TimeSpan{From: m.SpanFrom, To: m.SpanTo}
}

// Cache keeps one provider payload per dataset kind in a directory, refreshed
// at most once per local calendar day.
type Cache struct {
	dir string
}

func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the payload file for kind.
func (c *Cache) Path(kind models.DatasetKind) string {
	return filepath.Join(c.dir, kind.FileName())
}

func (c *Cache) metaPath(kind models.DatasetKind) string {
	return filepath.Join(c.dir, string(kind)+".meta.json")
}

// Meta reads the sidecar for kind. A missing sidecar returns an os.ErrNotExist error.
func (c *Cache) Meta(kind models.DatasetKind) (*CacheMeta, error) {
	b, err := os.ReadFile(c.metaPath(kind))
	if err != nil {
		return nil, err
	}
	var m CacheMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.metaPath(kind), err)
	}
	return &m, nil
}

// FetchedAt reports when the payload for kind was fetched: the sidecar's
// fetched_at when readable, otherwise the payload's modification time.
func (c *Cache) FetchedAt(kind models.DatasetKind) (time.Time, bool) {
	info, err := os.Stat(c.Path(kind))
	if err != nil {
		return time.Time{}, false
	}
	if m, err := c.Meta(kind); err == nil && !m.FetchedAt.IsZero() {
		return m.FetchedAt, true
	}
	return info.ModTime(), true
}

// IsFresh reports whether kind was fetched on now's calendar date in loc.
func (c *Cache) IsFresh(kind models.DatasetKind, now time.Time, loc *time.Location) bool {
	fetched, ok := c.FetchedAt(kind)
	if !ok {
		return false
	}
	fy, fm, fd := fetched.In(loc).Date()
	ny, nm, nd := now.In(loc).Date()
	return fy == ny && fm == nm && fd == nd
}

func (c *Cache) Load(kind models.DatasetKind) ([]byte, error) {
	b, err := os.ReadFile(c.Path(kind))
	if err != nil {
		return nil, fmt.Errorf("load cached %s: %w", kind, err)
	}
	return b, nil
}

var writeFile = fsutil.WriteFileAtomic

// Save stores body re-indented with four spaces, then its sidecar. Both files
// are replaced atomically. If the sidecar cannot be written the old one is
// removed, so freshness falls back to the new payload's modification time.
func (c *Cache) Save(kind models.DatasetKind, body []byte, meta CacheMeta) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "    "); err != nil {
		return fmt.Errorf("indent %s payload: %w", kind, err)
	}
	if err := writeFile(c.Path(kind), buf.Bytes(), 0644); err != nil {
		return err
	}

	meta.Kind = kind
	mb, err := json.MarshalIndent(meta, "", "    ")
	if err == nil {
		err = writeFile(c.metaPath(kind), mb, 0644)
	}
	if err != nil {
		if rmErr := os.Remove(c.metaPath(kind)); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("write %s meta: %w (stale sidecar left: %v)", kind, err, rmErr)
		}
		return fmt.Errorf("write %s meta: %w", kind, err)
	}
	return nil
}
