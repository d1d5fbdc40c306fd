// Package assets stores receipt images under a managed directory and
// serves bounded-size previews of them.
package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"hazine/internal/cache"
	"hazine/internal/core"
)

const (
	jpegQuality = 85

	thumbCacheSize = 64
	thumbCacheTTL  = 10 * time.Minute
)

// Manager owns the receipt storage directory. It consumes already-decoded
// images; where they come from (file picker, clipboard) is the caller's
// business.
type Manager struct {
	dir    string
	thumbs *cache.LRU[image.Image]

	now func() time.Time
}

// NewManager creates the storage directory if needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create receipts directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve receipts directory: %w", err)
	}
	return &Manager{
		dir:    abs,
		thumbs: cache.NewLRU[image.Image](thumbCacheSize, thumbCacheTTL),
		now:    time.Now,
	}, nil
}

// Dir returns the absolute path of the managed directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Ingest encodes img as a JPEG in the managed directory and returns the
// absolute path. The name carries a second-granularity timestamp; two
// ingests within the same second overwrite each other, which is accepted.
func (m *Manager) Ingest(img image.Image) (string, error) {
	name := fmt.Sprintf("receipt_%s.jpg", m.now().Format("20060102_150405"))
	target := filepath.Join(m.dir, name)

	if err := imaging.Save(img, target, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("save receipt image: %w", err)
	}

	slog.Info("Receipt ingested", "path", target)
	return target, nil
}

// Thumbnail loads the asset at path and returns a copy fitting within
// maxWidth x maxHeight, preserving aspect ratio and never upscaling.
func (m *Manager) Thumbnail(path string, maxWidth, maxHeight int) (image.Image, error) {
	key := fmt.Sprintf("%s|%dx%d", path, maxWidth, maxHeight)
	if img, ok := m.thumbs.Get(key); ok {
		return img, nil
	}

	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrAssetRead, path, err)
	}

	thumb := imaging.Fit(src, maxWidth, maxHeight, imaging.Lanczos)
	m.thumbs.Set(key, thumb)
	return thumb, nil
}

// Asset is a stored receipt ready for embedding: the encoded bytes plus
// the decoded natural size and format.
type Asset struct {
	Data   []byte
	Width  int
	Height int
	Format string
}

// Load reads the asset at path and verifies that it decodes. A missing
// or undecodable file yields ErrAssetRead.
func (m *Manager) Load(path string) (Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %s: %v", core.ErrAssetRead, path, err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %s: %v", core.ErrAssetRead, path, err)
	}
	b := img.Bounds()
	return Asset{Data: data, Width: b.Dx(), Height: b.Dy(), Format: format}, nil
}
