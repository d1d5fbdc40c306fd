package assets

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hazine/internal/core"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "receipts"))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}

func TestIngestNaming(t *testing.T) {
	m := newTestManager(t)
	m.now = func() time.Time {
		return time.Date(2024, time.March, 5, 14, 30, 9, 0, time.UTC)
	}

	path, err := m.Ingest(solidImage(20, 10))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if filepath.Base(path) != "receipt_20240305_143009.jpg" {
		t.Fatalf("unexpected name %q", filepath.Base(path))
	}
	if !filepath.IsAbs(path) {
		t.Fatalf("expected absolute path, got %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat ingested file: %v", err)
	}
}

func TestIngestSameSecondOverwrites(t *testing.T) {
	m := newTestManager(t)
	fixed := time.Date(2024, time.March, 5, 14, 30, 9, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	first, err := m.Ingest(solidImage(20, 10))
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	second, err := m.Ingest(solidImage(40, 30))
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if first != second {
		t.Fatalf("expected same target path, got %q and %q", first, second)
	}

	a, err := m.Load(second)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.Width != 40 || a.Height != 30 {
		t.Fatalf("expected later ingest to win, got %dx%d", a.Width, a.Height)
	}
	if a.Format != "jpeg" {
		t.Fatalf("format = %q, want jpeg", a.Format)
	}
}

func TestThumbnailDownscales(t *testing.T) {
	m := newTestManager(t)
	path, err := m.Ingest(solidImage(400, 200))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	thumb, err := m.Thumbnail(path, 160, 160)
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	b := thumb.Bounds()
	if b.Dx() != 160 || b.Dy() != 80 {
		t.Fatalf("got %dx%d, want 160x80", b.Dx(), b.Dy())
	}
}

func TestThumbnailNeverUpscales(t *testing.T) {
	m := newTestManager(t)
	path, err := m.Ingest(solidImage(50, 30))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	thumb, err := m.Thumbnail(path, 160, 160)
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	b := thumb.Bounds()
	if b.Dx() != 50 || b.Dy() != 30 {
		t.Fatalf("got %dx%d, want original 50x30", b.Dx(), b.Dy())
	}
}

func TestThumbnailMissingFile(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Thumbnail(filepath.Join(m.Dir(), "nope.jpg"), 100, 100)
	if !errors.Is(err, core.ErrAssetRead) {
		t.Fatalf("got %v, want ErrAssetRead", err)
	}
}

func TestLoadUndecodable(t *testing.T) {
	m := newTestManager(t)
	bad := filepath.Join(m.Dir(), "bad.jpg")
	if err := os.WriteFile(bad, []byte("not an image"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := m.Load(bad); !errors.Is(err, core.ErrAssetRead) {
		t.Fatalf("got %v, want ErrAssetRead", err)
	}
}

func TestLoadMissing(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Load(filepath.Join(m.Dir(), "nope.jpg")); !errors.Is(err, core.ErrAssetRead) {
		t.Fatalf("got %v, want ErrAssetRead", err)
	}
}
