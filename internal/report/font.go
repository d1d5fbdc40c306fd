package report

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	fontFamily = "PersianFont"

	// Built-in core font used when no Persian-capable TTF can be found.
	// It will not shape the target script correctly; accepted degraded
	// mode, not an error.
	builtinFamily = "Helvetica"

	vazirmatnURL = "https://github.com/rastikerdar/vazirmatn/releases/download/v33.003/Vazirmatn-Fonts-TTF-3.003.zip"
)

// Font is a resolved font resource. Builtin marks the terminal fallback,
// where Data is empty and Family names a core PDF font.
type Font struct {
	Family  string
	Data    []byte
	Builtin bool
}

type fontProvider interface {
	resolve() ([]byte, error)
}

// FontResolver walks an ordered provider list: local candidate TTFs
// first, then a network fetch of Vazirmatn into the fonts directory, and
// finally the built-in font as the explicit terminal state.
type FontResolver struct {
	providers []fontProvider
}

func NewFontResolver(fontsDir string) *FontResolver {
	return &FontResolver{
		providers: []fontProvider{
			fileProvider(filepath.Join(fontsDir, "Vazirmatn-Regular.ttf")),
			fileProvider(filepath.Join(fontsDir, "Vazir.ttf")),
			fileProvider("/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"),
			fileProvider("/usr/share/fonts/truetype/freefont/FreeSans.ttf"),
			&downloadProvider{url: vazirmatnURL, dir: fontsDir},
		},
	}
}

// Resolve returns the first available, parseable font. It never fails:
// the built-in font is the answer of last resort.
func (r *FontResolver) Resolve() Font {
	for _, p := range r.providers {
		data, err := p.resolve()
		if err != nil {
			slog.Debug("Font candidate unavailable", "error", err)
			continue
		}
		if err := validateFont(data); err != nil {
			slog.Warn("Skipping corrupt font candidate", "error", err)
			continue
		}
		return Font{Family: fontFamily, Data: data}
	}
	slog.Warn("No Persian-capable font found, falling back to built-in", "family", builtinFamily)
	return Font{Family: builtinFamily, Builtin: true}
}

// validateFont registers the candidate against a throwaway document. A
// file that exists but does not parse as a TTF (a truncated cached
// download, say) must fall through to the next provider, not surface as
// an fpdf error at output time.
func validateFont(data []byte) (err error) {
	// The TTF parser can panic on malformed tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse font: %v", r)
		}
	}()
	doc := fpdf.New("P", "pt", "A4", "")
	doc.AddUTF8FontFromBytes(fontFamily, "", data)
	return doc.Error()
}

// fileProvider reads a candidate TTF path.
type fileProvider string

func (p fileProvider) resolve() ([]byte, error) {
	return os.ReadFile(string(p))
}

// downloadProvider fetches the Vazirmatn release archive and extracts the
// regular-weight TTF into the fonts directory so later runs hit the file
// candidates instead.
type downloadProvider struct {
	url string
	dir string
}

func (p *downloadProvider) resolve() ([]byte, error) {
	resp, err := http.Get(p.url)
	if err != nil {
		return nil, fmt.Errorf("fetch font archive: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch font archive: status %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read font archive: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open font archive: %w", err)
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), "vazirmatn-regular.ttf") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open archived font: %w", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read archived font: %w", err)
		}

		if err := os.MkdirAll(p.dir, 0755); err == nil {
			target := filepath.Join(p.dir, "Vazirmatn-Regular.ttf")
			if err := os.WriteFile(target, data, 0644); err != nil {
				slog.Warn("Could not cache downloaded font", "path", target, "error", err)
			}
		}
		return data, nil
	}
	return nil, errors.New("font archive has no regular-weight TTF")
}
