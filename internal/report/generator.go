// Package report renders a mission's expenses into a paginated PDF with
// embedded receipt images and right-to-left text shaping.
package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"

	"hazine/internal/assets"
	"hazine/internal/core"
)

// Page layout constants, in points on an A4 portrait page.
const (
	marginX        = 40.0
	titleY         = 50.0
	subtitleY      = 70.0
	tableTopY      = 100.0
	lineHeight     = 16.0
	imageMaxHeight = 300.0
	bottomMargin   = 60.0
	imageSpacing   = 8.0

	titleFontSize    = 16.0
	subtitleFontSize = 11.0
	headerFontSize   = 12.0
	rowFontSize      = 10.0
)

// Column x-offsets for index, date, category, amount, description, mission.
var columnX = [6]float64{40, 70, 150, 250, 330, 520}

var columnHeaders = [6]string{"#", "تاریخ", "دسته", "مبلغ", "توضیحات", "ماموریت"}

// RecordSource yields a mission's expenses oldest first.
type RecordSource interface {
	ListByMission(ctx context.Context, mission string) ([]core.Expense, error)
}

// AssetLoader resolves a stored receipt into embeddable form.
type AssetLoader interface {
	Load(path string) (assets.Asset, error)
}

type Generator struct {
	records RecordSource
	assets  AssetLoader
	shaper  *Shaper
	fonts   *FontResolver
}

func NewGenerator(records RecordSource, loader AssetLoader, shaper *Shaper, fonts *FontResolver) *Generator {
	return &Generator{
		records: records,
		assets:  loader,
		shaper:  shaper,
		fonts:   fonts,
	}
}

// Generate writes the report for mission (exact match) to outputPath. It
// returns ErrNoData, creating no file, when nothing matches. Unreadable
// receipt images are skipped; the report still completes.
func (g *Generator) Generate(ctx context.Context, mission, outputPath string) error {
	records, err := g.records.ListByMission(ctx, mission)
	if err != nil {
		return fmt.Errorf("collect mission records: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: %q", core.ErrNoData, mission)
	}

	font := g.fonts.Resolve()

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	if !font.Builtin {
		pdf.AddUTF8FontFromBytes(font.Family, "", font.Data)
	}

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*marginX

	title := g.shaper.Shape(fmt.Sprintf("گزارش هزینه ماموریت: %s", mission))
	subtitle := g.shaper.Shape(fmt.Sprintf("تاریخ تهیه گزارش: %s", core.Today().String()))

	// Every page opens with the title and subtitle lines; the vertical
	// cursor restarts below them.
	var y float64
	newPage := func() {
		pdf.AddPage()
		pdf.SetFont(font.Family, "", titleFontSize)
		pdf.Text(marginX, titleY, title)
		pdf.SetFont(font.Family, "", subtitleFontSize)
		pdf.Text(marginX, subtitleY, subtitle)
		y = tableTopY
	}

	newPage()

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(font.Family, "", headerFontSize)
	for i, h := range columnHeaders {
		pdf.Text(columnX[i], y, g.shaper.Shape(h))
	}
	y += lineHeight
	pdf.Line(marginX, y-4, pageW-marginX, y-4)
	y += 6

	for i, rec := range records {
		values := [6]string{
			strconv.Itoa(i + 1),
			rec.Date.String(),
			rec.Category,
			core.FormatAmount(rec.Amount),
			rec.Description,
			rec.Mission,
		}

		pdf.SetFont(font.Family, "", rowFontSize)
		for c, v := range values {
			pdf.Text(columnX[c], y, g.shaper.Shape(v))
		}
		y += lineHeight

		if rec.ImagePath != "" {
			y = g.placeImage(pdf, rec.ImagePath, y, contentW, pageH, newPage)
		}

		// Break ahead of the next record when too little room is left.
		if i < len(records)-1 && y > pageH-bottomMargin {
			newPage()
		}
	}

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	slog.InfoContext(ctx, "Report generated",
		"mission", mission,
		"records", len(records),
		"path", outputPath)
	return nil
}

// placeImage embeds the receipt at path at the current cursor, breaking
// to a new page first if the scaled image does not fit above the bottom
// margin. Failures are logged and swallowed.
func (g *Generator) placeImage(pdf *fpdf.Fpdf, path string, y, contentW, pageH float64, newPage func()) float64 {
	asset, err := g.assets.Load(path)
	if err != nil {
		slog.Warn("Skipping unreadable receipt image", "path", path, "error", err)
		return y
	}

	var imgType string
	switch asset.Format {
	case "jpeg":
		imgType = "JPG"
	case "png":
		imgType = "PNG"
	case "gif":
		imgType = "GIF"
	default:
		slog.Warn("Skipping receipt image with unsupported format", "path", path, "format", asset.Format)
		return y
	}

	// Same min-of-two-ratios rule as thumbnailing, capped so images are
	// never upscaled.
	scale := math.Min(contentW/float64(asset.Width), imageMaxHeight/float64(asset.Height))
	if scale > 1 {
		scale = 1
	}
	w := float64(asset.Width) * scale
	h := float64(asset.Height) * scale

	if y+h > pageH-bottomMargin {
		newPage()
		// newPage mutates the cursor it closed over; restart below the
		// re-emitted header lines.
		y = tableTopY
	}

	opts := fpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader(path, opts, bytes.NewReader(asset.Data))
	pdf.ImageOptions(path, marginX, y, w, h, false, opts, 0, "")

	return y + h + imageSpacing
}

// DefaultFileName is the suggested output name for a mission's report:
// the mission with anything but letters, digits, dash and underscore
// replaced, plus the generation date.
func DefaultFileName(mission string) string {
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, mission)
	return fmt.Sprintf("%s_mission_%s.pdf", safe, core.Today().String())
}
