package report

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hazine/internal/assets"
	"hazine/internal/core"
)

type fakeSource struct {
	mission string
	records []core.Expense
}

func (f *fakeSource) ListByMission(_ context.Context, mission string) ([]core.Expense, error) {
	f.mission = mission
	return f.records, nil
}

// builtinFonts resolves straight to the built-in font so tests never
// touch the filesystem or the network.
func builtinFonts() *FontResolver {
	return &FontResolver{}
}

func newTestGenerator(t *testing.T, records []core.Expense) (*Generator, *fakeSource, *assets.Manager) {
	t.Helper()
	mgr, err := assets.NewManager(filepath.Join(t.TempDir(), "receipts"))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	src := &fakeSource{records: records}
	return NewGenerator(src, mgr, NewShaper(), builtinFonts()), src, mgr
}

func record(date string, image string) core.Expense {
	d, _ := core.ParseDay(date)
	return core.Expense{
		Date:        d,
		Category:    "Food",
		Amount:      10,
		Description: "desc",
		Mission:     "M",
		ImagePath:   image,
	}
}

func TestGenerateNoData(t *testing.T) {
	g, src, _ := newTestGenerator(t, nil)
	out := filepath.Join(t.TempDir(), "report.pdf")

	err := g.Generate(context.Background(), "M", out)
	if !errors.Is(err, core.ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
	if src.mission != "M" {
		t.Fatalf("queried mission %q", src.mission)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatal("no output file may be written on NoData")
	}
}

func TestGenerateWritesReport(t *testing.T) {
	g, _, _ := newTestGenerator(t, []core.Expense{
		record("2024-02-01", ""),
		record("2024-03-01", ""),
	})
	out := filepath.Join(t.TempDir(), "report.pdf")

	if err := g.Generate(context.Background(), "M", out); err != nil {
		t.Fatalf("generate: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatal("output is not a PDF")
	}
}

func TestGenerateSkipsMissingImage(t *testing.T) {
	mgr, err := assets.NewManager(filepath.Join(t.TempDir(), "receipts"))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.Gray{Y: 128})
		}
	}
	existing, err := mgr.Ingest(img)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	src := &fakeSource{records: []core.Expense{
		record("2024-02-01", existing),
		record("2024-03-01", filepath.Join(mgr.Dir(), "missing.jpg")),
	}}
	gen := NewGenerator(src, mgr, NewShaper(), builtinFonts())

	out := filepath.Join(t.TempDir(), "report.pdf")
	if err := gen.Generate(context.Background(), "M", out); err != nil {
		t.Fatalf("missing image must not abort the report: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("stat output: %v", err)
	}
}

func TestGeneratePaginatesLongReports(t *testing.T) {
	var records []core.Expense
	for i := 0; i < 80; i++ {
		records = append(records, record("2024-02-01", ""))
	}
	g, _, _ := newTestGenerator(t, records)

	out := filepath.Join(t.TempDir(), "report.pdf")
	if err := g.Generate(context.Background(), "M", out); err != nil {
		t.Fatalf("generate: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	// 80 rows at 16pt starting at y=100 cannot fit one A4 page.
	s := string(data)
	pages := strings.Count(s, "/Type /Page") - strings.Count(s, "/Type /Pages")
	if pages < 2 {
		t.Fatalf("expected a multi-page document, got %d page(s)", pages)
	}
}

func TestGenerateTallImagesForcePageBreaks(t *testing.T) {
	mgr, err := assets.NewManager(filepath.Join(t.TempDir(), "receipts"))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	// 100x300 scales to exactly 300pt tall, so the third receipt cannot
	// fit above the bottom margin and must open a new page.
	img := image.NewRGBA(image.Rect(0, 0, 100, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.Gray{Y: 200})
		}
	}
	receipt, err := mgr.Ingest(img)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	src := &fakeSource{records: []core.Expense{
		record("2024-02-01", receipt),
		record("2024-02-02", receipt),
		record("2024-02-03", receipt),
	}}
	gen := NewGenerator(src, mgr, NewShaper(), builtinFonts())

	out := filepath.Join(t.TempDir(), "report.pdf")
	if err := gen.Generate(context.Background(), "M", out); err != nil {
		t.Fatalf("generate: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	s := string(data)
	pages := strings.Count(s, "/Type /Page") - strings.Count(s, "/Type /Pages")
	if pages < 2 {
		t.Fatalf("expected the oversized receipt to break onto a new page, got %d page(s)", pages)
	}
}

func TestGenerateDegradesOnCorruptFont(t *testing.T) {
	fontPath := filepath.Join(t.TempDir(), "Vazirmatn-Regular.ttf")
	if err := os.WriteFile(fontPath, []byte("junk that is no font"), 0644); err != nil {
		t.Fatalf("write candidate: %v", err)
	}
	fonts := &FontResolver{providers: []fontProvider{fileProvider(fontPath)}}

	mgr, err := assets.NewManager(filepath.Join(t.TempDir(), "receipts"))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	src := &fakeSource{records: []core.Expense{record("2024-02-01", "")}}
	gen := NewGenerator(src, mgr, NewShaper(), fonts)

	out := filepath.Join(t.TempDir(), "report.pdf")
	if err := gen.Generate(context.Background(), "M", out); err != nil {
		t.Fatalf("a corrupt font candidate must not fail the export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatal("output is not a PDF")
	}
}

func TestDefaultFileName(t *testing.T) {
	got := DefaultFileName("trip to Qom!")
	want := "trip_to_Qom__mission_" + core.Today().String() + ".pdf"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
