package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
	"github.com/techVasanthsmart/pdf-toolkit/internal/config"
	"github.com/techVasanthsmart/pdf-toolkit/internal/pdfwrite"
)

// Notes:
// - Commands run against fixture PDFs written by internal/pdfwrite. Page
//   n of a fixture is 100+n points wide so page order can be read back.
// - The rasterizer and print engine are fakes injected through
//   Environment.ToolkitOptions; no test needs Chrome or poppler.

// ---------------------------------------------------------------------------
// Test environment
// ---------------------------------------------------------------------------

// testEnv is an Environment with captured output.
type testEnv struct {
	*Environment
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	raster  *fakeRasterizer
	printer *fakePrintEngine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	var stdout, stderr bytes.Buffer
	r := &fakeRasterizer{}
	p := &fakePrintEngine{}
	return &testEnv{
		Environment: &Environment{
			Now:    time.Now,
			Stdout: &stdout,
			Stderr: &stderr,
			Config: config.DefaultConfig(),
			ToolkitOptions: []pdftoolkit.Option{
				pdftoolkit.WithRasterizer(r),
				pdftoolkit.WithPrintEngine(p),
			},
			Registry: prometheus.NewRegistry(),
		},
		stdout:  &stdout,
		stderr:  &stderr,
		raster:  r,
		printer: p,
	}
}

// run invokes runMain with the program name prepended.
func (e *testEnv) run(args ...string) int {
	return runMain(append([]string{"pdftoolkit"}, args...), e.Environment)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func pageWidth(n int) float64 { return float64(100 + n) }

// writePDF writes an n-page fixture to dir/name and returns its path.
func writePDF(t *testing.T, dir, name string, n int) string {
	t.Helper()
	sizes := make([][2]float64, n)
	for i := range sizes {
		sizes[i] = [2]float64{pageWidth(i + 1), 200}
	}
	data, err := pdfwrite.Blank(sizes...)
	if err != nil {
		t.Fatalf("pdfwrite.Blank() error = %v", err)
	}
	return writeFixture(t, dir, name, data)
}

func writeFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// widthsOf reads back the page widths of the PDF at path.
func widthsOf(t *testing.T, path string) []float64 {
	t.Helper()
	data, err := os.ReadFile(path) // #nosec G304 -- test output
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	doc, err := pdftoolkit.OpenPDF(filepath.Base(path), data)
	if err != nil {
		t.Fatalf("OpenPDF(%s) error = %v", path, err)
	}
	out := make([]float64, doc.PageCount())
	for i := range out {
		s, err := doc.PageSize(i)
		if err != nil {
			t.Fatalf("PageSize(%d) error = %v", i, err)
		}
		out[i] = s.Width
	}
	return out
}

func expectWidths(pages ...int) []float64 {
	out := make([]float64, len(pages))
	for i, p := range pages {
		out[i] = pageWidth(p)
	}
	return out
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

// ---------------------------------------------------------------------------
// Fake rasterizer
// ---------------------------------------------------------------------------

type fakeRasterizer struct {
	mu       sync.Mutex
	rendered int
	failPage int
}

var _ pdftoolkit.Rasterizer = (*fakeRasterizer)(nil)

func (f *fakeRasterizer) Open(_ context.Context, doc *pdftoolkit.PDFHandle) (pdftoolkit.PageRenderer, error) {
	return &fakeRenderer{f: f, doc: doc}, nil
}

func (f *fakeRasterizer) Rendered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rendered
}

type fakeRenderer struct {
	f   *fakeRasterizer
	doc *pdftoolkit.PDFHandle
}

func (r *fakeRenderer) RenderPage(_ context.Context, pageNr int, scale float64) (image.Image, error) {
	if pageNr == r.f.failPage {
		return nil, fmt.Errorf("%w: page %d", pdftoolkit.ErrRender, pageNr)
	}
	size, err := r.doc.PageSize(pageNr - 1)
	if err != nil {
		return nil, err
	}
	img := newSolid(max(1, int(size.Width*scale)), max(1, int(size.Height*scale)))

	r.f.mu.Lock()
	r.f.rendered++
	r.f.mu.Unlock()
	return img, nil
}

func (r *fakeRenderer) Close() error { return nil }

func newSolid(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: 180, G: 40, A: 255})
		}
	}
	return img
}

// ---------------------------------------------------------------------------
// Fake print engine
// ---------------------------------------------------------------------------

// fakePrintEngine "prints" by handing the HTML document, prefixed with a
// PDF marker, to the context destination.
type fakePrintEngine struct {
	mu        sync.Mutex
	documents []string
	printErr  error
}

var _ pdftoolkit.PrintEngine = (*fakePrintEngine)(nil)

func (e *fakePrintEngine) Render(ctx context.Context, htmlDocument string) (<-chan error, error) {
	e.mu.Lock()
	e.documents = append(e.documents, htmlDocument)
	e.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)
		if e.printErr != nil {
			done <- e.printErr
			return
		}
		if dest := pdftoolkit.DestinationFrom(ctx, nil); dest != nil {
			done <- dest([]byte("%PDF-fake\n" + htmlDocument))
			return
		}
		done <- nil
	}()
	return done, nil
}

func (e *fakePrintEngine) Close() error { return nil }

func (e *fakePrintEngine) Documents() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.documents...)
}
