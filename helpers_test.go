package pdftoolkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	"github.com/techVasanthsmart/pdf-toolkit/internal/pdfwrite"
)

// Notes:
// - Fixture PDFs are generated with internal/pdfwrite. Pages get distinct
//   widths so a page's origin can be read back from its size after
//   assembly.
// - fakeRasterizer never shells out; it paints a page-sized image whose
//   color encodes the page number.

// ---------------------------------------------------------------------------
// Document fixtures
// ---------------------------------------------------------------------------

// pageWidth gives page n (1-based) of a fixture a width that identifies it.
func pageWidth(n int) float64 { return float64(100 + n) }

// fixturePDF returns a PDF with n pages, page i sized pageWidth(i) x 200.
func fixturePDF(t *testing.T, n int) []byte {
	t.Helper()
	sizes := make([][2]float64, n)
	for i := range sizes {
		sizes[i] = [2]float64{pageWidth(i + 1), 200}
	}
	return pdfOfSizes(t, sizes...)
}

func pdfOfSizes(t *testing.T, sizes ...[2]float64) []byte {
	t.Helper()
	data, err := pdfwrite.Blank(sizes...)
	if err != nil {
		t.Fatalf("pdfwrite.Blank() error = %v", err)
	}
	return data
}

// openFixture opens an n-page fixture named name.
func openFixture(t *testing.T, name string, n int) *PDFHandle {
	t.Helper()
	h, err := OpenPDF(name, fixturePDF(t, n))
	if err != nil {
		t.Fatalf("OpenPDF(%s) error = %v", name, err)
	}
	return h
}

// pageWidths returns the width of every page of h.
func pageWidths(t *testing.T, h *PDFHandle) []float64 {
	t.Helper()
	out := make([]float64, h.PageCount())
	for i := range out {
		s, err := h.PageSize(i)
		if err != nil {
			t.Fatalf("PageSize(%d) error = %v", i, err)
		}
		out[i] = s.Width
	}
	return out
}

func widthsOf(pages ...int) []float64 {
	out := make([]float64, len(pages))
	for i, p := range pages {
		out[i] = pageWidth(p)
	}
	return out
}

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(w, h, color.NRGBA{R: 200, A: 255})); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solidImage(w, h, color.NRGBA{B: 200, A: 255}), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func openImage(t *testing.T, name string, data []byte) *ImageHandle {
	t.Helper()
	h, err := OpenImage(name, data)
	if err != nil {
		t.Fatalf("OpenImage(%s) error = %v", name, err)
	}
	return h
}

// ---------------------------------------------------------------------------
// Fake rasterizer
// ---------------------------------------------------------------------------

type fakeRasterizer struct {
	mu       sync.Mutex
	opened   int
	rendered []int
	// onRender runs before page pageNr renders.
	onRender func(pageNr int)
	// failPage makes that page fail.
	failPage int
	// transparent renders fully transparent pages.
	transparent bool
	// halfSize renders at half the requested size, as a backend rounding
	// differently would.
	halfSize bool
}

var _ Rasterizer = (*fakeRasterizer)(nil)

func (f *fakeRasterizer) Open(_ context.Context, doc *PDFHandle) (PageRenderer, error) {
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()
	return &fakeRenderer{f: f, doc: doc}, nil
}

func (f *fakeRasterizer) Rendered() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.rendered...)
}

type fakeRenderer struct {
	f   *fakeRasterizer
	doc *PDFHandle
}

func (r *fakeRenderer) RenderPage(_ context.Context, pageNr int, scale float64) (image.Image, error) {
	if r.f.onRender != nil {
		r.f.onRender(pageNr)
	}
	if pageNr == r.f.failPage {
		return nil, fmt.Errorf("%w: page %d", ErrRender, pageNr)
	}
	size, err := r.doc.PageSize(pageNr - 1)
	if err != nil {
		return nil, err
	}
	px := pixelSize(size, scale)
	if r.f.halfSize {
		px = px.Div(2)
	}
	c := color.NRGBA{R: uint8(pageNr * 10), A: 255}
	if r.f.transparent {
		c = color.NRGBA{}
	}

	r.f.mu.Lock()
	r.f.rendered = append(r.f.rendered, pageNr)
	r.f.mu.Unlock()
	return solidImage(px.X, px.Y, c), nil
}

func (r *fakeRenderer) Close() error { return nil }

// ---------------------------------------------------------------------------
// Fake publisher
// ---------------------------------------------------------------------------

type fakePublisher struct {
	mu       sync.Mutex
	live     map[string]bool
	failName string
	next     int
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{live: make(map[string]bool)}
}

func (p *fakePublisher) Publish(a Artifact) (Lease, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a.Name == p.failName {
		return nil, errors.Join(ErrWriteOutput, errors.New("disk full"))
	}
	p.next++
	loc := fmt.Sprintf("mem://%d/%s", p.next, a.Name)
	p.live[loc] = true
	return &fakeLease{p: p, art: a, loc: loc}, nil
}

func (p *fakePublisher) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ok := range p.live {
		if ok {
			n++
		}
	}
	return n
}

type fakeLease struct {
	p   *fakePublisher
	art Artifact
	loc string
}

func (l *fakeLease) Artifact() Artifact { return l.art }
func (l *fakeLease) Location() string   { return l.loc }
func (l *fakeLease) Release() error {
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	l.p.live[l.loc] = false
	return nil
}

// ---------------------------------------------------------------------------
// Fake print engine
// ---------------------------------------------------------------------------

type fakePrintEngine struct {
	mu        sync.Mutex
	documents []string
	renderErr error
	printErr  error
	closed    bool
}

var _ PrintEngine = (*fakePrintEngine)(nil)

func (e *fakePrintEngine) Render(ctx context.Context, htmlDocument string) (<-chan error, error) {
	if e.renderErr != nil {
		return nil, e.renderErr
	}
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
		if dest := DestinationFrom(ctx, nil); dest != nil {
			done <- dest([]byte("%PDF-fake"))
			return
		}
		done <- nil
	}()
	return done, nil
}

func (e *fakePrintEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *fakePrintEngine) Documents() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.documents...)
}

// newTestToolkit builds a toolkit wired to fakes.
func newTestToolkit(t *testing.T, opts ...Option) (*Toolkit, *fakeRasterizer, *fakePrintEngine) {
	t.Helper()
	r := &fakeRasterizer{}
	p := &fakePrintEngine{}
	all := append([]Option{WithRasterizer(r), WithPrintEngine(p)}, opts...)
	tk, err := NewToolkit(all...)
	if err != nil {
		t.Fatalf("NewToolkit() error = %v", err)
	}
	t.Cleanup(func() { _ = tk.Close() })
	return tk, r, p
}
