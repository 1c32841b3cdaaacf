package pdftoolkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"sync"
	"sync/atomic"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/techVasanthsmart/pdf-toolkit/internal/pptx"
)

// Render scale bounds for presentation output.
const (
	DefaultScale = 2.0
	MinScale     = 1.0
	MaxScale     = 4.0

	slideJPEGQuality = 95

	// maxCanvasPixels bounds one rendered page (256 MiB as RGBA).
	maxCanvasPixels = 1 << 26
	// maxCanvasEdge is the largest side a JPEG can encode.
	maxCanvasEdge = 1<<16 - 1
)

// Progress counts completed pages of a job.
type Progress struct {
	Done, Total int
}

// ConversionJob rasterizes every page of a PDF into a slide of a new
// presentation. Cancellation is cooperative: it is observed only between
// pages, so a page in progress always finishes.
type ConversionJob struct {
	doc        *PDFHandle
	rasterizer Rasterizer
	scale      float64
	background color.Color
	onProgress func(Progress)
	observer   Observer

	canceled atomic.Bool
	mu       sync.Mutex
	progress Progress
}

// ConversionOption configures a ConversionJob.
type ConversionOption func(*ConversionJob)

// WithScale sets the render scale (1 to 4). Scale 2 renders a Letter page
// at 1224x1584 pixels.
func WithScale(scale float64) ConversionOption {
	return func(j *ConversionJob) {
		j.scale = scale
	}
}

// WithProgress registers fn to receive progress after each page. fn runs
// on the goroutine calling Run.
func WithProgress(fn func(Progress)) ConversionOption {
	return func(j *ConversionJob) {
		j.onProgress = fn
	}
}

// WithBackground sets the opaque fill drawn under each page. Default white.
func WithBackground(c color.Color) ConversionOption {
	return func(j *ConversionJob) {
		j.background = c
	}
}

func withJobObserver(o Observer) ConversionOption {
	return func(j *ConversionJob) {
		j.observer = o
	}
}

// NewConversionJob prepares a job for doc.
func NewConversionJob(doc *PDFHandle, r Rasterizer, opts ...ConversionOption) (*ConversionJob, error) {
	j := &ConversionJob{
		doc:        doc,
		rasterizer: r,
		scale:      DefaultScale,
		background: color.White,
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.scale < MinScale || j.scale > MaxScale || math.IsNaN(j.scale) {
		return nil, newError(ErrInvalidScale,
			fmt.Sprintf("Scale must be between %g and %g.", MinScale, MaxScale),
			fmt.Errorf("%v", j.scale))
	}
	if j.rasterizer == nil {
		return nil, ErrRasterizerUnavailable
	}
	return j, nil
}

// Cancel asks the job to stop at the next page boundary. Safe to call
// from any goroutine, any number of times.
func (j *ConversionJob) Cancel() {
	j.canceled.Store(true)
}

// Progress returns the last reported progress.
func (j *ConversionJob) Progress() Progress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

func (j *ConversionJob) report(p Progress) {
	j.mu.Lock()
	j.progress = p
	j.mu.Unlock()
	if j.onProgress != nil {
		j.onProgress(p)
	}
}

func (j *ConversionJob) stopped(ctx context.Context) bool {
	return j.canceled.Load() || ctx.Err() != nil
}

// Run converts the document. Slide size follows page 1: 10 inches wide,
// height from page 1's aspect ratio. Later pages are stretched to that
// slide size. A canceled job returns ErrCanceled and no artifact.
func (j *ConversionJob) Run(ctx context.Context) (art *Artifact, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			art, err = nil, fmt.Errorf("internal error: %v", r)
		}
		j.observer.ObserveOperation(OpPresentation, time.Since(start), err)
		if err != nil && !errors.Is(err, ErrCanceled) {
			err = withMessage(err, msgConvertFailed)
		}
	}()
	return j.run(ctx)
}

func (j *ConversionJob) run(ctx context.Context) (*Artifact, error) {
	total := j.doc.PageCount()
	j.report(Progress{Done: 0, Total: total})

	first, err := j.doc.PageSize(0)
	if err != nil {
		return nil, err
	}
	deck, err := pptx.NewForAspect(BaseName(j.doc.Name()), first.Aspect())
	if err != nil {
		return nil, newError(ErrInvalidPDF, msgConvertFailed, err)
	}

	canvases := make([]image.Point, total)
	for i := range canvases {
		size, err := j.doc.PageSize(i)
		if err != nil {
			return nil, err
		}
		if canvases[i], err = canvasSize(size, j.scale, i+1); err != nil {
			return nil, err
		}
	}

	renderer, err := j.rasterizer.Open(ctx, j.doc)
	if err != nil {
		return nil, err
	}
	defer renderer.Close()

	// Pages render to completion even if ctx is canceled mid-page; the
	// renderer's own timeout still applies.
	renderCtx := context.WithoutCancel(ctx)

	for i := 1; i <= total; i++ {
		if j.stopped(ctx) {
			return nil, ErrCanceled
		}

		img, err := renderer.RenderPage(renderCtx, i, j.scale)
		if err != nil {
			return nil, err
		}
		data, err := flattenJPEG(img, canvases[i-1], j.background)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrWriteOutput, i, err)
		}
		if err := deck.AddImageSlide(data); err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrWriteOutput, i, err)
		}

		j.observer.PagesProcessed(OpPresentation, 1)
		j.report(Progress{Done: i, Total: total})
	}

	if j.stopped(ctx) {
		return nil, ErrCanceled
	}

	data, err := deck.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return &Artifact{Name: PresentationName(j.doc.Name()), MIME: MIMEPPTX, Data: data}, nil
}

// pixelSize is the canvas size of a page rendered at scale.
func pixelSize(s Size, scale float64) image.Point {
	return image.Point{
		X: max(1, int(s.Width*scale)),
		Y: max(1, int(s.Height*scale)),
	}
}

// canvasSize is pixelSize for page n, rejecting canvases too large to
// allocate or encode.
func canvasSize(s Size, scale float64, n int) (image.Point, error) {
	w, h := s.Width*scale, s.Height*scale
	if w > maxCanvasEdge || h > maxCanvasEdge || w*h > maxCanvasPixels {
		return image.Point{}, newError(ErrInvalidScale,
			fmt.Sprintf("Page %d is too large to render at scale %g. Use a lower scale.", n, scale),
			fmt.Errorf("page %d: %.0fx%.0f pixels", n, w, h))
	}
	return pixelSize(s, scale), nil
}

// flattenJPEG paints bg, draws img over it (rescaled to size when the
// renderer's output differs) and encodes the result as JPEG.
func flattenJPEG(img image.Image, size image.Point, bg color.Color) ([]byte, error) {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	if img.Bounds().Size() == size {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Over)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: slideJPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
