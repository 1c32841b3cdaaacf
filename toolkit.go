package pdftoolkit

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/techVasanthsmart/pdf-toolkit/internal/assets"
)

// defaultTimeout bounds one toolkit operation.
const defaultTimeout = 2 * time.Minute

// Option configures a Toolkit.
type Option func(*Toolkit)

type toolkitConfig struct {
	timeout     time.Duration
	pageTimeout time.Duration
	thumbnails  int
	assetPath   string
	print       PrintOptions
}

// Toolkit runs the document operations: merge, reorder, extract, split,
// images to PDF, PDF to presentation and Markdown printing. One Toolkit
// may serve concurrent calls; its print engine keeps one browser.
type Toolkit struct {
	cfg        toolkitConfig
	assembler  *Assembler
	rasterizer Rasterizer
	printer    PrintEngine
	markdown   *MarkdownRenderer
	loader     assets.AssetLoader
	observer   Observer
	thumbs     *ThumbnailCache
}

// WithTimeout bounds each operation. Panics if d is not positive.
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("pdftoolkit: WithTimeout duration must be positive")
	}
	return func(t *Toolkit) {
		t.cfg.timeout = d
	}
}

// WithPageTimeout bounds rendering one page of the default rasterizer.
func WithPageTimeout(d time.Duration) Option {
	return func(t *Toolkit) {
		t.cfg.pageTimeout = d
	}
}

// WithRasterizer replaces the poppler rasterizer.
func WithRasterizer(r Rasterizer) Option {
	return func(t *Toolkit) {
		t.rasterizer = r
	}
}

// WithPrintEngine replaces the headless Chrome print engine.
func WithPrintEngine(p PrintEngine) Option {
	return func(t *Toolkit) {
		t.printer = p
	}
}

// WithPrintOptions configures the default print engine.
func WithPrintOptions(o PrintOptions) Option {
	return func(t *Toolkit) {
		t.cfg.print = o
	}
}

// WithObserver receives operation metrics.
func WithObserver(o Observer) Option {
	return func(t *Toolkit) {
		if o != nil {
			t.observer = o
		}
	}
}

// WithThumbnailCacheSize sets how many page previews are kept.
func WithThumbnailCacheSize(n int) Option {
	return func(t *Toolkit) {
		t.cfg.thumbnails = n
	}
}

// WithAssetPath loads the print stylesheet and document template from dir,
// falling back to the embedded ones.
func WithAssetPath(dir string) Option {
	return func(t *Toolkit) {
		t.cfg.assetPath = dir
	}
}

// WithAssetLoader replaces the asset source entirely.
func WithAssetLoader(l assets.AssetLoader) Option {
	return func(t *Toolkit) {
		t.loader = l
	}
}

// NewToolkit creates a Toolkit. The print engine and rasterizer are not
// started until first used.
func NewToolkit(opts ...Option) (*Toolkit, error) {
	t := &Toolkit{
		cfg: toolkitConfig{
			timeout: defaultTimeout,
			print:   PrintOptions{Margin: DefaultMargin},
		},
		assembler: NewAssembler(),
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.loader == nil {
		resolver, err := assets.NewAssetResolver(t.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("loading assets: %w", err)
		}
		t.loader = resolver
	}
	t.markdown = NewMarkdownRenderer(t.loader)

	if t.rasterizer == nil {
		t.rasterizer = &PopplerRasterizer{PageTimeout: t.cfg.pageTimeout}
	}
	if t.printer == nil {
		engine, err := NewRodPrintEngine(t.cfg.print)
		if err != nil {
			return nil, err
		}
		t.printer = engine
	}

	thumbs, err := NewThumbnailCache(t.rasterizer, t.cfg.thumbnails)
	if err != nil {
		return nil, err
	}
	t.thumbs = thumbs
	return t, nil
}

// Close shuts down the print engine and drops cached previews.
func (t *Toolkit) Close() error {
	t.thumbs.Purge()
	if t.printer != nil {
		return t.printer.Close()
	}
	return nil
}

// Markdown returns the renderer used for printing.
func (t *Toolkit) Markdown() *MarkdownRenderer { return t.markdown }

// Rasterizer returns the page rasterizer.
func (t *Toolkit) Rasterizer() Rasterizer { return t.rasterizer }

// operation runs fn with the toolkit timeout, turning panics into errors,
// attaching message to failures that have none and reporting to the
// observer.
func (t *Toolkit) operation(ctx context.Context, op, message string, fn func(ctx context.Context) error) (err error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, t.cfg.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
		t.observer.ObserveOperation(op, time.Since(start), err)
		if err != nil {
			err = withMessage(err, message)
		}
	}()
	return fn(ctx)
}

// OpenSources opens every source concurrently. Handles come back in input
// order; the first failure cancels the rest.
func OpenSources(ctx context.Context, sources []SourceFile) ([]DocumentHandle, error) {
	handles := make([]DocumentHandle, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := Open(src)
			if err != nil {
				return err
			}
			handles[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return handles, nil
}

// Merge validates sources as a PDF batch and concatenates all their pages
// in order into merged.pdf.
func (t *Toolkit) Merge(ctx context.Context, sources []SourceFile) (*Artifact, error) {
	var art *Artifact
	err := t.operation(ctx, OpMerge, msgMergeFailed, func(ctx context.Context) error {
		if _, err := Validate(sources, PDFConstraint(true)); err != nil {
			return err
		}
		handles, err := OpenSources(ctx, sources)
		if err != nil {
			return err
		}
		var refs []PageRef
		for _, h := range handles {
			refs = append(refs, RefsFor(h)...)
		}
		doc, err := t.assembler.Assemble(ctx, refs, newHandleSet(handles...))
		if err != nil {
			return err
		}
		t.observer.PagesProcessed(OpMerge, doc.PageCount())
		art, err = PDFArtifact(doc, MergedName)
		return err
	})
	return art, err
}

// Reorder writes the pages of refs, all drawn from doc, as
// "<base>-reordered.pdf".
func (t *Toolkit) Reorder(ctx context.Context, doc *PDFHandle, refs []PageRef) (*Artifact, error) {
	var art *Artifact
	err := t.operation(ctx, OpReorder, msgReorderFailed, func(ctx context.Context) error {
		out, err := t.assembler.Assemble(ctx, refs, newHandleSet(doc))
		if err != nil {
			return err
		}
		t.observer.PagesProcessed(OpReorder, out.PageCount())
		art, err = PDFArtifact(out, ReorderedName(doc.Name()))
		return err
	})
	return art, err
}

// Extract writes the pages named by selection ("1-3, 5") as
// "<base>-extract.pdf".
func (t *Toolkit) Extract(ctx context.Context, doc *PDFHandle, selection string) (*Artifact, error) {
	var art *Artifact
	err := t.operation(ctx, OpExtract, msgInvalidPDF, func(ctx context.Context) error {
		pages, err := ParseRanges(selection, doc.PageCount())
		if err != nil {
			return err
		}
		refs, err := RefsForPages(doc, pages)
		if err != nil {
			return err
		}
		out, err := t.assembler.Assemble(ctx, refs, newHandleSet(doc))
		if err != nil {
			return err
		}
		t.observer.PagesProcessed(OpExtract, out.PageCount())
		art, err = PDFArtifact(out, ExtractName(doc.Name()))
		return err
	})
	return art, err
}

// SplitEvery returns one single-page document per page of doc, in order.
func (t *Toolkit) SplitEvery(ctx context.Context, doc *PDFHandle) ([]*PDFHandle, error) {
	var pages []*PDFHandle
	err := t.operation(ctx, OpSplit, msgInvalidPDF, func(ctx context.Context) error {
		out, err := t.assembler.SplitPages(ctx, doc)
		if err != nil {
			return err
		}
		t.observer.PagesProcessed(OpSplit, len(out))
		pages = out
		return nil
	})
	return pages, err
}

// SplitArchive splits doc and packs the pages into
// "<base>-split-pages.zip".
func (t *Toolkit) SplitArchive(ctx context.Context, doc *PDFHandle) (*Artifact, error) {
	pages, err := t.SplitEvery(ctx, doc)
	if err != nil {
		return nil, err
	}
	members, err := PageArtifacts(doc.Name(), pages)
	if err != nil {
		return nil, withMessage(err, msgArchiveFailed)
	}
	return Archive(SplitArchiveName(doc.Name()), members)
}

// ImagesToPDF validates sources as an image batch and places each image
// on its own page sized by policy.
func (t *Toolkit) ImagesToPDF(ctx context.Context, sources []SourceFile, policy PagePolicy) (*Artifact, error) {
	var art *Artifact
	err := t.operation(ctx, OpImages, msgImagesFailed, func(ctx context.Context) error {
		if _, err := Validate(sources, ImageConstraint()); err != nil {
			return err
		}
		handles, err := OpenSources(ctx, sources)
		if err != nil {
			return err
		}
		images := make([]*ImageHandle, len(handles))
		for i, h := range handles {
			img, ok := h.(*ImageHandle)
			if !ok {
				return newError(ErrUnsupportedType,
					fmt.Sprintf("Invalid file type: %s.", h.Name()), nil)
			}
			images[i] = img
		}
		doc, err := t.assembler.ImagesToPDF(ctx, images, policy)
		if err != nil {
			return err
		}
		t.observer.PagesProcessed(OpImages, doc.PageCount())
		art, err = PDFArtifact(doc, ImagesPDFName)
		return err
	})
	return art, err
}

// NewConversion prepares a PDF to presentation job using the toolkit's
// rasterizer and observer.
func (t *Toolkit) NewConversion(doc *PDFHandle, opts ...ConversionOption) (*ConversionJob, error) {
	opts = append([]ConversionOption{withJobObserver(t.observer)}, opts...)
	return NewConversionJob(doc, t.rasterizer, opts...)
}

// Thumbnail renders a preview of the 0-based page with its longer edge at
// maxEdge pixels. Previews are cached per document, page and size.
func (t *Toolkit) Thumbnail(ctx context.Context, doc *PDFHandle, page, maxEdge int) (image.Image, error) {
	var img image.Image
	err := t.operation(ctx, OpThumbnail, msgConvertFailed, func(ctx context.Context) error {
		var err error
		img, err = t.thumbs.Thumbnail(ctx, doc, page, maxEdge)
		return err
	})
	return img, err
}

// PrintMarkdown renders md to a print document and hands it to the print
// engine. The returned channel reports the print outcome; the toolkit
// never sees the printed bytes.
func (t *Toolkit) PrintMarkdown(ctx context.Context, md string, opts DocumentOptions) (<-chan error, error) {
	start := time.Now()
	var engineDone <-chan error
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("internal error: %v", r)
			}
		}()
		doc, err := t.markdown.Document(ctx, md, opts)
		if err != nil {
			return err
		}
		engineDone, err = t.printer.Render(ctx, doc)
		return err
	}()
	if err != nil {
		t.observer.ObserveOperation(OpPrint, time.Since(start), err)
		if errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, withMessage(err, msgPrintFailed)
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		err := <-engineDone
		t.observer.ObserveOperation(OpPrint, time.Since(start), err)
		done <- err
	}()
	return done, nil
}
