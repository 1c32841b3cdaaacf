package pdftoolkit

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"strings"
	"sync"

	"github.com/google/uuid"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/webp" // register decoder
)

func init() {
	// pdfcpu would otherwise create a configuration directory in the
	// user's home on first use.
	pdfapi.DisableConfigDir()
}

// HandleID identifies a document handle for the lifetime of a workflow.
type HandleID string

func newHandleID() HandleID {
	return HandleID(uuid.NewString())
}

// SourceKind is the kind of document behind a handle.
type SourceKind int

const (
	KindPDF SourceKind = iota + 1
	KindImage
)

func (k SourceKind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	}
	return "unknown"
}

// Size is a page size: points for PDF pages, pixels for images.
type Size struct {
	Width, Height float64
}

// Aspect returns Width / Height, or 0 for a degenerate size.
func (s Size) Aspect() float64 {
	if s.Height <= 0 {
		return 0
	}
	return s.Width / s.Height
}

// DocumentHandle is an opened, read-only source document. Implementations
// are safe for concurrent use.
type DocumentHandle interface {
	ID() HandleID
	Name() string
	Kind() SourceKind
	PageCount() int
	PageSize(index int) (Size, error)
}

// Compile-time interface checks.
var (
	_ DocumentHandle = (*PDFHandle)(nil)
	_ DocumentHandle = (*ImageHandle)(nil)
)

// ---------------------------------------------------------------------------
// PDF
// ---------------------------------------------------------------------------

// PDFHandle is a parsed PDF. It keeps the original bytes; every job reads
// them into its own pdfcpu context so handles never share mutable state.
type PDFHandle struct {
	id    HandleID
	name  string
	data  []byte
	pages int

	sizesOnce sync.Once
	sizes     []Size
	sizesErr  error
}

// OpenPDF parses data and returns a handle, or a ParseError describing why
// the bytes are not a usable PDF.
func OpenPDF(name string, data []byte) (*PDFHandle, error) {
	ctx, err := readContext(data)
	if err != nil {
		if errors.Is(err, pdfcpu.ErrWrongPassword) || strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			return nil, newError(ErrEncryptedPDF, msgEncryptedPDF, fmt.Errorf("%s: %v", name, err))
		}
		return nil, newError(ErrInvalidPDF, msgInvalidPDF, fmt.Errorf("%s: %v", name, err))
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, newError(ErrInvalidPDF, msgInvalidPDF, fmt.Errorf("%s: %v", name, err))
	}
	if ctx.PageCount == 0 {
		return nil, newError(ErrNoPages, msgNoPages, fmt.Errorf("%s", name))
	}

	return &PDFHandle{
		id:    newHandleID(),
		name:  name,
		data:  data,
		pages: ctx.PageCount,
	}, nil
}

// readContext parses PDF bytes leniently into a fresh pdfcpu context.
func readContext(data []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return pdfapi.ReadValidateAndOptimize(bytes.NewReader(data), conf)
}

func (h *PDFHandle) ID() HandleID     { return h.id }
func (h *PDFHandle) Name() string     { return h.name }
func (h *PDFHandle) Kind() SourceKind { return KindPDF }
func (h *PDFHandle) PageCount() int   { return h.pages }

// Bytes returns a copy of the document bytes.
func (h *PDFHandle) Bytes() []byte {
	return bytes.Clone(h.data)
}

// PageSize returns the displayed size of the page at the 0-based index:
// the CropBox (MediaBox when absent) with width and height swapped for
// pages rotated by 90 or 270 degrees. Sizes are resolved once, on first use.
func (h *PDFHandle) PageSize(index int) (Size, error) {
	if index < 0 || index >= h.pages {
		return Size{}, fmt.Errorf("%w: page %d of %d in %s", ErrPageIndex, index+1, h.pages, h.name)
	}
	h.sizesOnce.Do(h.loadSizes)
	if h.sizesErr != nil {
		return Size{}, h.sizesErr
	}
	return h.sizes[index], nil
}

func (h *PDFHandle) loadSizes() {
	ctx, err := readContext(h.data)
	if err != nil {
		h.sizesErr = newError(ErrInvalidPDF, msgInvalidPDF, err)
		return
	}
	sizes := make([]Size, h.pages)
	for i := range sizes {
		_, _, inh, err := ctx.PageDict(i+1, false)
		if err != nil {
			h.sizesErr = newError(ErrInvalidPDF, msgInvalidPDF, fmt.Errorf("page %d: %v", i+1, err))
			return
		}
		if inh == nil {
			h.sizesErr = newError(ErrInvalidPDF, msgInvalidPDF, fmt.Errorf("page %d: missing attributes", i+1))
			return
		}
		box := inh.CropBox
		if box == nil {
			box = inh.MediaBox
		}
		if box == nil {
			h.sizesErr = newError(ErrInvalidPDF, msgInvalidPDF, fmt.Errorf("page %d: no page box", i+1))
			return
		}
		w, ht := box.Width(), box.Height()
		if rot := ((inh.Rotate % 360) + 360) % 360; rot == 90 || rot == 270 {
			w, ht = ht, w
		}
		sizes[i] = Size{Width: w, Height: ht}
	}
	h.sizes = sizes
}

// ---------------------------------------------------------------------------
// Image
// ---------------------------------------------------------------------------

// Supported image formats as reported by image.DecodeConfig.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// ImageHandle is a raster image with exactly one page.
type ImageHandle struct {
	id            HandleID
	name          string
	format        string
	data          []byte
	width, height int
}

// OpenImage reads the image header. Pixel data is decoded only when the
// image is embedded.
func OpenImage(name string, data []byte) (*ImageHandle, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, newError(ErrCorruptImage, msgImagesFailed, fmt.Errorf("%s: %v", name, err))
	}
	switch format {
	case FormatJPEG, FormatPNG, FormatWebP:
	default:
		return nil, newError(ErrUnsupportedImage, msgImagesFailed, fmt.Errorf("%s: %s", name, format))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, newError(ErrCorruptImage, msgImagesFailed, fmt.Errorf("%s: empty image", name))
	}
	return &ImageHandle{
		id:     newHandleID(),
		name:   name,
		format: format,
		data:   data,
		width:  cfg.Width,
		height: cfg.Height,
	}, nil
}

func (h *ImageHandle) ID() HandleID     { return h.id }
func (h *ImageHandle) Name() string     { return h.name }
func (h *ImageHandle) Kind() SourceKind { return KindImage }
func (h *ImageHandle) PageCount() int   { return 1 }

// Format returns "jpeg", "png" or "webp".
func (h *ImageHandle) Format() string { return h.format }

// Pixels returns the image dimensions in pixels.
func (h *ImageHandle) Pixels() (width, height int) { return h.width, h.height }

// PageSize returns the pixel size for index 0.
func (h *ImageHandle) PageSize(index int) (Size, error) {
	if index != 0 {
		return Size{}, fmt.Errorf("%w: page %d of 1 in %s", ErrPageIndex, index+1, h.name)
	}
	return Size{Width: float64(h.width), Height: float64(h.height)}, nil
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// Open parses src according to its MIME type, falling back to the file
// extension when the type is unknown.
func Open(src SourceFile) (DocumentHandle, error) {
	switch src.MIME {
	case MIMEPDF:
		return OpenPDF(src.Name, src.Data)
	case MIMEJPEG, MIMEPNG, MIMEWebP:
		return OpenImage(src.Name, src.Data)
	}
	switch src.ext() {
	case ".pdf":
		return OpenPDF(src.Name, src.Data)
	case ".jpg", ".jpeg", ".png", ".webp":
		return OpenImage(src.Name, src.Data)
	}
	return nil, newError(ErrUnsupportedType,
		fmt.Sprintf("Invalid file type: %s.", src.Name),
		fmt.Errorf("%s has type %q", src.Name, src.MIME))
}
