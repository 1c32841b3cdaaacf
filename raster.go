package pdftoolkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/techVasanthsmart/pdf-toolkit/internal/fileutil"
	"github.com/techVasanthsmart/pdf-toolkit/internal/process"
)

// Rasterizer turns PDF pages into images.
type Rasterizer interface {
	Open(ctx context.Context, doc *PDFHandle) (PageRenderer, error)
}

// PageRenderer renders pages of one opened document.
type PageRenderer interface {
	// RenderPage renders the 1-based page at scale times its size in
	// points, so scale 1 yields 72 DPI.
	RenderPage(ctx context.Context, pageNr int, scale float64) (image.Image, error)
	Close() error
}

var (
	_ Rasterizer   = (*PopplerRasterizer)(nil)
	_ PageRenderer = (*cliPageRenderer)(nil)
)

// Rasterizer defaults.
const (
	DefaultPageTimeout = 60 * time.Second
	defaultPdftoppm    = "pdftoppm"
	pointsPerInch      = 72.0
)

// defaultMagick lists ImageMagick entry points, newest first.
var defaultMagick = []string{"magick", "convert"}

// PopplerRasterizer renders pages with poppler's pdftoppm, falling back to
// ImageMagick when pdftoppm is not installed. Each page runs in its own
// child process group, killed when PageTimeout elapses.
type PopplerRasterizer struct {
	// PdftoppmPath overrides the pdftoppm lookup.
	PdftoppmPath string
	// MagickPath overrides the ImageMagick lookup.
	MagickPath string
	// PageTimeout bounds one page render. Zero means DefaultPageTimeout.
	PageTimeout time.Duration
}

// Backend reports which program would render pages.
func (r *PopplerRasterizer) Backend() (name, path string, err error) {
	candidates := []struct{ name, bin string }{{"pdftoppm", defaultPdftoppm}}
	if r.PdftoppmPath != "" {
		candidates[0].bin = r.PdftoppmPath
	}
	if r.MagickPath != "" {
		candidates = append(candidates, struct{ name, bin string }{"imagemagick", r.MagickPath})
	} else {
		for _, m := range defaultMagick {
			candidates = append(candidates, struct{ name, bin string }{"imagemagick", m})
		}
	}

	for _, c := range candidates {
		if p, err := exec.LookPath(c.bin); err == nil {
			return c.name, p, nil
		}
	}
	return "", "", fmt.Errorf("%w: install poppler-utils (pdftoppm) or ImageMagick", ErrRasterizerUnavailable)
}

// Open stages the document in a temporary directory for rendering.
func (r *PopplerRasterizer) Open(ctx context.Context, doc *PDFHandle) (PageRenderer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, bin, err := r.Backend()
	if err != nil {
		return nil, err
	}

	pdfPath, cleanup, err := fileutil.WriteTempFile(doc.data, "pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: staging document: %v", ErrRender, err)
	}
	dir, err := os.MkdirTemp("", "pdftoolkit-render-*")
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: creating render directory: %v", ErrRender, err)
	}

	timeout := r.PageTimeout
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	return &cliPageRenderer{
		bin:     bin,
		magick:  name == "imagemagick",
		pdfPath: pdfPath,
		dir:     dir,
		cleanup: cleanup,
		timeout: timeout,
	}, nil
}

// cliPageRenderer shells out once per page.
type cliPageRenderer struct {
	bin     string
	magick  bool
	pdfPath string
	dir     string
	cleanup func()
	timeout time.Duration
}

func (p *cliPageRenderer) RenderPage(ctx context.Context, pageNr int, scale float64) (image.Image, error) {
	if pageNr < 1 {
		return nil, fmt.Errorf("%w: page %d", ErrPageIndex, pageNr)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}

	dpi := strconv.FormatFloat(pointsPerInch*scale, 'f', -1, 64)
	prefix := filepath.Join(p.dir, "page-"+strconv.Itoa(pageNr))
	out := prefix + ".png"
	defer func() { _ = os.Remove(out) }()

	var args []string
	if p.magick {
		args = []string{"-density", dpi, fmt.Sprintf("%s[%d]", p.pdfPath, pageNr-1), out}
	} else {
		n := strconv.Itoa(pageNr)
		args = []string{"-png", "-r", dpi, "-f", n, "-l", n, "-singlefile", p.pdfPath, prefix}
	}
	if err := p.run(ctx, pageNr, args); err != nil {
		return nil, err
	}

	f, err := os.Open(out) // #nosec G304 -- path built inside our temp directory
	if err != nil {
		return nil, fmt.Errorf("%w: page %d produced no image: %v", ErrRender, pageNr, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: decoding output: %v", ErrRender, pageNr, err)
	}
	return img, nil
}

func (p *cliPageRenderer) run(ctx context.Context, pageNr int, args []string) error {
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, p.bin, args...) // #nosec G204 -- binary resolved via LookPath, args built here
	process.Isolate(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			process.KillProcessGroup(cmd.Process.Pid)
		}
		return nil
	}
	cmd.WaitDelay = 2 * time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: page %d timed out after %s", ErrRender, pageNr, p.timeout)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%w: page %d: %s", ErrRender, pageNr, msg)
	}
	return nil
}

func (p *cliPageRenderer) Close() error {
	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return os.RemoveAll(p.dir)
}
