package pdftoolkit

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/techVasanthsmart/pdf-toolkit/internal/fileutil"
)

// PrintEngine prints an HTML document. Render returns once the job is
// handed off; the job's outcome arrives later on the channel, which
// receives exactly one value and is then closed.
type PrintEngine interface {
	Render(ctx context.Context, htmlDocument string) (<-chan error, error)
	Close() error
}

var _ PrintEngine = (*RodPrintEngine)(nil)

// PaperSize is a named sheet size in inches.
type PaperSize struct {
	Name          string
	Width, Height float64
}

// Supported paper sizes.
var (
	PaperLetter = PaperSize{Name: "letter", Width: 8.5, Height: 11}
	PaperA4     = PaperSize{Name: "a4", Width: 8.27, Height: 11.69}
	PaperLegal  = PaperSize{Name: "legal", Width: 8.5, Height: 14}
)

// Print defaults and bounds.
const (
	DefaultMargin       = 0.5
	MaxMargin           = 3.0
	DefaultPrintTimeout = 30 * time.Second
)

// ParsePaperSize maps "letter", "a4" or "legal" (any case) to a size.
// Empty selects letter.
func ParsePaperSize(s string) (PaperSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", PaperLetter.Name:
		return PaperLetter, nil
	case PaperA4.Name:
		return PaperA4, nil
	case PaperLegal.Name:
		return PaperLegal, nil
	}
	return PaperSize{}, newError(ErrInvalidPaperSize,
		fmt.Sprintf("Invalid paper size %q. Use letter, a4 or legal.", s), nil)
}

// PrintOptions configure a RodPrintEngine.
type PrintOptions struct {
	Paper   PaperSize
	Margin  float64 // inches, all four sides
	Timeout time.Duration
	// Destination receives the printed bytes unless the context passed to
	// Render carries its own (see WithDestination).
	Destination Destination
}

// Destination receives the bytes of a printed document.
type Destination func(pdf []byte) error

type destinationKey struct{}

// WithDestination returns a context directing prints rendered with it to d.
func WithDestination(ctx context.Context, d Destination) context.Context {
	return context.WithValue(ctx, destinationKey{}, d)
}

// DestinationFrom returns the destination carried by ctx, or fallback.
// Custom PrintEngine implementations use it to honour WithDestination.
func DestinationFrom(ctx context.Context, fallback Destination) Destination {
	if d, ok := ctx.Value(destinationKey{}).(Destination); ok && d != nil {
		return d
	}
	return fallback
}

// Validate checks the options. A nil receiver is valid.
func (o *PrintOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.Margin < 0 || o.Margin > MaxMargin || math.IsNaN(o.Margin) {
		return newError(ErrInvalidMargin,
			fmt.Sprintf("Margin must be between 0 and %g inches.", MaxMargin), nil)
	}
	if 2*o.Margin >= min(o.Paper.Width, o.Paper.Height) {
		return newError(ErrInvalidMargin, "Margins leave no printable area.", nil)
	}
	return nil
}

// RodPrintEngine prints through headless Chrome driven by go-rod. The
// browser starts on the first Render and is reused until Close. Rod
// downloads Chromium on first use when none is installed.
type RodPrintEngine struct {
	opts PrintOptions

	mu      sync.Mutex
	browser *rod.Browser
	wg      sync.WaitGroup
}

// NewRodPrintEngine creates an engine. A zero paper size selects letter
// and a zero timeout DefaultPrintTimeout; a zero margin is kept.
func NewRodPrintEngine(opts PrintOptions) (*RodPrintEngine, error) {
	if opts.Paper == (PaperSize{}) {
		opts.Paper = PaperLetter
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultPrintTimeout
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &RodPrintEngine{opts: opts}, nil
}

// BrowserLauncher returns a launcher honouring ROD_BROWSER_BIN and running
// without the sandbox in CI or containers.
func BrowserLauncher() *launcher.Launcher {
	l := launcher.New()
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	return l
}

// ensureBrowser lazily connects to the browser. Callers hold e.mu.
func (e *RodPrintEngine) ensureBrowser() error {
	if e.browser != nil {
		return nil
	}
	u, err := BrowserLauncher().Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	e.browser = b
	return nil
}

// Render connects to the browser, then prints htmlDocument in the
// background.
func (e *RodPrintEngine) Render(ctx context.Context, htmlDocument string) (<-chan error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dest := DestinationFrom(ctx, e.opts.Destination)
	if dest == nil {
		return nil, fmt.Errorf("%w: no destination", ErrPrint)
	}

	e.mu.Lock()
	err := e.ensureBrowser()
	browser := e.browser
	if err == nil {
		e.wg.Add(1)
	}
	e.mu.Unlock()
	if err != nil {
		return nil, withMessage(err, msgPrintFailed)
	}

	done := make(chan error, 1)
	go func() {
		defer e.wg.Done()
		defer close(done)
		done <- withMessage(e.print(ctx, browser, htmlDocument, dest), msgPrintFailed)
	}()
	return done, nil
}

func (e *RodPrintEngine) print(ctx context.Context, browser *rod.Browser, htmlDocument string, dest Destination) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPrint, r)
		}
	}()

	path, cleanup, err := fileutil.WriteTempFile([]byte(htmlDocument), "html")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrint, err)
	}
	defer cleanup()

	timeout := e.opts.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	reader, err := page.PDF(e.printParams())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrint, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("%w: reading PDF stream: %v", ErrPrint, err)
	}
	if err := dest(data); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

func (e *RodPrintEngine) printParams() *proto.PagePrintToPDF {
	m := e.opts.Margin
	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(e.opts.Paper.Width),
		PaperHeight:     floatPtr(e.opts.Paper.Height),
		MarginTop:       floatPtr(m),
		MarginBottom:    floatPtr(m),
		MarginLeft:      floatPtr(m),
		MarginRight:     floatPtr(m),
		PrintBackground: true,
	}
}

// Close waits for running prints and shuts the browser down.
func (e *RodPrintEngine) Close() error {
	e.wg.Wait()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browser == nil {
		return nil
	}
	err := e.browser.Close()
	e.browser = nil
	return err
}

func floatPtr(v float64) *float64 {
	return &v
}
