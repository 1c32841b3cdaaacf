package pdftoolkit

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/techVasanthsmart/pdf-toolkit/internal/pdfwrite"
)

// PagePolicy decides the page size of an images-to-PDF job.
type PagePolicy string

// Page size policies.
const (
	PolicyA4         PagePolicy = "a4"
	PolicyLetter     PagePolicy = "letter"
	PolicyMatchFirst PagePolicy = "match-first"
)

// Page sizes in points.
var (
	PageA4     = Size{Width: 595.28, Height: 841.89}
	PageLetter = Size{Width: 612, Height: 792}
)

// ParsePagePolicy parses a policy name, case-insensitively. The empty
// string selects A4.
func ParsePagePolicy(s string) (PagePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PolicyA4):
		return PolicyA4, nil
	case string(PolicyLetter):
		return PolicyLetter, nil
	case string(PolicyMatchFirst), "match":
		return PolicyMatchFirst, nil
	}
	return "", newError(ErrInvalidPolicy,
		fmt.Sprintf("Invalid page size %q. Use a4, letter or match-first.", s), nil)
}

// pageSize resolves the policy for a job whose first image is first.
func (p PagePolicy) pageSize(first *ImageHandle) (Size, error) {
	switch p {
	case PolicyA4, "":
		return PageA4, nil
	case PolicyLetter:
		return PageLetter, nil
	case PolicyMatchFirst:
		w, h := first.Pixels()
		return Size{Width: float64(w), Height: float64(h)}, nil
	}
	return Size{}, fmt.Errorf("%w: %q", ErrInvalidPolicy, string(p))
}

// Rect is a placement in PDF user space (points, origin bottom-left).
type Rect struct {
	X, Y, W, H float64
}

// Fit scales img uniformly to the largest size that fits page, up or
// down, and centers it.
func Fit(img, page Size) Rect {
	if img.Width <= 0 || img.Height <= 0 {
		return Rect{}
	}
	scale := min(page.Width/img.Width, page.Height/img.Height)
	w := img.Width * scale
	h := img.Height * scale
	return Rect{
		X: (page.Width - w) / 2,
		Y: (page.Height - h) / 2,
		W: w,
		H: h,
	}
}

// ImagesToPDF places each image, in order, on its own page. The page size
// is decided once for the whole job by policy.
func (a *Assembler) ImagesToPDF(ctx context.Context, images []*ImageHandle, policy PagePolicy) (*PDFHandle, error) {
	if len(images) == 0 {
		return nil, ErrEmptySequence
	}
	page, err := policy.pageSize(images[0])
	if err != nil {
		return nil, err
	}

	segments := make([][]byte, 0, len(images))
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seg, err := imagePage(img, page)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	merged, err := mergeSegments(segments)
	if err != nil {
		return nil, err
	}
	out, err := OpenPDF(ImagesPDFName, merged)
	if err != nil {
		return nil, fmt.Errorf("%w: reopening output: %v", ErrAssembly, err)
	}
	if out.PageCount() != len(images) {
		return nil, fmt.Errorf("%w: output has %d pages, want %d", ErrAssembly, out.PageCount(), len(images))
	}
	return out, nil
}

// imagePage writes a one-page PDF of size page with img fitted and centered.
// JPEG bytes are embedded as-is; other formats are decoded and stored as
// lossless samples.
func imagePage(img *ImageHandle, page Size) ([]byte, error) {
	embedded, err := embedImage(img)
	if err != nil {
		return nil, err
	}
	rect := Fit(Size{Width: float64(embedded.Width), Height: float64(embedded.Height)}, page)
	data, err := pdfwrite.Bytes([]pdfwrite.Page{{
		Width:     page.Width,
		Height:    page.Height,
		Image:     embedded,
		Placement: pdfwrite.Rect(rect),
	}})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageEmbed, img.name, err)
	}
	return data, nil
}

func embedImage(img *ImageHandle) (*pdfwrite.Image, error) {
	if img.format == FormatJPEG {
		embedded, err := pdfwrite.FromJPEG(img.data)
		if err != nil {
			return nil, newError(ErrCorruptImage, msgImagesFailed, fmt.Errorf("%s: %v", img.name, err))
		}
		return embedded, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.data))
	if err != nil {
		return nil, newError(ErrCorruptImage, msgImagesFailed, fmt.Errorf("%s: %v", img.name, err))
	}
	embedded, err := pdfwrite.FromImage(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageEmbed, img.name, err)
	}
	return embedded, nil
}
