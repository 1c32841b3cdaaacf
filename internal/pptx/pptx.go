// Package pptx writes minimal PresentationML packages in which every slide
// is a single full-bleed JPEG picture.
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// MIMEType is the content type of a .pptx package.
const MIMEType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// Slide geometry.
const (
	EMUPerInch       = 914400
	SlideWidthInches = 10.0

	// PresentationML bounds for p:sldSz (1 inch to 56 inches).
	minSlideInches = 1.0
	maxSlideInches = 56.0
	minSlideEMU    = 914400
	maxSlideEMU    = 51206400
)

// Sentinel errors.
var (
	ErrAspect     = errors.New("pptx: aspect ratio must be positive")
	ErrNoSlides   = errors.New("pptx: presentation has no slides")
	ErrEmptyImage = errors.New("pptx: slide image is empty")
)

// modTime is stamped on every zip entry so identical decks produce identical bytes.
var modTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// SizeForAspect returns the slide size in inches for a page aspect ratio
// (width / height): 10 inches wide, height rounded to four decimals. When
// that height falls outside the 1 to 56 inch range PowerPoint accepts, the
// height is pinned to the bound and the width follows the aspect, so any
// aspect between 1:56 and 56:1 keeps its shape.
func SizeForAspect(aspect float64) (width, height float64, err error) {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return 0, 0, fmt.Errorf("%w: %v", ErrAspect, aspect)
	}
	width, height = SlideWidthInches, round4(SlideWidthInches/aspect)
	switch {
	case height < minSlideInches:
		height = minSlideInches
		width = math.Min(round4(minSlideInches*aspect), maxSlideInches)
	case height > maxSlideInches:
		height = maxSlideInches
		width = math.Max(round4(maxSlideInches*aspect), minSlideInches)
	}
	return width, height, nil
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Deck accumulates slides. It is not safe for concurrent use.
type Deck struct {
	title  string
	cx, cy int64
	slides [][]byte
}

// New creates an empty deck whose slides are width x height inches.
// Sizes outside the range PowerPoint accepts are clamped.
func New(title string, width, height float64) *Deck {
	return &Deck{
		title: title,
		cx:    toEMU(width),
		cy:    toEMU(height),
	}
}

// NewForAspect is New with SizeForAspect.
func NewForAspect(title string, aspect float64) (*Deck, error) {
	w, h, err := SizeForAspect(aspect)
	if err != nil {
		return nil, err
	}
	return New(title, w, h), nil
}

func toEMU(inches float64) int64 {
	v := int64(math.Round(inches * EMUPerInch))
	if v < minSlideEMU {
		return minSlideEMU
	}
	if v > maxSlideEMU {
		return maxSlideEMU
	}
	return v
}

// Size returns the slide size in EMU.
func (d *Deck) Size() (cx, cy int64) {
	return d.cx, d.cy
}

// Len returns the number of slides.
func (d *Deck) Len() int {
	return len(d.slides)
}

// AddImageSlide appends a slide showing jpegData stretched over the whole slide.
func (d *Deck) AddImageSlide(jpegData []byte) error {
	if len(jpegData) == 0 {
		return ErrEmptyImage
	}
	d.slides = append(d.slides, jpegData)
	return nil
}

// Bytes is Write into a fresh buffer.
func (d *Deck) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes the package.
func (d *Deck) Write(w io.Writer) error {
	if len(d.slides) == 0 {
		return ErrNoSlides
	}

	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", d.contentTypes()},
		{"_rels/.rels", rootRels},
		{"docProps/app.xml", fmt.Sprintf(appXML, len(d.slides))},
		{"docProps/core.xml", fmt.Sprintf(coreXML, escape(d.title))},
		{"ppt/presentation.xml", d.presentation()},
		{"ppt/_rels/presentation.xml.rels", d.presentationRels()},
		{"ppt/presProps.xml", presPropsXML},
		{"ppt/tableStyles.xml", tableStylesXML},
		{"ppt/theme/theme1.xml", themeXML},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRels},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRels},
	}
	for _, p := range parts {
		if err := writeEntry(zw, p.name, zip.Deflate, []byte(p.body)); err != nil {
			return err
		}
	}

	for i, img := range d.slides {
		n := i + 1
		slide := fmt.Sprintf(slideXML, n, d.cx, d.cy)
		if err := writeEntry(zw, fmt.Sprintf("ppt/slides/slide%d.xml", n), zip.Deflate, []byte(slide)); err != nil {
			return err
		}
		rels := fmt.Sprintf(slideRels, n)
		if err := writeEntry(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), zip.Deflate, []byte(rels)); err != nil {
			return err
		}
		// JPEG is already compressed.
		if err := writeEntry(zw, fmt.Sprintf("ppt/media/image%d.jpeg", n), zip.Store, img); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("pptx: finalizing package: %w", err)
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, method uint16, data []byte) error {
	f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method, Modified: modTime})
	if err != nil {
		return fmt.Errorf("pptx: creating %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("pptx: writing %s: %w", name, err)
	}
	return nil
}

func (d *Deck) contentTypes() string {
	var b strings.Builder
	b.WriteString(contentTypesHead)
	for i := range d.slides {
		fmt.Fprintf(&b, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i+1)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

// Presentation relationship IDs: rId1..rId4 are fixed parts, slides follow.
const firstSlideRel = 5

func (d *Deck) presentation() string {
	var ids strings.Builder
	for i := range d.slides {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, firstSlideRel+i)
	}
	return fmt.Sprintf(presentationXML, ids.String(), d.cx, d.cy)
}

func (d *Deck) presentationRels() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	b.WriteString(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="theme/theme1.xml"/>`)
	b.WriteString(`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/presProps" Target="presProps.xml"/>`)
	b.WriteString(`<Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/tableStyles" Target="tableStyles.xml"/>`)
	for i := range d.slides {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, firstSlideRel+i, i+1)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
