// Package pdfwrite emits small, self-contained PDF files: pages with an
// optional full or fitted raster image. It backs the image-to-PDF path and
// produces fixture documents for tests. Everything else (reading, copying
// and merging pages) goes through pdfcpu.
package pdfwrite

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Sentinel errors for document writing.
var (
	ErrNoPages     = errors.New("pdfwrite: document has no pages")
	ErrBadGeometry = errors.New("pdfwrite: page and image sizes must be positive")
)

// Rect is a placement rectangle in PDF user space (points, origin bottom-left).
type Rect struct {
	X, Y, W, H float64
}

// Page describes one output page. Image may be nil for a blank page.
type Page struct {
	Width, Height float64
	Image         *Image
	Placement     Rect
}

// Write serializes pages into a complete PDF 1.7 file.
func Write(w io.Writer, pages []Page) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	for i, p := range pages {
		if p.Width <= 0 || p.Height <= 0 {
			return fmt.Errorf("%w: page %d is %gx%g", ErrBadGeometry, i+1, p.Width, p.Height)
		}
		if p.Image != nil && (p.Image.Width <= 0 || p.Image.Height <= 0 || p.Placement.W <= 0 || p.Placement.H <= 0) {
			return fmt.Errorf("%w: image on page %d", ErrBadGeometry, i+1)
		}
	}

	d := &doc{}
	// Object numbers: 1 catalog, 2 page tree, then per page:
	// page, contents, [image, [smask]].
	next := 3
	type layout struct{ page, contents, image, smask int }
	plan := make([]layout, len(pages))
	for i, p := range pages {
		l := layout{page: next, contents: next + 1}
		next += 2
		if p.Image != nil {
			l.image = next
			next++
			if len(p.Image.SMask) > 0 {
				l.smask = next
				next++
			}
		}
		plan[i] = l
	}

	d.header()
	d.object(1, []byte("<< /Type /Catalog /Pages 2 0 R >>"))

	var kids bytes.Buffer
	for i, l := range plan {
		if i > 0 {
			kids.WriteByte(' ')
		}
		fmt.Fprintf(&kids, "%d 0 R", l.page)
	}
	d.object(2, []byte(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), len(pages))))

	for i, p := range pages {
		l := plan[i]
		resources := "<< >>"
		if p.Image != nil {
			resources = fmt.Sprintf("<< /XObject << /Im0 %d 0 R >> >>", l.image)
		}
		d.object(l.page, []byte(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Resources %s /Contents %d 0 R >>",
			num(p.Width), num(p.Height), resources, l.contents)))

		var content []byte
		if p.Image != nil {
			content = []byte(fmt.Sprintf("q %s 0 0 %s %s %s cm /Im0 Do Q",
				num(p.Placement.W), num(p.Placement.H), num(p.Placement.X), num(p.Placement.Y)))
		}
		d.stream(l.contents, "", content)

		if p.Image == nil {
			continue
		}
		img := p.Image
		dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /%s /BitsPerComponent 8 /Filter /%s",
			img.Width, img.Height, img.ColorSpace, img.Filter)
		if l.smask != 0 {
			dict += fmt.Sprintf(" /SMask %d 0 R", l.smask)
		}
		d.stream(l.image, dict, img.Data)
		if l.smask != 0 {
			d.stream(l.smask, fmt.Sprintf(
				"/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /FlateDecode",
				img.Width, img.Height), img.SMask)
		}
	}

	d.trailer(next)

	if _, err := w.Write(d.buf.Bytes()); err != nil {
		return fmt.Errorf("pdfwrite: %w", err)
	}
	return nil
}

// Bytes is Write into a fresh buffer.
func Bytes(pages []Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, pages); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Blank returns a document of empty pages with the given sizes in points.
func Blank(sizes ...[2]float64) ([]byte, error) {
	pages := make([]Page, len(sizes))
	for i, s := range sizes {
		pages[i] = Page{Width: s[0], Height: s[1]}
	}
	return Bytes(pages)
}

// doc accumulates objects and remembers their byte offsets for the xref table.
type doc struct {
	buf     bytes.Buffer
	offsets map[int]int
}

func (d *doc) header() {
	d.offsets = make(map[int]int)
	d.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
}

func (d *doc) object(n int, body []byte) {
	d.offsets[n] = d.buf.Len()
	fmt.Fprintf(&d.buf, "%d 0 obj\n", n)
	d.buf.Write(body)
	d.buf.WriteString("\nendobj\n")
}

func (d *doc) stream(n int, dict string, data []byte) {
	d.offsets[n] = d.buf.Len()
	fmt.Fprintf(&d.buf, "%d 0 obj\n<< ", n)
	if dict != "" {
		d.buf.WriteString(dict)
		d.buf.WriteByte(' ')
	}
	fmt.Fprintf(&d.buf, "/Length %d >>\nstream\n", len(data))
	d.buf.Write(data)
	d.buf.WriteString("\nendstream\nendobj\n")
}

// trailer writes the xref table for objects 1..size-1. Every entry is
// exactly 20 bytes as the file format requires.
func (d *doc) trailer(size int) {
	xref := d.buf.Len()
	fmt.Fprintf(&d.buf, "xref\n0 %d\n", size)
	d.buf.WriteString("0000000000 65535 f \n")
	for n := 1; n < size; n++ {
		fmt.Fprintf(&d.buf, "%010d 00000 n \n", d.offsets[n])
	}
	fmt.Fprintf(&d.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xref)
}

// num formats a coordinate with at most four decimals and no trailing zeros.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
