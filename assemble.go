package pdftoolkit

import (
	"bytes"
	"context"
	"fmt"
	"io"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// assembledName is the handle name of an assembly result before the
// caller picks a download name.
const assembledName = "assembled.pdf"

// Assembler copies referenced pages, in sequence order, into a new PDF.
// PDF pages are copied as objects and never rasterized. Image handles in
// the sequence become a page of the image's own pixel size.
type Assembler struct {
	// read parses source bytes; nil means readContext.
	read func(data []byte) (*model.Context, error)
}

// NewAssembler creates an Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// run is a stretch of consecutive refs into the same source.
type run struct {
	handle  HandleID
	indexes []int
}

// groupRuns splits refs into maximal runs of the same source handle.
func groupRuns(refs []PageRef) []run {
	var runs []run
	for _, r := range refs {
		if n := len(runs); n > 0 && runs[n-1].handle == r.Handle {
			runs[n-1].indexes = append(runs[n-1].indexes, r.Index)
			continue
		}
		runs = append(runs, run{handle: r.Handle, indexes: []int{r.Index}})
	}
	return runs
}

// Assemble builds one PDF containing exactly the pages of refs, in order,
// duplicates included. The context is checked between runs.
func (a *Assembler) Assemble(ctx context.Context, refs []PageRef, res HandleResolver) (*PDFHandle, error) {
	if len(refs) == 0 {
		return nil, ErrEmptySequence
	}

	runs := groupRuns(refs)
	sources := make(map[HandleID]*model.Context)
	segments := make([][]byte, 0, len(runs))
	for _, r := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		h, ok := res.Handle(r.handle)
		if !ok {
			return nil, fmt.Errorf("%w: unknown document %s", ErrPageIndex, r.handle)
		}
		for _, idx := range r.indexes {
			if idx < 0 || idx >= h.PageCount() {
				return nil, fmt.Errorf("%w: page %d of %d in %s", ErrPageIndex, idx+1, h.PageCount(), h.Name())
			}
		}

		seg, err := a.segment(h, r.indexes, sources)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	merged, err := mergeSegments(segments)
	if err != nil {
		return nil, err
	}

	out, err := OpenPDF(assembledName, merged)
	if err != nil {
		return nil, fmt.Errorf("%w: reopening output: %v", ErrAssembly, err)
	}
	if out.PageCount() != len(refs) {
		return nil, fmt.Errorf("%w: output has %d pages, want %d", ErrAssembly, out.PageCount(), len(refs))
	}
	return out, nil
}

// SplitPages copies every page of doc into its own single-page document,
// in order. The source is parsed once for the whole job and the context
// is checked between pages.
func (a *Assembler) SplitPages(ctx context.Context, doc *PDFHandle) ([]*PDFHandle, error) {
	src, err := a.source(doc)
	if err != nil {
		return nil, err
	}

	out := make([]*PDFHandle, 0, doc.PageCount())
	for nr := 1; nr <= doc.PageCount(); nr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := copyPages(src, doc.name, []int{nr})
		if err != nil {
			return nil, err
		}
		out = append(out, &PDFHandle{id: newHandleID(), name: assembledName, data: data, pages: 1})
	}
	return out, nil
}

// source parses doc into a job-owned pdfcpu context.
func (a *Assembler) source(doc *PDFHandle) (*model.Context, error) {
	read := a.read
	if read == nil {
		read = readContext
	}
	src, err := read(doc.data)
	if err != nil {
		return nil, newError(ErrInvalidPDF, msgInvalidPDF, fmt.Errorf("%s: %v", doc.name, err))
	}
	return src, nil
}

// segment renders one run into standalone PDF bytes. Parsed PDF sources
// are kept in sources for later runs of the same job.
func (a *Assembler) segment(h DocumentHandle, indexes []int, sources map[HandleID]*model.Context) ([]byte, error) {
	switch doc := h.(type) {
	case *PDFHandle:
		src, ok := sources[doc.id]
		if !ok {
			var err error
			if src, err = a.source(doc); err != nil {
				return nil, err
			}
			sources[doc.id] = src
		}
		nrs := make([]int, len(indexes))
		for i, idx := range indexes {
			nrs[i] = idx + 1
		}
		return copyPages(src, doc.name, nrs)
	case *ImageHandle:
		w, ht := doc.Pixels()
		page := Size{Width: float64(w), Height: float64(ht)}
		pages := make([][]byte, 0, len(indexes))
		for range indexes {
			seg, err := imagePage(doc, page)
			if err != nil {
				return nil, err
			}
			pages = append(pages, seg)
		}
		return mergeSegments(pages)
	}
	return nil, fmt.Errorf("%w: unsupported document kind %s", ErrAssembly, h.Kind())
}

// copyPages writes the given 1-based pages of src, in order, as a new
// document. name identifies the source in errors.
func copyPages(src *model.Context, name string, nrs []int) ([]byte, error) {
	// The page cache lets a page selected twice be copied twice.
	dst, err := pdfcpu.ExtractPages(src, nrs, true)
	if err != nil {
		return nil, fmt.Errorf("%w: copying pages from %s: %v", ErrAssembly, name, err)
	}

	var buf bytes.Buffer
	if err := pdfapi.WriteContext(dst, &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return buf.Bytes(), nil
}

// mergeSegments concatenates standalone PDFs in order.
func mergeSegments(segments [][]byte) ([]byte, error) {
	switch len(segments) {
	case 0:
		return nil, ErrEmptySequence
	case 1:
		return segments[0], nil
	}

	readers := make([]io.ReadSeeker, len(segments))
	for i, s := range segments {
		readers[i] = bytes.NewReader(s)
	}
	var out bytes.Buffer
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := pdfapi.MergeRaw(readers, &out, false, conf); err != nil {
		return nil, fmt.Errorf("%w: merging %d segments: %v", ErrAssembly, len(segments), err)
	}
	return out.Bytes(), nil
}
