package pdftoolkit

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Artifact is a finished output with the name a user would save it under.
// MIME is empty for print-engine output, whose bytes the core never sees.
type Artifact struct {
	Name string
	MIME string
	Data []byte
}

// Fixed output names.
const (
	MergedName    = "merged.pdf"
	ImagesPDFName = "images-to-pdf.pdf"
	defaultBase   = "document"
)

// archiveModTime is stamped on every archive member so the same pages
// always produce the same archive bytes.
var archiveModTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// BaseName strips directories and a trailing ".pdf" (any case) from name.
// An empty result becomes "document".
func BaseName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	if strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	if base == "" {
		return defaultBase
	}
	return base
}

// ReorderedName returns "<base>-reordered.pdf".
func ReorderedName(source string) string { return BaseName(source) + "-reordered.pdf" }

// ExtractName returns "<base>-extract.pdf".
func ExtractName(source string) string { return BaseName(source) + "-extract.pdf" }

// PageName returns "<base>-page-N.pdf" for the 1-based page n.
func PageName(source string, n int) string {
	return fmt.Sprintf("%s-page-%d.pdf", BaseName(source), n)
}

// SplitArchiveName returns "<base>-split-pages.zip".
func SplitArchiveName(source string) string { return BaseName(source) + "-split-pages.zip" }

// PresentationName returns "<base>.pptx".
func PresentationName(source string) string { return BaseName(source) + ".pptx" }

// Serialize returns the bytes of an assembled document.
func Serialize(h *PDFHandle) ([]byte, error) {
	if h == nil || len(h.data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrWriteOutput)
	}
	return h.Bytes(), nil
}

// PDFArtifact serializes h under name.
func PDFArtifact(h *PDFHandle, name string) (*Artifact, error) {
	data, err := Serialize(h)
	if err != nil {
		return nil, err
	}
	return &Artifact{Name: name, MIME: MIMEPDF, Data: data}, nil
}

// PageArtifacts names single-page documents "<base>-page-N.pdf" in order.
func PageArtifacts(source string, pages []*PDFHandle) ([]Artifact, error) {
	out := make([]Artifact, len(pages))
	for i, h := range pages {
		data, err := Serialize(h)
		if err != nil {
			return nil, err
		}
		out[i] = Artifact{Name: PageName(source, i+1), MIME: MIMEPDF, Data: data}
	}
	return out, nil
}

// Archive packs members, in order, into a ZIP artifact. Member names must
// be unique.
func Archive(name string, members []Artifact) (*Artifact, error) {
	if len(members) == 0 {
		return nil, newError(ErrArchive, msgArchiveFailed, fmt.Errorf("no members"))
	}

	seen := make(map[string]struct{}, len(members))
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		if _, dup := seen[m.Name]; dup {
			return nil, newError(ErrArchive, msgArchiveFailed, fmt.Errorf("duplicate member %q", m.Name))
		}
		seen[m.Name] = struct{}{}

		w, err := zw.CreateHeader(&zip.FileHeader{Name: m.Name, Method: zip.Deflate, Modified: archiveModTime})
		if err != nil {
			return nil, newError(ErrArchive, msgArchiveFailed, fmt.Errorf("%s: %v", m.Name, err))
		}
		if _, err := w.Write(m.Data); err != nil {
			return nil, newError(ErrArchive, msgArchiveFailed, fmt.Errorf("%s: %v", m.Name, err))
		}
	}
	if err := zw.Close(); err != nil {
		return nil, newError(ErrArchive, msgArchiveFailed, err)
	}
	return &Artifact{Name: name, MIME: MIMEZip, Data: buf.Bytes()}, nil
}
