package pdftoolkit

import (
	"fmt"
	"strings"
)

// Input limits. They are fixed and not overridable by configuration.
const (
	MaxPDFSize      = 100 * 1024 * 1024
	MaxImageSize    = 20 * 1024 * 1024
	MaxImageCount   = 50
	MaxMarkdownSize = 500 * 1024

	maxPDFLabel      = "100 MB"
	maxImageLabel    = "20 MB"
	maxMarkdownLabel = "500 KB"

	// maxMergeCount bounds a merge batch when the caller sets no count.
	maxMergeCount = 50
)

// Accepted MIME types per intake.
const (
	MIMEPDF      = "application/pdf"
	MIMEJPEG     = "image/jpeg"
	MIMEPNG      = "image/png"
	MIMEWebP     = "image/webp"
	MIMEMarkdown = "text/markdown"
	MIMEText     = "text/plain"
	MIMEZip      = "application/zip"
	MIMEPPTX     = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Constraint describes what one intake accepts.
type Constraint struct {
	Multiple   bool
	MaxCount   int
	MaxSize    int64
	SizeLabel  string
	MIMETypes  []string
	Extensions []string // lowercase, with leading dot
}

// PDFConstraint accepts PDFs up to 100 MB. multiple selects batch intake
// (merge) over single-file intake (split, reorder, pptx).
func PDFConstraint(multiple bool) Constraint {
	c := Constraint{
		Multiple:   multiple,
		MaxCount:   1,
		MaxSize:    MaxPDFSize,
		SizeLabel:  maxPDFLabel,
		MIMETypes:  []string{MIMEPDF},
		Extensions: []string{".pdf"},
	}
	if multiple {
		c.MaxCount = maxMergeCount
	}
	return c
}

// ImageConstraint accepts up to 50 JPEG, PNG or WebP images of 20 MB each.
func ImageConstraint() Constraint {
	return Constraint{
		Multiple:   true,
		MaxCount:   MaxImageCount,
		MaxSize:    MaxImageSize,
		SizeLabel:  maxImageLabel,
		MIMETypes:  []string{MIMEJPEG, MIMEPNG, MIMEWebP},
		Extensions: []string{".jpg", ".jpeg", ".png", ".webp"},
	}
}

// MarkdownConstraint accepts a single Markdown or plain text file up to 500 KB.
func MarkdownConstraint() Constraint {
	return Constraint{
		MaxCount:   1,
		MaxSize:    MaxMarkdownSize,
		SizeLabel:  maxMarkdownLabel,
		MIMETypes:  []string{MIMEMarkdown, MIMEText},
		Extensions: []string{".md", ".markdown", ".txt"},
	}
}

// ValidateMarkdown checks Markdown text before rendering.
func ValidateMarkdown(text string) error {
	if strings.TrimSpace(text) == "" {
		return newError(ErrEmptyMarkdown, "Enter or upload Markdown.", nil)
	}
	if len(text) > MaxMarkdownSize {
		return newError(ErrMarkdownTooLong,
			fmt.Sprintf("Content is too long. Max %s.", maxMarkdownLabel),
			fmt.Errorf("%d bytes", len(text)))
	}
	return nil
}
