package pdftoolkit

import (
	"errors"
	"fmt"
)

// Error kinds. Every detail sentinel below wraps exactly one kind, so
// errors.Is(err, ErrValidation) classifies an error without listing details.
var (
	ErrValidation = errors.New("validation error")
	ErrParse      = errors.New("parse error")
	ErrRange      = errors.New("range error")
	ErrAssembly   = errors.New("assembly error")
	ErrEncoding   = errors.New("encoding error")
)

// Validation errors.
var (
	ErrEmptyBatch       = fmt.Errorf("%w: no files selected", ErrValidation)
	ErrSingleFile       = fmt.Errorf("%w: only one file accepted", ErrValidation)
	ErrTooManyFiles     = fmt.Errorf("%w: too many files", ErrValidation)
	ErrUnsupportedType  = fmt.Errorf("%w: unsupported file type", ErrValidation)
	ErrFileTooLarge     = fmt.Errorf("%w: file too large", ErrValidation)
	ErrEmptyMarkdown    = fmt.Errorf("%w: markdown content is empty", ErrValidation)
	ErrMarkdownTooLong  = fmt.Errorf("%w: markdown content too long", ErrValidation)
	ErrInvalidScale     = fmt.Errorf("%w: invalid render scale", ErrValidation)
	ErrInvalidPolicy    = fmt.Errorf("%w: invalid page size policy", ErrValidation)
	ErrInvalidPaperSize = fmt.Errorf("%w: invalid paper size", ErrValidation)
	ErrInvalidMargin    = fmt.Errorf("%w: invalid margin", ErrValidation)
)

// Parse errors.
var (
	ErrInvalidPDF       = fmt.Errorf("%w: not a valid PDF", ErrParse)
	ErrEncryptedPDF     = fmt.Errorf("%w: PDF is password protected", ErrParse)
	ErrNoPages          = fmt.Errorf("%w: PDF has no pages", ErrParse)
	ErrCorruptImage     = fmt.Errorf("%w: image cannot be decoded", ErrParse)
	ErrUnsupportedImage = fmt.Errorf("%w: unsupported image format", ErrParse)
)

// Range errors.
var (
	ErrEmptyRange = fmt.Errorf("%w: empty page range", ErrRange)
	ErrBadRange   = fmt.Errorf("%w: invalid range", ErrRange)
	ErrBadPage    = fmt.Errorf("%w: invalid page", ErrRange)
)

// Assembly errors.
var (
	ErrPageIndex     = fmt.Errorf("%w: page reference out of range", ErrAssembly)
	ErrEmptySequence = fmt.Errorf("%w: no pages to assemble", ErrAssembly)
	ErrImageEmbed    = fmt.Errorf("%w: image could not be embedded", ErrAssembly)
)

// Encoding errors.
var (
	ErrWriteOutput = fmt.Errorf("%w: output could not be written", ErrEncoding)
	ErrArchive     = fmt.Errorf("%w: archive could not be created", ErrEncoding)
)

// Job and workflow errors.
var (
	ErrCanceled      = errors.New("job canceled")
	ErrJobInProgress = errors.New("a job is already in progress")
	ErrNotLoaded     = errors.New("no document loaded")
	ErrPosition      = errors.New("position out of range")
)

// External engine errors.
var (
	ErrBrowserConnect        = errors.New("failed to connect to browser")
	ErrPageLoad              = errors.New("failed to load page")
	ErrPrint                 = errors.New("print failed")
	ErrRasterizerUnavailable = errors.New("no PDF rasterizer available")
	ErrRender                = errors.New("page rendering failed")
)

// Error pairs an error chain with the message shown to the user.
// Error() returns the message; errors.Is and errors.As see the chain.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds an *Error for sentinel, keeping cause as detail text.
func newError(sentinel error, message string, cause error) *Error {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %v", sentinel, cause)
	}
	return &Error{Err: err, Message: message}
}

// withMessage attaches message to err unless err already carries one.
func withMessage(err error, message string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return err
	}
	return &Error{Err: err, Message: message}
}

// Generic user messages for failures that carry no specific text.
const (
	msgInvalidPDF     = "This file doesn't appear to be a valid PDF."
	msgEncryptedPDF   = "This PDF is password protected."
	msgNoPages        = "This PDF has no pages."
	msgMergeFailed    = "Failed to merge PDFs. Please try again."
	msgReorderFailed  = "Failed to reorder PDF. Please try again."
	msgImagesFailed   = "Failed to create PDF. Check that all files are valid images."
	msgConvertFailed  = "Conversion failed. Please make sure the file is a valid PDF."
	msgArchiveFailed  = "Could not create ZIP. Try downloading pages individually."
	msgPrintFailed    = "Conversion failed. If the print dialog did not open, try again or use a different browser."
	msgCanceled       = "Conversion canceled."
	msgJobInProgress  = "A job is already running. Wait for it to finish."
	msgGenericFailure = "Something went wrong. Please try again."
)

// UserMessage returns the text to show a user for err. Errors carrying a
// message return it unchanged; other errors map to a generic message for
// their kind.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	switch {
	case errors.Is(err, ErrCanceled):
		return msgCanceled
	case errors.Is(err, ErrJobInProgress):
		return msgJobInProgress
	case errors.Is(err, ErrEncryptedPDF):
		return msgEncryptedPDF
	case errors.Is(err, ErrNoPages):
		return msgNoPages
	case errors.Is(err, ErrParse):
		return msgInvalidPDF
	case errors.Is(err, ErrArchive):
		return msgArchiveFailed
	case errors.Is(err, ErrBrowserConnect), errors.Is(err, ErrPageLoad), errors.Is(err, ErrPrint):
		return msgPrintFailed
	case errors.Is(err, ErrRender), errors.Is(err, ErrRasterizerUnavailable):
		return msgConvertFailed
	}
	return msgGenericFailure
}
