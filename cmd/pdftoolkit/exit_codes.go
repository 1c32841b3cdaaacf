package main

import (
	"errors"
	"os"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
	"github.com/techVasanthsmart/pdf-toolkit/internal/config"
)

// Exit codes for the pdftoolkit CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess    = 0 // Successful run
	ExitGeneral    = 1 // General/unexpected error, cancellation
	ExitUsage      = 2 // Invalid flags, config, input or page range
	ExitIO         = 3 // File not found, permission denied, write failure
	ExitBrowser    = 4 // Browser/Chrome errors
	ExitRasterizer = 5 // pdftoppm/ImageMagick missing or failing
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, pdftoolkit.ErrBrowserConnect) ||
		errors.Is(err, pdftoolkit.ErrPageLoad) ||
		errors.Is(err, pdftoolkit.ErrPrint) {
		return ExitBrowser
	}

	if errors.Is(err, pdftoolkit.ErrRasterizerUnavailable) ||
		errors.Is(err, pdftoolkit.ErrRender) {
		return ExitRasterizer
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, pdftoolkit.ErrWriteOutput) ||
		errors.Is(err, ErrReadCSS) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrIsDirectory) {
		return ExitIO
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, pdftoolkit.ErrValidation) ||
		errors.Is(err, pdftoolkit.ErrParse) ||
		errors.Is(err, pdftoolkit.ErrRange) ||
		errors.Is(err, pdftoolkit.ErrPageIndex) ||
		errors.Is(err, pdftoolkit.ErrPosition) {
		return ExitUsage
	}

	return ExitGeneral
}
