// Package fileutil provides file, path and content-type helpers.
package fileutil

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// tempPattern prefixes every temporary file the toolkit creates.
const tempPattern = "pdftoolkit-*."

// WriteTempFile creates a temporary file holding content with the given
// extension. It returns the path and a cleanup function removing the file.
func WriteTempFile(content []byte, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}

	tmpFile, err := os.CreateTemp("", tempPattern+extension)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}

	path = tmpFile.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, writeErr := tmpFile.Write(content); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", writeErr)
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", closeErr)
	}

	return path, cleanup, nil
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// knownTypes maps lowercase extensions to the MIME types the toolkit accepts.
// The system mime table is not consulted: its answers vary between hosts.
var knownTypes = map[string]string{
	".pdf":      "application/pdf",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".png":      "image/png",
	".webp":     "image/webp",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
}

// DetectMIME returns the declared type for a file: the extension table
// first, then content sniffing. Sniffed types drop their parameters
// ("text/plain; charset=utf-8" becomes "text/plain").
func DetectMIME(name string, data []byte) string {
	if t, ok := knownTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	if len(data) == 0 {
		return ""
	}
	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	return strings.TrimSpace(sniffed)
}
