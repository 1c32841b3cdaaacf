package pdftoolkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/techVasanthsmart/pdf-toolkit/internal/fileutil"
)

// SourceFile is one user-provided input. It is immutable once accepted and
// never persisted by the library.
type SourceFile struct {
	Name string
	MIME string
	Data []byte

	// size is the on-disk length of a file whose bytes are not loaded yet.
	size int64
}

// Size returns the input length in bytes.
func (s SourceFile) Size() int64 {
	if s.Data != nil {
		return int64(len(s.Data))
	}
	return s.size
}

// ext returns the lowercase extension of the file name.
func (s SourceFile) ext() string {
	return strings.ToLower(filepath.Ext(s.Name))
}

// NewSource builds a SourceFile from in-memory bytes, detecting the MIME
// type from the name and content.
func NewSource(name string, data []byte) SourceFile {
	return SourceFile{Name: name, MIME: fileutil.DetectMIME(name, data), Data: data}
}

// ReadSources validates files on disk against c before loading them, so an
// oversized input is rejected without being read into memory.
func ReadSources(paths []string, c Constraint) ([]SourceFile, error) {
	stubs := make([]SourceFile, len(paths))
	for i, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("reading %s: is a directory", p)
		}
		stubs[i] = SourceFile{
			Name: filepath.Base(p),
			MIME: fileutil.DetectMIME(p, nil),
			size: info.Size(),
		}
	}

	if _, err := Validate(stubs, c); err != nil {
		return nil, err
	}

	out := make([]SourceFile, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p) // #nosec G304 -- user-provided input path
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		out[i] = NewSource(filepath.Base(p), data)
	}
	return out, nil
}
