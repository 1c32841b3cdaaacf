package pdftoolkit

import (
	"fmt"
	"slices"
	"strings"
)

// Validate checks a batch against c and returns it unchanged when every
// file is acceptable. The first failing rule rejects the whole batch:
// file count, then per file the type and the size. Validation never parses
// file contents.
func Validate(files []SourceFile, c Constraint) ([]SourceFile, error) {
	if len(files) == 0 {
		return nil, newError(ErrEmptyBatch, "Select a file.", nil)
	}
	if !c.Multiple && len(files) > 1 {
		return nil, newError(ErrSingleFile, "Please upload only one file.",
			fmt.Errorf("got %d files", len(files)))
	}
	if c.MaxCount > 0 && len(files) > c.MaxCount {
		return nil, newError(ErrTooManyFiles,
			fmt.Sprintf("Maximum %d files allowed.", c.MaxCount),
			fmt.Errorf("got %d files", len(files)))
	}

	for _, f := range files {
		if !c.accepts(f) {
			return nil, newError(ErrUnsupportedType,
				fmt.Sprintf("Invalid file type: %s. Allowed: %s", f.Name, c.allowedLabel()),
				fmt.Errorf("%s has type %q", f.Name, f.MIME))
		}
		if c.MaxSize > 0 && f.Size() > c.MaxSize {
			label := c.SizeLabel
			if label == "" {
				label = "size"
			}
			return nil, newError(ErrFileTooLarge,
				fmt.Sprintf("File %q is too large. Max %s per file.", f.Name, label),
				fmt.Errorf("%s is %d bytes", f.Name, f.Size()))
		}
	}
	return files, nil
}

// accepts reports whether f matches an allowed MIME type or extension.
// A constraint with no types accepts everything.
func (c Constraint) accepts(f SourceFile) bool {
	if len(c.MIMETypes) == 0 && len(c.Extensions) == 0 {
		return true
	}
	if f.MIME != "" && slices.Contains(c.MIMETypes, f.MIME) {
		return true
	}
	ext := f.ext()
	return ext != "" && slices.Contains(c.Extensions, ext)
}

func (c Constraint) allowedLabel() string {
	var parts []string
	if len(c.MIMETypes) > 0 {
		parts = append(parts, strings.Join(c.MIMETypes, ", "))
	}
	if len(c.Extensions) > 0 {
		parts = append(parts, strings.Join(c.Extensions, ", "))
	}
	return strings.Join(parts, " or ")
}
