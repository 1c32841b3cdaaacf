package main

import (
	"context"
	"fmt"
	"path/filepath"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
)

// runPages lists the pages of a PDF with their sizes and can write a PNG
// preview of each.
func runPages(ctx context.Context, args []string, env *Environment) (err error) {
	f, inputs, err := parsePagesFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	input, err := requireOne(inputs)
	if err != nil {
		return err
	}

	s, err := newSession(&f.common, env)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	doc, err := readPDF(input)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "%s: %d pages\n", doc.Name(), doc.PageCount())
	for i := range doc.PageCount() {
		size, err := doc.PageSize(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "  %3d  %.0f x %.0f pt\n", i+1, size.Width, size.Height)
	}

	if f.thumbnails == "" {
		return nil
	}

	tk, err := s.newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	base := pdftoolkit.BaseName(doc.Name())
	for i := range doc.PageCount() {
		img, err := tk.Thumbnail(ctx, doc, i, f.size)
		if err != nil {
			return err
		}
		data, err := pdftoolkit.EncodePNG(img)
		if err != nil {
			return err
		}
		path := filepath.Join(f.thumbnails, fmt.Sprintf("%s-page-%d.png", base, i+1))
		if err := writeFile(path, data); err != nil {
			return err
		}
		s.created(path)
	}
	return nil
}
