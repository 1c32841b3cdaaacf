package main

import (
	"context"
	"time"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
)

// runMerge concatenates the input PDFs, in argument order, into merged.pdf.
func runMerge(ctx context.Context, args []string, env *Environment) (err error) {
	f, inputs, err := parseMergeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return ErrNoInput
	}

	s, err := newSession(&f.common, env)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	sources, err := readSources(inputs, pdftoolkit.PDFConstraint(true))
	if err != nil {
		return err
	}

	tk, err := s.newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	start := env.Now()
	art, err := tk.Merge(ctx, sources)
	if err != nil {
		return err
	}
	if _, err := s.publish(art); err != nil {
		return err
	}
	s.verbosef("merged %d files in %v", len(sources), env.Now().Sub(start).Round(time.Millisecond))
	return nil
}
