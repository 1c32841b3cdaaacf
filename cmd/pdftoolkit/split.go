package main

import (
	"context"
	"errors"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
)

// runSplit extracts a page range into one PDF, or splits every page into
// its own PDF, optionally packed into a ZIP.
func runSplit(ctx context.Context, args []string, env *Environment) (err error) {
	f, inputs, err := parseSplitFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	input, err := requireOne(inputs)
	if err != nil {
		return err
	}
	if f.pageRange != "" && (f.every || f.zip) {
		return usageError(errors.New("--range cannot be combined with --every or --zip"))
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
	tk, err := s.newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	switch {
	case f.pageRange != "":
		art, err := tk.Extract(ctx, doc, f.pageRange)
		if err != nil {
			return err
		}
		_, err = s.publish(art)
		return err

	case f.zip:
		art, err := tk.SplitArchive(ctx, doc)
		if err != nil {
			return err
		}
		_, err = s.publish(art)
		return err
	}

	pages, err := tk.SplitEvery(ctx, doc)
	if err != nil {
		return err
	}
	arts, err := pdftoolkit.PageArtifacts(doc.Name(), pages)
	if err != nil {
		return err
	}

	// The slot removes pages already written if a later one fails.
	leases, err := pdftoolkit.NewSlot(dirPublisher{s: s}).Replace(arts...)
	if err != nil {
		return err
	}
	for _, l := range leases {
		s.created(l.Location())
	}
	s.verbosef("split %s into %d pages", doc.Name(), len(leases))
	return nil
}
