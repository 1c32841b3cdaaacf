package main

import (
	"context"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
)

// runImages places each input image on its own page of images-to-pdf.pdf.
func runImages(ctx context.Context, args []string, env *Environment) (err error) {
	f, inputs, err := parseImagesFlags(args, env.Stderr)
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

	if f.pageSize != "" {
		s.cfg.Images.PageSize = f.pageSize
	}
	policy, err := pdftoolkit.ParsePagePolicy(s.cfg.Images.PageSize)
	if err != nil {
		return err
	}

	sources, err := readSources(inputs, pdftoolkit.ImageConstraint())
	if err != nil {
		return err
	}
	tk, err := s.newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	art, err := tk.ImagesToPDF(ctx, sources, policy)
	if err != nil {
		return err
	}
	if _, err := s.publish(art); err != nil {
		return err
	}
	s.verbosef("%d images, page size %s", len(sources), policy)
	return nil
}
