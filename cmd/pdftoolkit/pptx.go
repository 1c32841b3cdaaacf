package main

import (
	"context"
	"fmt"
	"time"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
)

// runPPTX renders every page of a PDF into a slide of "<name>.pptx".
func runPPTX(ctx context.Context, args []string, env *Environment) (err error) {
	f, inputs, err := parsePPTXFlags(args, env.Stderr)
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

	if f.scale != 0 {
		s.cfg.Presentation.Scale = f.scale
	}
	if f.pageTimeout != "" {
		s.cfg.Presentation.PageTimeout = f.pageTimeout
	}
	if err := s.cfg.Validate(); err != nil {
		return usageError(err)
	}

	doc, err := readPDF(input)
	if err != nil {
		return err
	}
	tk, err := s.newToolkit()
	if err != nil {
		return err
	}
	defer tk.Close()

	var opts []pdftoolkit.ConversionOption
	if s.cfg.Presentation.Scale != 0 {
		opts = append(opts, pdftoolkit.WithScale(s.cfg.Presentation.Scale))
	}
	showProgress := !f.noProgress && !f.common.quiet
	if showProgress {
		opts = append(opts, pdftoolkit.WithProgress(func(p pdftoolkit.Progress) {
			fmt.Fprintf(env.Stderr, "\rRendering slide %d/%d", p.Done, p.Total)
		}))
	}

	job, err := tk.NewConversion(doc, opts...)
	if err != nil {
		return err
	}

	start := env.Now()
	art, err := job.Run(ctx)
	if showProgress {
		fmt.Fprintln(env.Stderr)
	}
	if err != nil {
		return err
	}
	if _, err := s.publish(art); err != nil {
		return err
	}
	s.verbosef("%d slides in %v", doc.PageCount(), env.Now().Sub(start).Round(time.Millisecond))
	return nil
}
