package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
	"github.com/techVasanthsmart/pdf-toolkit/internal/assets"
	"github.com/techVasanthsmart/pdf-toolkit/internal/hints"
)

// ErrReadCSS is returned when the --css file cannot be read.
var ErrReadCSS = errors.New("failed to read CSS file")

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// markdownParams groups parameters shared across a batch.
type markdownParams struct {
	css      string
	htmlOnly bool
}

// runMarkdown prints Markdown files, or every Markdown file under a
// directory, to PDF through a pool of toolkits.
func runMarkdown(ctx context.Context, args []string, env *Environment) (err error) {
	f, inputs, err := parseMarkdownFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return ErrNoInput
	}
	if err := validateWorkers(f.workers); err != nil {
		return err
	}

	s, err := newSession(&f.common, env)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	mergeMarkdownFlags(f, s)
	if err := s.cfg.Validate(); err != nil {
		return usageError(err)
	}
	printOpts, err := s.printOptions()
	if err != nil {
		return err
	}

	params := &markdownParams{htmlOnly: f.htmlOnly}
	if f.css != "" {
		css, err := os.ReadFile(f.css) // #nosec G304 -- user-provided CSS path
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadCSS, err)
		}
		params.css = string(css)
	}

	ext := ".pdf"
	if f.htmlOnly {
		ext = ".html"
	}
	var files []FileToConvert
	for _, in := range inputs {
		found, err := discoverFiles(in, s.outputDir(), ext)
		if err != nil {
			return fmt.Errorf("discovering files: %w", err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no markdown files found", ErrNoInput)
	}

	opts, err := s.toolkitOptions(pdftoolkit.WithPrintOptions(printOpts))
	if err != nil {
		return err
	}
	poolSize := min(pdftoolkit.ResolvePoolSize(s.cfg.Workers), len(files))
	s.verbosef("Pool size: %d", poolSize)
	pool := pdftoolkit.NewToolkitPool(poolSize, opts...)
	defer pool.Close()

	results := convertBatch(ctx, pool, files, params)
	if failed := printResults(results, s); failed > 0 {
		return fmt.Errorf("%d conversion(s) failed: %w", failed, firstError(results))
	}
	return nil
}

// mergeMarkdownFlags applies explicitly set flags over the config.
func mergeMarkdownFlags(f *markdownFlags, s *session) {
	if f.paperSize != "" {
		s.cfg.Print.PaperSize = f.paperSize
	}
	if f.margin != marginSentinel {
		m := f.margin
		s.cfg.Print.Margin = &m
	}
	if f.timeout != "" {
		s.cfg.Print.Timeout = f.timeout
	}
	if f.assetPath != "" {
		s.cfg.Assets.BasePath = f.assetPath
	}
	if f.workers > 0 {
		s.cfg.Workers = f.workers
	}
}

// printOptions builds print engine options from the merged config.
func (s *session) printOptions() (pdftoolkit.PrintOptions, error) {
	paper, err := pdftoolkit.ParsePaperSize(s.cfg.Print.PaperSize)
	if err != nil {
		return pdftoolkit.PrintOptions{}, err
	}
	timeout, err := s.cfg.PrintTimeout()
	if err != nil {
		return pdftoolkit.PrintOptions{}, usageError(err)
	}
	opts := pdftoolkit.PrintOptions{Paper: paper, Margin: pdftoolkit.DefaultMargin, Timeout: timeout}
	if s.cfg.Print.Margin != nil {
		opts.Margin = *s.cfg.Print.Margin
	}
	return opts, opts.Validate()
}

// Pool abstracts toolkit pool operations for testability.
type Pool interface {
	Acquire(ctx context.Context) (*pdftoolkit.Toolkit, error)
	Release(*pdftoolkit.Toolkit)
	Size() int
}

var _ Pool = (*pdftoolkit.ToolkitPool)(nil)

// convertBatch processes files concurrently using the toolkit pool.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *markdownParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))
	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			tk, err := pool.Acquire(ctx)
			if err != nil {
				for idx := range jobs {
					results[idx] = ConversionResult{InputPath: files[idx].InputPath, Err: err}
				}
				return
			}
			defer pool.Release(tk)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{InputPath: files[idx].InputPath, Err: ctx.Err()}
					continue
				}
				results[idx] = convertFile(ctx, tk, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, tk *pdftoolkit.Toolkit, f FileToConvert, params *markdownParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{InputPath: f.InputPath, OutputPath: f.OutputPath}
	done := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	sources, err := pdftoolkit.ReadSources([]string{f.InputPath}, pdftoolkit.MarkdownConstraint())
	if err != nil {
		return done(err)
	}
	md := string(sources[0].Data)

	baseDir, err := filepath.Abs(filepath.Dir(f.InputPath))
	if err != nil {
		return done(fmt.Errorf("resolving %s: %w", f.InputPath, err))
	}
	opts := pdftoolkit.DocumentOptions{BaseDir: baseDir, CSS: params.css}

	if params.htmlOnly {
		doc, err := tk.Markdown().Document(ctx, md, opts)
		if err != nil {
			return done(err)
		}
		return done(writeFile(f.OutputPath, []byte(doc)))
	}

	printed, err := tk.PrintMarkdown(pdftoolkit.WithDestination(ctx, func(pdf []byte) error {
		return writeFile(f.OutputPath, pdf)
	}), md, opts)
	if err != nil {
		return done(err)
	}
	return done(<-printed)
}

// printResults outputs conversion results and returns the failure count.
func printResults(results []ConversionResult, s *session) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(s.env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, hintFor(r.Err))
			continue
		}
		if s.flags.quiet {
			continue
		}
		if s.flags.verbose {
			fmt.Fprintf(s.env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(s.env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !s.flags.quiet && len(results) > 1 {
		fmt.Fprintf(s.env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}
	return failed
}

// firstError returns the first failure so the exit code reflects its kind.
func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// hintFor returns an actionable hint for well-known failures.
func hintFor(err error) string {
	switch {
	case errors.Is(err, pdftoolkit.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, pdftoolkit.ErrRasterizerUnavailable):
		return hints.ForRasterizer()
	case errors.Is(err, assets.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.StyleNames())
	}
	return ""
}
