package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// marginSentinel detects if --margin was explicitly set.
// Since 0 is a valid margin, we use an out-of-range sentinel.
const marginSentinel = -1.0

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config      string
	output      string
	metricsFile string
	quiet       bool
	verbose     bool
}

// mergeFlags holds flags for the merge command.
type mergeFlags struct {
	common commonFlags
}

// splitFlags holds flags for the split command.
type splitFlags struct {
	common    commonFlags
	pageRange string
	every     bool
	zip       bool
}

// reorderFlags holds flags for the reorder command.
type reorderFlags struct {
	common commonFlags
	moves  []string // "from:to", 1-based positions
	remove []int    // 1-based positions, applied after moves
}

// imagesFlags holds flags for the images command.
type imagesFlags struct {
	common   commonFlags
	pageSize string
}

// pptxFlags holds flags for the pptx command.
type pptxFlags struct {
	common      commonFlags
	scale       float64
	pageTimeout string
	noProgress  bool
}

// markdownFlags holds flags for the markdown command.
type markdownFlags struct {
	common    commonFlags
	paperSize string
	margin    float64
	timeout   string
	css       string
	assetPath string
	workers   int
	htmlOnly  bool
}

// pagesFlags holds flags for the pages command.
type pagesFlags struct {
	common     commonFlags
	thumbnails string
	size       int
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// newFlagSet creates a FlagSet for name whose usage goes to stderr.
func newFlagSet(name string, usage func(w io.Writer), stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parseMergeFlags parses merge command flags and returns positional args.
func parseMergeFlags(args []string, stderr io.Writer) (*mergeFlags, []string, error) {
	f := &mergeFlags{}
	fs := newFlagSet("merge", printMergeUsage, stderr)
	addCommonFlags(fs, &f.common)
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseSplitFlags parses split command flags and returns positional args.
func parseSplitFlags(args []string, stderr io.Writer) (*splitFlags, []string, error) {
	f := &splitFlags{}
	fs := newFlagSet("split", printSplitUsage, stderr)
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.pageRange, "range", "r", "", "pages to extract, e.g. \"1-3, 5\"")
	fs.BoolVar(&f.every, "every", false, "one PDF per page (default without --range)")
	fs.BoolVar(&f.zip, "zip", false, "pack split pages into a ZIP archive")
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseReorderFlags parses reorder command flags and returns positional args.
func parseReorderFlags(args []string, stderr io.Writer) (*reorderFlags, []string, error) {
	f := &reorderFlags{}
	fs := newFlagSet("reorder", printReorderUsage, stderr)
	addCommonFlags(fs, &f.common)
	fs.StringArrayVarP(&f.moves, "move", "m", nil, "move page FROM to position TO (FROM:TO, repeatable)")
	fs.IntSliceVar(&f.remove, "remove", nil, "remove pages at these positions (after moves)")
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseImagesFlags parses images command flags and returns positional args.
func parseImagesFlags(args []string, stderr io.Writer) (*imagesFlags, []string, error) {
	f := &imagesFlags{}
	fs := newFlagSet("images", printImagesUsage, stderr)
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size: a4, letter, match-first")
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parsePPTXFlags parses pptx command flags and returns positional args.
func parsePPTXFlags(args []string, stderr io.Writer) (*pptxFlags, []string, error) {
	f := &pptxFlags{}
	fs := newFlagSet("pptx", printPPTXUsage, stderr)
	addCommonFlags(fs, &f.common)
	fs.Float64VarP(&f.scale, "scale", "s", 0, "render scale (1-4, default 2)")
	fs.StringVar(&f.pageTimeout, "page-timeout", "", "timeout per rendered page (e.g., 60s)")
	fs.BoolVar(&f.noProgress, "no-progress", false, "do not print per-page progress")
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseMarkdownFlags parses markdown command flags and returns positional args.
func parseMarkdownFlags(args []string, stderr io.Writer) (*markdownFlags, []string, error) {
	f := &markdownFlags{}
	fs := newFlagSet("markdown", printMarkdownUsage, stderr)
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.paperSize, "paper", "p", "", "paper size: letter, a4, legal")
	fs.Float64Var(&f.margin, "margin", marginSentinel, "page margin in inches (0-3)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "print timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.css, "css", "", "extra CSS file applied after the print style")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom stylesheet and template directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.htmlOnly, "html-only", false, "write the print HTML, skip PDF")
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parsePagesFlags parses pages command flags and returns positional args.
func parsePagesFlags(args []string, stderr io.Writer) (*pagesFlags, []string, error) {
	f := &pagesFlags{}
	fs := newFlagSet("pages", printPagesUsage, stderr)
	addCommonFlags(fs, &f.common)
	fs.StringVar(&f.thumbnails, "thumbnails", "", "write a PNG preview of every page to this directory")
	fs.IntVar(&f.size, "size", 0, "longer edge of previews in pixels (default 200)")
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}
