package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdftoolkit <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  merge      Combine PDF files into merged.pdf")
	fmt.Fprintln(w, "  split      Extract a page range or split into single pages")
	fmt.Fprintln(w, "  reorder    Move or remove pages of a PDF")
	fmt.Fprintln(w, "  images     Place images on pages of a new PDF")
	fmt.Fprintln(w, "  pptx       Render PDF pages as PowerPoint slides")
	fmt.Fprintln(w, "  markdown   Print markdown files to PDF")
	fmt.Fprintln(w, "  pages      List pages and write previews")
	fmt.Fprintln(w, "  doctor     Check browser and rasterizer setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pdftoolkit help <command>' for details on a specific command.")
}

// printCommonFlags prints flags every document command accepts.
func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --metrics-file <path> Write Prometheus metrics to this file")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
}

// printMergeUsage prints usage for the merge command.
func printMergeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdftoolkit merge <file.pdf> <file.pdf>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Combine two or more PDF files, in argument order, into merged.pdf.")
	printCommonFlags(w)
}

// printSplitUsage prints usage for the split command.
func printSplitUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdftoolkit split <file.pdf> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Extract a page range, or write every page as its own PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Split:")
	fmt.Fprintln(w, "  -r, --range <s>           Pages to extract, e.g. \"1-3, 5\"")
	fmt.Fprintln(w, "      --every               One PDF per page (default without --range)")
	fmt.Fprintln(w, "      --zip                 Pack the pages into <name>-split-pages.zip")
	printCommonFlags(w)
}

// printReorderUsage prints usage for the reorder command.
func printReorderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdftoolkit reorder <file.pdf> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rearrange the pages of a PDF into <name>-reordered.pdf.")
	fmt.Fprintln(w, "Positions are 1-based. Moves apply in order, then removals.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Reorder:")
	fmt.Fprintln(w, "  -m, --move <from:to>      Move the page at FROM to TO (repeatable)")
	fmt.Fprintln(w, "      --remove <n,...>      Remove the pages at these positions")
	printCommonFlags(w)
}

// printImagesUsage prints usage for the images command.
func printImagesUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdftoolkit images <image>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Place each JPEG or PNG image centered on its own page of images-to-pdf.pdf.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       a4, letter, match-first (default a4)")
	printCommonFlags(w)
}

// printPPTXUsage prints usage for the pptx command.
func printPPTXUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdftoolkit pptx <file.pdf> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render every page as a full-slide picture in <name>.pptx.")
	fmt.Fprintln(w, "Requires pdftoppm (poppler-utils) or ImageMagick.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -s, --scale <f>           Render scale, 1-4 (default 2)")
	fmt.Fprintln(w, "      --page-timeout <d>    Timeout per page (e.g., 60s)")
	fmt.Fprintln(w, "      --no-progress         Do not print per-page progress")
	printCommonFlags(w)
}

// printMarkdownUsage prints usage for the markdown command.
func printMarkdownUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdftoolkit markdown <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print markdown files, or every markdown file in a directory, to PDF.")
	fmt.Fprintln(w, "Requires Chrome/Chromium.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --paper <s>           Paper size: letter, a4, legal")
	fmt.Fprintln(w, "      --margin <f>          Margin in inches (0-3)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Print timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --css <path>          Extra CSS file")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom stylesheet and template directory")
	fmt.Fprintln(w, "      --html-only           Write the print HTML instead of a PDF")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Batch:")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	printCommonFlags(w)
}

// printPagesUsage prints usage for the pages command.
func printPagesUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdftoolkit pages <file.pdf> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List the pages of a PDF with their sizes in points.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Previews:")
	fmt.Fprintln(w, "      --thumbnails <dir>    Write a PNG preview of every page")
	fmt.Fprintln(w, "      --size <n>            Longer edge in pixels (default 200)")
	printCommonFlags(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	usages := map[string]func(io.Writer){
		"merge":    printMergeUsage,
		"split":    printSplitUsage,
		"reorder":  printReorderUsage,
		"images":   printImagesUsage,
		"pptx":     printPPTXUsage,
		"markdown": printMarkdownUsage,
		"pages":    printPagesUsage,
	}
	if usage, ok := usages[args[0]]; ok {
		usage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: pdftoolkit doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Chrome, the page rasterizer and the environment.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: pdftoolkit version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: pdftoolkit help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
