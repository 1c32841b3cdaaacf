// Package pdftoolkit manipulates PDF documents locally: merge, reorder,
// split, images to PDF, PDF to presentation and Markdown printing. Nothing
// leaves the machine.
//
// # Quick Start
//
// Create a toolkit, run an operation, and close when done:
//
//	tk, err := pdftoolkit.NewToolkit()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tk.Close()
//
//	sources, err := pdftoolkit.ReadSources([]string{"a.pdf", "b.pdf"}, pdftoolkit.PDFConstraint(true))
//	if err != nil {
//	    log.Fatal(pdftoolkit.UserMessage(err))
//	}
//	merged, err := tk.Merge(ctx, sources)
//	if err != nil {
//	    log.Fatal(pdftoolkit.UserMessage(err))
//	}
//	os.WriteFile(merged.Name, merged.Data, 0o600)
//
// # Pages
//
// Opened documents are immutable handles. Output documents are described
// as sequences of page references (handle, source page index) which the
// Assembler turns into a new PDF:
//
//	doc, err := pdftoolkit.OpenPDF("report.pdf", data)
//	seq := &pdftoolkit.Sequence{}
//	seq.Append(doc)
//	seq.Reorder(0, 2)
//	seq.RemoveAt(1)
//	out, err := tk.Reorder(ctx, doc, seq.Snapshot())
//
// Page ranges use 1-based numbers: "1-3, 5, 8-6".
//
// # Presentations
//
// A ConversionJob rasterizes every page into a slide. It reports progress
// after each page and can be canceled between pages:
//
//	job, err := tk.NewConversion(doc, pdftoolkit.WithProgress(func(p pdftoolkit.Progress) {
//	    fmt.Printf("%d/%d\n", p.Done, p.Total)
//	}))
//	deck, err := job.Run(ctx)
//
// The default rasterizer runs poppler's pdftoppm, or ImageMagick when
// pdftoppm is not installed.
//
// # Workflow
//
// Workflow tracks one tool instance through Idle, Loaded, Processing,
// Ready and Failed. Results are published as leases (temporary files by
// default) that are released when the next job starts or the workflow is
// cleared.
//
// # Errors
//
// Errors are classified with errors.Is against ErrValidation, ErrParse,
// ErrRange, ErrAssembly and ErrEncoding. UserMessage returns the text to
// show for any error.
//
// # Browser Requirements
//
// Markdown printing requires Chrome/Chromium. go-rod downloads a managed
// Chromium on first use. Use ROD_BROWSER_BIN to select a binary; the
// sandbox is disabled when it is set or CI=true.
package pdftoolkit
