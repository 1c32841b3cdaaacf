package main

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
)

// Notes:
// - Each test runs the full command through runMain so flag parsing,
//   session setup, publishing and exit code mapping are all exercised.
// - Output always goes to a per-test temp directory via -o.

// ---------------------------------------------------------------------------
// TestRunMain - dispatch and exit codes
// ---------------------------------------------------------------------------

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		args         []string
		wantCode     int
		wantInStdout []string
		wantInStderr []string
	}{
		{
			name:         "no args shows usage",
			args:         nil,
			wantCode:     ExitUsage,
			wantInStderr: []string{"Usage: pdftoolkit"},
		},
		{
			name:         "version",
			args:         []string{"version"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"pdftoolkit dev"},
		},
		{
			name:         "help",
			args:         []string{"help"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"Usage: pdftoolkit", "Commands:", "markdown"},
		},
		{
			name:         "help for a command",
			args:         []string{"help", "reorder"},
			wantCode:     ExitSuccess,
			wantInStdout: []string{"Usage: pdftoolkit reorder", "--move"},
		},
		{
			name:         "help for unknown command",
			args:         []string{"help", "nope"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"Unknown command: nope"},
		},
		{
			name:         "unknown command",
			args:         []string{"frobnicate"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"unknown command: frobnicate"},
		},
		{
			name:     "command --help exits 0",
			args:     []string{"split", "--help"},
			wantCode: ExitSuccess,
		},
		{
			name:         "unknown flag",
			args:         []string{"merge", "--bogus"},
			wantCode:     ExitUsage,
			wantInStderr: []string{"bogus"},
		},
		{
			name:         "missing input",
			args:         []string{"split"},
			wantCode:     ExitIO,
			wantInStderr: []string{"no input specified"},
		},
		{
			name:     "nonexistent file",
			args:     []string{"pages", "does-not-exist.pdf"},
			wantCode: ExitIO,
		},
		{
			name:     "too many inputs",
			args:     []string{"split", "a.pdf", "b.pdf"},
			wantCode: ExitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			code := env.run(tt.args...)

			if code != tt.wantCode {
				t.Errorf("runMain(%v) = %d, want %d\nstderr: %s", tt.args, code, tt.wantCode, env.stderr)
			}
			for _, want := range tt.wantInStdout {
				if !strings.Contains(env.stdout.String(), want) {
					t.Errorf("stdout should contain %q, got %q", want, env.stdout)
				}
			}
			for _, want := range tt.wantInStderr {
				if !strings.Contains(env.stderr.String(), want) {
					t.Errorf("stderr should contain %q, got %q", want, env.stderr)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// merge
// ---------------------------------------------------------------------------

func TestMerge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	a := writePDF(t, dir, "a.pdf", 2)
	b := writePDF(t, dir, "b.pdf", 1)

	env := newTestEnv(t)
	if code := env.run("merge", a, b, "-o", out); code != ExitSuccess {
		t.Fatalf("merge exit = %d, stderr: %s", code, env.stderr)
	}

	merged := filepath.Join(out, pdftoolkit.MergedName)
	got := widthsOf(t, merged)
	want := []float64{pageWidth(1), pageWidth(2), pageWidth(1)}
	if !slices.Equal(got, want) {
		t.Errorf("merged widths = %v, want %v", got, want)
	}
	if !strings.Contains(env.stdout.String(), "Created "+merged) {
		t.Errorf("stdout = %q, want Created line", env.stdout)
	}
}

func TestMerge_OutputFileName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writePDF(t, dir, "a.pdf", 1)
	b := writePDF(t, dir, "b.pdf", 1)
	out := filepath.Join(dir, "combined.pdf")

	env := newTestEnv(t)
	if code := env.run("merge", a, b, "-o", out, "-q"); code != ExitSuccess {
		t.Fatalf("merge exit = %d, stderr: %s", code, env.stderr)
	}
	if n := len(widthsOf(t, out)); n != 2 {
		t.Errorf("page count = %d, want 2", n)
	}
	if env.stdout.Len() != 0 {
		t.Errorf("quiet run wrote %q", env.stdout)
	}
}

func TestMerge_RejectsNonPDF(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writePDF(t, dir, "a.pdf", 1)
	txt := writeFixture(t, dir, "notes.txt", []byte("hello"))

	env := newTestEnv(t)
	code := env.run("merge", a, txt, "-o", dir)
	if code != ExitUsage {
		t.Errorf("exit = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(env.stderr.String(), "Invalid file type") {
		t.Errorf("stderr = %q, want user message", env.stderr)
	}
}

// ---------------------------------------------------------------------------
// split
// ---------------------------------------------------------------------------

func TestSplit_Range(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writePDF(t, dir, "doc.pdf", 4)
	out := filepath.Join(dir, "out")

	env := newTestEnv(t)
	if code := env.run("split", in, "--range", "2-3", "-o", out); code != ExitSuccess {
		t.Fatalf("split exit = %d, stderr: %s", code, env.stderr)
	}

	got := widthsOf(t, filepath.Join(out, "doc-extract.pdf"))
	if want := expectWidths(2, 3); !slices.Equal(got, want) {
		t.Errorf("extract widths = %v, want %v", got, want)
	}
}

func TestSplit_Every(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writePDF(t, dir, "doc.pdf", 3)
	out := filepath.Join(dir, "out")

	env := newTestEnv(t)
	if code := env.run("split", in, "-o", out); code != ExitSuccess {
		t.Fatalf("split exit = %d, stderr: %s", code, env.stderr)
	}

	for n := 1; n <= 3; n++ {
		got := widthsOf(t, filepath.Join(out, fmt.Sprintf("doc-page-%d.pdf", n)))
		if want := expectWidths(n); !slices.Equal(got, want) {
			t.Errorf("page %d widths = %v, want %v", n, got, want)
		}
	}
}

func TestSplit_Zip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writePDF(t, dir, "doc.pdf", 2)
	out := filepath.Join(dir, "out")

	env := newTestEnv(t)
	if code := env.run("split", in, "--zip", "-o", out); code != ExitSuccess {
		t.Fatalf("split exit = %d, stderr: %s", code, env.stderr)
	}

	zr, err := zip.OpenReader(filepath.Join(out, "doc-split-pages.zip"))
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer func() { _ = zr.Close() }()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if want := []string{"doc-page-1.pdf", "doc-page-2.pdf"}; !slices.Equal(names, want) {
		t.Errorf("archive members = %v, want %v", names, want)
	}
}

func TestSplit_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"range with zip", []string{"--range", "1", "--zip"}, ExitUsage},
		{"range with every", []string{"--range", "1", "--every"}, ExitUsage},
		{"range past end", []string{"--range", "2-9"}, ExitUsage},
		{"malformed range", []string{"--range", "a-b"}, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			in := writePDF(t, dir, "doc.pdf", 3)
			env := newTestEnv(t)

			args := append([]string{"split", in, "-o", dir}, tt.args...)
			if code := env.run(args...); code != tt.wantCode {
				t.Errorf("exit = %d, want %d\nstderr: %s", code, tt.wantCode, env.stderr)
			}
			if _, err := os.Stat(filepath.Join(dir, "doc-extract.pdf")); err == nil {
				t.Error("failed split should not write output")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// reorder
// ---------------------------------------------------------------------------

func TestReorder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writePDF(t, dir, "doc.pdf", 3)
	out := filepath.Join(dir, "out")

	env := newTestEnv(t)
	code := env.run("reorder", in, "--move", "3:1", "--remove", "2", "-o", out)
	if code != ExitSuccess {
		t.Fatalf("reorder exit = %d, stderr: %s", code, env.stderr)
	}

	// [1 2 3] -> move 3 to 1 -> [3 1 2] -> remove position 2 -> [3 2]
	got := widthsOf(t, filepath.Join(out, "doc-reordered.pdf"))
	if want := expectWidths(3, 2); !slices.Equal(got, want) {
		t.Errorf("reordered widths = %v, want %v", got, want)
	}
}

func TestReorder_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"no edits", nil, ExitUsage},
		{"bad move syntax", []string{"--move", "3"}, ExitUsage},
		{"move out of range", []string{"--move", "9:1"}, ExitUsage},
		{"remove everything", []string{"--remove", "1,2"}, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			in := writePDF(t, dir, "doc.pdf", 2)
			env := newTestEnv(t)

			args := append([]string{"reorder", in, "-o", dir}, tt.args...)
			if code := env.run(args...); code != tt.wantCode {
				t.Errorf("exit = %d, want %d\nstderr: %s", code, tt.wantCode, env.stderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// images
// ---------------------------------------------------------------------------

func TestImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := writeFixture(t, dir, "photo.png", pngFixture(t, 40, 20))
	out := filepath.Join(dir, "out")

	env := newTestEnv(t)
	if code := env.run("images", img, img, "--page-size", "letter", "-o", out); code != ExitSuccess {
		t.Fatalf("images exit = %d, stderr: %s", code, env.stderr)
	}

	got := widthsOf(t, filepath.Join(out, pdftoolkit.ImagesPDFName))
	if want := []float64{612, 612}; !slices.Equal(got, want) {
		t.Errorf("page widths = %v, want %v", got, want)
	}
}

func TestImages_InvalidPageSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := writeFixture(t, dir, "photo.png", pngFixture(t, 4, 4))

	env := newTestEnv(t)
	if code := env.run("images", img, "--page-size", "tabloid", "-o", dir); code != ExitUsage {
		t.Errorf("exit = %d, want %d", code, ExitUsage)
	}
}

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := newSolid(w, h)
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// ---------------------------------------------------------------------------
// pptx
// ---------------------------------------------------------------------------

func TestPPTX(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writePDF(t, dir, "slides.pdf", 3)
	out := filepath.Join(dir, "out")

	env := newTestEnv(t)
	code := env.run("pptx", in, "--scale", "1", "-o", out)
	if code != ExitSuccess {
		t.Fatalf("pptx exit = %d, stderr: %s", code, env.stderr)
	}

	zr, err := zip.OpenReader(filepath.Join(out, "slides.pptx"))
	if err != nil {
		t.Fatalf("opening presentation: %v", err)
	}
	defer func() { _ = zr.Close() }()

	slides := 0
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides++
		}
	}
	if slides != 3 {
		t.Errorf("slides = %d, want 3", slides)
	}
	if got := env.raster.Rendered(); got != 3 {
		t.Errorf("rendered pages = %d, want 3", got)
	}
	if !strings.Contains(env.stderr.String(), "Rendering slide 3/3") {
		t.Errorf("stderr = %q, want progress", env.stderr)
	}
}

func TestPPTX_Errors(t *testing.T) {
	t.Parallel()

	t.Run("render failure maps to rasterizer exit code", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writePDF(t, dir, "slides.pdf", 3)
		env := newTestEnv(t)
		env.raster.failPage = 2

		if code := env.run("pptx", in, "--no-progress", "-o", dir); code != ExitRasterizer {
			t.Errorf("exit = %d, want %d\nstderr: %s", code, ExitRasterizer, env.stderr)
		}
		if _, err := os.Stat(filepath.Join(dir, "slides.pptx")); err == nil {
			t.Error("failed conversion should not write output")
		}
	})

	t.Run("scale out of range", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writePDF(t, dir, "slides.pdf", 1)
		env := newTestEnv(t)

		if code := env.run("pptx", in, "--scale", "9", "-o", dir); code != ExitUsage {
			t.Errorf("exit = %d, want %d", code, ExitUsage)
		}
	})
}

// ---------------------------------------------------------------------------
// pages
// ---------------------------------------------------------------------------

func TestPages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writePDF(t, dir, "doc.pdf", 2)
	thumbs := filepath.Join(dir, "thumbs")

	env := newTestEnv(t)
	code := env.run("pages", in, "--thumbnails", thumbs, "--size", "50")
	if code != ExitSuccess {
		t.Fatalf("pages exit = %d, stderr: %s", code, env.stderr)
	}

	stdout := env.stdout.String()
	for _, want := range []string{"doc.pdf: 2 pages", "1  101 x 200 pt", "2  102 x 200 pt"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout should contain %q, got %q", want, stdout)
		}
	}

	data, err := os.ReadFile(filepath.Join(thumbs, "doc-page-2.png"))
	if err != nil {
		t.Fatalf("reading thumbnail: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding thumbnail: %v", err)
	}
	if b := img.Bounds(); max(b.Dx(), b.Dy()) != 50 {
		t.Errorf("thumbnail bounds = %v, want longer edge 50", b)
	}
}

// ---------------------------------------------------------------------------
// markdown
// ---------------------------------------------------------------------------

func TestMarkdown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFixture(t, dir, "notes.md", []byte("# Release Notes\n\nAll good.\n"))
	out := filepath.Join(dir, "out")

	env := newTestEnv(t)
	if code := env.run("markdown", in, "-o", out); code != ExitSuccess {
		t.Fatalf("markdown exit = %d, stderr: %s", code, env.stderr)
	}

	data, err := os.ReadFile(filepath.Join(out, "notes.pdf"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-fake")) {
		t.Errorf("output = %q, want printed bytes", data)
	}
	if !bytes.Contains(data, []byte("Release Notes")) {
		t.Error("printed document should contain the heading")
	}
}

func TestMarkdown_Directory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "docs")
	writeFixture(t, src, "a.md", []byte("# A\n"))
	writeFixture(t, src, "sub/b.markdown", []byte("# B\n"))
	writeFixture(t, src, "skip.txt", []byte("not markdown"))
	out := filepath.Join(dir, "out")

	env := newTestEnv(t)
	if code := env.run("markdown", src, "-o", out, "--workers", "2"); code != ExitSuccess {
		t.Fatalf("markdown exit = %d, stderr: %s", code, env.stderr)
	}

	assertFileExists(t, filepath.Join(out, "a.pdf"))
	assertFileExists(t, filepath.Join(out, "sub", "b.pdf"))
	if n := len(env.printer.Documents()); n != 2 {
		t.Errorf("printed documents = %d, want 2", n)
	}
	if !strings.Contains(env.stdout.String(), "2 succeeded, 0 failed") {
		t.Errorf("stdout = %q, want summary", env.stdout)
	}
}

func TestMarkdown_HTMLOnlyWithCSS(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFixture(t, dir, "notes.md", []byte("# Title\n"))
	css := writeFixture(t, dir, "extra.css", []byte("h1 { color: rebeccapurple; }"))

	env := newTestEnv(t)
	if code := env.run("markdown", in, "--html-only", "--css", css, "-o", dir); code != ExitSuccess {
		t.Fatalf("markdown exit = %d, stderr: %s", code, env.stderr)
	}

	html, err := os.ReadFile(filepath.Join(dir, "notes.html"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Contains(html, []byte("rebeccapurple")) {
		t.Error("document should embed the extra CSS")
	}
	if len(env.printer.Documents()) != 0 {
		t.Error("--html-only should not print")
	}
}

func TestMarkdown_Errors(t *testing.T) {
	t.Parallel()

	t.Run("print failure reports and maps to browser exit code", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeFixture(t, dir, "notes.md", []byte("# Title\n"))
		env := newTestEnv(t)
		env.printer.printErr = fmt.Errorf("%w: chrome went away", pdftoolkit.ErrPrint)

		if code := env.run("markdown", in, "-o", dir); code != ExitBrowser {
			t.Errorf("exit = %d, want %d", code, ExitBrowser)
		}
		if !strings.Contains(env.stderr.String(), "FAILED "+in) {
			t.Errorf("stderr = %q, want FAILED line", env.stderr)
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeFixture(t, dir, "notes.txt", []byte("# Title\n"))
		env := newTestEnv(t)

		if code := env.run("markdown", in); code != ExitUsage {
			t.Errorf("exit = %d, want %d", code, ExitUsage)
		}
	})

	t.Run("too many workers", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		if code := env.run("markdown", "x.md", "--workers", "99"); code != ExitUsage {
			t.Errorf("exit = %d, want %d", code, ExitUsage)
		}
	})

	t.Run("margin out of range", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeFixture(t, dir, "notes.md", []byte("# Title\n"))
		env := newTestEnv(t)

		if code := env.run("markdown", in, "--margin", "7"); code != ExitUsage {
			t.Errorf("exit = %d, want %d\nstderr: %s", code, ExitUsage, env.stderr)
		}
	})

	t.Run("missing css file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeFixture(t, dir, "notes.md", []byte("# Title\n"))
		env := newTestEnv(t)

		code := env.run("markdown", in, "--css", filepath.Join(dir, "missing.css"))
		if code != ExitIO {
			t.Errorf("exit = %d, want %d", code, ExitIO)
		}
	})
}

// ---------------------------------------------------------------------------
// Metrics and config
// ---------------------------------------------------------------------------

func TestMetricsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writePDF(t, dir, "a.pdf", 1)
	b := writePDF(t, dir, "b.pdf", 2)
	metrics := filepath.Join(dir, "metrics", "pdftoolkit.prom")

	env := newTestEnv(t)
	if code := env.run("merge", a, b, "-o", dir, "--metrics-file", metrics); code != ExitSuccess {
		t.Fatalf("merge exit = %d, stderr: %s", code, env.stderr)
	}

	data, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	for _, want := range []string{
		`pdftoolkit_operation_duration_seconds_count{operation="merge"} 1`,
		`pdftoolkit_pages_processed_total{operation="merge"} 3`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics should contain %q, got:\n%s", want, data)
		}
	}
}

func TestConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "configured")
	cfgPath := writeFixture(t, dir, "toolkit.yaml", []byte("output:\n  defaultDir: "+out+"\n"))
	a := writePDF(t, dir, "a.pdf", 1)
	b := writePDF(t, dir, "b.pdf", 1)

	env := newTestEnv(t)
	if code := env.run("merge", a, b, "--config", cfgPath); code != ExitSuccess {
		t.Fatalf("merge exit = %d, stderr: %s", code, env.stderr)
	}
	assertFileExists(t, filepath.Join(out, pdftoolkit.MergedName))
}

func TestConfigFile_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := writeFixture(t, dir, "bad.yaml", []byte("images:\n  pageSize: tabloid\n"))
	unknown := writeFixture(t, dir, "unknown.yaml", []byte("colour: red\n"))

	tests := []struct {
		name string
		cfg  string
	}{
		{"invalid value", bad},
		{"unknown field", unknown},
		{"missing file", filepath.Join(dir, "missing.yaml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			if code := env.run("pages", "x.pdf", "--config", tt.cfg); code != ExitUsage {
				t.Errorf("exit = %d, want %d\nstderr: %s", code, ExitUsage, env.stderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// printError
// ---------------------------------------------------------------------------

func TestPrintError_VerboseShowsCause(t *testing.T) {
	t.Parallel()

	err := &pdftoolkit.Error{
		Err:     fmt.Errorf("%w: xref table truncated", pdftoolkit.ErrInvalidPDF),
		Message: "This file doesn't appear to be a valid PDF.",
	}

	env := newTestEnv(t)
	printError(env.Environment, err, false)
	if strings.Contains(env.stderr.String(), "xref") {
		t.Errorf("non-verbose output leaked cause: %q", env.stderr)
	}

	env.stderr.Reset()
	printError(env.Environment, err, true)
	if !strings.Contains(env.stderr.String(), "cause:") || !strings.Contains(env.stderr.String(), "xref") {
		t.Errorf("verbose output = %q, want cause", env.stderr)
	}
	if !errors.Is(err, pdftoolkit.ErrParse) {
		t.Error("user error should keep its kind")
	}
}
