package pdftoolkit

// Notes:
// - The backends are replaced by shell scripts that mimic pdftoppm and
//   ImageMagick output conventions, so these tests need /bin/sh but no
//   poppler or ImageMagick install.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// fakeBackend writes an executable script to dir and returns its path.
func fakeBackend(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs an executable shell script")
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o700); err != nil { // #nosec G306 -- test executable
		t.Fatal(err)
	}
	return p
}

// copyingBackend copies a 30x20 PNG to the path derived from its last
// argument.
func copyingBackend(t *testing.T, name, suffix string) string {
	t.Helper()
	dir := t.TempDir()
	fixture := filepath.Join(dir, "page.png")
	if err := os.WriteFile(fixture, pngBytes(t, 30, 20), 0o600); err != nil {
		t.Fatal(err)
	}
	return fakeBackend(t, dir, name, `for a; do last=$a; done; cp "`+fixture+`" "$last`+suffix+`"`)
}

// ---------------------------------------------------------------------------
// TestPopplerRasterizer_Backend
// ---------------------------------------------------------------------------

func TestPopplerRasterizer_Backend(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing")
	pdftoppm := copyingBackend(t, "pdftoppm", ".png")
	magick := copyingBackend(t, "magick", "")

	tests := []struct {
		name     string
		r        PopplerRasterizer
		wantName string
		wantPath string
		wantErr  error
	}{
		{"configured pdftoppm", PopplerRasterizer{PdftoppmPath: pdftoppm, MagickPath: magick}, "pdftoppm", pdftoppm, nil},
		{"falls back to imagemagick", PopplerRasterizer{PdftoppmPath: missing, MagickPath: magick}, "imagemagick", magick, nil},
		{"nothing installed", PopplerRasterizer{PdftoppmPath: missing, MagickPath: missing}, "", "", ErrRasterizerUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			name, path, err := tt.r.Backend()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Backend() error = %v, want %v", err, tt.wantErr)
			}
			if name != tt.wantName || path != tt.wantPath {
				t.Errorf("Backend() = %q, %q, want %q, %q", name, path, tt.wantName, tt.wantPath)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPopplerRasterizer_RenderPage
// ---------------------------------------------------------------------------

func TestPopplerRasterizer_RenderPage(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing")
	backends := map[string]PopplerRasterizer{
		"pdftoppm":    {PdftoppmPath: copyingBackend(t, "pdftoppm", ".png"), MagickPath: missing},
		"imagemagick": {PdftoppmPath: missing, MagickPath: copyingBackend(t, "magick", "")},
	}

	for name, r := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			doc := openFixture(t, "doc.pdf", 2)
			pr, err := r.Open(context.Background(), doc)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer pr.Close()

			img, err := pr.RenderPage(context.Background(), 2, DefaultScale)
			if err != nil {
				t.Fatalf("RenderPage() error = %v", err)
			}
			if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
				t.Errorf("image size = %dx%d, want 30x20", b.Dx(), b.Dy())
			}
		})
	}
}

func TestPopplerRasterizer_RenderErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")

	tests := []struct {
		name    string
		script  string
		timeout time.Duration
		page    int
		scale   float64
		wantErr error
		wantMsg string
	}{
		{name: "backend fails", script: "echo broken page >&2; exit 1", page: 1, scale: 1, wantErr: ErrRender, wantMsg: "broken page"},
		{name: "no output", script: "exit 0", page: 1, scale: 1, wantErr: ErrRender, wantMsg: "produced no image"},
		{name: "timeout", script: "sleep 10", timeout: 100 * time.Millisecond, page: 1, scale: 1, wantErr: ErrRender, wantMsg: "timed out"},
		{name: "page zero", script: "exit 0", page: 0, scale: 1, wantErr: ErrPageIndex},
		{name: "bad scale", script: "exit 0", page: 1, scale: 0, wantErr: ErrInvalidScale},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bin := fakeBackend(t, dir, "backend-"+string(rune('a'+i)), tt.script)
			r := &PopplerRasterizer{PdftoppmPath: bin, MagickPath: missing, PageTimeout: tt.timeout}
			pr, err := r.Open(context.Background(), openFixture(t, "doc.pdf", 1))
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer pr.Close()

			_, err = pr.RenderPage(context.Background(), tt.page, tt.scale)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RenderPage() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestPopplerRasterizer_OpenCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &PopplerRasterizer{}
	if _, err := r.Open(ctx, openFixture(t, "doc.pdf", 1)); !errors.Is(err, context.Canceled) {
		t.Errorf("Open() error = %v, want context.Canceled", err)
	}
}
