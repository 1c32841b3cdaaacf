package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.Output.DefaultDir != "" || cfg.Images.PageSize != "" || cfg.Print.Margin != nil || cfg.Workers != 0 {
		t.Errorf("DefaultConfig() = %+v, want zero values", cfg)
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		max     int
		wantErr bool
	}{
		{name: "empty value is valid", value: "", max: 10},
		{name: "value at limit is valid", value: "1234567890", max: 10},
		{name: "value over limit returns error", value: "12345678901", max: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateFieldLength("test.field", tt.value, tt.max)
			if tt.wantErr != errors.Is(err, ErrFieldTooLong) {
				t.Errorf("validateFieldLength() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), "test.field") {
				t.Errorf("error %q should name the field", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConfig_Validate - Enums, ranges, durations
// ---------------------------------------------------------------------------

func ptr(f float64) *float64 { return &f }

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{name: "nil config", cfg: nil},
		{name: "empty config", cfg: &Config{}},
		{
			name: "all fields set",
			cfg: &Config{
				Output:       OutputConfig{DefaultDir: "out"},
				Images:       ImagesConfig{PageSize: "match-first"},
				Presentation: PresentationConfig{Scale: 3, PageTimeout: "90s"},
				Raster:       RasterConfig{Pdftoppm: "/usr/bin/pdftoppm", Magick: "magick"},
				Print:        PrintConfig{PaperSize: "Legal", Margin: ptr(0), Timeout: "1m"},
				Metrics:      MetricsConfig{Textfile: "toolkit.prom"},
				Workers:      4,
			},
		},
		{name: "unknown page size", cfg: &Config{Images: ImagesConfig{PageSize: "a5"}}, wantErr: ErrInvalidValue},
		{name: "unknown paper size", cfg: &Config{Print: PrintConfig{PaperSize: "tabloid"}}, wantErr: ErrInvalidValue},
		{name: "scale too small", cfg: &Config{Presentation: PresentationConfig{Scale: 0.5}}, wantErr: ErrInvalidValue},
		{name: "scale too large", cfg: &Config{Presentation: PresentationConfig{Scale: 5}}, wantErr: ErrInvalidValue},
		{name: "scale nan", cfg: &Config{Presentation: PresentationConfig{Scale: math.NaN()}}, wantErr: ErrInvalidValue},
		{name: "negative margin", cfg: &Config{Print: PrintConfig{Margin: ptr(-1)}}, wantErr: ErrInvalidValue},
		{name: "margin too large", cfg: &Config{Print: PrintConfig{Margin: ptr(3.5)}}, wantErr: ErrInvalidValue},
		{name: "negative workers", cfg: &Config{Workers: -1}, wantErr: ErrInvalidValue},
		{name: "too many workers", cfg: &Config{Workers: MaxWorkers + 1}, wantErr: ErrInvalidValue},
		{name: "bad page timeout", cfg: &Config{Presentation: PresentationConfig{PageTimeout: "soon"}}, wantErr: ErrInvalidValue},
		{name: "zero print timeout", cfg: &Config{Print: PrintConfig{Timeout: "0s"}}, wantErr: ErrInvalidValue},
		{name: "long path", cfg: &Config{Output: OutputConfig{DefaultDir: strings.Repeat("d", MaxPathLength+1)}}, wantErr: ErrFieldTooLong},
		{name: "long enum", cfg: &Config{Images: ImagesConfig{PageSize: strings.Repeat("a", MaxEnumLength+1)}}, wantErr: ErrFieldTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Timeouts(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Presentation: PresentationConfig{PageTimeout: "45s"},
		Print:        PrintConfig{Timeout: "2m"},
	}
	if d, err := cfg.PageTimeout(); err != nil || d != 45*time.Second {
		t.Errorf("PageTimeout() = %v, %v", d, err)
	}
	if d, err := cfg.PrintTimeout(); err != nil || d != 2*time.Minute {
		t.Errorf("PrintTimeout() = %v, %v", d, err)
	}
	if d, err := DefaultConfig().PrintTimeout(); err != nil || d != 0 {
		t.Errorf("empty PrintTimeout() = %v, %v; want 0", d, err)
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig - Paths, names, strict decoding
// ---------------------------------------------------------------------------

const sampleConfig = `output:
  defaultDir: out
images:
  pageSize: letter
presentation:
  scale: 2.5
  pageTimeout: 30s
print:
  paperSize: a4
  margin: 0
metrics:
  textfile: /tmp/toolkit.prom
workers: 2
`

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "toolkit.yaml")
	writeConfig(t, path, sampleConfig)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Output.DefaultDir != "out" || cfg.Images.PageSize != "letter" || cfg.Workers != 2 {
		t.Errorf("LoadConfig() = %+v", cfg)
	}
	if cfg.Presentation.Scale != 2.5 || cfg.Print.PaperSize != "a4" {
		t.Errorf("presentation/print = %+v / %+v", cfg.Presentation, cfg.Print)
	}
	if cfg.Print.Margin == nil || *cfg.Print.Margin != 0 {
		t.Errorf("explicit zero margin lost: %v", cfg.Print.Margin)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		writeConfig(t, p, content)
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "empty name", path: "", wantErr: ErrEmptyConfigName},
		{name: "missing file", path: filepath.Join(dir, "missing.yaml"), wantErr: ErrConfigNotFound},
		{name: "unknown key", path: write("unknown.yaml", "outptu:\n  defaultDir: x\n"), wantErr: ErrConfigParse},
		{name: "bad yaml", path: write("bad.yaml", "workers: [1,\n"), wantErr: ErrConfigParse},
		{name: "empty file", path: write("empty.yaml", ""), wantErr: ErrConfigParse},
		{name: "invalid value", path: write("invalid.yaml", "images:\n  pageSize: a3\n"), wantErr: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := LoadConfig(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadConfig(%q) error = %v, want %v", tt.path, err, tt.wantErr)
			}
			if cfg != nil {
				t.Errorf("LoadConfig() returned config on error: %+v", cfg)
			}
		})
	}
}

// Notes:
// - The name lookup tests change the working directory and XDG_CONFIG_HOME,
//   so they cannot run in parallel.
// - os.UserConfigDir honors XDG_CONFIG_HOME only on Unix-like systems.

func TestLoadConfig_ByName(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("user config dir ignores XDG_CONFIG_HOME on this platform")
	}

	t.Run("current directory wins", func(t *testing.T) {
		cwd := t.TempDir()
		home := t.TempDir()
		t.Chdir(cwd)
		t.Setenv("XDG_CONFIG_HOME", home)

		writeConfig(t, filepath.Join(cwd, "work.yml"), "workers: 3\n")
		writeConfig(t, filepath.Join(home, configDirName, "work.yaml"), "workers: 5\n")

		cfg, err := LoadConfig("work")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Workers != 3 {
			t.Errorf("Workers = %d, want 3 from the current directory", cfg.Workers)
		}
	})

	t.Run("user config directory", func(t *testing.T) {
		t.Chdir(t.TempDir())
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", home)

		writeConfig(t, filepath.Join(home, configDirName, "team.yaml"), "print:\n  paperSize: legal\n")

		cfg, err := LoadConfig("team")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Print.PaperSize != "legal" {
			t.Errorf("PaperSize = %q, want legal", cfg.Print.PaperSize)
		}
	})

	t.Run("not found lists tried paths", func(t *testing.T) {
		t.Chdir(t.TempDir())
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", home)

		_, err := LoadConfig("nothing")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("LoadConfig() error = %v, want ErrConfigNotFound", err)
		}
		for _, want := range []string{"nothing.yaml", "nothing.yml", filepath.Join(home, configDirName)} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not mention %q", err, want)
			}
		}
	})

	t.Run("directory is not a config", func(t *testing.T) {
		cwd := t.TempDir()
		t.Chdir(cwd)
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		if err := os.Mkdir(filepath.Join(cwd, "dir.yaml"), 0o750); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfig("dir"); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadConfig() error = %v, want ErrConfigNotFound", err)
		}
	})
}

func TestSearchPaths(t *testing.T) {
	t.Parallel()

	paths := SearchPaths("team")
	if len(paths) < 2 || paths[0] != "team.yaml" || paths[1] != "team.yml" {
		t.Fatalf("SearchPaths() = %v, want local paths first", paths)
	}
	for _, p := range paths[2:] {
		if filepath.Base(filepath.Dir(p)) != configDirName {
			t.Errorf("user path %q not under %s", p, configDirName)
		}
	}
}
