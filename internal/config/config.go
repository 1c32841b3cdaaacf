package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/techVasanthsmart/pdf-toolkit/internal/fileutil"
	"github.com/techVasanthsmart/pdf-toolkit/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096 // PATH_MAX on Linux
	MaxEnumLength     = 20   // "match-first", "letter"
	MaxDurationLength = 20   // "90s", "1m30s"
	MaxWorkers        = 8    // toolkit pool cap
)

// Numeric ranges, mirrored from the toolkit so the config package stays
// free of the root import.
const (
	minScale  = 1.0
	maxScale  = 4.0
	maxMargin = 3.0
)

// configDirName is the directory under os.UserConfigDir searched for
// named configs.
const configDirName = "pdf-toolkit"

// Config holds all settings for the pdf-toolkit CLI.
type Config struct {
	Output       OutputConfig       `yaml:"output"`
	Images       ImagesConfig       `yaml:"images"`
	Presentation PresentationConfig `yaml:"presentation"`
	Raster       RasterConfig       `yaml:"raster"`
	Print        PrintConfig        `yaml:"print"`
	Assets       AssetsConfig       `yaml:"assets"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Workers      int                `yaml:"workers"` // 0 = auto
}

// OutputConfig defines where outputs are written.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // empty = current directory
}

// ImagesConfig defines image-to-PDF options.
type ImagesConfig struct {
	PageSize string `yaml:"pageSize"` // "a4", "letter", "match-first"
}

// PresentationConfig defines PDF-to-PPTX options.
type PresentationConfig struct {
	Scale       float64 `yaml:"scale"`       // 0 = toolkit default
	PageTimeout string  `yaml:"pageTimeout"` // e.g. "60s"
}

// RasterConfig overrides the page rasterizer binaries.
type RasterConfig struct {
	Pdftoppm string `yaml:"pdftoppm"`
	Magick   string `yaml:"magick"`
}

// PrintConfig defines Markdown print options.
type PrintConfig struct {
	PaperSize string   `yaml:"paperSize"` // "letter", "a4", "legal"
	Margin    *float64 `yaml:"margin"`    // inches, nil = toolkit default
	Timeout   string   `yaml:"timeout"`   // e.g. "30s"
}

// AssetsConfig defines the custom stylesheet directory.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded assets only
}

// MetricsConfig defines the Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // empty = no metrics file
}

// PageTimeout parses Presentation.PageTimeout. Empty yields zero.
func (c *Config) PageTimeout() (time.Duration, error) {
	return parseDuration("presentation.pageTimeout", c.Presentation.PageTimeout)
}

// PrintTimeout parses Print.Timeout. Empty yields zero.
func (c *Config) PrintTimeout() (time.Duration, error) {
	return parseDuration("print.timeout", c.Print.Timeout)
}

// Validate checks enum values, ranges, durations and field lengths.
// A nil Config is valid.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}

	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"images.pageSize", c.Images.PageSize, MaxEnumLength},
		{"presentation.pageTimeout", c.Presentation.PageTimeout, MaxDurationLength},
		{"raster.pdftoppm", c.Raster.Pdftoppm, MaxPathLength},
		{"raster.magick", c.Raster.Magick, MaxPathLength},
		{"print.paperSize", c.Print.PaperSize, MaxEnumLength},
		{"print.timeout", c.Print.Timeout, MaxDurationLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"metrics.textfile", c.Metrics.Textfile, MaxPathLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	if err := validateEnum("images.pageSize", c.Images.PageSize, "a4", "letter", "match-first"); err != nil {
		return err
	}
	if err := validateEnum("print.paperSize", c.Print.PaperSize, "letter", "a4", "legal"); err != nil {
		return err
	}

	if s := c.Presentation.Scale; s != 0 && (s < minScale || s > maxScale || math.IsNaN(s)) {
		return fmt.Errorf("%w: presentation.scale must be between %g and %g, got %g",
			ErrInvalidValue, minScale, maxScale, s)
	}
	if m := c.Print.Margin; m != nil && (*m < 0 || *m > maxMargin || math.IsNaN(*m)) {
		return fmt.Errorf("%w: print.margin must be between 0 and %g, got %g",
			ErrInvalidValue, maxMargin, *m)
	}
	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 0 and %d, got %d",
			ErrInvalidValue, MaxWorkers, c.Workers)
	}

	if _, err := c.PageTimeout(); err != nil {
		return err
	}
	if _, err := c.PrintTimeout(); err != nil {
		return err
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateEnum accepts an empty value or one of allowed, case-insensitively.
func validateEnum(fieldName, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %q (must be one of %s)",
		ErrInvalidValue, fieldName, value, strings.Join(allowed, ", "))
}

func parseDuration(fieldName, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s: %q is not a positive duration", ErrInvalidValue, fieldName, value)
	}
	return d, nil
}

// DefaultConfig returns a configuration that defers every setting to the
// toolkit defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := yamlutil.ReadFileStrict(configPath, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SearchPaths lists where a config name is looked up, in order:
// name.yaml and name.yml in the current directory, then in
// ~/.config/pdf-toolkit/.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, configDirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file of SearchPaths(name).
func resolveConfigPath(name string) (string, error) {
	triedPaths := SearchPaths(name)
	for _, p := range triedPaths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
