package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/techVasanthsmart/pdf-toolkit/internal/config"
)

// envPrefix starts every recognized environment variable.
const envPrefix = "PDFTOOLKIT_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath  string  // PDFTOOLKIT_CONFIG: config file name or path
	OutputDir   string  // PDFTOOLKIT_OUTPUT_DIR: default output directory
	PageSize    string  // PDFTOOLKIT_PAGE_SIZE: images page size
	PaperSize   string  // PDFTOOLKIT_PAPER_SIZE: markdown paper size
	Scale       float64 // PDFTOOLKIT_SCALE: presentation render scale
	Timeout     string  // PDFTOOLKIT_TIMEOUT: print timeout
	AssetPath   string  // PDFTOOLKIT_ASSET_PATH: custom stylesheet directory
	MetricsFile string  // PDFTOOLKIT_METRICS_FILE: Prometheus textfile
	Workers     int     // PDFTOOLKIT_WORKERS: parallel workers
}

// knownEnvVars lists valid PDFTOOLKIT_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"PDFTOOLKIT_CONFIG":       true,
	"PDFTOOLKIT_OUTPUT_DIR":   true,
	"PDFTOOLKIT_PAGE_SIZE":    true,
	"PDFTOOLKIT_PAPER_SIZE":   true,
	"PDFTOOLKIT_SCALE":        true,
	"PDFTOOLKIT_TIMEOUT":      true,
	"PDFTOOLKIT_ASSET_PATH":   true,
	"PDFTOOLKIT_METRICS_FILE": true,
	"PDFTOOLKIT_WORKERS":      true,
	"PDFTOOLKIT_CONTAINER":    true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed or non-positive numbers are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:  os.Getenv("PDFTOOLKIT_CONFIG"),
		OutputDir:   os.Getenv("PDFTOOLKIT_OUTPUT_DIR"),
		PageSize:    os.Getenv("PDFTOOLKIT_PAGE_SIZE"),
		PaperSize:   os.Getenv("PDFTOOLKIT_PAPER_SIZE"),
		Timeout:     os.Getenv("PDFTOOLKIT_TIMEOUT"),
		AssetPath:   os.Getenv("PDFTOOLKIT_ASSET_PATH"),
		MetricsFile: os.Getenv("PDFTOOLKIT_METRICS_FILE"),
	}

	if scale := os.Getenv("PDFTOOLKIT_SCALE"); scale != "" {
		if s, err := strconv.ParseFloat(scale, 64); err == nil && s > 0 {
			cfg.Scale = s
		}
	}
	if workers := os.Getenv("PDFTOOLKIT_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized PDFTOOLKIT_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty/zero.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later by each command)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.PageSize != "" && cfg.Images.PageSize == "" {
		cfg.Images.PageSize = env.PageSize
	}
	if env.PaperSize != "" && cfg.Print.PaperSize == "" {
		cfg.Print.PaperSize = env.PaperSize
	}
	if env.Scale != 0 && cfg.Presentation.Scale == 0 {
		cfg.Presentation.Scale = env.Scale
	}
	if env.Timeout != "" && cfg.Print.Timeout == "" {
		cfg.Print.Timeout = env.Timeout
	}
	if env.AssetPath != "" && cfg.Assets.BasePath == "" {
		cfg.Assets.BasePath = env.AssetPath
	}
	if env.MetricsFile != "" && cfg.Metrics.Textfile == "" {
		cfg.Metrics.Textfile = env.MetricsFile
	}
	if env.Workers != 0 && cfg.Workers == 0 {
		cfg.Workers = env.Workers
	}
}
