package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
	"github.com/techVasanthsmart/pdf-toolkit/internal/config"
	"github.com/techVasanthsmart/pdf-toolkit/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage       = errors.New("invalid usage")
	ErrNoInput     = errors.New("no input specified")
	ErrIsDirectory = errors.New("input is a directory")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// usageError marks err as a usage error while keeping it matchable.
func usageError(err error) error {
	return fmt.Errorf("%w: %w", ErrUsage, err)
}

// session is the resolved configuration of one command run.
type session struct {
	env      *Environment
	cfg      *config.Config
	flags    *commonFlags
	observer *pdftoolkit.PrometheusObserver
}

// newSession loads the config file, applies PDFTOOLKIT_* variables and
// prepares metrics. Command flags are merged by each command afterwards.
func newSession(f *commonFlags, env *Environment) (*session, error) {
	warnUnknownEnvVars(env.Stderr)
	envCfg := loadEnvConfig()

	cfg := config.DefaultConfig()
	if env.Config != nil {
		c := *env.Config
		cfg = &c
	}

	name := f.config
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, configError(name, err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	if f.metricsFile != "" {
		cfg.Metrics.Textfile = f.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &session{env: env, cfg: cfg, flags: f}
	if cfg.Metrics.Textfile != "" {
		if env.Registry == nil {
			env.Registry = prometheus.NewRegistry()
		}
		obs, err := pdftoolkit.NewPrometheusObserver("", env.Registry)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		s.observer = obs
	}
	return s, nil
}

// configError attaches a lookup hint when a named config is missing.
func configError(name string, err error) error {
	if errors.Is(err, config.ErrConfigNotFound) && !strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
	}
	return fmt.Errorf("loading config: %w", err)
}

// toolkitOptions derives toolkit options from the config. Environment
// options come last so they win.
func (s *session) toolkitOptions(extra ...pdftoolkit.Option) ([]pdftoolkit.Option, error) {
	pageTimeout, err := s.cfg.PageTimeout()
	if err != nil {
		return nil, err
	}

	opts := []pdftoolkit.Option{
		pdftoolkit.WithRasterizer(&pdftoolkit.PopplerRasterizer{
			PdftoppmPath: s.cfg.Raster.Pdftoppm,
			MagickPath:   s.cfg.Raster.Magick,
			PageTimeout:  pageTimeout,
		}),
	}
	if s.cfg.Assets.BasePath != "" {
		opts = append(opts, pdftoolkit.WithAssetPath(s.cfg.Assets.BasePath))
	}
	if s.observer != nil {
		opts = append(opts, pdftoolkit.WithObserver(s.observer))
	}
	opts = append(opts, extra...)
	return append(opts, s.env.ToolkitOptions...), nil
}

// newToolkit builds a toolkit from the session config.
func (s *session) newToolkit(extra ...pdftoolkit.Option) (*pdftoolkit.Toolkit, error) {
	opts, err := s.toolkitOptions(extra...)
	if err != nil {
		return nil, err
	}
	return pdftoolkit.NewToolkit(opts...)
}

// finish writes the metrics file when one is configured. A write failure
// becomes the command error unless the command already failed.
func (s *session) finish(errp *error) {
	if s.observer == nil {
		return
	}
	if err := pdftoolkit.WriteMetricsFile(s.cfg.Metrics.Textfile, s.env.Registry); err != nil && *errp == nil {
		*errp = err
	}
}

// outputDir returns the --output flag or the configured default.
func (s *session) outputDir() string {
	if s.flags.output != "" {
		return s.flags.output
	}
	return s.cfg.Output.DefaultDir
}

// outputPath resolves where an artifact named name is written. An output
// with the artifact's extension names the file itself; anything else is
// a directory.
func (s *session) outputPath(name string) string {
	out := s.outputDir()
	if out != "" && strings.EqualFold(filepath.Ext(out), filepath.Ext(name)) {
		return out
	}
	return filepath.Join(out, name)
}

// publish writes one artifact to the output location.
func (s *session) publish(art *pdftoolkit.Artifact) (string, error) {
	lease, err := dirPublisher{s: s}.Publish(*art)
	if err != nil {
		return "", err
	}
	s.created(lease.Location())
	return lease.Location(), nil
}

// created reports a written file unless --quiet is set.
func (s *session) created(path string) {
	if !s.flags.quiet {
		fmt.Fprintf(s.env.Stdout, "Created %s\n", path)
	}
}

// verbosef prints detail lines when --verbose is set.
func (s *session) verbosef(format string, args ...any) {
	if s.flags.verbose && !s.flags.quiet {
		fmt.Fprintf(s.env.Stderr, format+"\n", args...)
	}
}

// readPDF loads and opens a single PDF input.
func readPDF(path string) (*pdftoolkit.PDFHandle, error) {
	sources, err := readSources([]string{path}, pdftoolkit.PDFConstraint(false))
	if err != nil {
		return nil, err
	}
	return pdftoolkit.OpenPDF(sources[0].Name, sources[0].Data)
}

// readSources wraps pdftoolkit.ReadSources, reporting directories with
// ErrIsDirectory.
func readSources(paths []string, c pdftoolkit.Constraint) ([]pdftoolkit.SourceFile, error) {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrIsDirectory, p)
		}
	}
	return pdftoolkit.ReadSources(paths, c)
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return fmt.Errorf("%w: creating output directory: %v%s",
				pdftoolkit.ErrWriteOutput, err, hints.ForOutputDirectory())
		}
	}
	// #nosec G306 -- outputs are meant to be readable
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", pdftoolkit.ErrWriteOutput, err)
	}
	return nil
}

var (
	_ pdftoolkit.Publisher = dirPublisher{}
	_ pdftoolkit.Lease     = (*fileLease)(nil)
)

// dirPublisher writes artifacts to the session's output location. Its
// leases delete the file on release, so a rolled-back batch leaves
// nothing behind.
type dirPublisher struct {
	s *session
}

func (p dirPublisher) Publish(a pdftoolkit.Artifact) (pdftoolkit.Lease, error) {
	path := p.s.outputPath(a.Name)
	if err := writeFile(path, a.Data); err != nil {
		return nil, err
	}
	return &fileLease{artifact: a, path: path}, nil
}

type fileLease struct {
	artifact pdftoolkit.Artifact
	path     string
	once     sync.Once
	err      error
}

func (l *fileLease) Artifact() pdftoolkit.Artifact { return l.artifact }
func (l *fileLease) Location() string              { return l.path }

func (l *fileLease) Release() error {
	l.once.Do(func() {
		if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.err = err
		}
	})
	return l.err
}

// requireOne checks that exactly one positional input was given.
func requireOne(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", ErrNoInput
	case 1:
		return args[0], nil
	}
	return "", usageError(fmt.Errorf("expected one input file, got %d", len(args)))
}
