package main

import (
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	pdftoolkit "github.com/techVasanthsmart/pdf-toolkit"
	"github.com/techVasanthsmart/pdf-toolkit/internal/config"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer

	// Config is the base configuration a --config file replaces.
	Config *config.Config

	// ToolkitOptions are applied after the options derived from Config,
	// so tests can swap the rasterizer or print engine.
	ToolkitOptions []pdftoolkit.Option

	// Registry collects operation metrics written by --metrics-file.
	Registry *prometheus.Registry
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:      time.Now,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Config:   config.DefaultConfig(),
		Registry: prometheus.NewRegistry(),
	}
}
