// SPDX-License-Identifier: MPL-2.0

package process

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/loadseq/loadseq/internal/discovery"
	"github.com/loadseq/loadseq/internal/format"
	"github.com/loadseq/loadseq/internal/shellunit"
	"github.com/loadseq/loadseq/internal/unit"
)

// Config describes a run with the default collaborators: directory discovery,
// shell unit activation and the manifest formatter.
type Config struct {
	BaseDir        string
	Paths          []string
	Ignores        []unit.Pattern
	Suffix         string
	SkipIndexFiles bool

	// Output is the manifest file. Empty writes to Writer.
	Output string
	Writer io.Writer

	// Template is an optional text/template file for the manifest.
	Template  string
	Directive string

	// Bootstrap is sourced before resolution.
	Bootstrap      string
	MaxAttempts    int
	ParseCacheSize int
	EnvFiles       []string

	// UnitOutput receives what units print. Nil discards it.
	UnitOutput io.Writer
	Logger     *log.Logger
}

// Build wires a Process from cfg. The activator is created with the discovery
// load path, so each Build yields a fresh shell environment. The output file is
// never discovered as a unit, so a manifest written into a search path does not
// break the next run.
func Build(cfg Config, opts ...Option) (*Process, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var skip []string
	if cfg.Output != "" {
		out, err := filepath.Abs(cfg.Output)
		if err != nil {
			return nil, fmt.Errorf("resolve output: %w", err)
		}
		skip = append(skip, out)
	}

	d := discovery.New(discovery.Options{
		BaseDir:        cfg.BaseDir,
		Paths:          cfg.Paths,
		Suffix:         cfg.Suffix,
		SkipIndexFiles: cfg.SkipIndexFiles,
		Ignores:        cfg.Ignores,
		SkipFiles:      skip,
		Logger:         logger,
	})

	base, err := d.BaseDir()
	if err != nil {
		return nil, err
	}
	loadPath, err := d.LoadPath()
	if err != nil {
		return nil, err
	}

	activator, err := shellunit.New(
		shellunit.WithDir(base),
		shellunit.WithLoadPath(loadPath...),
		shellunit.WithSuffix(cfg.Suffix),
		shellunit.WithEnvFiles(cfg.EnvFiles...),
		shellunit.WithOutput(cfg.UnitOutput, cfg.UnitOutput),
		shellunit.WithParseCacheSize(cfg.ParseCacheSize),
		shellunit.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	formatter := format.New(
		format.WithDirective(cfg.Directive),
		format.WithTemplateFile(cfg.Template),
	)

	defaults := []Option{
		WithOutput(cfg.Output),
		WithSuffix(cfg.Suffix),
		WithWriter(cfg.Writer),
		WithBootstrap(cfg.Bootstrap),
		WithMaxAttempts(cfg.MaxAttempts),
		WithLogger(logger),
	}
	return New(d, activator, formatter, append(defaults, opts...)...), nil
}
