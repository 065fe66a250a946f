// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/loadseq/loadseq/internal/config"
	"github.com/loadseq/loadseq/internal/issue"
	"github.com/loadseq/loadseq/internal/process"
	"github.com/loadseq/loadseq/internal/projectfile"
	"github.com/loadseq/loadseq/internal/unit"
)

var errNegativeAttempts = errors.New("max attempts must not be negative")

type (
	// rootFlagValues holds the flag values of the root command.
	rootFlagValues struct {
		basedir     string
		output      string
		require     string
		ignores     []string
		paths       []string
		template    string
		stats       bool
		verbose     bool
		configPath  string
		envFiles    []string
		watch       bool
		maxAttempts int
	}

	// runPlan is the merged configuration of one project.
	runPlan struct {
		// project is the project file, or "" when only flags configure the run.
		project string
		build   process.Config
		stats   bool
		verbose bool
		color   config.ColorMode
	}
)

// isChanged reports whether a flag was set on the command line.
type isChanged func(name string) bool

// verboseEnabled merges the verbose flag over the config value.
func verboseEnabled(cfg *config.Config, flags *rootFlagValues, changed isChanged) bool {
	if changed("verbose") {
		return flags.verbose
	}
	return cfg.UI.Verbose
}

// planRuns builds one plan per project file, or a single plan from the flags
// when no project file is given.
func planRuns(cfg *config.Config, flags *rootFlagValues, changed isChanged, projects []string) ([]runPlan, error) {
	if len(projects) == 0 {
		plan, err := mergePlan(cfg, nil, flags, changed)
		if err != nil {
			return nil, err
		}
		return []runPlan{plan}, nil
	}

	plans := make([]runPlan, 0, len(projects))
	for _, path := range projects {
		pf, err := projectfile.Load(path)
		if err != nil {
			return nil, usageError(err)
		}
		plan, err := mergePlan(cfg, pf, flags, changed)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// mergePlan layers the global config, the project file (may be nil) and the
// flags that were set explicitly.
func mergePlan(cfg *config.Config, pf *projectfile.File, flags *rootFlagValues, changed isChanged) (runPlan, error) {
	plan := runPlan{
		build: process.Config{
			BaseDir:        ".",
			Suffix:         cfg.Suffix,
			SkipIndexFiles: cfg.SkipIndexFiles,
			Directive:      cfg.Directive,
			MaxAttempts:    cfg.MaxAttempts,
			ParseCacheSize: cfg.ParseCacheSize,
		},
		stats:   cfg.UI.Stats,
		verbose: verboseEnabled(cfg, flags, changed),
		color:   cfg.UI.Color,
	}
	var ignores []string

	if pf != nil {
		plan.project = pf.Path()
		plan.build.BaseDir = pf.BaseDir
		plan.build.Paths = pf.Paths
		plan.build.Output = pf.Output
		plan.build.Template = pf.Template
		plan.build.Bootstrap = pf.Require
		plan.build.EnvFiles = pf.EnvFiles
		ignores = pf.Ignores
		if pf.Stats != nil {
			plan.stats = *pf.Stats
		}
	}

	if changed("basedir") {
		plan.build.BaseDir = flags.basedir
	}
	if changed("paths") {
		plan.build.Paths = flags.paths
	}
	if changed("ignores") {
		ignores = flags.ignores
	}
	if changed("output") {
		plan.build.Output = flags.output
	}
	if changed("template") {
		plan.build.Template = flags.template
	}
	if changed("require") {
		plan.build.Bootstrap = flags.require
	}
	if changed("env-file") {
		plan.build.EnvFiles = flags.envFiles
	}
	if changed("stats") {
		plan.stats = flags.stats
	}
	if changed("max-attempts") {
		if flags.maxAttempts < 0 {
			return runPlan{}, usageError(issue.NewErrorContext().
				WithOperation("parse flags").
				WithResource("--max-attempts").
				WithSuggestion("Use 0 for the default budget of n²+1 attempts").
				Wrap(errNegativeAttempts).
				BuildError())
		}
		plan.build.MaxAttempts = flags.maxAttempts
	}
	if plan.build.Output == stdoutLabel {
		plan.build.Output = ""
	}

	patterns, err := unit.CompilePatterns(ignores)
	if err != nil {
		return runPlan{}, usageError(issue.NewErrorContext().
			WithOperation("compile ignore patterns").
			WithResource(plan.project).
			WithSuggestion("Ignore patterns are regular expressions matched against unit identifiers").
			Wrap(err).
			BuildError())
	}
	plan.build.Ignores = patterns

	return plan, nil
}
