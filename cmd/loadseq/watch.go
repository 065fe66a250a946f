// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/loadseq/loadseq/internal/discovery"
	"github.com/loadseq/loadseq/internal/watch"
)

// watchPlans runs every plan once, then again whenever a unit, a project file,
// a template or an env file changes. It blocks until ctx is canceled.
func (a *App) watchPlans(ctx context.Context, plans []runPlan, logger *log.Logger) error {
	wcfg, err := watchConfig(plans)
	if err != nil {
		return classify(err)
	}
	con := a.console(plans[0].color)

	runAll := func(ctx context.Context) error {
		for _, plan := range plans {
			if _, err := a.execute(ctx, plan, logger); err != nil {
				if exitCode(err) == ExitUnresolved {
					// Already reported by the error and status lines.
					return nil
				}
				return err
			}
		}
		return nil
	}

	if err := runAll(ctx); err != nil {
		logger.Error("initial run failed", "err", err)
	}
	con.note("Watching %d directories for changes (Ctrl+C to stop)", len(wcfg.Roots))

	wcfg.Logger = logger
	wcfg.OnChange = func(ctx context.Context, changed []string) error {
		con.note("%d file(s) changed, resolving again", len(changed))
		return runAll(ctx)
	}

	w, err := watch.New(wcfg)
	if err != nil {
		return classify(err)
	}
	return classify(w.Run(ctx))
}

// watchConfig collects the directories and files the plans depend on. Manifest
// files are ignored so writing them does not trigger another run.
func watchConfig(plans []runPlan) (watch.Config, error) {
	var cfg watch.Config
	add := func(list []string, path string) []string {
		if path == "" {
			return list
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if slices.Contains(list, path) {
			return list
		}
		return append(list, path)
	}

	for _, plan := range plans {
		d := discovery.New(discovery.Options{
			BaseDir: plan.build.BaseDir,
			Paths:   plan.build.Paths,
			Suffix:  plan.build.Suffix,
		})
		dirs, err := d.LoadPath()
		if err != nil {
			return watch.Config{}, err
		}
		for _, dir := range dirs {
			cfg.Roots = add(cfg.Roots, dir)
		}
		if cfg.Suffix == "" {
			cfg.Suffix = d.Options().Suffix
		}

		cfg.Files = add(cfg.Files, plan.project)
		cfg.Files = add(cfg.Files, plan.build.Template)
		for _, f := range plan.build.EnvFiles {
			cfg.Files = add(cfg.Files, f)
		}
		cfg.IgnoreFiles = add(cfg.IgnoreFiles, plan.build.Output)
	}
	return cfg, nil
}
