// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/loadseq/loadseq/internal/config"
	"github.com/loadseq/loadseq/internal/discovery"
	"github.com/loadseq/loadseq/internal/format"
	"github.com/loadseq/loadseq/internal/issue"
	"github.com/loadseq/loadseq/internal/process"
	"github.com/loadseq/loadseq/internal/resolve"
)

// runRoot resolves each project in order. The first failing project stops the
// command.
func runRoot(cmd *cobra.Command, app *App, flags *rootFlagValues, args []string) error {
	ctx := cmd.Context()
	plans, logger, err := app.prepare(cmd, flags, args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	if flags.watch {
		return app.watchPlans(ctx, plans, logger)
	}
	for _, plan := range plans {
		if _, err := app.execute(ctx, plan, logger); err != nil {
			return err
		}
	}
	return nil
}

// prepare loads the global config and merges it with project files and flags.
func (a *App) prepare(cmd *cobra.Command, flags *rootFlagValues, args []string) ([]runPlan, *log.Logger, error) {
	changed := cmd.Flags().Changed
	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		a.verbose = flags.verbose
		a.renderGuide(issue.ConfigLoadFailedId, config.ColorAuto, flags.verbose)
		return nil, nil, usageError(err)
	}
	a.verbose = verboseEnabled(cfg, flags, changed)
	logger := a.newLogger(a.verbose)
	if src := cfg.Source(); src != "" {
		logger.Debug("loaded config", "path", src)
	}

	plans, err := planRuns(cfg, flags, changed, args)
	if err != nil {
		a.renderGuide(issue.ConfigLoadFailedId, cfg.UI.Color, a.verbose)
		return nil, nil, err
	}
	return plans, logger, nil
}

// execute builds and runs the process of one plan, then prints its error lines
// and status line on stderr.
func (a *App) execute(ctx context.Context, plan runPlan, logger *log.Logger) (*process.Process, error) {
	bc := plan.build
	bc.Writer = a.stdout
	bc.Logger = logger
	if plan.project != "" {
		bc.Logger = logger.With("project", plan.project)
	}
	if plan.verbose {
		bc.UnitOutput = a.stderr
	}

	p, err := process.Build(bc)
	if err != nil {
		return nil, classify(err)
	}

	runErr := p.Run(ctx)
	if p.Result() != nil {
		con := a.console(plan.color)
		con.errors(p.Errors())
		if plan.stats {
			con.status(p)
		}
	}
	if runErr != nil {
		a.renderGuide(guideFor(runErr, p.Result()), plan.color, plan.verbose)
	}
	return p, classify(runErr)
}

// guideFor selects the issue guide explaining err, or 0 when there is none.
func guideFor(err error, res *resolve.Result) issue.Id {
	switch {
	case errors.Is(err, process.ErrUnresolvedUnits):
		if res != nil && res.Outcome == resolve.Exhausted {
			return issue.AttemptBudgetExhaustedId
		}
		return issue.UnresolvedUnitsId
	case errors.Is(err, discovery.ErrSearchPathNotFound):
		return issue.SearchPathNotFoundId
	case errors.Is(err, format.ErrTemplate):
		return issue.TemplateFailedId
	default:
		return 0
	}
}

// renderGuide prints the guide of id on stderr in verbose mode.
func (a *App) renderGuide(id issue.Id, mode config.ColorMode, verbose bool) {
	if !verbose {
		return
	}
	guide := issue.Get(id)
	if guide == nil {
		return
	}
	rendered, err := guide.Render(a.markdownStyle(mode, a.stderr))
	if err != nil {
		return
	}
	fmt.Fprint(a.stderr, rendered)
}
