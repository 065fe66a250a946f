// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/loadseq/loadseq/internal/process"
)

// newCheckCommand creates `loadseq check`, which resolves without writing any
// manifest and prints a Markdown report.
func newCheckCommand(app *App, flags *rootFlagValues) *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check [flags] [PROJECT_FILE...]",
		Short: "Resolve units and report the load order without writing a manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, app, flags, args)
		},
	}
	addRunFlags(checkCmd, flags)
	return checkCmd
}

func runCheck(cmd *cobra.Command, app *App, flags *rootFlagValues, args []string) error {
	plans, logger, err := app.prepare(cmd, flags, args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	for _, plan := range plans {
		plan.build.Output = ""
		plan.build.Writer = io.Discard
		p, runErr := app.check(cmd.Context(), plan, logger)
		if p != nil {
			if err := app.printReport(plan, p); err != nil {
				return classify(err)
			}
		}
		if runErr != nil {
			return runErr
		}
	}
	return nil
}

func (a *App) check(ctx context.Context, plan runPlan, logger *log.Logger) (*process.Process, error) {
	bc := plan.build
	bc.Logger = logger
	p, err := process.Build(bc)
	if err != nil {
		return nil, classify(err)
	}
	logger.Debug("checking", "project", plan.project)
	return p, classify(p.Run(ctx))
}

func (a *App) printReport(plan runPlan, p *process.Process) error {
	rendered, err := glamour.Render(checkReport(plan.project, p), a.markdownStyle(plan.color, a.stdout))
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err = io.WriteString(a.stdout, rendered)
	return err
}

// checkReport renders the outcome of a run as Markdown.
func checkReport(project string, p *process.Process) string {
	var sb strings.Builder
	title := "Load order"
	if project != "" {
		title += " of " + project
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	res := p.Result()
	if res == nil {
		sb.WriteString("Resolution did not run.\n")
		return sb.String()
	}
	st := p.Stats()
	fmt.Fprintf(&sb, "Outcome: **%s**. %d of %d units resolved in %d attempts (budget %d, %d passes).\n\n",
		res.Outcome, st.Resolved, st.Files, st.Attempts, st.Budget, st.Passes)

	if ids := p.Resolved(); len(ids) > 0 {
		sb.WriteString("## Resolved\n\n")
		for i, id := range ids {
			fmt.Fprintf(&sb, "%d. `%s`\n", i+1, id)
		}
		sb.WriteString("\n")
	}

	if records := p.Errors(); len(records) > 0 {
		sb.WriteString("## Unresolved\n\n")
		for _, r := range records {
			kind := "fatal"
			if r.Recoverable {
				kind = "unresolved reference"
			}
			fmt.Fprintf(&sb, "- `%s` (%s) at `%s`: %s\n", r.Unit, kind, r.Location, r.Message)
		}
		sb.WriteString("\n")
	}

	if diags := p.Diagnostics(); len(diags) > 0 {
		sb.WriteString("## Discovery\n\n")
		for _, d := range diags {
			fmt.Fprintf(&sb, "- %s `%s`: %s\n", d.Severity, d.Code, d.Message)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
