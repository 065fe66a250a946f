// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand creates the loadseq command tree.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "loadseq [flags] [PROJECT_FILE...]",
		Short: "Compute a load order for interdependent shell units",
		Long: TitleStyle.Render("loadseq") + SubtitleStyle.Render(" - load order for interdependent shell units") + `

loadseq finds the *.sh units under the search paths, sources them repeatedly
until every unit activates, and writes one directive per unit in the order they
succeeded. Units that never activate are reported with the line that failed.

Each PROJECT_FILE (YAML, TOML or CUE) describes one run; flags override it.

` + SubtitleStyle.Render("Examples:") + `
  loadseq --paths lib -o lib/loader.sh   Write the manifest of ./lib
  loadseq loadseq.yml                     Run the project described in loadseq.yml
  loadseq check loadseq.yml               Report the load order without writing it
  loadseq --watch loadseq.yml             Re-run whenever a unit changes`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, app, flags, args)
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/loadseq/config.cue)")

	addRunFlags(rootCmd, flags)
	rootCmd.Flags().BoolVar(&flags.watch, "watch", false, "re-run when units or project files change")

	rootCmd.AddCommand(newCheckCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// addRunFlags registers the flags that configure a run.
func addRunFlags(cmd *cobra.Command, flags *rootFlagValues) {
	fs := cmd.Flags()
	fs.StringVar(&flags.basedir, "basedir", ".", "directory search paths are relative to")
	fs.StringVarP(&flags.output, "output", "o", "", "manifest file (default is standard output)")
	fs.StringVarP(&flags.require, "require", "r", "", "file sourced before resolution")
	fs.StringSliceVar(&flags.ignores, "ignores", nil, "regular expressions of unit identifiers to exclude")
	fs.StringSliceVar(&flags.paths, "paths", []string{"."}, "search paths")
	fs.StringVarP(&flags.template, "template", "t", "", "text/template file for the manifest")
	fs.BoolVar(&flags.stats, "stats", true, "print the status line")
	fs.StringArrayVar(&flags.envFiles, "env-file", nil, "dotenv file loaded into the unit environment (repeatable)")
	fs.IntVar(&flags.maxAttempts, "max-attempts", 0, "cap on activation attempts (0 uses n²+1)")
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command and exits with the code of the failure.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	); err != nil {
		os.Exit(exitCode(err))
	}
}
