// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/loadseq/loadseq/internal/config"
	"github.com/loadseq/loadseq/internal/issue"
)

// newConfigCommand creates the `loadseq config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage loadseq configuration",
		Long: `Manage loadseq configuration.

Configuration is stored in:
  - Linux: ~/.config/loadseq/config.cue
  - macOS: ~/Library/Application Support/loadseq/config.cue
  - Windows: %APPDATA%\loadseq\config.cue

Every key can be overridden with a LOADSEQ_ environment variable, for example
LOADSEQ_MAX_ATTEMPTS=50 or LOADSEQ_UI_COLOR=never.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, loadOptions(flags))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app.stdout, loadOptions(flags))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig(loadOptions(flags))
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), loadOptions(flags))
			if err != nil {
				return usageError(err)
			}
			_, err = io.WriteString(app.stdout, config.GenerateCUE(cfg))
			return err
		},
	})

	return cfgCmd
}

func loadOptions(flags *rootFlagValues) config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: flags.configPath}
}

func showConfig(ctx context.Context, app *App, opts config.LoadOptions) error {
	cfg, err := app.Config.Load(ctx, opts)
	if err != nil {
		if rendered, renderErr := issue.Get(issue.ConfigLoadFailedId).Render(app.markdownStyle(config.ColorAuto, app.stderr)); renderErr == nil {
			fmt.Fprint(app.stderr, rendered)
		}
		return usageError(err)
	}

	w := app.stdout
	keyStyle := KeyStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if src := cfg.Source(); src != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), src)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	maxAttempts := strconv.Itoa(cfg.MaxAttempts)
	if cfg.MaxAttempts == 0 {
		maxAttempts += " (n²+1)"
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("suffix"), valueStyle.Render(cfg.Suffix))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("skip_index_files"), valueStyle.Render(strconv.FormatBool(cfg.SkipIndexFiles)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("directive"), valueStyle.Render(cfg.Directive))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("max_attempts"), valueStyle.Render(maxAttempts))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("parse_cache_size"), valueStyle.Render(strconv.Itoa(cfg.ParseCacheSize)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  stats: %s\n", valueStyle.Render(strconv.FormatBool(cfg.UI.Stats)))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(strconv.FormatBool(cfg.UI.Verbose)))
	fmt.Fprintf(w, "  color: %s\n", valueStyle.Render(cfg.UI.Color.String()))

	return nil
}

func showConfigPath(w io.Writer, opts config.LoadOptions) error {
	path, exists, err := config.FilePath(opts)
	if err != nil {
		return err
	}
	state := "absent"
	if exists {
		state = "present"
	}
	fmt.Fprintf(w, "Config file: %s (%s)\n", path, state)
	return nil
}
