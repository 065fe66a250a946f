// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/loadseq/loadseq/internal/config"
)

type (
	// Dependencies are the collaborators of the CLI. Nil fields get defaults.
	Dependencies struct {
		// Config loads the global configuration.
		Config config.Provider
		// Stdout receives manifests written to standard output and command output.
		Stdout io.Writer
		// Stderr receives logs, error lines and the status line.
		Stderr io.Writer
		// IsTerminal reports whether w is an interactive terminal.
		IsTerminal func(w io.Writer) bool
	}

	// App is the composition root shared by all commands.
	App struct {
		Config     config.Provider
		stdout     io.Writer
		stderr     io.Writer
		isTerminal func(w io.Writer) bool
		// verbose is the effective verbosity of the running command.
		verbose bool
	}
)

// NewApp creates an App, filling in defaults for unset dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.IsTerminal == nil {
		deps.IsTerminal = fileIsTerminal
	}

	return &App{
		Config:     deps.Config,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		isTerminal: deps.IsTerminal,
	}, nil
}

func fileIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// colorEnabled reports whether output on stderr is coloured under mode.
func (a *App) colorEnabled(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return a.isTerminal(a.stderr)
	}
}

// console returns the styled writer for run output on stderr.
func (a *App) console(mode config.ColorMode) *console {
	r := lipgloss.NewRenderer(a.stderr)
	if a.colorEnabled(mode) {
		r.SetColorProfile(termenv.TrueColor)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &console{w: a.stderr, styles: newConsoleStyles(r)}
}

// markdownStyle is the glamour style for guides and reports.
func (a *App) markdownStyle(mode config.ColorMode, w io.Writer) string {
	if mode == config.ColorNever || (mode == config.ColorAuto && !a.isTerminal(w)) {
		return "notty"
	}
	return "dark"
}

// newLogger builds the CLI logger: debug output with verbose, warnings otherwise.
func (a *App) newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix:          "loadseq",
		ReportTimestamp: false,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}
