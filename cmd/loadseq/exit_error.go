// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/fang"

	"github.com/loadseq/loadseq/internal/config"
	"github.com/loadseq/loadseq/internal/discovery"
	"github.com/loadseq/loadseq/internal/issue"
	"github.com/loadseq/loadseq/internal/process"
	"github.com/loadseq/loadseq/internal/projectfile"
)

const (
	// ExitFailure is the exit code of unexpected failures.
	ExitFailure = 1
	// ExitInvalid is the exit code of invalid options or configuration (EINVAL).
	ExitInvalid = 22
	// ExitUnresolved is the exit code of runs that left units unresolved (ECANCELED).
	ExitUnresolved = 125
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError marks err as an invalid option or configuration.
func usageError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitInvalid, Err: err}
}

// classify attaches the exit code matching err. Errors that already carry one
// are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	switch {
	case errors.Is(err, process.ErrUnresolvedUnits):
		return &ExitError{Code: ExitUnresolved, Err: err}
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, projectfile.ErrUnsupportedFormat),
		errors.Is(err, discovery.ErrSearchPathNotFound):
		return &ExitError{Code: ExitInvalid, Err: err}
	default:
		return &ExitError{Code: ExitFailure, Err: err}
	}
}

// exitCode returns the process exit status for err.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// formatErrorForDisplay formats an error for user display. Actionable errors
// carry their suggestions, and the cause chain in verbose mode.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// handleError prints the error that ended the command. Errors without
// suggestions are left to fang.
func (a *App) handleError(w io.Writer, styles fang.Styles, err error) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fang.DefaultErrorHandler(w, styles, err)
		return
	}
	if a.isTerminal(w) {
		_, _ = fmt.Fprintln(w, styles.ErrorHeader.String())
	}
	_, _ = fmt.Fprintln(w, formatErrorForDisplay(err, a.verbose))
}
