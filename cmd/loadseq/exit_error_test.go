// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/fang"

	"github.com/loadseq/loadseq/internal/config"
	"github.com/loadseq/loadseq/internal/discovery"
	"github.com/loadseq/loadseq/internal/issue"
	"github.com/loadseq/loadseq/internal/process"
	"github.com/loadseq/loadseq/internal/projectfile"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "unresolved", err: fmt.Errorf("%w: 1 of 2 units", process.ErrUnresolvedUnits), want: ExitUnresolved},
		{name: "invalid config", err: &config.InvalidConfigError{}, want: ExitInvalid},
		{name: "project format", err: fmt.Errorf("load: %w", projectfile.ErrUnsupportedFormat), want: ExitInvalid},
		{name: "search path", err: fmt.Errorf("%w: %w", discovery.ErrSearchPathNotFound, os.ErrNotExist), want: ExitInvalid},
		{name: "other", err: errors.New("disk full"), want: ExitFailure},
		{name: "already classified", err: usageError(process.ErrUnresolvedUnits), want: ExitInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := classify(tt.err)
			if got := exitCode(err); got != tt.want {
				t.Errorf("exitCode(classify(%v)) = %d, want %d", tt.err, got, tt.want)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Errorf("classified error lost its cause: %v", err)
			}
		})
	}
}

func TestExitError_Error(t *testing.T) {
	t.Parallel()

	if got := (&ExitError{Code: 3}).Error(); got != "exit status 3" {
		t.Errorf("Error() = %q", got)
	}
	cause := errors.New("boom")
	err := &ExitError{Code: 1, Err: cause}
	if err.Error() != "boom" || !errors.Is(err, cause) {
		t.Errorf("ExitError should print and unwrap its cause: %v", err)
	}
	if exitCode(errors.New("plain")) != ExitFailure {
		t.Error("plain errors should exit with ExitFailure")
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	ae := issue.NewErrorContext().
		WithOperation("load project file").
		WithResource("loadseq.yml").
		WithSuggestion("Use a .yml, .toml or .cue file").
		Wrap(projectfile.ErrUnsupportedFormat).
		BuildError()
	wrapped := usageError(ae)

	got := formatErrorForDisplay(wrapped, false)
	for _, want := range []string{"failed to load project file: loadseq.yml", "• Use a .yml, .toml or .cue file"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatErrorForDisplay() = %q, want it to contain %q", got, want)
		}
	}
	if strings.Contains(got, "Error chain:") {
		t.Errorf("non-verbose output should not show the error chain: %q", got)
	}
	if got := formatErrorForDisplay(wrapped, true); !strings.Contains(got, "Error chain:") {
		t.Errorf("verbose output should show the error chain: %q", got)
	}
	if got := formatErrorForDisplay(errors.New("plain"), true); got != "plain" {
		t.Errorf("formatErrorForDisplay(plain) = %q", got)
	}
}

// Discovery changes the working directory, so this test does not run in parallel.
func TestApp_HandleErrorPrintsSuggestions(t *testing.T) {
	res := runCLI(t, staticConfig{cfg: plainConfig()}, "--basedir", t.TempDir(), "--paths", "missing")
	if exitCode(res.err) != ExitInvalid {
		t.Fatalf("exit code = %d, want %d (err: %v)", exitCode(res.err), ExitInvalid, res.err)
	}

	var buf bytes.Buffer
	res.app.handleError(&buf, fang.Styles{}, res.err)
	out := buf.String()
	for _, want := range []string{"failed to discover units", "Check that the search path exists and is readable"} {
		if !strings.Contains(out, want) {
			t.Errorf("handleError() output = %q, want it to contain %q", out, want)
		}
	}
}
