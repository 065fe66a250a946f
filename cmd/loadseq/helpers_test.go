// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/loadseq/loadseq/internal/config"
)

// staticConfig is a config.Provider returning a fixed configuration.
type staticConfig struct {
	cfg *config.Config
	err error
}

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	cfg := *s.cfg
	return &cfg, nil
}

func plainConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.UI.Color = config.ColorNever
	return cfg
}

type cliResult struct {
	stdout string
	stderr string
	err    error
	app    *App
}

// runCLI executes the command tree with args and captured output.
func runCLI(t *testing.T, provider config.Provider, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app, err := NewApp(Dependencies{
		Config:     provider,
		Stdout:     &stdout,
		Stderr:     &stderr,
		IsTerminal: func(io.Writer) bool { return false },
	})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}

	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SilenceErrors = true
	root.SilenceUsage = true

	err = root.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err, app: app}
}

// changedSet returns an isChanged reporting the given flag names.
func changedSet(names ...string) isChanged {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}
