// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/loadseq/loadseq/internal/issue"
	"github.com/loadseq/loadseq/internal/testutil"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	testutil.MustWriteFile(t, path, content)
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults are invalid: %v", err)
	}
	if cfg.Suffix != ".sh" || cfg.Directive != "require '%s'" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if !cfg.UI.Stats || cfg.UI.Verbose || cfg.UI.Color != ColorAuto {
		t.Errorf("unexpected UI defaults %+v", cfg.UI)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source() != "" {
		t.Errorf("Source() = %q, want empty", cfg.Source())
	}
	if cfg.Suffix != ".sh" || cfg.ParseCacheSize != 512 || !cfg.UI.Stats {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
suffix: ".bash"
skip_index_files: true
directive: "source \"%s.bash\""
max_attempts: 50
ui: {
	stats: false
	color: "never"
}
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source() != path {
		t.Errorf("Source() = %q, want %q", cfg.Source(), path)
	}
	if cfg.Suffix != ".bash" || !cfg.SkipIndexFiles || cfg.MaxAttempts != 50 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Directive != `source "%s.bash"` {
		t.Errorf("Directive = %q", cfg.Directive)
	}
	if cfg.UI.Stats || cfg.UI.Color != ColorNever {
		t.Errorf("ui values not applied: %+v", cfg.UI)
	}
	if cfg.ParseCacheSize != 512 {
		t.Errorf("unset key lost its default: ParseCacheSize = %d", cfg.ParseCacheSize)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "suffix without dot", content: `suffix: "sh"`},
		{name: "directive without placeholder", content: `directive: "require"`},
		{name: "negative budget", content: `max_attempts: -1`},
		{name: "unknown color", content: `ui: color: "sometimes"`},
		{name: "unknown key", content: `paths: ["lib"]`},
		{name: "syntax", content: `suffix: `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("expected an error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Errorf("error %T is not actionable", err)
			}
		})
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.cue")
	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Resource != missing {
		t.Errorf("error = %v, want actionable error for %s", err, missing)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `max_attempts: 5`)
	t.Setenv("LOADSEQ_MAX_ATTEMPTS", "7")
	t.Setenv("LOADSEQ_UI_STATS", "false")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxAttempts != 7 {
		t.Errorf("MaxAttempts = %d, want 7 from the environment", cfg.MaxAttempts)
	}
	if cfg.UI.Stats {
		t.Error("UI.Stats = true, want false from the environment")
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("LOADSEQ_UI_COLOR", "purple")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidColorMode) {
		t.Errorf("error = %v, want ErrInvalidColorMode", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestCreateDefaultConfig_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	opts := LoadOptions{ConfigDirPath: dir}

	path, err := CreateDefaultConfig(opts)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if _, exists, _ := FilePath(opts); !exists {
		t.Fatalf("%s was not created", path)
	}

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	want := DefaultConfig()
	want.source = path
	if *cfg != *want {
		t.Errorf("round trip = %+v, want %+v", cfg, want)
	}

	// A second call keeps the existing file.
	writeConfig(t, dir, `suffix: ".zsh"`)
	if _, err := CreateDefaultConfig(opts); err != nil {
		t.Fatal(err)
	}
	cfg, err = NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Suffix != ".zsh" {
		t.Errorf("existing config was overwritten, Suffix = %q", cfg.Suffix)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup applies to Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg-test", AppName) {
		t.Errorf("ConfigDir() = %q", dir)
	}

	SetConfigDirOverride("/custom")
	t.Cleanup(Reset)
	if dir, _ := ConfigDir(); dir != "/custom" {
		t.Errorf("ConfigDir() with override = %q", dir)
	}
}

func TestColorMode_Validate(t *testing.T) {
	t.Parallel()

	for _, m := range []ColorMode{ColorAuto, ColorAlways, ColorNever} {
		if err := m.Validate(); err != nil {
			t.Errorf("%q: %v", m, err)
		}
	}
	err := ColorMode("rainbow").Validate()
	var cme *InvalidColorModeError
	if !errors.As(err, &cme) || cme.Value != "rainbow" {
		t.Errorf("Validate() = %v", err)
	}
}

func TestConfig_ValidateWrapsFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ParseCacheSize = 0
	cfg.UI.Color = "purple"

	err := cfg.Validate()
	var ice *InvalidConfigError
	if !errors.As(err, &ice) {
		t.Fatalf("Validate() = %v, want *InvalidConfigError", err)
	}
	if len(ice.FieldErrors) != 2 {
		t.Errorf("FieldErrors = %v, want 2 entries", ice.FieldErrors)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("error should match ErrInvalidConfig")
	}
	if !errors.Is(err, ErrInvalidColorMode) {
		t.Error("error should match ErrInvalidColorMode")
	}
	var cme *InvalidColorModeError
	if !errors.As(err, &cme) || cme.Value != "purple" {
		t.Errorf("errors.As(*InvalidColorModeError) = %v", cme)
	}
}
