// SPDX-License-Identifier: MPL-2.0

package projectfile

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/loadseq/loadseq/internal/issue"
	"github.com/loadseq/loadseq/internal/testutil"
)

func TestLoad_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "loadseq.yml",
			content: `basedir: src
paths: [lib, vendor]
ignores: ["^test/"]
output: out/manifest.sh
template: manifest.tmpl
require: prelude
stats: false
env_files: [dev.env]
`,
		},
		{
			name: "toml",
			file: "loadseq.toml",
			content: `basedir = "src"
paths = ["lib", "vendor"]
ignores = ["^test/"]
output = "out/manifest.sh"
template = "manifest.tmpl"
require = "prelude"
stats = false
env_files = ["dev.env"]
`,
		},
		{
			name: "cue",
			file: "loadseq.cue",
			content: `basedir: "src"
paths: ["lib", "vendor"]
ignores: ["^test/"]
output: "out/manifest.sh"
template: "manifest.tmpl"
require: "prelude"
stats: false
env_files: ["dev.env"]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			testutil.MustMkdirAll(t, filepath.Join(dir, "src"), 0o755)
			testutil.MustWriteFile(t, filepath.Join(dir, "manifest.tmpl"), "{{ requirement }}\n")
			testutil.MustWriteFile(t, filepath.Join(dir, "dev.env"), "A=1\n")
			path := filepath.Join(dir, tt.file)
			testutil.MustWriteFile(t, path, tt.content)

			f, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if f.Path() != path || f.Dir() != dir {
				t.Errorf("Path() = %q, Dir() = %q", f.Path(), f.Dir())
			}
			if f.BaseDir != filepath.Join(dir, "src") {
				t.Errorf("BaseDir = %q", f.BaseDir)
			}
			if !slices.Equal(f.Paths, []string{"lib", "vendor"}) {
				t.Errorf("Paths = %v, want them left relative", f.Paths)
			}
			if !slices.Equal(f.Ignores, []string{"^test/"}) {
				t.Errorf("Ignores = %v", f.Ignores)
			}
			if f.Output != filepath.Join(dir, "out", "manifest.sh") {
				t.Errorf("Output = %q", f.Output)
			}
			if f.Template != filepath.Join(dir, "manifest.tmpl") {
				t.Errorf("Template = %q", f.Template)
			}
			if f.Require != "prelude" {
				t.Errorf("Require = %q", f.Require)
			}
			if f.Stats == nil || *f.Stats {
				t.Errorf("Stats = %v, want explicit false", f.Stats)
			}
			if !slices.Equal(f.EnvFiles, []string{filepath.Join(dir, "dev.env")}) {
				t.Errorf("EnvFiles = %v", f.EnvFiles)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	testutil.MustWriteFile(t, path, "")

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.BaseDir != dir {
		t.Errorf("BaseDir = %q, want the project file directory", f.BaseDir)
	}
	if f.Stats != nil || f.Output != "" || len(f.Paths) != 0 {
		t.Errorf("unexpected values %+v", f)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{name: "unknown extension", file: "p.json", content: "{}", want: "unsupported"},
		{name: "unknown yaml field", file: "p.yaml", content: "pathz: [lib]\n", want: "pathz"},
		{name: "unknown toml field", file: "p.toml", content: "pathz = [\"lib\"]\n", want: "pathz"},
		{name: "unknown cue field", file: "p.cue", content: "pathz: [\"lib\"]\n", want: "pathz"},
		{name: "bad regexp", file: "p.yaml", content: "ignores: [\"(\"]\n", want: "regular expression"},
		{name: "missing basedir", file: "p.yaml", content: "basedir: nowhere\n", want: "does not exist"},
		{name: "missing template", file: "p.toml", content: "template = \"t.tmpl\"\n", want: "does not exist"},
		{name: "empty path", file: "p.yaml", content: "paths: [\"\"]\n", want: "must not be empty"},
		{name: "wrong type", file: "p.yaml", content: "stats: maybe\n", want: "p.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), tt.file)
			testutil.MustWriteFile(t, path, tt.content)

			_, err := Load(path)
			if err == nil {
				t.Fatal("expected an error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Errorf("error %T is not actionable", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error")
	}
}

func TestFormatOf(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{
		"a.yaml": FormatYAML,
		"a.YML":  FormatYAML,
		"a.toml": FormatTOML,
		"a.cue":  FormatCUE,
	}
	for path, want := range tests {
		if got, err := FormatOf(path); err != nil || got != want {
			t.Errorf("FormatOf(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	if _, err := FormatOf("a.ini"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("FormatOf(a.ini) error = %v", err)
	}
}
