// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"testing"

	"github.com/loadseq/loadseq/internal/issue"
	"github.com/loadseq/loadseq/internal/testutil"
	"github.com/loadseq/loadseq/internal/unit"
)

// Discovery switches the process working directory, so these tests do not run
// in parallel.

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		testutil.MustMkdirAll(t, filepath.Dir(path), 0o755)
		if err := os.WriteFile(path, []byte("true\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

func TestDiscover_LexicographicPerSearchPath(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base,
		"lib/zeta.sh",
		"lib/alpha.sh",
		"lib/net/http.sh",
		"lib/README.md",
		"vendor/aaa.sh",
	)

	res, err := New(Options{BaseDir: base, Paths: []string{"lib", "vendor"}}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	want := []unit.ID{"alpha", "net/http", "zeta", "aaa"}
	if got := res.Units.IDs(); !slices.Equal(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}

	u, _ := res.Units.Get("net/http")
	if u.Base() != "lib" {
		t.Errorf("Base() = %q, want lib", u.Base())
	}
	if u.Path() != filepath.Join(base, "lib", "net", "http.sh") {
		t.Errorf("Path() = %q", u.Path())
	}
}

func TestDiscover_Idempotent(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "b.sh", "a/c.sh", "a/b.sh", "c.sh")

	d := New(Options{BaseDir: base})
	first, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("first Discover() error: %v", err)
	}
	second, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("second Discover() error: %v", err)
	}
	if !slices.Equal(first.Units.IDs(), second.Units.IDs()) {
		t.Errorf("discovery is not idempotent: %v vs %v", first.Units.IDs(), second.Units.IDs())
	}
}

func TestDiscover_RestoresWorkingDirectory(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "a.sh")

	before, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(Options{BaseDir: base}).Discover(context.Background()); err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if _, err := New(Options{BaseDir: base, Paths: []string{"missing"}}).Discover(context.Background()); err == nil {
		t.Fatal("expected error for missing search path")
	}
	after, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Errorf("working directory changed from %q to %q", before, after)
	}
}

func TestDiscover_RelativeBaseDir(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "project/lib/a.sh")

	restore := testutil.MustChdir(t, base)
	defer restore()

	res, err := New(Options{BaseDir: "project", Paths: []string{"lib"}}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got := res.Units.IDs(); !slices.Equal(got, []unit.ID{"a"}) {
		t.Errorf("IDs = %v", got)
	}
}

func TestDiscover_Exclusions(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "core.sh", "core/util.sh", "test/core_test.sh", "extra.sh")

	res, err := New(Options{
		BaseDir: base,
		Ignores: []unit.Pattern{
			unit.Literal("core"),
			unit.Regexp(regexp.MustCompile("^test/")),
		},
	}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	want := []unit.ID{"core/util", "extra"}
	if got := res.Units.IDs(); !slices.Equal(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}
}

func TestDiscover_SkipsIndexAndHiddenFiles(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "__init__.sh", "pkg/__all__.sh", "pkg/a.sh", ".hidden/b.sh", "pkg/.c.sh", "__x.sh")

	res, err := New(Options{BaseDir: base, SkipIndexFiles: true}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	want := []unit.ID{"__x", "pkg/a"}
	if got := res.Units.IDs(); !slices.Equal(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}

	res, err = New(Options{BaseDir: base}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if !res.Units.Contains("__init__") {
		t.Error("index files should be kept unless SkipIndexFiles is set")
	}
}

func TestDiscover_ShadowedUnitsReported(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "lib/a.sh", "vendor/a.sh", "vendor/b.sh")

	res, err := New(Options{BaseDir: base, Paths: []string{"lib", "vendor"}}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got := res.Units.IDs(); !slices.Equal(got, []unit.ID{"a", "b"}) {
		t.Errorf("IDs = %v", got)
	}
	u, _ := res.Units.Get("a")
	if u.Base() != "lib" {
		t.Errorf("earlier search path should win, got base %q", u.Base())
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != CodeUnitShadowed {
		t.Errorf("expected one shadowing diagnostic, got %+v", res.Diagnostics)
	}
}

func TestDiscover_EmptySearchPathDiagnostic(t *testing.T) {
	base := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(base, "empty"), 0o755)

	res, err := New(Options{BaseDir: base, Paths: []string{"empty"}}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if res.Units.Len() != 0 {
		t.Errorf("expected no units, got %v", res.Units.IDs())
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != CodeSearchPathEmpty {
		t.Errorf("expected an empty search path diagnostic, got %+v", res.Diagnostics)
	}
}

func TestDiscover_MissingBaseDir(t *testing.T) {
	_, err := New(Options{BaseDir: filepath.Join(t.TempDir(), "nope")}).Discover(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *issue.ActionableError, got %T", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
	if !errors.Is(err, ErrSearchPathNotFound) {
		t.Errorf("expected ErrSearchPathNotFound in chain, got %v", err)
	}
}

func TestDiscover_CustomSuffix(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "a.bash", "b.sh")

	res, err := New(Options{BaseDir: base, Suffix: ".bash"}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got := res.Units.IDs(); !slices.Equal(got, []unit.ID{"a"}) {
		t.Errorf("IDs = %v", got)
	}
}

func TestLoadPath(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(base, "abs")

	dirs, err := New(Options{BaseDir: base, Paths: []string{"lib", "./lib", abs, "vendor"}}).LoadPath()
	if err != nil {
		t.Fatalf("LoadPath() error: %v", err)
	}
	want := []string{filepath.Join(base, "lib"), abs, filepath.Join(base, "vendor")}
	if !slices.Equal(dirs, want) {
		t.Errorf("LoadPath() = %v, want %v", dirs, want)
	}
}

func TestDiscover_SkipFiles(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "lib/a.sh", "lib/loader.sh")

	res, err := New(Options{
		BaseDir:   base,
		Paths:     []string{"lib"},
		SkipFiles: []string{filepath.Join(base, "lib", "loader.sh")},
	}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got := res.Units.IDs(); !slices.Equal(got, []unit.ID{"a"}) {
		t.Errorf("IDs = %v, want [a]", got)
	}
}

func TestDiscover_SearchPathOutsideBase(t *testing.T) {
	parent := t.TempDir()
	base := filepath.Join(parent, "project")
	shared := filepath.Join(parent, "shared")
	writeTree(t, parent, "project/a.sh", "shared/s.sh")

	res, err := New(Options{BaseDir: base, Paths: []string{".", shared}}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got := res.Units.IDs(); !slices.Equal(got, []unit.ID{"a", "s"}) {
		t.Errorf("IDs = %v, want [a s]", got)
	}
	s, _ := res.Units.Get("s")
	if s.Path() != filepath.Join(shared, "s.sh") {
		t.Errorf("Path() = %q", s.Path())
	}
}
