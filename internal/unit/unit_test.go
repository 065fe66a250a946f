// SPDX-License-Identifier: MPL-2.0

package unit

import (
	"path/filepath"
	"regexp"
	"slices"
	"testing"
)

func TestNew_StripsSuffixFromID(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/srv/project")
	u := New(root, "lib", filepath.FromSlash("net/http.sh"), DefaultSuffix)

	if u.ID() != "net/http" {
		t.Errorf("ID() = %q, want %q", u.ID(), "net/http")
	}
	if u.RelPath() != "net/http.sh" {
		t.Errorf("RelPath() = %q, want %q", u.RelPath(), "net/http.sh")
	}
	if want := filepath.Join(root, "lib", "net", "http.sh"); u.Path() != want {
		t.Errorf("Path() = %q, want %q", u.Path(), want)
	}
	if u.Name() != "http" {
		t.Errorf("Name() = %q, want %q", u.Name(), "http")
	}
	if u.String() != "net/http" {
		t.Errorf("String() = %q", u.String())
	}
}

func TestNew_KeepsForeignSuffix(t *testing.T) {
	t.Parallel()

	u := New("/tmp", ".", "tool.bash", DefaultSuffix)
	if u.ID() != "tool.bash" {
		t.Errorf("ID() = %q, want %q", u.ID(), "tool.bash")
	}
}

func TestLiteral_IsAnchored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   ID
		want bool
	}{
		{"core", true},
		{"core/util", false},
		{"hardcore", false},
		{"coreX", false},
	}

	p := Literal("core")
	for _, tt := range tests {
		if got := p.Match(tt.id); got != tt.want {
			t.Errorf("Literal(core).Match(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestLiteral_QuotesMeta(t *testing.T) {
	t.Parallel()

	p := Literal("a.b")
	if p.Match("axb") {
		t.Error("literal pattern must not treat '.' as a wildcard")
	}
	if !p.Match("a.b") {
		t.Error("literal pattern must match itself")
	}
}

func TestCompilePatterns(t *testing.T) {
	t.Parallel()

	patterns, err := CompilePatterns([]string{"^test/", "_spec$"})
	if err != nil {
		t.Fatalf("CompilePatterns() error: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(patterns))
	}
	if !patterns[0].Match("test/foo") || patterns[0].Match("lib/test/foo") {
		t.Error("first pattern matched unexpectedly")
	}
	if !patterns[1].Match("lib/foo_spec") {
		t.Error("second pattern should match lib/foo_spec")
	}

	if _, err := CompilePatterns([]string{"("}); err == nil {
		t.Error("expected error for invalid expression")
	}
}

func TestSet_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	a := New("/r", "lib", "a.sh", DefaultSuffix)
	shadow := New("/r", "vendor", "a.sh", DefaultSuffix)
	b := New("/r", "lib", "b.sh", DefaultSuffix)

	s := NewSet(a, shadow, b)
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	got, ok := s.Get("a")
	if !ok || got.Base() != "lib" {
		t.Errorf("first discovered unit should win, got %+v", got)
	}
	if s.Add(shadow) {
		t.Error("Add() should reject a duplicate identifier")
	}
}

func TestSet_ExcludeDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	s := NewSet(
		New("/r", ".", "a.sh", DefaultSuffix),
		New("/r", ".", "test/a.sh", DefaultSuffix),
		New("/r", ".", "b.sh", DefaultSuffix),
	)

	filtered := s.Exclude(Regexp(regexp.MustCompile("^test/")), Literal("b"))

	if want := []ID{"a"}; !slices.Equal(filtered.IDs(), want) {
		t.Errorf("filtered IDs = %v, want %v", filtered.IDs(), want)
	}
	if s.Len() != 3 {
		t.Errorf("receiver was mutated: Len() = %d", s.Len())
	}
	if filtered.Contains("test/a") {
		t.Error("excluded unit is still present")
	}
}

func TestSet_NilSafe(t *testing.T) {
	t.Parallel()

	var s *Set
	if s.Len() != 0 || s.Units() != nil || s.IDs() != nil || s.Contains("x") {
		t.Error("nil set should behave as empty")
	}
	if s.Exclude(Literal("x")).Len() != 0 {
		t.Error("Exclude on nil set should return an empty set")
	}
}
