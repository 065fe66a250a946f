// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/loadseq/loadseq/internal/issue"
	"github.com/loadseq/loadseq/internal/unit"
)

// ErrSearchPathNotFound is wrapped by Discover when the base directory or a
// search path is missing.
var ErrSearchPathNotFound = errors.New("search path not found")

// indexFilePattern matches the base name (suffix stripped) of aggregate index
// files such as "__init__".
var indexFilePattern = regexp.MustCompile(`^__.+__$`)

type (
	// Options configures a Discovery.
	Options struct {
		// BaseDir is the directory search paths are resolved against.
		// Defaults to the current working directory.
		BaseDir string
		// Paths are the search paths, relative to BaseDir. Defaults to ".".
		Paths []string
		// Suffix is the unit file suffix. Defaults to unit.DefaultSuffix.
		Suffix string
		// SkipIndexFiles drops files named with the double-underscore convention.
		SkipIndexFiles bool
		// Ignores removes units whose identifier matches any pattern.
		Ignores []unit.Pattern
		// SkipFiles are absolute file paths that are never units, such as the
		// manifest a run writes into a search path.
		SkipFiles []string
		// Logger receives debug output. Defaults to a discard logger.
		Logger *log.Logger
	}

	// Discovery scans search paths for units.
	Discovery struct {
		opts Options
	}

	// Result bundles discovered units with non-fatal diagnostics.
	Result struct {
		Units       *unit.Set
		Diagnostics []Diagnostic
	}

	// scanned holds the files found under one search path.
	scanned struct {
		base  string
		files []string
	}
)

// New creates a Discovery, filling in defaults for unset options.
func New(opts Options) *Discovery {
	if opts.BaseDir == "" {
		opts.BaseDir = "."
	}
	if len(opts.Paths) == 0 {
		opts.Paths = []string{"."}
	}
	if opts.Suffix == "" {
		opts.Suffix = unit.DefaultSuffix
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Discovery{opts: opts}
}

// Options returns the effective options.
func (d *Discovery) Options() Options {
	opts := d.opts
	opts.Paths = slices.Clone(d.opts.Paths)
	opts.Ignores = slices.Clone(d.opts.Ignores)
	opts.SkipFiles = slices.Clone(d.opts.SkipFiles)
	return opts
}

// BaseDir returns the absolute base directory.
func (d *Discovery) BaseDir() (string, error) {
	abs, err := filepath.Abs(d.opts.BaseDir)
	if err != nil {
		return "", fmt.Errorf("resolve base directory: %w", err)
	}
	return abs, nil
}

// LoadPath returns the absolute search directories in configured order, without
// duplicates. This is the list activation consults to locate unit sources.
func (d *Discovery) LoadPath() ([]string, error) {
	base, err := d.BaseDir()
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, p := range d.opts.Paths {
		dir := p
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
		dir = filepath.Clean(dir)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

// Discover scans every search path and returns the resulting unit set with
// exclusions applied. A missing base directory or search path is an error.
func (d *Discovery) Discover(ctx context.Context) (*Result, error) {
	base, err := d.BaseDir()
	if err != nil {
		return nil, err
	}
	if err := requireDir(base, "base directory"); err != nil {
		return nil, err
	}

	var found []scanned
	err = withWorkingDir(base, func() error {
		var scanErr error
		found, scanErr = d.scanAll(ctx, base)
		return scanErr
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Units: unit.NewSet()}
	for _, s := range found {
		if len(s.files) == 0 {
			res.Diagnostics = append(res.Diagnostics, newDiagnostic(SeverityWarning, CodeSearchPathEmpty,
				"no units found in search path", filepath.Join(base, s.base)))
			continue
		}
		for _, file := range s.files {
			u := unit.New(base, s.base, file, d.opts.Suffix)
			if d.opts.SkipIndexFiles && isIndexFile(u) {
				continue
			}
			if d.skipped(u.Path()) {
				d.opts.Logger.Debug("skipping generated file", "path", u.Path())
				continue
			}
			if !res.Units.Add(u) {
				first, _ := res.Units.Get(u.ID())
				d.opts.Logger.Warn("unit shadowed by earlier search path", "unit", u.ID(), "path", u.Path(), "kept", first.Path())
				res.Diagnostics = append(res.Diagnostics, newDiagnostic(SeverityWarning, CodeUnitShadowed,
					fmt.Sprintf("%s is shadowed by %s", u.Path(), first.Path()), u.Path()))
			}
		}
	}

	total := res.Units.Len()
	res.Units = res.Units.Exclude(d.opts.Ignores...)
	d.opts.Logger.Debug("discovery complete", "base", base, "units", res.Units.Len(), "excluded", total-res.Units.Len())

	return res, nil
}

// scanAll walks each search path concurrently. Results keep the configured order.
func (d *Discovery) scanAll(ctx context.Context, base string) ([]scanned, error) {
	found := make([]scanned, len(d.opts.Paths))

	g, gCtx := errgroup.WithContext(ctx)
	for i, p := range d.opts.Paths {
		dir := p
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
		rel, err := filepath.Rel(base, dir)
		if err != nil {
			rel = dir
		}
		found[i].base = rel

		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if err := requireDir(dir, "search path"); err != nil {
				return err
			}
			files, err := d.scan(found[i].base)
			if err != nil {
				return err
			}
			found[i].files = files
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

// scan returns unit files under dir, relative to it, sorted lexicographically.
// A relative dir is taken from the working directory, which Discover sets to
// the base directory. Hidden files and directories are skipped.
func (d *Discovery) scan(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*"+d.opts.Suffix, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if isHidden(m) {
			continue
		}
		files = append(files, filepath.FromSlash(m))
	}
	slices.Sort(files)
	return files, nil
}

func (d *Discovery) skipped(path string) bool {
	for _, f := range d.opts.SkipFiles {
		if filepath.Clean(f) == path {
			return true
		}
	}
	return false
}

func requireDir(path, what string) error {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("%s is not a directory", path)
	}
	return issue.NewErrorContext().
		WithOperation("discover units").
		WithResource(path).
		WithSuggestion(fmt.Sprintf("Check that the %s exists and is readable", what)).
		WithSuggestion("Relative search paths are resolved against --basedir").
		Wrap(fmt.Errorf("%w: %w", ErrSearchPathNotFound, err)).
		BuildError()
}

func isHidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func isIndexFile(u unit.Unit) bool {
	return indexFilePattern.MatchString(u.Name())
}
