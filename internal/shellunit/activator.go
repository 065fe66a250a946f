// SPDX-License-Identifier: MPL-2.0

package shellunit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/joho/godotenv"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/loadseq/loadseq/internal/resolve"
	"github.com/loadseq/loadseq/internal/unit"
)

const (
	// LoadPathEnv is the variable exporting the load path to units.
	LoadPathEnv = "LOADSEQ_PATH"

	// DefaultParseCacheSize bounds the number of parsed unit files kept between
	// passes.
	DefaultParseCacheSize = 512
)

type (
	// Activator sources units into one shared shell interpreter. It implements
	// resolve.Activator. An Activator is not safe for concurrent use.
	Activator struct {
		loadPath  []string
		suffix    string
		dir       string
		env       []string
		envFiles  []string
		stdout    io.Writer
		stderr    io.Writer
		logger    *log.Logger
		cacheSize int

		runner *interp.Runner
		parsed *lru.Cache[string, *syntax.File]
		active map[string]bool
		cur    position
	}

	// Option configures an Activator.
	Option func(*Activator)

	// position is the statement currently being run, for error reporting from
	// inside the exec handler.
	position struct {
		id   unit.ID
		file string
		line int
	}
)

// WithLoadPath sets the ordered directories consulted to locate unit sources.
func WithLoadPath(dirs ...string) Option {
	return func(a *Activator) {
		a.loadPath = slices.Clone(dirs)
	}
}

// WithSuffix sets the unit file suffix. Defaults to unit.DefaultSuffix.
func WithSuffix(suffix string) Option {
	return func(a *Activator) {
		if suffix != "" {
			a.suffix = suffix
		}
	}
}

// WithDir sets the interpreter working directory.
func WithDir(dir string) Option {
	return func(a *Activator) {
		a.dir = dir
	}
}

// WithEnv adds KEY=VALUE pairs to the interpreter environment. Later values win.
func WithEnv(pairs ...string) Option {
	return func(a *Activator) {
		a.env = append(a.env, pairs...)
	}
}

// WithEnvFiles loads dotenv files into the interpreter environment, after the
// process environment and before WithEnv pairs.
func WithEnvFiles(paths ...string) Option {
	return func(a *Activator) {
		a.envFiles = append(a.envFiles, paths...)
	}
}

// WithOutput sets where units write. Defaults to io.Discard for both.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *Activator) {
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Activator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithParseCacheSize bounds the parsed-file cache. Values <= 0 keep the default.
func WithParseCacheSize(n int) Option {
	return func(a *Activator) {
		if n > 0 {
			a.cacheSize = n
		}
	}
}

// New creates an Activator with a fresh interpreter.
func New(opts ...Option) (*Activator, error) {
	a := &Activator{
		suffix:    unit.DefaultSuffix,
		stdout:    io.Discard,
		stderr:    io.Discard,
		logger:    log.New(io.Discard),
		cacheSize: DefaultParseCacheSize,
		active:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		a.dir = wd
	}

	env, err := a.environ()
	if err != nil {
		return nil, err
	}

	parsed, err := lru.New[string, *syntax.File](a.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create parse cache: %w", err)
	}
	a.parsed = parsed

	runner, err := interp.New(
		interp.Dir(a.dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, a.stdout, a.stderr),
		interp.ExecHandlers(a.execHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("create interpreter: %w", err)
	}
	a.runner = runner

	return a, nil
}

// LoadPath returns the directories consulted to locate unit sources.
func (a *Activator) LoadPath() []string {
	return slices.Clone(a.loadPath)
}

// Activate sources the unit. Already active units succeed immediately.
func (a *Activator) Activate(ctx context.Context, u unit.Unit) error {
	path, ok := a.locate(string(u.ID()) + a.suffix)
	if !ok {
		path = u.Path()
	}
	return a.source(ctx, u.ID(), path)
}

// Bootstrap sources an arbitrary file before resolution. name may be absolute,
// relative to the load path (with or without the suffix), or relative to the
// interpreter directory.
func (a *Activator) Bootstrap(ctx context.Context, name string) error {
	id := unit.ID(strings.TrimSuffix(filepath.ToSlash(name), a.suffix))

	if filepath.IsAbs(name) {
		return a.source(ctx, id, name)
	}
	for _, candidate := range []string{name, name + a.suffix} {
		if path, ok := a.locate(candidate); ok {
			return a.source(ctx, id, path)
		}
	}
	return a.source(ctx, id, filepath.Join(a.dir, name))
}

// Active reports whether the file at path has been activated.
func (a *Activator) Active(path string) bool {
	return a.active[filepath.Clean(path)]
}

// locate finds rel in the first load path directory containing it.
func (a *Activator) locate(rel string) (string, bool) {
	for _, dir := range a.loadPath {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (a *Activator) source(ctx context.Context, id unit.ID, path string) error {
	path = filepath.Clean(path)
	if a.active[path] {
		return nil
	}

	prog, err := a.parse(id, path)
	if err != nil {
		return err
	}

	for _, stmt := range prog.Stmts {
		a.cur = position{id: id, file: path, line: int(stmt.Pos().Line())}
		if err := a.run(ctx, stmt); err != nil {
			return err
		}
	}

	a.active[path] = true
	a.logger.Debug("sourced", "unit", id, "file", path, "statements", len(prog.Stmts))
	return nil
}

// run executes one top-level statement. Non-zero statuses of ordinary
// statements are not failures; an explicit exit with a non-zero status is.
func (a *Activator) run(ctx context.Context, stmt *syntax.Stmt) error {
	err := a.runner.Run(ctx, stmt)
	if err == nil {
		return nil
	}

	var ae *resolve.ActivationError
	if errors.As(err, &ae) {
		return ae
	}

	var status interp.ExitStatus
	if errors.As(err, &status) {
		if !a.runner.Exited() {
			return nil
		}
		err = fmt.Errorf("unit exited with status %d", uint8(status))
	}

	return &resolve.ActivationError{Unit: a.cur.id, File: a.cur.file, Line: a.cur.line, Err: err}
}

func (a *Activator) parse(id unit.ID, path string) (*syntax.File, error) {
	if prog, ok := a.parsed.Get(path); ok {
		return prog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", resolve.ErrSourceNotFound, path)
		}
		return nil, &resolve.ActivationError{Unit: id, File: path, Err: err}
	}

	prog, err := syntax.NewParser().Parse(bytes.NewReader(data), path)
	if err != nil {
		line := 0
		var perr syntax.ParseError
		if errors.As(err, &perr) {
			line = int(perr.Pos.Line())
		}
		return nil, &resolve.ActivationError{Unit: id, File: path, Line: line, Err: err}
	}

	a.parsed.Add(path, prog)
	return prog, nil
}

// execHandler reports commands that cannot be found as unresolved references
// instead of letting the interpreter print "command not found".
func (a *Activator) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) == 0 {
			return next(ctx, args)
		}
		hc := interp.HandlerCtx(ctx)
		if _, err := interp.LookPathDir(hc.Dir, hc.Env, args[0]); err != nil {
			return resolve.NewUnresolvedError(a.cur.id, args[0], a.cur.file, a.cur.line)
		}
		return next(ctx, args)
	}
}

// environ builds the interpreter environment: process environment, env files,
// explicit pairs, then the load path variable.
func (a *Activator) environ() ([]string, error) {
	env := os.Environ()

	if len(a.envFiles) > 0 {
		vars, err := godotenv.Read(a.envFiles...)
		if err != nil {
			return nil, fmt.Errorf("read env files: %w", err)
		}
		keys := make([]string, 0, len(vars))
		for k := range vars {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			env = append(env, k+"="+vars[k])
		}
	}

	env = append(env, a.env...)
	env = append(env, LoadPathEnv+"="+strings.Join(a.loadPath, string(os.PathListSeparator)))
	return env, nil
}
