// SPDX-License-Identifier: MPL-2.0

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/loadseq/loadseq/internal/discovery"
	"github.com/loadseq/loadseq/internal/resolve"
	"github.com/loadseq/loadseq/internal/unit"
)

// ErrUnresolvedUnits is returned by Run when at least one unit could not be
// activated.
var ErrUnresolvedUnits = errors.New("unresolved units")

type (
	// Discoverer finds the units of a run and the load path they live on.
	Discoverer interface {
		Discover(ctx context.Context) (*discovery.Result, error)
		LoadPath() ([]string, error)
	}

	// Formatter renders a resolved sequence as a manifest.
	Formatter interface {
		Format(ids []unit.ID) (string, error)
	}

	// Bootstrapper is implemented by activators that can source an arbitrary file
	// before resolution.
	Bootstrapper interface {
		Bootstrap(ctx context.Context, name string) error
	}

	// Hook observes a finished run.
	Hook func(p *Process)

	// Process orchestrates one resolution run. It is not safe for concurrent use.
	Process struct {
		discoverer Discoverer
		activator  resolve.Activator
		formatter  Formatter

		output      string
		suffix      string
		writer      io.Writer
		bootstrap   string
		maxAttempts int
		logger      *log.Logger
		onSuccess   []Hook
		onFailure   []Hook

		units       *unit.Set
		diagnostics []discovery.Diagnostic
		result      *resolve.Result
		manifest    string
		stats       Stats
	}

	// Option configures a Process.
	Option func(*Process)
)

// WithOutput writes the manifest to the file at path. It takes precedence over
// WithWriter.
func WithOutput(path string) Option {
	return func(p *Process) {
		p.output = path
	}
}

// WithWriter writes the manifest to w when no output file is set. Defaults to
// os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(p *Process) {
		if w != nil {
			p.writer = w
		}
	}
}

// WithSuffix sets the unit suffix stripped from the output label.
func WithSuffix(suffix string) Option {
	return func(p *Process) {
		if suffix != "" {
			p.suffix = suffix
		}
	}
}

// WithBootstrap sources name before resolution. Unresolved references and a
// missing bootstrap file are tolerated.
func WithBootstrap(name string) Option {
	return func(p *Process) {
		p.bootstrap = name
	}
}

// WithMaxAttempts overrides the engine attempt budget.
func WithMaxAttempts(n int) Option {
	return func(p *Process) {
		p.maxAttempts = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Process) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithOnSuccess registers a hook fired after a successful run.
func WithOnSuccess(h Hook) Option {
	return func(p *Process) {
		p.OnSuccess(h)
	}
}

// WithOnFailure registers a hook fired after a run with unresolved units.
func WithOnFailure(h Hook) Option {
	return func(p *Process) {
		p.OnFailure(h)
	}
}

// New creates a Process from its collaborators.
func New(d Discoverer, a resolve.Activator, f Formatter, opts ...Option) *Process {
	p := &Process{
		discoverer: d,
		activator:  a,
		formatter:  f,
		suffix:     unit.DefaultSuffix,
		writer:     os.Stdout,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnSuccess registers a hook fired after a successful run.
func (p *Process) OnSuccess(h Hook) {
	if h != nil {
		p.onSuccess = append(p.onSuccess, h)
	}
}

// OnFailure registers a hook fired after a run with unresolved units.
func (p *Process) OnFailure(h Hook) {
	if h != nil {
		p.onFailure = append(p.onFailure, h)
	}
}

// Run discovers, resolves and, on full success, writes the manifest.
// It returns an error wrapping ErrUnresolvedUnits when some units failed; any
// other error means the run could not be carried out.
func (p *Process) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := p.logger.With("run", runID[:8])
	p.stats = Stats{RunID: runID, Output: p.output}

	found, err := p.discoverer.Discover(ctx)
	if err != nil {
		return err
	}
	p.units = found.Units
	p.diagnostics = found.Diagnostics
	for _, d := range found.Diagnostics {
		logger.Debug("discovery diagnostic", "code", d.Code, "path", d.Path, "message", d.Message)
	}

	if err := p.runBootstrap(ctx, logger); err != nil {
		return err
	}

	engine := resolve.NewEngine(p.activator,
		resolve.WithLogger(logger),
		resolve.WithMaxAttempts(p.maxAttempts),
	)
	p.result = engine.Resolve(ctx, p.units)
	p.stats.fill(p.result)

	logger.Info("resolution finished",
		"outcome", p.result.Outcome,
		"units", p.result.Total,
		"attempts", p.result.Attempts,
		"errors", len(p.result.Records),
	)

	if !p.result.Success() {
		p.fire(p.onFailure)
		if p.result.Outcome == resolve.Canceled {
			return fmt.Errorf("%w: %w", ErrUnresolvedUnits, ctx.Err())
		}
		return fmt.Errorf("%w: %d of %d units (%s)",
			ErrUnresolvedUnits, len(p.result.Unresolved), p.result.Total, p.result.Outcome.Describe())
	}

	manifest, err := p.formatter.Format(p.result.ResolvedIDs())
	if err != nil {
		return fmt.Errorf("format manifest: %w", err)
	}
	p.manifest = manifest

	if err := p.write(manifest); err != nil {
		return err
	}

	p.stats.Elapsed = time.Since(p.stats.started)
	p.fire(p.onSuccess)
	return nil
}

func (p *Process) runBootstrap(ctx context.Context, logger *log.Logger) error {
	if p.bootstrap == "" {
		return nil
	}
	b, ok := p.activator.(Bootstrapper)
	if !ok {
		logger.Warn("activator does not support bootstrap files", "bootstrap", p.bootstrap)
		return nil
	}
	err := b.Bootstrap(ctx, p.bootstrap)
	switch {
	case err == nil:
		return nil
	case resolve.IsRecoverable(err), errors.Is(err, resolve.ErrSourceNotFound):
		logger.Debug("bootstrap ignored", "bootstrap", p.bootstrap, "err", err)
		return nil
	default:
		return fmt.Errorf("bootstrap %s: %w", p.bootstrap, err)
	}
}

func (p *Process) fire(hooks []Hook) {
	for _, h := range hooks {
		h(p)
	}
}

func (p *Process) write(manifest string) error {
	if p.output == "" {
		if _, err := io.WriteString(p.writer, manifest); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		return nil
	}
	return writeFileAtomic(p.output, []byte(manifest))
}

// Success reports whether the last run resolved every unit.
func (p *Process) Success() bool {
	return p.result != nil && p.result.Success()
}

// Errors returns the failure records of the last run in unresolved order.
func (p *Process) Errors() []resolve.Record {
	if p.result == nil {
		return nil
	}
	return p.result.Errors()
}

// Resolved returns the identifiers activated by the last run, in order.
func (p *Process) Resolved() []unit.ID {
	if p.result == nil {
		return nil
	}
	return p.result.ResolvedIDs()
}

// Units returns the discovered unit set of the last run.
func (p *Process) Units() *unit.Set {
	return p.units
}

// Diagnostics returns the discovery diagnostics of the last run.
func (p *Process) Diagnostics() []discovery.Diagnostic {
	return slices.Clone(p.diagnostics)
}

// Result returns the raw engine result of the last run, or nil.
func (p *Process) Result() *resolve.Result {
	return p.result
}

// Manifest returns the rendered manifest of the last successful run.
func (p *Process) Manifest() string {
	return p.manifest
}

// Stats returns the statistics of the last run.
func (p *Process) Stats() Stats {
	return p.stats
}

// Output returns the configured manifest file, or "" for the writer.
func (p *Process) Output() string {
	return p.output
}

// OutputLabel names the manifest file for display: relative to the first load
// path entry containing it, with the unit suffix stripped. Files outside the
// load path are shown as configured.
func (p *Process) OutputLabel() string {
	if p.output == "" {
		return ""
	}
	abs, err := filepath.Abs(p.output)
	if err != nil {
		return p.output
	}
	dirs, err := p.discoverer.LoadPath()
	if err != nil {
		return p.output
	}
	for _, dir := range dirs {
		rel, err := filepath.Rel(dir, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return strings.TrimSuffix(filepath.ToSlash(rel), p.suffix)
	}
	return p.output
}

// LoadPath returns the load path of the discoverer.
func (p *Process) LoadPath() ([]string, error) {
	return p.discoverer.LoadPath()
}
