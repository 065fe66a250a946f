// SPDX-License-Identifier: MPL-2.0

package format

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"text/template"

	"github.com/loadseq/loadseq/internal/unit"
)

// DefaultDirective is the line emitted for each unit. The %s verb is replaced
// with the unit identifier.
const DefaultDirective = "require '%s'"

// ErrTemplate is wrapped by every template read, parse or render failure.
var ErrTemplate = errors.New("manifest template failed")

type (
	// Formatter renders manifests. Output is memoized per input sequence, so
	// repeated calls with the same units do not re-render. A Formatter is safe
	// for concurrent use.
	Formatter struct {
		directive    string
		templatePath string
		templateText string

		mu     sync.Mutex
		tmpl   *template.Template
		last   []unit.ID
		output string
	}

	// Option configures a Formatter.
	Option func(*Formatter)

	// TemplateData is the data passed to manifest templates.
	TemplateData struct {
		// Units are the resolved identifiers in activation order.
		Units []unit.ID
		// Directives are the rendered directive lines, one per unit.
		Directives []string
	}
)

// WithDirective sets the per-unit directive. Empty values keep the default.
func WithDirective(directive string) Option {
	return func(f *Formatter) {
		if directive != "" {
			f.directive = directive
		}
	}
}

// WithTemplateFile renders manifests through the text/template at path.
func WithTemplateFile(path string) Option {
	return func(f *Formatter) {
		f.templatePath = path
	}
}

// WithTemplate renders manifests through the given template source.
func WithTemplate(text string) Option {
	return func(f *Formatter) {
		f.templateText = text
	}
}

// New creates a Formatter.
func New(opts ...Option) *Formatter {
	f := &Formatter{directive: DefaultDirective}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Directive returns the configured per-unit directive.
func (f *Formatter) Directive() string {
	return f.directive
}

// TemplatePath returns the template file, or "" when none is set.
func (f *Formatter) TemplatePath() string {
	return f.templatePath
}

// Format renders ids. Without a template the result is one directive per line
// with a single trailing newline; an empty sequence renders as "\n".
func (f *Formatter) Format(ids []unit.ID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.last != nil && slices.Equal(f.last, ids) {
		return f.output, nil
	}

	directives := f.directives(ids)
	var (
		out string
		err error
	)
	if f.templatePath == "" && f.templateText == "" {
		out = strings.Join(directives, "\n") + "\n"
	} else {
		out, err = f.render(ids, directives)
		if err != nil {
			return "", err
		}
	}

	f.last = slices.Clone(ids)
	if f.last == nil {
		f.last = []unit.ID{}
	}
	f.output = out
	return out, nil
}

func (f *Formatter) directives(ids []unit.ID) []string {
	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = strings.ReplaceAll(f.directive, "%s", string(id))
	}
	return lines
}

func (f *Formatter) render(ids []unit.ID, directives []string) (string, error) {
	tmpl, err := f.parse()
	if err != nil {
		return "", err
	}

	// requirement is bound per call so it sees the current directives.
	tmpl = template.Must(tmpl.Clone()).Funcs(template.FuncMap{
		"requirement": requirement(directives),
	})

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, TemplateData{Units: ids, Directives: directives}); err != nil {
		return "", fmt.Errorf("%w: render %s: %w", ErrTemplate, f.templateName(), err)
	}
	return buf.String(), nil
}

func (f *Formatter) parse() (*template.Template, error) {
	if f.tmpl != nil {
		return f.tmpl, nil
	}

	text := f.templateText
	if f.templatePath != "" {
		data, err := os.ReadFile(f.templatePath)
		if err != nil {
			return nil, fmt.Errorf("%w: read: %w", ErrTemplate, err)
		}
		text = string(data)
	}

	tmpl, err := template.New(f.templateName()).
		Funcs(template.FuncMap{"requirement": requirement(nil)}).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrTemplate, f.templateName(), err)
	}
	f.tmpl = tmpl
	return tmpl, nil
}

func (f *Formatter) templateName() string {
	if f.templatePath != "" {
		return f.templatePath
	}
	return "manifest"
}

// requirement returns the template callback: the directives, each prefixed with
// the optional indent, joined by newlines.
func requirement(directives []string) func(indent ...string) string {
	return func(indent ...string) string {
		prefix := strings.Join(indent, "")
		lines := make([]string, len(directives))
		for i, d := range directives {
			lines[i] = prefix + d
		}
		return strings.Join(lines, "\n")
	}
}
