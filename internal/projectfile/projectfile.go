// SPDX-License-Identifier: MPL-2.0

package projectfile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/loadseq/loadseq/internal/cueutil"
	"github.com/loadseq/loadseq/internal/issue"
)

const (
	// FormatYAML is a .yaml or .yml project file.
	FormatYAML Format = "yaml"
	// FormatTOML is a .toml project file.
	FormatTOML Format = "toml"
	// FormatCUE is a .cue project file.
	FormatCUE Format = "cue"
)

// ErrUnsupportedFormat is returned for project files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported project file format")

//go:embed project_schema.cue
var projectSchema []byte

var validate = newValidator()

type (
	// Format is a project file encoding.
	Format string

	// File is a decoded project file.
	File struct {
		// BaseDir is the directory search paths are relative to. Defaults to the
		// project file directory.
		BaseDir string `yaml:"basedir" toml:"basedir" json:"basedir,omitempty" validate:"omitempty,dir"`
		// Paths are the search paths, relative to BaseDir.
		Paths []string `yaml:"paths" toml:"paths" json:"paths,omitempty" validate:"dive,required"`
		// Ignores are regular expressions matched against unit identifiers.
		Ignores []string `yaml:"ignores" toml:"ignores" json:"ignores,omitempty" validate:"dive,required,regexp"`
		// Output is the manifest file. Empty writes to standard output.
		Output string `yaml:"output" toml:"output" json:"output,omitempty"`
		// Template is a text/template file for the manifest.
		Template string `yaml:"template" toml:"template" json:"template,omitempty" validate:"omitempty,file"`
		// Require names a file sourced before resolution.
		Require string `yaml:"require" toml:"require" json:"require,omitempty"`
		// Stats toggles the status line when set.
		Stats *bool `yaml:"stats" toml:"stats" json:"stats,omitempty"`
		// EnvFiles are dotenv files loaded into the unit environment.
		EnvFiles []string `yaml:"env_files" toml:"env_files" json:"env_files,omitempty" validate:"dive,required,file"`

		path string
	}
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	return v
}

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads, decodes, resolves and validates the project file at path.
func Load(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve project file path: %w", err)
	}

	format, err := FormatOf(abs)
	if err != nil {
		return nil, loadError(path, err, "Use a .yaml, .yml, .toml or .cue project file")
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, loadError(path, err, "Check that the project file exists and is readable")
	}

	f, err := Decode(data, format, abs)
	if err != nil {
		return nil, loadError(path, err, "Check the project file syntax and field names")
	}
	f.path = abs
	f.resolve(filepath.Dir(abs))

	if err := f.Validate(); err != nil {
		return nil, loadError(path, err, "Relative paths are resolved against the project file directory")
	}
	return f, nil
}

// Decode parses data in the given format. name is used in error messages.
// Paths are left as written.
func Decode(data []byte, format Format, name string) (*File, error) {
	var f File
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, fmt.Errorf("%s: %s", name, strict.String())
			}
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	case FormatCUE:
		decoded, err := cueutil.ParseAndDecode[File](projectSchema, data, "#Project",
			cueutil.WithFilename(name))
		if err != nil {
			return nil, err
		}
		f = *decoded
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &f, nil
}

// Validate checks field constraints.
func (f *File) Validate() error {
	err := validate.Struct(f)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fieldMessage(fe)
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Path returns the absolute path the file was loaded from.
func (f *File) Path() string {
	return f.path
}

// Dir returns the directory of the project file.
func (f *File) Dir() string {
	if f.path == "" {
		return ""
	}
	return filepath.Dir(f.path)
}

// resolve makes BaseDir, Output, Template and EnvFiles absolute against dir.
// Search paths stay relative to BaseDir.
func (f *File) resolve(dir string) {
	if f.BaseDir == "" {
		f.BaseDir = dir
	} else {
		f.BaseDir = absAgainst(dir, f.BaseDir)
	}
	if f.Output != "" {
		f.Output = absAgainst(dir, f.Output)
	}
	if f.Template != "" {
		f.Template = absAgainst(dir, f.Template)
	}
	for i, p := range f.EnvFiles {
		f.EnvFiles[i] = absAgainst(dir, p)
	}
}

func absAgainst(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "dir":
		return fmt.Sprintf("%s: directory %q does not exist", field, fe.Value())
	case "file":
		return fmt.Sprintf("%s: file %q does not exist", field, fe.Value())
	case "regexp":
		return fmt.Sprintf("%s: %q is not a valid regular expression", field, fe.Value())
	case "required":
		return fmt.Sprintf("%s: must not be empty", field)
	default:
		return fmt.Sprintf("%s: failed %q validation", field, fe.Tag())
	}
}

func loadError(path string, err error, suggestion string) error {
	return issue.NewErrorContext().
		WithOperation("load project file").
		WithResource(path).
		WithSuggestion(suggestion).
		Wrap(err).
		BuildError()
}
