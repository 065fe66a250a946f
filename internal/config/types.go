// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ColorAuto colours output only when it goes to a terminal.
	ColorAuto ColorMode = "auto"
	// ColorAlways forces coloured output.
	ColorAlways ColorMode = "always"
	// ColorNever disables colour.
	ColorNever ColorMode = "never"
)

var (
	// ErrInvalidColorMode is returned when a ColorMode value is not recognized.
	ErrInvalidColorMode = errors.New("invalid color mode")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorMode selects when console output is coloured.
	ColorMode string

	// InvalidColorModeError is returned when a ColorMode value is not recognized.
	InvalidColorModeError struct {
		Value ColorMode
	}

	// InvalidConfigError collects field-level validation errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the global configuration.
	Config struct {
		// Suffix is the unit file suffix.
		Suffix string `json:"suffix" mapstructure:"suffix"`
		// SkipIndexFiles drops "__name__" index files during discovery.
		SkipIndexFiles bool `json:"skip_index_files" mapstructure:"skip_index_files"`
		// Directive is the per-unit manifest line.
		Directive string `json:"directive" mapstructure:"directive"`
		// MaxAttempts overrides the attempt budget when positive.
		MaxAttempts int `json:"max_attempts" mapstructure:"max_attempts"`
		// ParseCacheSize bounds the parsed unit cache.
		ParseCacheSize int `json:"parse_cache_size" mapstructure:"parse_cache_size"`
		// UI configures console output.
		UI UIConfig `json:"ui" mapstructure:"ui"`

		source string
	}

	// UIConfig configures console output.
	UIConfig struct {
		// Stats prints the status line after each run.
		Stats bool `json:"stats" mapstructure:"stats"`
		// Verbose enables debug logging and unit output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// Color selects when output is coloured.
		Color ColorMode `json:"color" mapstructure:"color"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Suffix:         ".sh",
		Directive:      "require '%s'",
		ParseCacheSize: 512,
		UI: UIConfig{
			Stats: true,
			Color: ColorAuto,
		},
	}
}

// Source returns the file the configuration was loaded from, or "" when only
// defaults and environment variables apply.
func (c *Config) Source() string {
	return c.source
}

// Validate checks constraints on decoded values, including values that came
// from environment variables and so bypassed the CUE schema.
func (c *Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.Suffix, ".") || len(c.Suffix) < 2 {
		errs = append(errs, fmt.Errorf("suffix %q must start with a dot", c.Suffix))
	}
	if !strings.Contains(c.Directive, "%s") {
		errs = append(errs, fmt.Errorf("directive %q must contain %%s", c.Directive))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("max_attempts must not be negative, got %d", c.MaxAttempts))
	}
	if c.ParseCacheSize < 1 {
		errs = append(errs, fmt.Errorf("parse_cache_size must be positive, got %d", c.ParseCacheSize))
	}
	if err := c.UI.Color.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so errors.Is
// matches both the sentinel and the cause of each field.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// String returns the string representation of the ColorMode.
func (m ColorMode) String() string { return string(m) }

// Validate returns an error if the ColorMode is not one of the defined modes.
func (m ColorMode) Validate() error {
	switch m {
	case ColorAuto, ColorAlways, ColorNever:
		return nil
	default:
		return &InvalidColorModeError{Value: m}
	}
}

// Error implements the error interface.
func (e *InvalidColorModeError) Error() string {
	return fmt.Sprintf("invalid color mode %q (valid: auto, always, never)", e.Value)
}

// Unwrap returns ErrInvalidColorMode for errors.Is() compatibility.
func (e *InvalidColorModeError) Unwrap() error { return ErrInvalidColorMode }
