// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/loadseq/loadseq/internal/unit"
)

var (
	// ErrUnresolved signals that a unit references a name that is not defined yet.
	// It is the recoverable activation failure.
	ErrUnresolved = errors.New("unresolved reference")

	// ErrSourceNotFound signals that the source file of a unit could not be located.
	ErrSourceNotFound = errors.New("source not found")
)

type (
	// Activator brings a unit into the execution environment. It returns nil on
	// success, an error wrapping ErrUnresolved when the unit depends on something
	// that is not active yet, or any other error for failures that retrying will
	// not fix.
	Activator interface {
		Activate(ctx context.Context, u unit.Unit) error
	}

	// ActivatorFunc adapts a function to the Activator interface.
	ActivatorFunc func(ctx context.Context, u unit.Unit) error

	// Locator is implemented by errors that know where in a source file they
	// occurred.
	Locator interface {
		Location() (file string, line int)
	}

	// ActivationError describes a failed activation attempt.
	ActivationError struct {
		// Unit is the identifier of the unit being activated.
		Unit unit.ID
		// Name is the unresolved name, if any.
		Name string
		// File is the source file the failure occurred in.
		File string
		// Line is the 1-based line of the failing statement, 0 when unknown.
		Line int
		// Err is the underlying cause.
		Err error
	}
)

// Activate calls f(ctx, u).
func (f ActivatorFunc) Activate(ctx context.Context, u unit.Unit) error {
	return f(ctx, u)
}

// Error implements the error interface.
func (e *ActivationError) Error() string {
	msg := "activate " + string(e.Unit)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ActivationError) Unwrap() error {
	return e.Err
}

// Location implements Locator.
func (e *ActivationError) Location() (string, int) {
	return e.File, e.Line
}

// IsRecoverable reports whether err is a "not ready yet" activation failure.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrUnresolved)
}

// NewUnresolvedError creates a recoverable activation error for an undefined name.
func NewUnresolvedError(id unit.ID, name, file string, line int) *ActivationError {
	return &ActivationError{
		Unit: id,
		Name: name,
		File: file,
		Line: line,
		Err:  fmt.Errorf("%w %q", ErrUnresolved, name),
	}
}

// formatLocation renders file:line, or just file when the line is unknown.
func formatLocation(file string, line int) string {
	if line <= 0 {
		return file
	}
	return file + ":" + strconv.Itoa(line)
}
