// SPDX-License-Identifier: MPL-2.0

package discovery

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"

	// CodeUnitShadowed is reported when a unit identifier was already provided by
	// an earlier search path.
	CodeUnitShadowed DiagnosticCode = "unit_shadowed"
	// CodeSearchPathEmpty is reported when a search path contains no units.
	CodeSearchPathEmpty DiagnosticCode = "search_path_empty"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// DiagnosticCode is a machine-readable diagnostic identifier.
	DiagnosticCode string

	// Diagnostic represents a structured discovery finding that is returned to
	// callers (rather than written to stderr) for consistent rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier.
		Code DiagnosticCode
		// Message is the human-readable description.
		Message string
		// Path is the file path associated with this diagnostic (optional).
		Path string
	}
)

func newDiagnostic(sev Severity, code DiagnosticCode, msg, path string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Message: msg, Path: path}
}
