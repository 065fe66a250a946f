// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output.
const (
	// ColorPrimary is purple, for titles and headers.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray, for secondary text.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue, for keys and paths.
	ColorHighlight = lipgloss.Color("#3B82F6")

	// ColorVerbose is light gray.
	ColorVerbose = lipgloss.Color("#9CA3AF")

	colorBlack = lipgloss.Color("#000000")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// WarningStyle is for warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// KeyStyle is for configuration keys and paths.
	KeyStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)

// consoleStyles are the styles of run output, bound to the renderer of the
// status stream so colour follows that stream rather than stdout.
type consoleStyles struct {
	success lipgloss.Style
	failure lipgloss.Style
	errLine lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
}

func newConsoleStyles(r *lipgloss.Renderer) consoleStyles {
	return consoleStyles{
		success: r.NewStyle().Foreground(colorBlack).Background(ColorSuccess),
		failure: r.NewStyle().Foreground(colorBlack).Background(ColorError),
		errLine: r.NewStyle().Foreground(ColorError),
		warning: r.NewStyle().Foreground(ColorWarning),
		muted:   r.NewStyle().Foreground(ColorMuted),
	}
}
