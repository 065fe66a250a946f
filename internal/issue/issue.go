// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	// UnresolvedUnitsId is raised when resolution leaves units inactive.
	UnresolvedUnitsId Id = iota + 1
	// AttemptBudgetExhaustedId is raised when resolution gives up.
	AttemptBudgetExhaustedId
	// SearchPathNotFoundId is raised when a base directory or search path is missing.
	SearchPathNotFoundId
	// ConfigLoadFailedId is raised when a config or project file cannot be loaded.
	ConfigLoadFailedId
	// TemplateFailedId is raised when the manifest template cannot be rendered.
	TemplateFailedId
)

type (
	// Id identifies an issue guide.
	Id int

	// MarkdownMsg is Markdown text rendered for the user.
	MarkdownMsg string

	// Issue is a Markdown guide explaining a failure and how to fix it.
	Issue struct {
		id    Id
		title string
		mdMsg MarkdownMsg
	}
)

var (
	render = glamour.Render

	unresolvedUnitsIssue = &Issue{
		id:    UnresolvedUnitsId,
		title: "Some units could not be loaded",
		mdMsg: `
# Some units could not be loaded

Every pass over the remaining units failed the same way, so no load order exists
for them with the units that were discovered.

## Things you can try
- Look at the first line of each error below: an *unresolved reference* names a
  function that no discovered unit defines.
- Check that the unit defining it is inside one of the search paths (` + "`--paths`" + `).
- Make sure it is not removed by an exclusion pattern (` + "`--ignores`" + `).
- Use ` + "`--require`" + ` to pre-load a bootstrap file that defines shared helpers.`,
	}

	attemptBudgetExhaustedIssue = &Issue{
		id:    AttemptBudgetExhaustedId,
		title: "Gave up resolving units",
		mdMsg: `
# Gave up resolving units

The number of activation attempts reached its cap before the units settled.
This usually means ` + "`max_attempts`" + ` is set lower than the default of n²+1.

## Things you can try
- Remove the ` + "`max_attempts`" + ` override from your configuration.
- Run with ` + "`--verbose`" + ` to see every attempt.`,
	}

	searchPathNotFoundIssue = &Issue{
		id:    SearchPathNotFoundId,
		title: "Search path not found",
		mdMsg: `
# Search path not found

A base directory or search path does not exist.

## Things you can try
- Relative search paths are resolved against ` + "`--basedir`" + `.
- Paths in a project file are resolved against the directory of that file.`,
	}

	configLoadFailedIssue = &Issue{
		id:    ConfigLoadFailedId,
		title: "Configuration could not be loaded",
		mdMsg: `
# Configuration could not be loaded

## Things you can try
- Run ` + "`loadseq config path`" + ` to see which file is read.
- Project files may be YAML, TOML or CUE; the extension selects the format.`,
	}

	templateFailedIssue = &Issue{
		id:    TemplateFailedId,
		title: "Manifest template failed",
		mdMsg: `
# Manifest template failed

## Things you can try
- Insert the directives with ` + "`{{ requirement \"  \" }}`" + `.
- The resolved units are also available as ` + "`.Units`" + `.`,
	}

	issues = map[Id]*Issue{
		unresolvedUnitsIssue.Id():        unresolvedUnitsIssue,
		attemptBudgetExhaustedIssue.Id(): attemptBudgetExhaustedIssue,
		searchPathNotFoundIssue.Id():     searchPathNotFoundIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		templateFailedIssue.Id():         templateFailedIssue,
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// Title returns a one-line summary.
func (i *Issue) Title() string {
	return i.title
}

// MarkdownMsg returns the raw Markdown guide.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the guide, followed by extra Markdown, with the given glamour
// style ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string, extra ...string) (string, error) {
	md := string(i.mdMsg)
	if len(extra) > 0 {
		md += "\n\n" + strings.Join(extra, "\n\n")
	}
	return render(md, stylePath)
}

// Values returns all issues ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the issue with the given id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
