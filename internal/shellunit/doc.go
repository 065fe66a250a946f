// SPDX-License-Identifier: MPL-2.0

// Package shellunit activates shell library units in an in-process shell
// (mvdan.cc/sh) shared by every activation of a run.
//
// Activating a unit sources its file: each top-level statement is run in the
// shared interpreter, so functions and variables defined by one unit are visible
// to the units activated after it. A command that is neither a builtin, a defined
// function nor an executable found on PATH is reported as an unresolved reference,
// which the resolution engine retries in a later pass.
package shellunit
