// SPDX-License-Identifier: MPL-2.0

// Package projectfile loads per-project run settings from YAML, TOML or CUE
// files given on the command line. Relative paths inside a project file are
// resolved against the directory containing it.
package projectfile
