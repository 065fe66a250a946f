// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the loadseq command line interface.
//
// The root command resolves the units of one or more projects and writes their
// load order manifest. Options are layered: the global config file, then each
// project file given as an argument, then flags set on the command line.
package cmd
