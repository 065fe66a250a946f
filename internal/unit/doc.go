// SPDX-License-Identifier: MPL-2.0

// Package unit defines the discoverable source units handled by loadseq and the
// ordered sets they are collected into.
//
// A Unit is immutable once discovered. Its canonical identifier is the path of the
// file relative to the search path it was found under, with the source suffix
// stripped and separators normalized to forward slashes. The identifier is what
// exclusion patterns match against, what resolution records are keyed by, and what
// manifest directives reference.
package unit
