// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions for fixing the problem. Issue guides are longer Markdown documents
// rendered with glamour for the failure modes users hit most often.
package issue
