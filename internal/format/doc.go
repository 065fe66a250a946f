// SPDX-License-Identifier: MPL-2.0

// Package format renders a resolved unit sequence as a load manifest.
package format
