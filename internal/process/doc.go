// SPDX-License-Identifier: MPL-2.0

// Package process runs one end-to-end load-sequence resolution: discovery,
// optional bootstrap, the resolution engine, then manifest formatting and
// output. The manifest is written only when every unit resolved.
package process
