// SPDX-License-Identifier: MPL-2.0

// Package discovery finds unit files under the configured search paths.
//
// Search paths are resolved against a base directory. The scan runs with the
// process working directory switched to that base directory and restored
// afterwards, so relative search paths behave exactly as they would from a shell
// started there. Each search path is walked recursively for files ending in the
// unit suffix; results are sorted lexicographically per search path and search
// paths keep their configured order.
//
// File organization:
//   - discovery.go: Options, Discovery, Discover and LoadPath
//   - diagnostic.go: non-fatal findings returned to the caller
//   - workdir.go: scoped working-directory switching
package discovery
