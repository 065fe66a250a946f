// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for PGO profile generation.
// They cover the hot paths of a loadseq run:
//   - project file decoding (YAML, TOML and CUE)
//   - unit discovery over a directory tree
//   - the resolution loop on worst-case orderings
//   - shell activation and manifest formatting end to end
//
// To generate a profile, run:
//
//	go test -run=^$ -bench=. -cpuprofile=default.pgo ./internal/benchmark
package benchmark
