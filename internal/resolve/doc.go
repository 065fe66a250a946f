// SPDX-License-Identifier: MPL-2.0

// Package resolve determines a load-safe order for a set of units by trial
// activation.
//
// The Engine repeatedly walks the units that are not yet active, asking an
// Activator to bring each one into the execution environment. Units that activate
// are moved to the resolved list in the order they first succeed; units that fail
// stay in the working set and get a Record describing their first failure. The
// loop stops when every unit is active, when a full pass makes no progress, or
// when the attempt budget (n²+1 for n discovered units) is spent.
//
// How a unit is activated is entirely up to the Activator. Failures wrapping
// ErrUnresolved mean "not ready yet" and are expected to clear once the unit's
// dependencies are active; any other error is recorded the same way but is not
// expected to clear. Neither kind ever aborts a run.
package resolve
