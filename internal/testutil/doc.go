// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Helpers cover working-directory switching (MustChdir), environment variables
// (MustSetenv) and building unit trees on disk (MustWriteFile, WriteUnits).
package testutil
