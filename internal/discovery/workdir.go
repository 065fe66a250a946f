// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"os"
)

// withWorkingDir runs fn with the process working directory set to dir and
// restores the previous directory afterwards, even when fn fails or panics.
// The working directory is process-wide state: callers must not run this
// concurrently.
func withWorkingDir(dir string, fn func() error) (err error) {
	prev, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("enter base directory: %w", err)
	}
	defer func() {
		if restoreErr := os.Chdir(prev); restoreErr != nil {
			err = errors.Join(err, fmt.Errorf("restore working directory: %w", restoreErr))
		}
	}()

	return fn()
}
