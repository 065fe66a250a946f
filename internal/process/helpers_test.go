// SPDX-License-Identifier: MPL-2.0

package process

import (
	"regexp"
	"testing"
)

func regexpMust(t *testing.T, expr string) *regexp.Regexp {
	t.Helper()
	re, err := regexp.Compile(expr)
	if err != nil {
		t.Fatalf("compile %q: %v", expr, err)
	}
	return re
}
