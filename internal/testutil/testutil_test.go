// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMustSetenv_Restores(t *testing.T) {
	const key = "LOADSEQ_TESTUTIL_VAR"
	restore := MustSetenv(t, key, "one")
	if os.Getenv(key) != "one" {
		t.Fatalf("expected %s=one", key)
	}
	restore()
	if _, ok := os.LookupEnv(key); ok {
		t.Errorf("%s should be unset after restore", key)
	}
}

func TestWriteUnits(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	WriteUnits(t, root, map[string]string{
		"lib/a.sh":     "a() { :; }\n",
		"lib/net/b.sh": "b() { a; }\n",
	})

	data, err := os.ReadFile(filepath.Join(root, "lib", "net", "b.sh"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "b() { a; }\n" {
		t.Errorf("unexpected content %q", data)
	}
}
