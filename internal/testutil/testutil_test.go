// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMustSetenvRestores(t *testing.T) {
	const key = "PXLAUNCH_TESTUTIL_PROBE"
	restoreOuter := MustUnsetenv(t, key)
	defer restoreOuter()

	cleanup := MustSetenv(t, key, "1")
	if got := os.Getenv(key); got != "1" {
		t.Fatalf("Getenv = %q, want 1", got)
	}
	cleanup()
	if _, ok := os.LookupEnv(key); ok {
		t.Error("variable should be unset after cleanup")
	}
}

func TestMustWriteExecutable(t *testing.T) {
	t.Parallel()
	SkipOnWindows(t)

	path := MustWriteExecutable(t, filepath.Join(t.TempDir(), "nested", "run.sh"), "exit 0")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("mode = %v, want owner-executable", info.Mode())
	}
}
