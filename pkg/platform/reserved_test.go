// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"testing"
)

func TestIsWindowsReservedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"CON", true},
		{"con", true},
		{"nul.txt", true},
		{"com1.tar.gz", true},
		{"LPT9", true},
		{"COM10", false},
		{"console", false},
		{"venv", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsWindowsReservedName(tt.name); got != tt.want {
				t.Errorf("IsWindowsReservedName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCheckPortablePath(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"venv", "./miniconda3", "envs/app", "/opt/pxlaunch/venv"} {
		if err := CheckPortablePath(ok); err != nil {
			t.Errorf("CheckPortablePath(%q) = %v, want nil", ok, err)
		}
	}

	err := CheckPortablePath("envs/aux/venv")
	if !errors.Is(err, ErrReservedName) {
		t.Fatalf("CheckPortablePath() = %v, want ErrReservedName", err)
	}
	var rne *ReservedNameError
	if !errors.As(err, &rne) || rne.Element != "aux" {
		t.Errorf("error = %#v, want element aux", err)
	}
}
