// SPDX-License-Identifier: MPL-2.0

package process

import "testing"

func TestWindowsCommandLine(t *testing.T) {
	t.Parallel()

	installer := []string{
		`C:\Users\First Last\pxl\Miniconda3-latest-Windows-x86_64.exe`,
		"/InstallationType=JustMe",
		"/S",
		`/D=C:\Users\First Last\pxl\miniconda3`,
	}

	tests := []struct {
		name     string
		argv     []string
		verbatim bool
		want     string
	}{
		{
			name:     "installer target stays unquoted",
			argv:     installer,
			verbatim: true,
			want:     `"C:\Users\First Last\pxl\Miniconda3-latest-Windows-x86_64.exe" /InstallationType=JustMe /S /D=C:\Users\First Last\pxl\miniconda3`,
		},
		{
			name: "default quoting",
			argv: installer,
			want: `"C:\Users\First Last\pxl\Miniconda3-latest-Windows-x86_64.exe" /InstallationType=JustMe /S "/D=C:\Users\First Last\pxl\miniconda3"`,
		},
		{
			name: "plain arguments",
			argv: []string{`C:\py\python.exe`, "-m", "venv", "--copies", `C:\app\venv`},
			want: `C:\py\python.exe -m venv --copies C:\app\venv`,
		},
		{
			name: "empty and quoted arguments",
			argv: []string{"prog", "", `say "hi"`, `trail\`, `sp ace\`},
			want: `prog "" "say \"hi\"" trail\ "sp ace\\"`,
		},
		{
			name:     "single argument is never verbatim",
			argv:     []string{`C:\Program Files\x.exe`},
			verbatim: true,
			want:     `"C:\Program Files\x.exe"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := WindowsCommandLine(tt.argv, tt.verbatim); got != tt.want {
				t.Errorf("WindowsCommandLine() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}
