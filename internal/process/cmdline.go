// SPDX-License-Identifier: MPL-2.0

package process

import "strings"

// WindowsCommandLine joins argv the way the Windows runtime quotes process
// arguments. With verbatimLast the final argument is appended as is.
func WindowsCommandLine(argv []string, verbatimLast bool) string {
	parts := make([]string, len(argv))
	for i, arg := range argv {
		if verbatimLast && i == len(argv)-1 && i > 0 {
			parts[i] = arg
			continue
		}
		parts[i] = escapeWindowsArg(arg)
	}
	return strings.Join(parts, " ")
}

// escapeWindowsArg follows the CommandLineToArgvW rules: backslashes are
// literal unless they precede a double quote.
func escapeWindowsArg(s string) string {
	if s == "" {
		return `""`
	}
	needsBackslash := strings.ContainsAny(s, `"\`)
	hasSpace := strings.ContainsAny(s, " \t")
	switch {
	case !hasSpace && !strings.Contains(s, `"`):
		return s
	case !needsBackslash:
		return `"` + s + `"`
	}

	var b strings.Builder
	if hasSpace {
		b.WriteByte('"')
	}
	slashes := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			slashes++
		case '"':
			for ; slashes > 0; slashes-- {
				b.WriteByte('\\')
			}
			b.WriteByte('\\')
		default:
			slashes = 0
		}
		b.WriteByte(c)
	}
	if hasSpace {
		for ; slashes > 0; slashes-- {
			b.WriteByte('\\')
		}
		b.WriteByte('"')
	}
	return b.String()
}
