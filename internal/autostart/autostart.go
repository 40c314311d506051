// Package autostart starts the tray on login.
package autostart

import "strings"

// EntryName identifies the login entry.
const EntryName = "inputmacro"

// CommandLine joins exe and args into a single command line, quoting each
// part that contains spaces, tabs or quotes.
func CommandLine(exe string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, p := range append([]string{exe}, args...) {
		parts = append(parts, quote(p))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"") {
		return s
	}

	var b strings.Builder
	b.WriteByte('"')
	slashes := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			slashes++
		case '"':
			// Backslashes before a quote are doubled, then the quote is escaped.
			b.WriteString(strings.Repeat("\\", slashes+1))
			slashes = 0
		default:
			slashes = 0
		}
		b.WriteByte(c)
	}
	b.WriteString(strings.Repeat("\\", slashes))
	b.WriteByte('"')
	return b.String()
}
