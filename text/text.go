// Package text normalizes raw input lines before they become candidates.
package text

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes ANSI escape codes from a string.
func StripANSI(s string) string {
	if !strings.ContainsRune(s, '\x1b') {
		return s
	}
	return ansi.Strip(s)
}

// Clean strips escape codes and line terminators from a raw input line.
// Interior whitespace is preserved; candidates are compared verbatim.
func Clean(line string) string {
	line = strings.TrimRight(line, "\r\n")
	return StripANSI(line)
}
