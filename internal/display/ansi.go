package display

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes terminal escape sequences from s. Strings without an
// ESC byte are returned unchanged, and the result never contains one, so
// StripANSI(StripANSI(s)) == StripANSI(s).
func StripANSI(s string) string {
	if !strings.ContainsRune(s, '\x1b') {
		return s
	}
	return ansi.Strip(s)
}
