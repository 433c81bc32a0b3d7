package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning is a user-facing warning block.
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Options    []string // Ways to resolve the problem (optional)
	Suggestion string   // Example command or next step (optional)
}

// Display writes the warning to out, in yellow when colorOutput is set.
func (w Warning) Display(out io.Writer, colorOutput bool) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		for _, line := range strings.Split(w.Message, "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if len(w.Options) > 0 {
		b.WriteString("    Resolve it in one of these ways:\n")
		for i, opt := range w.Options {
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, opt))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	text := b.String()
	if colorOutput {
		c := color.New(color.FgYellow)
		c.EnableColor()
		text = c.Sprint(text)
	}
	fmt.Fprint(out, text)
}
