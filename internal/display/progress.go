package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// ProgressIndicator prints a numbered line per step of a known-length list.
type ProgressIndicator struct {
	writer      io.Writer
	total       int
	current     int
	colorOutput bool
}

// NewProgressIndicator creates a progress indicator for total steps.
func NewProgressIndicator(w io.Writer, total int, colorOutput bool) *ProgressIndicator {
	return &ProgressIndicator{
		writer:      w,
		total:       total,
		colorOutput: colorOutput,
	}
}

// Start prints the header line.
func (p *ProgressIndicator) Start(title string) {
	fmt.Fprintf(p.writer, "%s:\n", title)
}

// Step prints "  [N/Total] item", cyan when colour is on.
func (p *ProgressIndicator) Step(item string) {
	p.current++
	line := fmt.Sprintf("  [%d/%d] %s", p.current, p.total, item)
	fmt.Fprintln(p.writer, p.paint(color.FgCyan, line))
}

// Complete prints a check mark followed by summary.
func (p *ProgressIndicator) Complete(summary string) {
	fmt.Fprintf(p.writer, "%s %s\n", p.paint(color.FgGreen, "✓"), summary)
}

// Current returns the number of steps printed so far.
func (p *ProgressIndicator) Current() int {
	return p.current
}

func (p *ProgressIndicator) paint(attr color.Attribute, s string) string {
	if !p.colorOutput {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}
