package logger

import (
	"github.com/fatih/color"

	"github.com/harrison/odc-colab/internal/models"
)

// colorScheme defines consistent colors for run output.
// Green: working notebooks
// Red: errors and failed runs
// Cyan: labels and identifiers
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	label   *color.Color
}

// newColorScheme creates the standard color scheme. The colours are forced
// on; callers decide whether to use them.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: forced(color.FgGreen),
		fail:    forced(color.FgRed),
		label:   forced(color.FgCyan),
	}
}

// forced returns a colour that renders even when color.NoColor is set.
func forced(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// status returns the colour for a notebook status.
func (s *colorScheme) status(st models.Status) *color.Color {
	if st == models.StatusWorking {
		return s.success
	}
	return s.fail
}
