package core

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/josephlewis42/tinysh/core/config"
	"github.com/mattn/go-isatty"
)

// IsTerminal returns true if v is a file connected to a terminal.
func IsTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ColorPrinter decorates shell output when colors are enabled.
type ColorPrinter struct {
	enabled bool

	prompt  *color.Color
	failure *color.Color
	warning *color.Color
}

// NewColorPrinter creates a printer for the given color mode. In auto mode
// colors are only used if out is a terminal.
func NewColorPrinter(mode string, out io.Writer) *ColorPrinter {
	var enabled bool
	switch mode {
	case config.ColorAlways:
		enabled = true
	case config.ColorNever:
		enabled = false
	default:
		enabled = IsTerminal(out)
	}

	c := &ColorPrinter{
		enabled: enabled,
		prompt:  color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
		warning: color.New(color.FgYellow),
	}
	if enabled {
		// Override the global NoColor detection which only looks at os.Stdout.
		for _, clr := range []*color.Color{c.prompt, c.failure, c.warning} {
			clr.EnableColor()
		}
	}
	return c
}

// ShouldColor returns true if output is decorated.
func (c *ColorPrinter) ShouldColor() bool {
	return c.enabled
}

func (c *ColorPrinter) Sprintf(clr *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		return clr.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}

// Prompt formats the prompt text.
func (c *ColorPrinter) Prompt(prompt string) string {
	return c.Sprintf(c.prompt, "%s", prompt)
}

// Errorf writes a diagnostic line to w.
func (c *ColorPrinter) Errorf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, c.Sprintf(c.failure, format, a...))
}

// Warnf writes a warning line to w.
func (c *ColorPrinter) Warnf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, c.Sprintf(c.warning, format, a...))
}
