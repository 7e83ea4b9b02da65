// Package printer writes colored operator output for the coach CLI.
package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

func init() {
	// NO_COLOR disables color; otherwise color is forced so piped output
	// keeps highlighting.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

// Success prints a green message with a checkmark prefix.
func Success(w io.Writer, format string, a ...any) {
	green.Fprintf(w, "✓ %s", fmt.Sprintf(format, a...))
}

// Warning prints a yellow message.
func Warning(w io.Writer, format string, a ...any) {
	yellow.Fprintf(w, "! %s", fmt.Sprintf(format, a...))
}

// Step prints a cyan progress message.
func Step(w io.Writer, format string, a ...any) {
	cyan.Fprintf(w, "→ %s", fmt.Sprintf(format, a...))
}

// Heading prints a bold line.
func Heading(w io.Writer, format string, a ...any) {
	bold.Fprintf(w, format, a...)
}

// Error prints a titled error with an explanation and suggestions to w and
// returns a plain error for cobra.
func Error(w io.Writer, title, explanation string, suggestions ...string) error {
	red.Fprintf(w, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(w, "%s\n", explanation)
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(w)
		if len(suggestions) == 1 {
			fmt.Fprintf(w, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(w, "Either:\n")
			for i, s := range suggestions {
				fmt.Fprintf(w, "  %d. %s\n", i+1, s)
			}
		}
	}
	return fmt.Errorf("%s", title)
}
