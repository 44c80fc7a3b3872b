package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects everything the ui package prints.
func SetOutput(out, errOut io.Writer) {
	stdout, stderr = out, errOut
}

// Stdout is where normal output goes.
func Stdout() io.Writer { return stdout }

// Stderr is where failures go.
func Stderr() io.Writer { return stderr }

// SetColorForcing overrides terminal detection.
func SetColorForcing(force, disable bool) {
	switch {
	case disable:
		lipgloss.SetColorProfile(termenv.Ascii)
	case force:
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}

func OK(msg string) {
	fmt.Fprintln(stdout, current.Success.Render(current.SymDone+" "+msg))
}

func Fail(msg string) {
	fmt.Fprintln(stderr, current.Error.Render(current.SymCross+" "+msg))
}

// Hint prints a muted follow-up line under a failure.
func Hint(msg string) {
	fmt.Fprintln(stderr, current.Muted.Render(msg))
}
