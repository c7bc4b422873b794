package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor applies the NO_COLOR / CLICOLOR conventions, in that order
// of precedence, then falls back to the TTY check.
func ShouldUseColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" && os.Getenv("CLICOLOR_FORCE") != "0" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	return IsTerminal()
}

// ApplyColorProfile switches lipgloss to plain ASCII output when color is
// off, so styled strings render as their bare text.
func ApplyColorProfile() {
	if ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

// TerminalWidth returns the stdout width, or fallback when it is unknown.
func TerminalWidth(fallback int) int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}
