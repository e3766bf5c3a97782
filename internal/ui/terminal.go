package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// terminalFd returns the descriptor behind w when w is a terminal.
func terminalFd(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// ShouldUseColor applies the NO_COLOR and CLICOLOR conventions, then
// falls back to asking whether stdout is a terminal. NO_COLOR wins even
// when empty; CLICOLOR_FORCE wins over a pipe.
func ShouldUseColor() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	if force := os.Getenv("CLICOLOR_FORCE"); force != "" && force != "0" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	_, tty := terminalFd(os.Stdout)
	return tty
}

// ConfigureColor picks lipgloss's color profile for the process. Without
// color every style renders as plain text.
func ConfigureColor() {
	profile := termenv.Ascii
	if ShouldUseColor() {
		profile = termenv.EnvColorProfile()
	}
	lipgloss.SetColorProfile(profile)
}

// TerminalWidth returns stdout's width in cells, or fallback when stdout
// is redirected.
func TerminalWidth(fallback int) int {
	fd, tty := terminalFd(os.Stdout)
	if !tty {
		return fallback
	}
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		return w
	}
	return fallback
}
