package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/steveyegge/redline/internal/timeparsing"
	"github.com/steveyegge/redline/internal/ui"
)

// writeJSON writes v as pretty-printed JSON.
func writeJSON(w io.Writer, v any) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
	}
}

// outputJSON writes v to stdout as JSON.
func (a *app) outputJSON(v any) {
	writeJSON(a.stdout, v)
}

// printf writes normal output unless --quiet is set.
func (a *app) printf(format string, args ...any) {
	if a.quiet {
		return
	}
	fmt.Fprintf(a.stdout, format, args...)
}

// page writes a listing to stdout, through the pager on a terminal.
func (a *app) page(content string) error {
	return ui.Page(a.stdout, content, ui.PagerOptions{NoPager: a.noPager})
}

// confirm asks a yes/no question. A terminal gets a huh prompt; piped
// input is read as one line, where anything but y or yes is a no.
func (a *app) confirm(prompt string) bool {
	if a.stdinIsTTY() {
		var ok bool
		err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		)).WithInput(a.stdin).WithOutput(a.stderr).Run()
		return err == nil && ok
	}
	fmt.Fprintf(a.stderr, "%s [y/N] ", prompt)
	var response string
	_, _ = fmt.Fscanln(a.stdin, &response)
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(timeparsing.DateLayout)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64) + "h"
}

func formatOptionalHours(h *float64) string {
	if h == nil {
		return "-"
	}
	return formatHours(*h)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	if strings.HasSuffix(word, "y") {
		return strconv.Itoa(n) + " " + strings.TrimSuffix(word, "y") + "ies"
	}
	return strconv.Itoa(n) + " " + word + "s"
}
