package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const ellipsis = "…"

// Truncate shortens s to at most width terminal cells, marking the cut
// with an ellipsis. Width is measured the way the terminal draws it, so
// wide runes count double.
func Truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width < 1 {
		return ""
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > width-1 {
			break
		}
		b.WriteRune(r)
		used += w
	}
	return strings.TrimRight(b.String(), " ") + ellipsis
}

// WrapText breaks each paragraph of s at spaces so no line is wider than
// width, except single words that are wider on their own. Existing line
// breaks are kept. A non-positive width means 80.
func WrapText(s string, width int) string {
	if width <= 0 {
		width = 80
	}
	paragraphs := strings.Split(s, "\n")
	for i, p := range paragraphs {
		if lipgloss.Width(p) > width {
			paragraphs[i] = strings.Join(fill(strings.Fields(p), width), "\n")
		}
	}
	return strings.Join(paragraphs, "\n")
}

// fill packs words greedily into lines of at most width cells.
func fill(words []string, width int) []string {
	var lines []string
	var cur []string
	curWidth := 0
	for _, w := range words {
		ww := lipgloss.Width(w)
		if len(cur) > 0 && curWidth+1+ww > width {
			lines = append(lines, strings.Join(cur, " "))
			cur, curWidth = nil, 0
		}
		if len(cur) > 0 {
			curWidth++
		}
		cur = append(cur, w)
		curWidth += ww
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}

// Table lays rows out under a styled header in columns two spaces apart.
// Column widths ignore escape codes, so colored cells line up. Cells past
// the header's column count are dropped.
func Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	measure := func(cells []string) {
		for i := range min(len(cells), len(widths)) {
			widths[i] = max(widths[i], lipgloss.Width(cells[i]))
		}
	}
	measure(header)
	for _, r := range rows {
		measure(r)
	}

	var b strings.Builder
	line := func(cells []string) {
		n := min(len(cells), len(widths))
		for i := range n {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cells[i])
			if i < n-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cells[i])))
			}
		}
		b.WriteByte('\n')
	}

	styled := make([]string, len(header))
	for i, h := range header {
		styled[i] = RenderCategory(h)
	}
	line(styled)
	for _, r := range rows {
		line(r)
	}
	return b.String()
}
