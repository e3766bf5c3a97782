package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// maxReadableWidth caps the wrap width of rendered descriptions.
const maxReadableWidth = 100

// RenderMarkdown renders a description written in markdown for the
// terminal. Without color it only wraps the text, so piped output stays
// plain. A rendering failure also falls back to wrapped text.
func RenderMarkdown(text string, width int) string {
	width = min(width, maxReadableWidth)
	if !ShouldUseColor() {
		return WrapText(text, width)
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return WrapText(text, width)
	}
	out, err := renderer.Render(text)
	if err != nil {
		return WrapText(text, width)
	}
	return strings.Trim(out, "\n")
}
