package ui

import (
	"github.com/charmbracelet/glamour"
)

// maxReadableWidth caps word wrap on wide terminals.
const maxReadableWidth = 100

// RenderMarkdown renders an issue description or comment body with glamour.
// Returns the original text when color is off or rendering fails.
func RenderMarkdown(markdown string) string {
	if !ShouldUseColor() {
		return markdown
	}

	wrapWidth := TerminalWidth(80)
	if wrapWidth > maxReadableWidth {
		wrapWidth = maxReadableWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return markdown
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
