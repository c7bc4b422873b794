package ui

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Default truncation settings
const (
	DefaultMaxLines     = 15 // description lines shown by `mj show` without --full
	DefaultContextLines = 5
	DefaultTitleWidth   = 60 // title column in `mj list`
)

// TruncateLines truncates text to maxLines, showing contextLines from the
// beginning and end with a hidden-line marker in the middle.
func TruncateLines(text string, maxLines, contextLines int) string {
	if text == "" {
		return text
	}

	lines := strings.Split(text, "\n")
	totalLines := len(lines)
	if totalLines <= maxLines {
		return text
	}

	if contextLines < 1 {
		contextLines = DefaultContextLines
	}
	// If maxLines is too small for context, just show first maxLines
	if maxLines < contextLines*2+3 {
		return strings.Join(lines[:maxLines], "\n") + "\n..."
	}

	hidden := totalLines - 2*contextLines

	var result strings.Builder
	result.WriteString(strings.Join(lines[:contextLines], "\n"))
	result.WriteString("\n")
	result.WriteString(RenderMuted("... (" + strconv.Itoa(hidden) + " lines hidden, use --full) ..."))
	result.WriteString("\n")
	result.WriteString(strings.Join(lines[totalLines-contextLines:], "\n"))
	return result.String()
}

// TruncateSimple performs simple end truncation with "..." suffix.
// UTF-8 safe.
func TruncateSimple(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(text)
	return string(runes[:maxLen-3]) + "..."
}

// PadRight pads text with spaces to width runes. Longer text is returned as is.
func PadRight(text string, width int) string {
	n := utf8.RuneCountInString(text)
	if n >= width {
		return text
	}
	return text + strings.Repeat(" ", width-n)
}

// PadStyled pads an already styled string to width, measuring the unstyled
// raw text since escape sequences take no columns.
func PadStyled(styled, raw string, width int) string {
	n := utf8.RuneCountInString(raw)
	if n >= width {
		return styled
	}
	return styled + strings.Repeat(" ", width-n)
}
