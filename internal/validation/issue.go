// Package validation holds input checks shared by the workflow, the comment
// thread and the CLI.
package validation

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/andreisalomia/mini-jira/internal/types"
)

// ErrEmptyContent is the cause of the VALIDATION error returned for an empty
// or whitespace-only comment.
var ErrEmptyContent = errors.New("EMPTY_CONTENT")

// Title trims raw and checks it is a usable issue title.
func Title(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", types.Errorf(types.ReasonValidation, "title is required")
	}
	if n := utf8.RuneCountInString(title); n > types.MaxTitleLength {
		return "", types.Errorf(types.ReasonValidation, "title must be %d characters or less (got %d)", types.MaxTitleLength, n)
	}
	return title, nil
}

// Content trims raw comment content and rejects an empty result.
func Content(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", types.Wrap(types.ReasonValidation, ErrEmptyContent, "comment content is empty")
	}
	return content, nil
}

// IDFormat validates that an ID has the prefix-hash form (mj-a3f8e9).
// Returns the prefix part.
func IDFormat(id string) (string, error) {
	hyphenIdx := strings.Index(id, "-")
	if hyphenIdx <= 0 || hyphenIdx == len(id)-1 {
		return "", types.Errorf(types.ReasonValidation, "invalid ID format '%s' (expected format: prefix-hash, e.g., 'mj-a3f8e9')", id)
	}
	return id[:hyphenIdx], nil
}
