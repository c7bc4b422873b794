package timeparsing

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// dateOnlyLayout is the YYYY-MM-DD form, interpreted at midnight in the
// reference time's location.
const dateOnlyLayout = "2006-01-02"

var nlp = newNLPParser()

func newNLPParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseNaturalLanguage parses English expressions such as "tomorrow",
// "next monday at 2pm", "in 3 days" and "3 days ago" relative to now.
func ParseNaturalLanguage(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}
	r, err := nlp.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("not a recognized time expression: %q", s)
	}
	return r.Time, nil
}

// ParseRelativeTime tries compact durations, then absolute timestamps, then
// natural language. The first layer that accepts s wins.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if IsCompactDuration(s) {
		return ParseCompactDuration(s, now)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateOnlyLayout, s, now.Location()); err == nil {
		return t, nil
	}
	t, err := ParseNaturalLanguage(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (expected +6h, -1d, 2025-01-20, RFC3339 or e.g. \"yesterday\")", s)
	}
	return t, nil
}
