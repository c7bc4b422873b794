// Package timeparsing resolves the time expressions accepted by
// `mj audit --since` and friends.
//
// Layers are tried in order (see ParseRelativeTime):
//  1. Compact duration (+6h, -1d, +2w)
//  2. Absolute timestamp (RFC3339, date-only)
//  3. Natural language (yesterday, 3 days ago)
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// compactDurationRe matches [+-]?(\d+)([hdwmy]); no sign means positive.
var compactDurationRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

// ParseCompactDuration shifts now by a compact duration such as "+6h", "-1d",
// "+2w", "3m" or "1y". Months and years use calendar arithmetic, so the
// location and wall-clock time of now are preserved.
func ParseCompactDuration(s string, now time.Time) (time.Time, error) {
	m := compactDurationRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not a compact duration: %q", s)
	}
	amount, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration amount: %q", m[2])
	}
	if m[1] == "-" {
		amount = -amount
	}

	switch m[3] {
	case "h":
		return now.Add(time.Duration(amount) * time.Hour), nil
	case "d":
		return now.AddDate(0, 0, amount), nil
	case "w":
		return now.AddDate(0, 0, amount*7), nil
	case "m":
		return now.AddDate(0, amount, 0), nil
	default: // "y"
		return now.AddDate(amount, 0, 0), nil
	}
}

// IsCompactDuration reports whether s uses compact duration syntax.
func IsCompactDuration(s string) bool {
	return compactDurationRe.MatchString(s)
}
