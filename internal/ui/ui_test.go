package ui

import (
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/andreisalomia/mini-jira/internal/query"
	"github.com/andreisalomia/mini-jira/internal/types"
)

// plain disables styling for the duration of the test so output can be
// matched as text.
func plain(t *testing.T) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })
}

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name          string
		noColor       string
		cliColor      string
		cliColorForce string
		want          bool
	}{
		{name: "NO_COLOR disables color", noColor: "1", want: false},
		{name: "CLICOLOR=0 disables color", cliColor: "0", want: false},
		{name: "CLICOLOR_FORCE enables color even in non-TTY", cliColorForce: "1", want: true},
		{name: "NO_COLOR takes precedence over CLICOLOR_FORCE", noColor: "1", cliColorForce: "1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, val := range map[string]string{
				"NO_COLOR":       tt.noColor,
				"CLICOLOR":       tt.cliColor,
				"CLICOLOR_FORCE": tt.cliColorForce,
			} {
				t.Setenv(key, val)
				if val == "" {
					os.Unsetenv(key)
				}
			}
			if got := ShouldUseColor(); got != tt.want {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncateSimple(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short text unchanged", input: "hello", maxLen: 10, want: "hello"},
		{name: "exact length unchanged", input: "hello", maxLen: 5, want: "hello"},
		{name: "truncate with ellipsis", input: "hello world", maxLen: 8, want: "hello..."},
		{name: "very short maxLen", input: "hello world", maxLen: 3, want: "..."},
		{name: "unicode chars", input: "héllo wörld", maxLen: 8, want: "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateSimple(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateSimple(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateLines(t *testing.T) {
	plain(t)

	short := "a\nb\nc"
	if got := TruncateLines(short, 15, 5); got != short {
		t.Errorf("short text changed: %q", got)
	}

	lines := make([]string, 30)
	for i := range lines {
		lines[i] = "line"
	}
	lines[0], lines[29] = "first", "last"
	got := TruncateLines(strings.Join(lines, "\n"), 15, 5)
	if !strings.HasPrefix(got, "first\n") || !strings.HasSuffix(got, "\nlast") {
		t.Errorf("context lines lost: %q", got)
	}
	if !strings.Contains(got, "20 lines hidden") {
		t.Errorf("missing hidden-line marker: %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 4); got != "ab  " {
		t.Errorf("PadRight = %q", got)
	}
	if got := PadRight("abcdef", 4); got != "abcdef" {
		t.Errorf("PadRight must not cut: %q", got)
	}
}

func TestRenderMarkdownWithoutColorIsVerbatim(t *testing.T) {
	plain(t)
	src := "# Heading\n\n* item"
	if got := RenderMarkdown(src); got != src {
		t.Errorf("RenderMarkdown() = %q, want input unchanged", got)
	}
}

func TestRenderBoard(t *testing.T) {
	plain(t)
	issues := []*types.Issue{
		{ID: "mj-aaa111", Title: "Login page", Status: types.StatusOpen, Priority: types.PriorityHigh},
		{ID: "mj-bbb222", Title: "Fix crash", Status: types.StatusDone, Priority: types.PriorityLow},
	}
	out := RenderBoard(query.Board(issues), 120)

	for _, want := range []string{"OPEN (1)", "IN_PROGRESS (0)", "DONE (1)", "mj-aaa111", "HIGH", "Fix crash"} {
		if !strings.Contains(out, want) {
			t.Errorf("board missing %q:\n%s", want, out)
		}
	}
	first := strings.Split(out, "\n")[1]
	if !(strings.Index(first, "OPEN") < strings.Index(first, "IN_PROGRESS") &&
		strings.Index(first, "IN_PROGRESS") < strings.Index(first, "DONE")) {
		t.Errorf("columns out of workflow order: %q", first)
	}
}

func TestRenderStatusPlainText(t *testing.T) {
	plain(t)
	for _, s := range types.Statuses {
		if got := RenderStatus(s); got != string(s) {
			t.Errorf("RenderStatus(%s) = %q", s, got)
		}
	}
}

func TestPadStyledMeasuresRawText(t *testing.T) {
	styled := "\x1b[1mmj-1\x1b[0m"
	got := PadStyled(styled, "mj-1", 6)
	if got != styled+"  " {
		t.Errorf("PadStyled = %q", got)
	}
}
