// Package ui provides terminal styling for mj CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/andreisalomia/mini-jira/internal/types"
)

// Ayu theme color palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)

	// CategoryStyle for section headers - bold with accent color
	CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	// IDStyle keeps issue IDs visually distinct from titles.
	IDStyle = lipgloss.NewStyle().Bold(true)
)

// Board column frame.
var ColumnStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorMuted).
	Padding(0, 1)

const (
	IconPass = "✓"
	IconFail = "✗"
	IconInfo = "ℹ"
)

const SeparatorLight = "──────────────────────────────────────────"

func RenderPass(s string) string   { return PassStyle.Render(s) }
func RenderWarn(s string) string   { return WarnStyle.Render(s) }
func RenderFail(s string) string   { return FailStyle.Render(s) }
func RenderMuted(s string) string  { return MutedStyle.Render(s) }
func RenderAccent(s string) string { return AccentStyle.Render(s) }
func RenderID(s string) string     { return IDStyle.Render(s) }

// RenderCategory renders a category header in uppercase with accent color
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

// RenderSeparator renders the light separator line in muted color
func RenderSeparator() string {
	return MutedStyle.Render(SeparatorLight)
}

// RenderStatus colors a status by how far along the workflow it is.
func RenderStatus(s types.Status) string {
	switch s {
	case types.StatusDone:
		return PassStyle.Render(string(s))
	case types.StatusInProgress:
		return AccentStyle.Render(string(s))
	default:
		return MutedStyle.Render(string(s))
	}
}

// RenderPriority colors a priority by urgency.
func RenderPriority(p types.Priority) string {
	switch p {
	case types.PriorityCritical:
		return FailStyle.Bold(true).Render(string(p))
	case types.PriorityHigh:
		return FailStyle.Render(string(p))
	case types.PriorityMedium:
		return WarnStyle.Render(string(p))
	default:
		return MutedStyle.Render(string(p))
	}
}
