// Package ui renders rl's terminal output: colors, icons, tables and the
// pager. Every style degrades to plain text when ConfigureColor turns color
// off.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/redline/internal/types"
)

// Palette. Each color has a light and a dark terminal variant.
var (
	green = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#8bc34a"}
	amber = lipgloss.AdaptiveColor{Light: "#b26a00", Dark: "#ffb300"}
	red   = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	grey  = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}
	blue  = lipgloss.AdaptiveColor{Light: "#1565c0", Dark: "#64b5f6"}
)

var (
	passStyle    = lipgloss.NewStyle().Foreground(green)
	warnStyle    = lipgloss.NewStyle().Foreground(amber)
	failStyle    = lipgloss.NewStyle().Foreground(red)
	mutedStyle   = lipgloss.NewStyle().Foreground(grey)
	accentStyle  = lipgloss.NewStyle().Foreground(blue)
	boldStyle    = lipgloss.NewStyle().Bold(true)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(blue)
	urgentStyle  = failStyle.Bold(true)
)

const rule = "────────────────────────────────────────"

func RenderPass(s string) string   { return passStyle.Render(s) }
func RenderFail(s string) string   { return failStyle.Render(s) }
func RenderMuted(s string) string  { return mutedStyle.Render(s) }
func RenderAccent(s string) string { return accentStyle.Render(s) }
func RenderBold(s string) string   { return boldStyle.Render(s) }

// RenderCategory renders a section heading or table header.
func RenderCategory(s string) string { return headingStyle.Render(strings.ToUpper(s)) }

// RenderSeparator renders a horizontal rule.
func RenderSeparator() string { return mutedStyle.Render(rule) }

// Icons prefixing result lines.
func RenderPassIcon() string { return passStyle.Render("✓") }
func RenderWarnIcon() string { return warnStyle.Render("⚠") }
func RenderFailIcon() string { return failStyle.Render("✗") }
func RenderInfoIcon() string { return accentStyle.Render("ℹ") }

// RenderStatus colors an issue status: work in progress stands out,
// resolved reads as done, closed and rejected fade.
func RenderStatus(s types.Status) string {
	switch s {
	case types.StatusInProgress:
		return accentStyle.Render(string(s))
	case types.StatusResolved:
		return passStyle.Render(string(s))
	case types.StatusClosed, types.StatusRejected:
		return mutedStyle.Render(string(s))
	}
	return string(s)
}

// RenderPriority colors a priority by urgency.
func RenderPriority(p types.Priority) string {
	switch {
	case p.Rank() >= types.PriorityUrgent.Rank():
		return urgentStyle.Render(string(p))
	case p == types.PriorityHigh:
		return warnStyle.Render(string(p))
	case p == types.PriorityLow:
		return mutedStyle.Render(string(p))
	}
	return string(p)
}

// RenderProjectStatus shows active projects in green and the rest muted.
func RenderProjectStatus(s types.ProjectStatus) string {
	if s == types.ProjectActive {
		return passStyle.Render(string(s))
	}
	return mutedStyle.Render(string(s))
}
