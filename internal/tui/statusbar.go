package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/menuscore/internal/dining"
)

func renderStatusBar(itemCount int, mealLabel string, prefs dining.Preferences, width int, searching bool, loading bool) string {
	prefAccentStyle := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	left := fmt.Sprintf(" %d items", itemCount)
	if mealLabel != "All" {
		left += " · " + mealLabel
	}
	if p := prefs.String(); p != "default" {
		left += " · " + prefAccentStyle.Render(p)
	}

	right := " / search  f meals  i insights  ? help  q quit "

	if searching {
		right = " esc cancel  enter search "
	}
	if loading {
		left += " (loading...)"
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}

func renderBottomBar(hints string, width int) string {
	right := " " + hints + " "

	gap := width - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return statusBarStyle.Width(width).Render(fmt.Sprintf("%*s", gap, "") + right)
}
