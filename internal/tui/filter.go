package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/menuscore/internal/dining"
)

// mealBar is the row of meal tabs above the list.
type mealBar struct {
	meals        []dining.Meal
	active       map[dining.Meal]bool
	filterMode   bool
	filterCursor int
}

func newMealBar(meals []dining.Meal) mealBar {
	return mealBar{
		meals:  meals,
		active: make(map[dining.Meal]bool),
	}
}

func (f *mealBar) toggle(m dining.Meal) {
	if f.active[m] {
		delete(f.active, m)
	} else {
		f.active[m] = true
	}
}

func (f *mealBar) toggleCurrent() {
	if f.filterCursor < len(f.meals) {
		f.toggle(f.meals[f.filterCursor])
	}
}

func (f *mealBar) activeMeals() []dining.Meal {
	if len(f.active) == 0 {
		return nil // nil = every meal
	}
	var out []dining.Meal
	for _, m := range f.meals {
		if f.active[m] {
			out = append(out, m)
		}
	}
	return out
}

func (f *mealBar) activeLabel() string {
	active := f.activeMeals()
	if active == nil {
		return "All"
	}
	names := make([]string, len(active))
	for i, m := range active {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func (f *mealBar) render(width int, counts map[dining.Meal]int) string {
	sep := tabSeparatorStyle.Render(" · ")
	var parts []string

	if len(f.active) == 0 {
		parts = append(parts, tabActiveStyle.Render("All"))
	} else {
		parts = append(parts, tabInactiveStyle.Render("All"))
	}

	for i, m := range f.meals {
		style := tabInactiveStyle
		if f.active[m] {
			style = tabActiveStyle
		}
		label := string(m)
		if n, ok := counts[m]; ok {
			label += " " + strconv.Itoa(n)
		}
		if f.filterMode && i == f.filterCursor {
			label = "[" + label + "]"
		}
		parts = append(parts, style.Render(label))
	}

	// Build row with · separators, stopping when we'd exceed width
	var row string
	for i, part := range parts {
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}
