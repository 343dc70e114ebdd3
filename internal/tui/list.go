package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheuskafuri/menuscore/internal/dining"
)

func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2 15:04")
	}
}

func scoreLabel(score *int) string {
	if score == nil {
		return " --"
	}
	return fmt.Sprintf("%3d", *score)
}

func renderListItem(it dining.ScoredFoodItem, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	badge := scoreStyle(it.Score).Render(scoreLabel(it.Score))
	name := truncateStr(it.Stub.Name, width-8)
	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + name)
	} else {
		title = itemTitleStyle.Render("  " + name)
	}

	meta := "  " + itemMealStyle.Render(string(it.Stub.Meal))
	if it.Nutrients != nil && it.Nutrients.Calories != nil {
		meta += " " + itemMetaStyle.Render(fmt.Sprintf("· %.0f kcal", *it.Nutrients.Calories))
	}
	if it.Reasoning != "" {
		meta += " " + itemMetaStyle.Render("· "+truncateStr(it.Reasoning, width/2))
	}

	return badge + " " + title + "\n" + meta
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderList(items []dining.ScoredFoodItem, cursor int, height int, width int) string {
	if len(items) == 0 {
		return lipglossCenter("No items match", width, height)
	}

	// Each item is 2 lines + 1 blank line = 3 lines
	itemHeight := 3
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(items) {
		end = len(items)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(items[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	pad := (width - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}

// filterItems keeps items served in an active meal whose name contains query.
func filterItems(items []dining.ScoredFoodItem, meals []dining.Meal, query string) []dining.ScoredFoodItem {
	active := make(map[dining.Meal]bool, len(meals))
	for _, m := range meals {
		active[m] = true
	}
	query = strings.ToLower(strings.TrimSpace(query))
	var out []dining.ScoredFoodItem
	for _, it := range items {
		if len(active) > 0 && !active[it.Stub.Meal] {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(it.Stub.Name), query) {
			continue
		}
		out = append(out, it)
	}
	return out
}
