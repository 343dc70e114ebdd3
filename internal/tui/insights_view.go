package tui

import (
	"fmt"
	"strings"

	"github.com/matheuskafuri/menuscore/internal/dining"
	"github.com/matheuskafuri/menuscore/internal/insights"
)

func renderInsights(r insights.Report, campus string, height int) string {
	var lines []string

	title := insightsTitleStyle.Render(fmt.Sprintf("%s · %s", campus, r.Date))
	lines = append(lines, "", "  "+title, "")

	lines = append(lines, "  "+insightsMetaStyle.Render(fmt.Sprintf("Items on the menu: %d", r.Items)))
	lines = append(lines, "  "+insightsMetaStyle.Render(fmt.Sprintf("Scored: %d   Unscored: %d", r.Scored, r.Unscored)))
	if r.AvgScore != nil {
		lines = append(lines, "  "+insightsMetaStyle.Render(fmt.Sprintf("Average score: %.1f", *r.AvgScore)))
	}
	if r.AvgCalories != nil {
		lines = append(lines, "  "+insightsMetaStyle.Render(fmt.Sprintf("Average calories: %.0f kcal", *r.AvgCalories)))
	}

	var meals []string
	for _, m := range dining.AllMeals() {
		if n := r.PerMeal[m]; n > 0 {
			meals = append(meals, fmt.Sprintf("%s %d", m, n))
		}
	}
	if len(meals) > 0 {
		lines = append(lines, "  "+insightsMetaStyle.Render("By meal: "+strings.Join(meals, " · ")))
	}
	lines = append(lines, "")

	lines = append(lines, leaderboard("Most protein", r.TopProtein, "g")...)
	lines = append(lines, leaderboard("Least sodium", r.LowestSodium, "mg")...)

	content := strings.Join(lines, "\n")
	contentLines := strings.Count(content, "\n") + 1
	topPad := (height - contentLines) / 3
	if topPad < 0 {
		topPad = 0
	}

	return strings.Repeat("\n", topPad) + content
}

func leaderboard(title string, entries []insights.Entry, unit string) []string {
	if len(entries) == 0 {
		return nil
	}
	lines := []string{"  " + insightsBodyStyle.Render(title+":")}
	for i, e := range entries {
		row := fmt.Sprintf("    %d. %-32s %6.0f %-2s  %s", i+1, truncateStr(e.Name, 32), e.Value, unit, e.Meal)
		lines = append(lines, insightsBodyStyle.Render(row))
	}
	return append(lines, "")
}
