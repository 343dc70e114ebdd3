package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/menuscore/internal/dining"
)

type nutrientRow struct {
	label string
	v     *float64
	unit  string
}

func nutrientRows(rec *dining.NutrientRecord) []nutrientRow {
	return []nutrientRow{
		{"Calories", rec.Calories, "kcal"},
		{"Total fat", rec.TotalFatG, "g"},
		{"Saturated fat", rec.SaturatedFatDV, "% DV"},
		{"Trans fat", rec.TransFatG, "g"},
		{"Cholesterol", rec.CholesterolMg, "mg"},
		{"Sodium", rec.SodiumMg, "mg"},
		{"Carbohydrate", rec.TotalCarbG, "g"},
		{"Fiber", rec.FiberG, "g"},
		{"Sugars", rec.SugarsG, "g"},
		{"Added sugars", rec.AddedSugarsG, "g"},
		{"Protein", rec.ProteinG, "g"},
		{"Vitamin D", rec.VitaminDMcg, "mcg"},
		{"Calcium", rec.CalciumMg, "mg"},
		{"Iron", rec.IronMg, "mg"},
		{"Potassium", rec.PotassiumMg, "mg"},
	}
}

func renderPreview(it *dining.ScoredFoodItem, width, height, scroll int) string {
	if it == nil {
		return lipglossCenter("Select an item", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := previewTitleStyle.Width(contentWidth).Render(it.Stub.Name)
	score := scoreStyle(it.Score).Render("Score " + strings.TrimSpace(scoreLabel(it.Score)))
	meta := previewMealStyle.Render(string(it.Stub.Meal)) + "  " + score + "  " +
		previewLinkStyle.Render(string(it.Basis))

	var lines []string
	lines = append(lines, title, meta)
	if it.Reasoning != "" {
		lines = append(lines, previewBodyStyle.Render(it.Reasoning))
	}

	rec := it.Nutrients
	if rec == nil {
		lines = append(lines, "", previewBodyStyle.Render("(No nutrition information available)"))
	} else {
		lines = append(lines, "", previewHeadingStyle.Render("Nutrition"))
		if rec.ServingSize != "" {
			lines = append(lines, previewBodyStyle.Render("Serving size  "+rec.ServingSize))
		}
		stated := 0
		for _, r := range nutrientRows(rec) {
			if r.v == nil {
				continue
			}
			stated++
			lines = append(lines, previewBodyStyle.Render(fmt.Sprintf("%-14s %g %s", r.label, *r.v, r.unit)))
		}
		if stated == 0 {
			lines = append(lines, previewBodyStyle.Render("(No figures stated)"))
		}
		if rec.Ingredients != "" {
			lines = append(lines, "", previewHeadingStyle.Render("Ingredients"))
			lines = append(lines, previewBodyStyle.Width(contentWidth).Render(wrapText(rec.Ingredients, contentWidth)))
		}
	}

	if b := it.Breakdown; b != nil {
		lines = append(lines, "", previewHeadingStyle.Render("Score breakdown"))
		for _, c := range []struct {
			label string
			v     float64
		}{
			{"Base", b.Base},
			{"Protein", b.ProteinDensity},
			{"Fiber", b.Fiber},
			{"Saturated fat", b.SaturatedFat},
			{"Sodium", b.Sodium},
			{"Added sugar", b.AddedSugar},
		} {
			lines = append(lines, previewBodyStyle.Render(fmt.Sprintf("%-14s %+6.1f", c.label, c.v)))
		}
	}

	if it.Stub.HasNutrition() {
		lines = append(lines, "", previewLinkStyle.Width(contentWidth).Render("Label: "+it.Stub.NutritionURL))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)

	// Apply scroll offset
	out := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(out) {
		out = out[scroll:]
	}

	// Pad to fill height
	if len(out) < height {
		out = append(out, make([]string, height-len(out))...)
	} else if len(out) > height {
		out = out[:height]
	}

	return strings.Join(out, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
