package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/menuscore/internal/dining"
	"github.com/spf13/cobra"
)

var (
	flagJSON    bool
	flagTop     int
	flagRefresh bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score and rank a campus menu",
	Long: `Fetch the daily menu of a campus, read every item's nutrition label and
print the items ranked by health score, grouped by meal.

Results are cached per campus, date and preferences; --refresh bypasses the cache.`,
	RunE: runAnalyze,
}

func init() {
	addPreferenceFlags(analyzeCmd)
	for _, c := range []*cobra.Command{rootCmd, analyzeCmd} {
		c.Flags().BoolVar(&flagJSON, "json", false, "print the result set as JSON")
		c.Flags().IntVarP(&flagTop, "top", "n", 0, "items to show per meal (default from config)")
		c.Flags().BoolVar(&flagRefresh, "refresh", false, "ignore cached results")
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	campus, err := e.campus()
	if err != nil {
		return err
	}
	day, err := e.date()
	if err != nil {
		return err
	}
	prefs := preferences()

	if flagRefresh {
		if err := e.coord.Invalidate(ctx, campus.Key, day, prefs); err != nil {
			e.logger.Printf("invalidate: %v", err)
		}
	}
	rs, err := e.coord.Analyze(ctx, campus.Key, day, prefs)
	if err != nil {
		return userError(err)
	}

	if flagJSON {
		return writeJSON(os.Stdout, rs)
	}
	top := flagTop
	if top <= 0 {
		top = e.cfg.GetTop()
	}
	renderResult(os.Stdout, rs, campus.Name, top)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E4E4E7"))
	mealStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#71717A"))
	goodStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22C55E"))
	fairStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	poorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
)

func scoreCell(s *int) string {
	if s == nil {
		return dimStyle.Render(" --")
	}
	text := fmt.Sprintf("%3d", *s)
	switch {
	case *s >= 70:
		return goodStyle.Render(text)
	case *s >= 40:
		return fairStyle.Render(text)
	default:
		return poorStyle.Render(text)
	}
}

// renderResult prints up to top items per meal in rank order.
func renderResult(w io.Writer, rs *dining.ResultSet, campusName string, top int) {
	if campusName == "" {
		campusName = rs.Campus
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s · %s", campusName, rs.Date.Format("Monday, January 2"))))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d items, %d scored, %d unscored, %d excluded (%s)",
		rs.Stats.MenuItems, rs.Stats.Scored, rs.Stats.Unscored, rs.Stats.Excluded, rs.Preferences)))

	if len(rs.Items) == 0 {
		fmt.Fprintln(w, "\nNo items match these preferences.")
		return
	}

	byMeal := rs.ByMeal()
	for _, meal := range dining.AllMeals() {
		items := byMeal[meal]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, mealStyle.Render(string(meal)))
		for i, it := range items {
			if i == top {
				fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("    … %d more", len(items)-top)))
				break
			}
			fmt.Fprintf(w, "  %s  %s%s\n", scoreCell(it.Score), it.Stub.Name, itemFacts(it))
		}
	}

	if len(rs.Excluded) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, dimStyle.Render("Excluded:"))
		for _, it := range rs.Excluded {
			reasons := make([]string, len(it.Exclusions))
			for i, r := range it.Exclusions {
				reasons[i] = string(r)
			}
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  %s (%s)", it.Stub.Name, strings.Join(reasons, ", "))))
		}
	}
}

func itemFacts(it dining.ScoredFoodItem) string {
	rec := it.Nutrients
	if rec == nil {
		return ""
	}
	var parts []string
	if rec.Calories != nil {
		parts = append(parts, fmt.Sprintf("%.0f kcal", *rec.Calories))
	}
	if rec.ProteinG != nil {
		parts = append(parts, fmt.Sprintf("%.0fg protein", *rec.ProteinG))
	}
	if it.Reasoning != "" {
		parts = append(parts, it.Reasoning)
	}
	if len(parts) == 0 {
		return ""
	}
	return dimStyle.Render("  " + strings.Join(parts, " · "))
}
