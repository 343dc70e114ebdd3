package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/matheuskafuri/menuscore/internal/dining"
	"github.com/matheuskafuri/menuscore/internal/insights"
	"github.com/spf13/cobra"
)

var (
	flagInsightsTop  int
	flagInsightsJSON bool
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Summarise a day's menu",
	Long:  "Show item counts, average calories and score, and the best items for protein and sodium.",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		report, err := e.coord.Insights(ctx, campus.Key, day, flagInsightsTop)
		if err != nil {
			return userError(err)
		}
		if flagInsightsJSON {
			return writeJSON(os.Stdout, report)
		}
		renderReport(os.Stdout, report, campus.Name)
		return nil
	},
}

func init() {
	insightsCmd.Flags().IntVarP(&flagInsightsTop, "top", "n", insights.DefaultTop, "entries per leaderboard")
	insightsCmd.Flags().BoolVar(&flagInsightsJSON, "json", false, "print the report as JSON")
}

func renderReport(w io.Writer, r insights.Report, campusName string) {
	if campusName == "" {
		campusName = r.Campus
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s · %s", campusName, r.Date)))
	fmt.Fprintf(w, "Items: %d (%d scored, %d unscored)\n", r.Items, r.Scored, r.Unscored)
	for _, meal := range dining.AllMeals() {
		if n := r.PerMeal[meal]; n > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", meal, n)
		}
	}
	if r.AvgCalories != nil {
		fmt.Fprintf(w, "Average calories: %.1f\n", *r.AvgCalories)
	}
	if r.AvgScore != nil {
		fmt.Fprintf(w, "Average score: %.1f\n", *r.AvgScore)
	}
	leaderboard(w, "Most protein", r.TopProtein, "%.0f g")
	leaderboard(w, "Lowest sodium", r.LowestSodium, "%.0f mg")
}

func leaderboard(w io.Writer, title string, entries []insights.Entry, format string) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, mealStyle.Render(title))
	for i, en := range entries {
		fmt.Fprintf(w, "  %d. %s %s  %s\n", i+1, en.Name, dimStyle.Render("("+string(en.Meal)+")"), fmt.Sprintf(format, en.Value))
	}
}
