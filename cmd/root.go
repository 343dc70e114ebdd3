package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/matheuskafuri/menuscore/internal/fetch"
	"github.com/matheuskafuri/menuscore/internal/update"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagVerbose bool
	flagCampus  string
	flagDate    string
)

var rootCmd = &cobra.Command{
	Use:   "menuscore",
	Short: "Score today's campus dining menu",
	Long: `menuscore scrapes a campus dining hall's daily menu, reads each item's
nutrition label, scores how healthy it is and filters by dietary preference.`,
	SilenceUsage: true,
	RunE:         runAnalyze,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log pipeline progress to stderr")
	rootCmd.PersistentFlags().StringVar(&flagCampus, "campus", "", "campus key (see `menuscore campuses`)")
	rootCmd.PersistentFlags().StringVar(&flagDate, "date", "", "menu date: today, tomorrow, +Nd, -Nd or a date in the configured format")
	addPreferenceFlags(rootCmd)

	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(campusesCmd)
	rootCmd.AddCommand(cacheCmd)
}

var flagCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("menuscore %s (commit: %s, built: %s)\n", version, commit, date)
		if !flagCheck {
			return nil
		}
		client := fetch.New(fetch.Options{Attempts: 1}, newLogger())
		res, err := update.Check(cmd.Context(), client, update.ReleasesURL, version)
		if err != nil {
			return err
		}
		if res.Newer() {
			fmt.Printf("A newer release is available: v%s\n", res.LatestVersion)
		} else {
			fmt.Println("You are on the latest release.")
		}
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
