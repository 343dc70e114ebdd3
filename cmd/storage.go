package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/matheuskafuri/menuscore/internal/cache"
	"github.com/matheuskafuri/menuscore/internal/config"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage cached result sets",
}

// openCache opens the on-disk cache with the configured TTL.
func openCache() (*cache.Cache, *config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := cache.Open(config.CachePath(), cfg.CacheTTL())
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache: %w", err)
	}
	return db, cfg, nil
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired result sets",
	Long: `Delete cached result sets older than the cache TTL and reclaim disk space.

Uses cache.ttl from config (default: 1d).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, cfg, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		deleted, err := db.Prune(cmd.Context())
		if err != nil {
			return err
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d result set(s) older than %s.\n", deleted, formatDuration(cfg.CacheTTL()))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, cfg, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		dbPath := config.CachePath()
		count, size, err := db.Stats(cmd.Context(), dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("Cache: %s\n", dbPath)
		fmt.Printf("Result sets: %d\n", count)
		fmt.Printf("Size: %s\n", formatBytes(size))
		fmt.Printf("TTL: %s\n", formatDuration(cfg.CacheTTL()))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached result sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("Cache is empty.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CAMPUS\tDATE\tPREFERENCES\tAGE")
		now := time.Now()
		for _, s := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Campus, s.Date, s.Preferences, formatDuration(now.Sub(s.CreatedAt)))
		}
		return tw.Flush()
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached result set",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Println("Cache cleared.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(pruneCmd, statsCmd, listCmd, clearCmd)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
