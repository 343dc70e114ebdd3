package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matheuskafuri/menuscore/internal/ai"
	"github.com/matheuskafuri/menuscore/internal/cache"
	"github.com/matheuskafuri/menuscore/internal/config"
	"github.com/matheuskafuri/menuscore/internal/dining"
	"github.com/matheuskafuri/menuscore/internal/fetch"
	"github.com/matheuskafuri/menuscore/internal/pipeline"
	"github.com/matheuskafuri/menuscore/internal/score"
	"github.com/spf13/cobra"
)

const pruneInterval = 24 * time.Hour

var (
	flagVegetarian bool
	flagVegan      bool
	flagNoBeef     bool
	flagNoPork     bool
	flagProtein    bool
)

func addPreferenceFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagVegetarian, "vegetarian", false, "hide items with meat or fish")
	cmd.Flags().BoolVar(&flagVegan, "vegan", false, "hide items with any animal product")
	cmd.Flags().BoolVar(&flagNoBeef, "no-beef", false, "hide items containing beef")
	cmd.Flags().BoolVar(&flagNoPork, "no-pork", false, "hide items containing pork")
	cmd.Flags().BoolVar(&flagProtein, "protein", false, "rank high-protein items first")
}

func preferences() dining.Preferences {
	return dining.Preferences{
		Vegetarian:        flagVegetarian,
		Vegan:             flagVegan,
		ExcludeBeef:       flagNoBeef,
		ExcludePork:       flagNoPork,
		PrioritizeProtein: flagProtein,
	}
}

// env is everything one command invocation needs.
type env struct {
	cfg    *config.Config
	logger *log.Logger
	client *fetch.Client
	site   *fetch.MenuSite
	disk   *cache.Cache
	coord  *pipeline.Coordinator
	aiConn *ai.Scorer
}

func newLogger() *log.Logger {
	if flagVerbose {
		return log.New(os.Stderr, "[menuscore] ", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

func setup(ctx context.Context) (*env, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	e := &env{cfg: cfg, logger: newLogger()}
	e.client = fetch.New(fetch.Options{
		Workers:  cfg.Fetch.Workers,
		Timeout:  cfg.FetchTimeout(),
		Attempts: cfg.Fetch.Attempts,
		Backoff:  cfg.FetchBackoff(),
	}, e.logger)
	e.site = fetch.NewMenuSite(e.client, cfg.MenuURL)

	ttl := cfg.CacheTTL()
	e.disk, err = cache.Open(config.CachePath(), ttl)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if e.disk.NeedsPrune(ctx, pruneInterval) {
		if n, err := e.disk.Prune(ctx); err != nil {
			e.logger.Printf("auto-prune: %v", err)
		} else if n > 0 {
			e.logger.Printf("auto-prune: removed %d expired result set(s)", n)
		}
	}
	store := &cache.Layered{Memory: cache.NewMemory(ttl), Disk: e.disk}

	var scorer score.Scorer = score.NewNutritional(cfg.Scoring)
	if cfg.AIEnabled() {
		s, err := ai.New(ctx, cfg.AI, cfg.AIKey())
		if err != nil {
			e.logger.Printf("ai scoring disabled: %v", err)
		} else {
			s.Fallback = scorer
			e.aiConn = s
			scorer = s
		}
	}

	var campuses []pipeline.Campus
	for _, c := range cfg.EnabledCampuses() {
		campuses = append(campuses, pipeline.Campus{Key: c.Key, Name: c.Name, Match: c.Match})
	}
	e.coord = pipeline.New(e.site, e.client, scorer, store, pipeline.Options{
		Campuses:   campuses,
		RunTimeout: cfg.RunTimeout(),
		Weights:    cfg.Scoring,
		Logger:     e.logger,
	})
	return e, nil
}

func (e *env) Close() {
	if e.aiConn != nil {
		e.aiConn.Close()
	}
	if e.disk != nil {
		e.disk.Close()
	}
}

// campus resolves the --campus flag against the config.
func (e *env) campus() (config.Campus, error) {
	c, ok := e.cfg.Campus(flagCampus)
	if !ok {
		key := flagCampus
		if key == "" {
			key = e.cfg.DefaultCampus
		}
		return c, fmt.Errorf("unknown campus %q (available: %s)", key, strings.Join(e.cfg.CampusKeys(), ", "))
	}
	return c, nil
}

func (e *env) date() (time.Time, error) {
	return parseDate(flagDate, e.cfg.Layout(), time.Now())
}

// parseDate accepts "today", "tomorrow", "yesterday", a day offset such as
// "+2d" or "-1d", or a date in layout. An empty string means today.
func parseDate(s, layout string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	today := dining.Day(now)
	switch strings.ToLower(s) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	if len(s) > 2 && (s[0] == '+' || s[0] == '-') && s[len(s)-1] == 'd' {
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err == nil {
			if s[0] == '-' {
				n = -n
			}
			return today.AddDate(0, 0, n), nil
		}
	}
	t, err := time.ParseInLocation(layout, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want today, tomorrow, +Nd or %s", s, layout)
	}
	return dining.Day(t), nil
}

// userError turns a pipeline failure into its user-facing message.
func userError(err error) error {
	var f *pipeline.Failure
	if errors.As(err, &f) {
		return errors.New(f.Message)
	}
	return err
}
