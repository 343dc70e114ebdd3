package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matheuskafuri/menuscore/internal/cache"
	"github.com/matheuskafuri/menuscore/internal/diet"
	"github.com/matheuskafuri/menuscore/internal/dining"
	"github.com/matheuskafuri/menuscore/internal/fetch"
	"github.com/matheuskafuri/menuscore/internal/insights"
	"github.com/matheuskafuri/menuscore/internal/menu"
	"github.com/matheuskafuri/menuscore/internal/nutrition"
	"github.com/matheuskafuri/menuscore/internal/score"
	"golang.org/x/sync/errgroup"
)

// MenuSource retrieves the daily menu pages of a campus.
type MenuSource interface {
	FetchMenu(ctx context.Context, match string, day time.Time) ([]fetch.MenuPage, error)
}

// PageFetcher retrieves many pages concurrently.
type PageFetcher interface {
	FetchAll(ctx context.Context, urls []string) map[string]fetch.Result
}

// Campus is a dining location the coordinator can analyze.
type Campus struct {
	Key   string
	Name  string
	Match string
}

// Options configure a Coordinator. Zero values take defaults.
type Options struct {
	Campuses   []Campus
	RunTimeout time.Duration
	Scorers    int
	// Weights drive the nutritional score used when the scorer fails.
	Weights    score.Weights
	Logger     *log.Logger
	Now        func() time.Time
}

// Coordinator runs the menu pipeline and owns the result cache.
type Coordinator struct {
	menus      MenuSource
	pages      PageFetcher
	scorer     score.Scorer
	fallback   *score.Nutritional
	store      cache.Store
	parser     *nutrition.Parser
	campuses   map[string]Campus
	runTimeout time.Duration
	scorers    int
	logger     *log.Logger
	now        func() time.Time
}

// New returns a Coordinator.
func New(menus MenuSource, pages PageFetcher, scorer score.Scorer, store cache.Store, opts Options) *Coordinator {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 45 * time.Second
	}
	if opts.Scorers <= 0 {
		opts.Scorers = 4
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	campuses := make(map[string]Campus, len(opts.Campuses))
	for _, c := range opts.Campuses {
		campuses[strings.ToLower(c.Key)] = c
	}
	return &Coordinator{
		menus:      menus,
		pages:      pages,
		scorer:     scorer,
		fallback:   score.NewNutritional(opts.Weights),
		store:      store,
		parser:     &nutrition.Parser{Now: opts.Now},
		campuses:   campuses,
		runTimeout: opts.RunTimeout,
		scorers:    opts.Scorers,
		logger:     opts.Logger,
		now:        opts.Now,
	}
}

// Campus looks up a configured campus by key.
func (c *Coordinator) Campus(key string) (Campus, bool) {
	cp, ok := c.campuses[strings.ToLower(strings.TrimSpace(key))]
	return cp, ok
}

// run carries the per-request state through the pipeline stages.
type run struct {
	id     string
	campus Campus
	day    time.Time
	prefs  dining.Preferences
	items  []dining.ScoredFoodItem
	stats  dining.RunStats
}

func (c *Coordinator) logf(r *run, format string, args ...any) {
	c.logger.Printf("[%s] "+format, append([]any{r.id[:8]}, args...)...)
}

// Analyze returns the ranked result set for campus on date under prefs,
// served from cache when a fresh one exists. Failures are *Failure.
func (c *Coordinator) Analyze(ctx context.Context, campusKey string, date time.Time, prefs dining.Preferences) (*dining.ResultSet, error) {
	campus, ok := c.Campus(campusKey)
	if !ok {
		return nil, &Failure{Kind: UnknownCampus, Message: fmt.Sprintf("unknown campus %q", campusKey)}
	}
	r := &run{id: uuid.NewString(), campus: campus, day: dining.Day(date), prefs: prefs}
	key := dining.CacheKey(campus.Key, r.day, prefs)

	// cache check
	if e, hit, err := c.store.Get(ctx, key); err != nil {
		c.logf(r, "cache read failed, treating as miss: %v", err)
	} else if hit {
		c.logf(r, "cache hit %s (%s old)", key, c.now().Sub(e.CreatedAt).Round(time.Second))
		return e.Result, nil
	}

	// fetch menu
	pages, err := c.menus.FetchMenu(ctx, campus.Match, r.day)
	if err != nil {
		c.logf(r, "menu fetch failed: %v", err)
		return nil, &Failure{Kind: UpstreamUnavailable, Message: unavailableMessage(err), Err: err}
	}
	stubs := c.parseMenu(pages)
	r.stats.MenuItems = len(stubs)
	c.logf(r, "menu for %s on %s: %d item(s)", campus.Key, r.day.Format(dining.DateLayout), len(stubs))

	// fetch nutrition
	records := c.fetchNutrition(ctx, r, stubs)

	// score
	r.items = c.score(ctx, r, stubs, records)

	// filter
	var excluded []dining.ScoredFoodItem
	r.items, excluded = c.filter(r, r.items)

	// rank
	Rank(r.items, prefs.PrioritizeProtein)

	rs := &dining.ResultSet{
		Campus:      campus.Key,
		Date:        r.day,
		Preferences: prefs,
		Items:       r.items,
		Excluded:    excluded,
		GeneratedAt: c.now(),
		RunID:       r.id,
		Stats:       r.stats,
	}

	// store
	if err := c.store.Put(ctx, key, rs); err != nil {
		c.logf(r, "cache write failed: %v", err)
	}
	c.logf(r, "done: %d scored, %d unscored, %d excluded", r.stats.Scored, r.stats.Unscored, r.stats.Excluded)
	return rs, nil
}

func unavailableMessage(err error) string {
	switch {
	case errors.Is(err, fetch.ErrCampusNotListed):
		return "this campus is not on the menu site"
	case errors.Is(err, fetch.ErrDateNotListed):
		return "no menu has been published for this date"
	default:
		return "menu unavailable for this campus today"
	}
}

// parseMenu flattens the menu pages into stubs in page order, dropping
// repeats of the same item in the same meal.
func (c *Coordinator) parseMenu(pages []fetch.MenuPage) []dining.FoodItemStub {
	var out []dining.FoodItemStub
	seen := make(map[string]bool)
	for _, p := range pages {
		for _, s := range menu.Parse(bytes.NewReader(p.Body), p.URL, p.Meal) {
			key := string(s.Meal) + "\x00" + strings.ToLower(s.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
	}
	return out
}

// fetchNutrition fans out over every distinct nutrition URL under the run
// timeout. Items whose page could not be fetched map to nil.
func (c *Coordinator) fetchNutrition(ctx context.Context, r *run, stubs []dining.FoodItemStub) map[string]*dining.NutrientRecord {
	var urls []string
	for _, s := range stubs {
		if s.HasNutrition() {
			urls = append(urls, s.NutritionURL)
		}
	}
	runCtx, cancel := context.WithTimeout(ctx, c.runTimeout)
	defer cancel()
	results := c.pages.FetchAll(runCtx, urls)

	records := make(map[string]*dining.NutrientRecord, len(results))
	for u, res := range results {
		if res.Err != nil {
			c.logf(r, "nutrition fetch failed for %s: %v", u, res.Err)
			continue
		}
		rec := c.parser.Parse(bytes.NewReader(res.Page.Body), u)
		if nutrition.Empty(rec) {
			c.logf(r, "no nutrient figures found at %s", u)
		} else if missing := nutrition.Missing(rec); len(missing) > 0 {
			c.logf(r, "partial nutrition at %s: missing %s", u, strings.Join(missing, ", "))
		}
		records[u] = rec
	}
	return records
}

// score scores every stub. An item with no record, or a record without any
// figures, is Unscored. A scorer error falls back to the nutritional score.
func (c *Coordinator) score(ctx context.Context, r *run, stubs []dining.FoodItemStub, records map[string]*dining.NutrientRecord) []dining.ScoredFoodItem {
	items := make([]dining.ScoredFoodItem, len(stubs))
	g := new(errgroup.Group)
	g.SetLimit(c.scorers)
	for i, s := range stubs {
		rec := records[s.NutritionURL]
		items[i] = dining.ScoredFoodItem{Stub: s, Nutrients: rec, Position: i}
		i, s := i, s
		g.Go(func() error {
			var res score.Result
			switch {
			case rec == nil || nutrition.Empty(rec):
				res = score.Compute(nil, c.fallback.Weights)
			default:
				var err error
				res, err = c.scorer.Score(ctx, score.Input{Stub: s, Nutrients: rec, Preferences: r.prefs})
				if err != nil {
					c.logf(r, "scoring %q failed, using nutritional score: %v", s.Name, err)
					res = score.Compute(rec, c.fallback.Weights)
				}
			}
			items[i].Score = res.Score
			items[i].Basis = res.Basis
			items[i].Breakdown = res.Breakdown
			items[i].Reasoning = res.Reasoning
			return nil
		})
	}
	g.Wait()

	for _, it := range items {
		if it.Scored() {
			r.stats.Scored++
		} else {
			r.stats.Unscored++
		}
	}
	return items
}

// filter moves every item the active preferences exclude out of items,
// recording why. Excluded items keep menu order.
func (c *Coordinator) filter(r *run, items []dining.ScoredFoodItem) (kept, excluded []dining.ScoredFoodItem) {
	kept = make([]dining.ScoredFoodItem, 0, len(items))
	for _, it := range items {
		ingredients := ""
		if it.Nutrients != nil {
			ingredients = it.Nutrients.Ingredients
		}
		if reasons := diet.Evaluate(it.Stub.Name, ingredients, r.prefs); len(reasons) > 0 {
			it.Exclusions = reasons
			excluded = append(excluded, it)
			continue
		}
		kept = append(kept, it)
	}
	r.stats.Excluded = len(excluded)
	return kept, excluded
}

// Pair is a menu item with its parsed nutrition, if any.
type Pair struct {
	Item      dining.FoodItemStub    `json:"item"`
	Nutrients *dining.NutrientRecord `json:"nutrients"`
}

// ExtractNutrition returns every menu item with its nutrition record, in
// menu order. It shares the default-preference result set with Analyze.
func (c *Coordinator) ExtractNutrition(ctx context.Context, campusKey string, date time.Time) ([]Pair, error) {
	rs, err := c.Analyze(ctx, campusKey, date, dining.Preferences{})
	if err != nil {
		return nil, err
	}
	pairs := make([]Pair, len(rs.Items))
	for _, it := range rs.Items {
		pairs[it.Position] = Pair{Item: it.Stub, Nutrients: it.Nutrients}
	}
	return pairs, nil
}

// Insights aggregates the default-preference result set for campus on date.
func (c *Coordinator) Insights(ctx context.Context, campusKey string, date time.Time, n int) (insights.Report, error) {
	rs, err := c.Analyze(ctx, campusKey, date, dining.Preferences{})
	if err != nil {
		return insights.Report{}, err
	}
	return insights.Build(rs, n), nil
}

// Invalidate drops the cached result set for the request, if any.
func (c *Coordinator) Invalidate(ctx context.Context, campusKey string, date time.Time, prefs dining.Preferences) error {
	campus, ok := c.Campus(campusKey)
	if !ok {
		return &Failure{Kind: UnknownCampus, Message: fmt.Sprintf("unknown campus %q", campusKey)}
	}
	return c.store.Delete(ctx, dining.CacheKey(campus.Key, dining.Day(date), prefs))
}
