package dining

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Meal is the meal period a menu item is served in.
type Meal string

const (
	Breakfast Meal = "Breakfast"
	Lunch     Meal = "Lunch"
	Dinner    Meal = "Dinner"
	Other     Meal = "Other"
)

// AllMeals returns the meals in display order.
func AllMeals() []Meal {
	return []Meal{Breakfast, Lunch, Dinner, Other}
}

// ParseMeal maps a heading or flag value to a Meal.
func ParseMeal(s string) (Meal, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(s, "breakfast"):
		return Breakfast, true
	case strings.Contains(s, "brunch"), strings.Contains(s, "lunch"):
		return Lunch, true
	case strings.Contains(s, "dinner"):
		return Dinner, true
	case strings.Contains(s, "late night"):
		return Other, true
	}
	return "", false
}

// FoodItemStub is one row of a menu page.
type FoodItemStub struct {
	Name         string `json:"name"`
	Meal         Meal   `json:"meal"`
	NutritionURL string `json:"nutrition_url,omitempty"`
}

// HasNutrition reports whether the stub links to a nutrition page.
func (s FoodItemStub) HasNutrition() bool {
	return s.NutritionURL != ""
}

// Exclusion is a dietary reason an item was filtered out.
type Exclusion string

const (
	Beef          Exclusion = "beef"
	Pork          Exclusion = "pork"
	NonVegetarian Exclusion = "non-vegetarian"
	NonVegan      Exclusion = "non-vegan"
)

// Preferences are the dietary settings of one request.
type Preferences struct {
	Vegetarian        bool `json:"vegetarian"`
	Vegan             bool `json:"vegan"`
	ExcludeBeef       bool `json:"exclude_beef"`
	ExcludePork       bool `json:"exclude_pork"`
	PrioritizeProtein bool `json:"prioritize_protein"`
}

// String renders the active flags, e.g. "vegan,no-pork".
func (p Preferences) String() string {
	var parts []string
	if p.Vegetarian {
		parts = append(parts, "vegetarian")
	}
	if p.Vegan {
		parts = append(parts, "vegan")
	}
	if p.ExcludeBeef {
		parts = append(parts, "no-beef")
	}
	if p.ExcludePork {
		parts = append(parts, "no-pork")
	}
	if p.PrioritizeProtein {
		parts = append(parts, "protein")
	}
	if len(parts) == 0 {
		return "default"
	}
	return strings.Join(parts, ",")
}

// Basis records how a score was produced.
type Basis string

const (
	Nutritional Basis = "nutritional"
	Model       Basis = "model"
	Unscored    Basis = "unscored"
)

// ScoredFoodItem is a menu item after scoring and filtering. Exclusions holds
// the reasons the active preferences removed it for; it is empty on ranked
// items.
type ScoredFoodItem struct {
	Stub       FoodItemStub    `json:"stub"`
	Nutrients  *NutrientRecord `json:"nutrients,omitempty"`
	Score      *int            `json:"score,omitempty"`
	Basis      Basis           `json:"basis"`
	Exclusions []Exclusion     `json:"exclusions,omitempty"`
	Breakdown  *Breakdown      `json:"breakdown,omitempty"`
	Reasoning  string          `json:"reasoning,omitempty"`
	Position   int             `json:"position"`
}

// Scored reports whether the item carries a score.
func (i ScoredFoodItem) Scored() bool {
	return i.Score != nil
}

// Breakdown shows how each component contributed to a nutritional score.
type Breakdown struct {
	Base           float64 `json:"base"`
	ProteinDensity float64 `json:"protein_density"`
	Fiber          float64 `json:"fiber"`
	SaturatedFat   float64 `json:"saturated_fat"`
	Sodium         float64 `json:"sodium"`
	AddedSugar     float64 `json:"added_sugar"`
	Raw            float64 `json:"raw"`
}

// RunStats counts what happened to the items of one run.
type RunStats struct {
	MenuItems int `json:"menu_items"`
	Scored    int `json:"scored"`
	Unscored  int `json:"unscored"`
	Excluded  int `json:"excluded"`
}

// ResultSet is the ranked output for one (campus, date, preferences) window.
// Excluded lists the items the preferences removed, in menu order. It is
// never mutated after it is produced.
type ResultSet struct {
	Campus      string           `json:"campus"`
	Date        time.Time        `json:"date"`
	Preferences Preferences      `json:"preferences"`
	Items       []ScoredFoodItem `json:"items"`
	Excluded    []ScoredFoodItem `json:"excluded,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	RunID       string           `json:"run_id"`
	Stats       RunStats         `json:"stats"`
}

// ByMeal groups items by meal, keeping rank order within each meal.
func (r *ResultSet) ByMeal() map[Meal][]ScoredFoodItem {
	out := make(map[Meal][]ScoredFoodItem)
	for _, it := range r.Items {
		out[it.Stub.Meal] = append(out[it.Stub.Meal], it)
	}
	return out
}

// DateLayout is the canonical calendar-date form.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type keyInput struct {
	Campus string      `json:"campus"`
	Date   string      `json:"date"`
	Prefs  Preferences `json:"prefs"`
}

// CacheKey derives the cache key for a request. Struct field order fixes the
// serialisation, so equal inputs always produce equal keys.
func CacheKey(campus string, date time.Time, prefs Preferences) string {
	data, _ := json.Marshal(keyInput{
		Campus: strings.ToLower(strings.TrimSpace(campus)),
		Date:   date.Format(DateLayout),
		Prefs:  prefs,
	})
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16])
}
