package dining

import (
	"testing"
	"time"
)

func TestCacheKeyDeterministic(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	prefs := Preferences{Vegan: true, ExcludePork: true}

	a := CacheKey("altoona-port-sky", date, prefs)
	b := CacheKey("altoona-port-sky", date, prefs)
	if a != b {
		t.Errorf("expected identical keys, got %s and %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
}

func TestCacheKeyVaries(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	base := CacheKey("altoona-port-sky", date, Preferences{})

	tests := []struct {
		name   string
		campus string
		date   time.Time
		prefs  Preferences
	}{
		{"campus", "beaver-brodhead", date, Preferences{}},
		{"date", "altoona-port-sky", date.AddDate(0, 0, 1), Preferences{}},
		{"vegetarian", "altoona-port-sky", date, Preferences{Vegetarian: true}},
		{"vegan", "altoona-port-sky", date, Preferences{Vegan: true}},
		{"beef", "altoona-port-sky", date, Preferences{ExcludeBeef: true}},
		{"pork", "altoona-port-sky", date, Preferences{ExcludePork: true}},
		{"protein", "altoona-port-sky", date, Preferences{PrioritizeProtein: true}},
	}
	for _, tt := range tests {
		if got := CacheKey(tt.campus, tt.date, tt.prefs); got == base {
			t.Errorf("%s: expected key to change", tt.name)
		}
	}
}

func TestCacheKeyNormalizesCampus(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if CacheKey(" Altoona-Port-Sky", date, Preferences{}) != CacheKey("altoona-port-sky", date, Preferences{}) {
		t.Error("expected campus case and whitespace to be ignored")
	}
}

func TestParseMeal(t *testing.T) {
	tests := []struct {
		in   string
		want Meal
		ok   bool
	}{
		{"Breakfast", Breakfast, true},
		{"  LUNCH ", Lunch, true},
		{"Weekend Brunch", Lunch, true},
		{"Dinner Menu", Dinner, true},
		{"Late Night", Other, true},
		{"Grill Station", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseMeal(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMeal(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPreferencesString(t *testing.T) {
	if got := (Preferences{}).String(); got != "default" {
		t.Errorf("expected default, got %q", got)
	}
	if got := (Preferences{Vegan: true, ExcludePork: true}).String(); got != "vegan,no-pork" {
		t.Errorf("expected vegan,no-pork, got %q", got)
	}
}

func TestByMealKeepsOrder(t *testing.T) {
	rs := &ResultSet{Items: []ScoredFoodItem{
		{Stub: FoodItemStub{Name: "A", Meal: Lunch}},
		{Stub: FoodItemStub{Name: "B", Meal: Breakfast}},
		{Stub: FoodItemStub{Name: "C", Meal: Lunch}},
	}}
	groups := rs.ByMeal()
	if len(groups[Lunch]) != 2 || groups[Lunch][0].Stub.Name != "A" || groups[Lunch][1].Stub.Name != "C" {
		t.Errorf("unexpected lunch group: %+v", groups[Lunch])
	}
	if len(groups[Breakfast]) != 1 {
		t.Errorf("expected 1 breakfast item, got %d", len(groups[Breakfast]))
	}
}
