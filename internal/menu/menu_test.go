package menu

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/matheuskafuri/menuscore/internal/dining"
)

const pageURL = "https://www.absecom.psu.edu/menus/user-pages/daily-menu.cfm"

func openFixture(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open("testdata/" + name)
	if err != nil {
		t.Fatalf("opening fixture: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestParseDailyMenu(t *testing.T) {
	items := Parse(openFixture(t, "daily_menu.html"), pageURL, dining.Other)

	want := []dining.FoodItemStub{
		{Name: "Coffee", Meal: dining.Other, NutritionURL: "https://www.absecom.psu.edu/menus/user-pages/label.cfm?recNum=900"},
		{Name: "Scrambled Eggs", Meal: dining.Breakfast, NutritionURL: "https://www.absecom.psu.edu/menus/user-pages/label.cfm?recNum=101"},
		{Name: "Bacon-Wrapped Sausage Bites", Meal: dining.Breakfast, NutritionURL: "https://www.absecom.psu.edu/menus/user-pages/label.cfm?recNum=102"},
		{Name: "Fresh Fruit Cup", Meal: dining.Breakfast},
		{Name: "Grilled Chicken Breast", Meal: dining.Lunch, NutritionURL: "https://www.absecom.psu.edu/menus/user-pages/label.cfm?recNum=201"},
		{Name: "Tomato Basil Soup", Meal: dining.Lunch},
		{Name: "Beef Stir Fry", Meal: dining.Dinner},
		{Name: "Steamed Broccoli", Meal: dining.Dinner},
		{Name: "Grilled Chicken Breast", Meal: dining.Dinner, NutritionURL: "https://www.absecom.psu.edu/menus/user-pages/label.cfm?recNum=302"},
	}

	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d: %+v", len(want), len(items), items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d: expected %+v, got %+v", i, want[i], items[i])
		}
	}
}

func TestParseFallbackMeal(t *testing.T) {
	page := `<ul><li class="menu-item"><a href="/label.cfm?recNum=1">Pancakes</a></li></ul>`
	items := Parse(strings.NewReader(page), pageURL, dining.Breakfast)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Meal != dining.Breakfast {
		t.Errorf("expected fallback meal Breakfast, got %s", items[0].Meal)
	}
	if items[0].NutritionURL != "https://www.absecom.psu.edu/label.cfm?recNum=1" {
		t.Errorf("unexpected url %q", items[0].NutritionURL)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, page := range []string{"", "<html><body><p>No menu today</p></body></html>", "\x00\x01"} {
		items := Parse(strings.NewReader(page), pageURL, "")
		if items == nil || len(items) != 0 {
			t.Errorf("expected empty non-nil slice for %q, got %+v", page, items)
		}
	}
}

func TestLooksLikeFood(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Grilled Chicken Breast", true},
		{"Mac & Cheese", true},
		{"Grill", false},
		{"Print Menu", false},
		{"Penn State Altoona", false},
		{"12345", false},
		{"Ok", false},
		{strings.Repeat("a", 71), false},
	}
	for _, tt := range tests {
		if got := looksLikeFood(tt.text); got != tt.want {
			t.Errorf("looksLikeFood(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestParseForm(t *testing.T) {
	form := ParseForm(openFixture(t, "landing.html"))

	if len(form.Campuses) != 2 {
		t.Fatalf("expected 2 campuses, got %d", len(form.Campuses))
	}
	if v, ok := form.Campus("altoona"); !ok || v != "46" {
		t.Errorf("expected altoona -> 46, got %q %v", v, ok)
	}
	if v, ok := form.Campus("Brodhead"); !ok || v != "12" {
		t.Errorf("expected brodhead -> 12, got %q %v", v, ok)
	}
	if _, ok := form.Campus("harrisburg"); ok {
		t.Error("expected unknown campus to miss")
	}

	meals := form.MealValues()
	if len(meals) != 3 {
		t.Fatalf("expected 3 distinct meals, got %+v", meals)
	}
	if meals[0].Meal != dining.Breakfast || meals[2].Meal != dining.Dinner {
		t.Errorf("unexpected meal order %+v", meals)
	}
}

func TestFormDate(t *testing.T) {
	form := ParseForm(openFixture(t, "landing.html"))

	tests := []struct {
		day  time.Time
		want string
		ok   bool
	}{
		{time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), "3/14/2025", true},
		{time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), "3/15/2025", true},
		{time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), "2025-03-17", true},
		{time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), "", false},
	}
	for _, tt := range tests {
		got, ok := form.Date(tt.day)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Date(%s) = %q %v, want %q %v", tt.day.Format("2006-01-02"), got, ok, tt.want, tt.ok)
		}
	}
}
