package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matheuskafuri/menuscore/internal/dining"
)

func TestTruncateStr(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
		{"test", 0, ""},
	}
	for _, tt := range tests {
		got := truncateStr(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("truncateStr(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestTruncateStrUTF8(t *testing.T) {
	got := truncateStr("Crème brûlée tart", 8)
	want := "Crème..."
	if got != want {
		t.Errorf("truncateStr(accented, 8) = %q, want %q", got, want)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{time.Date(2025, 3, 12, 8, 30, 0, 0, time.UTC), "Mar 12 08:30"},
	}
	for _, tt := range tests {
		got := relativeTime(tt.t, now)
		if got != tt.want {
			t.Errorf("relativeTime(%v ago) = %q, want %q", now.Sub(tt.t), got, tt.want)
		}
	}
}

func score(v int) *int { return &v }

func sampleItems() []dining.ScoredFoodItem {
	return []dining.ScoredFoodItem{
		{Stub: dining.FoodItemStub{Name: "Grilled Chicken Breast", Meal: dining.Lunch, NutritionURL: "https://dining.example.edu/label/1"},
			Score: score(81), Basis: dining.Nutritional, Reasoning: "High protein density",
			Nutrients: &dining.NutrientRecord{Calories: dining.Float(180), ProteinG: dining.Float(35), Ingredients: "chicken breast, salt"},
			Breakdown: &dining.Breakdown{Base: 40, ProteinDensity: 48, SaturatedFat: -3, Sodium: -4, Raw: 81}},
		{Stub: dining.FoodItemStub{Name: "Belgian Waffle", Meal: dining.Breakfast},
			Score: score(25), Basis: dining.Nutritional},
		{Stub: dining.FoodItemStub{Name: "Chicken Noodle Soup", Meal: dining.Dinner},
			Basis: dining.Unscored},
	}
}

func TestFilterItems(t *testing.T) {
	items := sampleItems()
	tests := []struct {
		name  string
		meals []dining.Meal
		query string
		want  int
	}{
		{"everything", nil, "", 3},
		{"one meal", []dining.Meal{dining.Lunch}, "", 1},
		{"two meals", []dining.Meal{dining.Lunch, dining.Dinner}, "", 2},
		{"search", nil, "CHICKEN", 2},
		{"search within meal", []dining.Meal{dining.Dinner}, "chicken", 1},
		{"no match", nil, "sushi", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filterItems(items, tt.meals, tt.query); len(got) != tt.want {
				t.Errorf("expected %d items, got %d", tt.want, len(got))
			}
		})
	}
}

func TestMealBar(t *testing.T) {
	bar := newMealBar(dining.AllMeals())
	if bar.activeMeals() != nil || bar.activeLabel() != "All" {
		t.Fatalf("expected all meals active initially")
	}
	bar.toggle(dining.Dinner)
	bar.toggle(dining.Breakfast)
	if got := bar.activeLabel(); got != "Breakfast, Dinner" {
		t.Errorf("expected meals in display order, got %q", got)
	}
	bar.toggle(dining.Dinner)
	if got := bar.activeLabel(); got != "Breakfast" {
		t.Errorf("expected toggle off, got %q", got)
	}
	if !strings.Contains(bar.render(120, map[dining.Meal]int{dining.Lunch: 4}), "Lunch 4") {
		t.Error("expected meal counts in tab labels")
	}
}

func TestRenderPreview(t *testing.T) {
	items := sampleItems()
	out := renderPreview(&items[0], 60, 40, 0)
	for _, want := range []string{"Grilled Chicken Breast", "Score 81", "Protein", "35 g", "chicken breast, salt", "Score breakdown", "label/1"} {
		if !strings.Contains(out, want) {
			t.Errorf("preview missing %q:\n%s", want, out)
		}
	}

	out = renderPreview(&items[2], 60, 20, 0)
	if !strings.Contains(out, "No nutrition information") || !strings.Contains(out, "--") {
		t.Errorf("expected unscored preview, got:\n%s", out)
	}

	if lines := strings.Count(renderPreview(nil, 60, 12, 0), "\n"); lines > 12 {
		t.Errorf("expected placeholder within height, got %d lines", lines)
	}
}

func TestOpenURLRejectsNonHTTP(t *testing.T) {
	for _, u := range []string{"file:///etc/passwd", "javascript:alert(1)", "ftp://example.com", ""} {
		if err := openURL(u); err == nil {
			t.Errorf("openURL(%q): expected error", u)
		}
	}
}

func testApp(load Loader) *App {
	app := NewApp(RunOpts{Campus: "Altoona - Port Sky Cafe", Date: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), Load: load})
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app
}

func TestAppLoadsAndFilters(t *testing.T) {
	var gotPrefs []dining.Preferences
	rs := &dining.ResultSet{Items: sampleItems(), GeneratedAt: time.Now()}
	app := testApp(func(_ context.Context, prefs dining.Preferences, _ bool) (*dining.ResultSet, error) {
		gotPrefs = append(gotPrefs, prefs)
		return rs, nil
	})

	msg := app.loadCmd(false)()
	app.Update(msg)
	if app.loading || len(app.items) != 3 {
		t.Fatalf("expected 3 items loaded, got %d (loading=%v)", len(app.items), app.loading)
	}

	// meal filter mode, toggle Lunch (tab 2)
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	if len(app.items) != 1 || app.items[0].Stub.Meal != dining.Lunch {
		t.Errorf("expected only lunch items, got %+v", app.items)
	}
	app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if view := app.View(); !strings.Contains(view, "Grilled Chicken Breast") {
		t.Error("expected selected item in view")
	}

	// toggling a preference reloads with it
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("V")})
	if cmd == nil || !app.loading || !app.prefs.Vegan {
		t.Fatal("expected reload for vegan preference")
	}
	app.Update(app.loadCmd(false)())
	if last := gotPrefs[len(gotPrefs)-1]; !last.Vegan {
		t.Errorf("expected loader called with vegan, got %+v", last)
	}
}

func TestAppShowsLoadError(t *testing.T) {
	app := testApp(func(context.Context, dining.Preferences, bool) (*dining.ResultSet, error) {
		return nil, errors.New("menu unavailable for this campus today")
	})
	app.Update(app.loadCmd(false)())
	if app.loading {
		t.Error("expected loading cleared")
	}
	if !strings.Contains(app.View(), "menu unavailable") {
		t.Error("expected error in status bar")
	}
}
