package menu

import (
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/matheuskafuri/menuscore/internal/dining"
	"github.com/matheuskafuri/menuscore/internal/markup"
)

// Form field names of the daily menu selector.
const (
	FieldCampus = "selCampus"
	FieldMeal   = "selMeal"
	FieldDate   = "selMenuDate"
)

// Option is one <option> of a select box.
type Option struct {
	Text  string
	Value string
}

// Form holds the choices offered by the menu landing page.
type Form struct {
	Campuses []Option
	Meals    []Option
	Dates    []Option
}

// ParseForm reads the campus, meal and date select boxes of the landing page.
// Options without a value or label are skipped.
func ParseForm(r io.Reader) Form {
	doc := markup.Load(r)
	return Form{
		Campuses: options(doc, FieldCampus),
		Meals:    options(doc, FieldMeal),
		Dates:    options(doc, FieldDate),
	}
}

func options(doc *goquery.Document, name string) []Option {
	var out []Option
	doc.Find(`select[name="` + name + `"] option`).Each(func(_ int, s *goquery.Selection) {
		value, _ := s.Attr("value")
		value = strings.TrimSpace(value)
		text := markup.Text(s)
		if value == "" || text == "" {
			return
		}
		out = append(out, Option{Text: text, Value: value})
	})
	return out
}

// Campus returns the value of the first campus whose label contains match.
func (f Form) Campus(match string) (string, bool) {
	match = strings.ToLower(strings.TrimSpace(match))
	if match == "" {
		return "", false
	}
	for _, o := range f.Campuses {
		if strings.Contains(strings.ToLower(o.Text), match) || strings.EqualFold(o.Value, match) {
			return o.Value, true
		}
	}
	return "", false
}

// Date returns the option value for day. Labels like "Monday, March 3" or
// "Monday, March 03" match, as do ISO date values.
func (f Form) Date(day time.Time) (string, bool) {
	labels := []string{
		strings.ToLower(day.Format("Monday, January 2")),
		strings.ToLower(day.Format("Monday, January 02")),
	}
	iso := day.Format(dining.DateLayout)
	for _, o := range f.Dates {
		text := strings.ToLower(o.Text)
		for _, l := range labels {
			if text == l || strings.HasPrefix(text, l+",") {
				return o.Value, true
			}
		}
		if o.Value == iso || strings.HasPrefix(o.Value, iso) {
			return o.Value, true
		}
	}
	return "", false
}

// MealValues returns the meal options the page offers, mapped to meals, in form
// order. Options that name no known meal are dropped.
func (f Form) MealValues() []MealOption {
	var out []MealOption
	seen := make(map[dining.Meal]bool)
	for _, o := range f.Meals {
		m, ok := dining.ParseMeal(o.Text)
		if !ok || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, MealOption{Meal: m, Value: o.Value})
	}
	return out
}

// MealOption pairs a meal with its form value.
type MealOption struct {
	Meal  dining.Meal
	Value string
}
