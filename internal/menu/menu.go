package menu

import (
	"io"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/matheuskafuri/menuscore/internal/dining"
	"github.com/matheuskafuri/menuscore/internal/markup"
)

// rowSelector matches meal headings and item rows; goquery returns the
// matches in document order.
const rowSelector = "h1, h2, h3, h4, h5, h6, .meal-header, .meal-title, a[href], .menu-item, .item-name"

// Parse reads a daily menu page and returns its items in document order.
// Items are assigned the meal of the nearest preceding meal heading, or
// fallback when none precedes them. Input that cannot be parsed yields an
// empty slice.
func Parse(r io.Reader, pageURL string, fallback dining.Meal) []dining.FoodItemStub {
	if fallback == "" {
		fallback = dining.Other
	}
	base, _ := url.Parse(pageURL)
	doc := markup.Load(r)

	var (
		items   []dining.FoodItemStub
		current = fallback
		seen    = make(map[string]bool)
	)

	doc.Find(rowSelector).Each(func(_ int, s *goquery.Selection) {
		switch {
		case isHeading(s):
			if m, ok := dining.ParseMeal(markup.Text(s)); ok {
				current = m
			}
			return
		case goquery.NodeName(s) == "a":
			name := markup.Text(s)
			if !looksLikeFood(name) {
				return
			}
			href, _ := s.Attr("href")
			add(&items, seen, dining.FoodItemStub{Name: name, Meal: current, NutritionURL: resolve(base, href)})
		default:
			// rows that wrap a link or a name element are read through those
			if s.Find("a[href], .item-name").Length() > 0 {
				return
			}
			name := markup.Text(s)
			if name == "" || !hasLetter(name) {
				return
			}
			add(&items, seen, dining.FoodItemStub{Name: name, Meal: current})
		}
	})

	if items == nil {
		items = []dining.FoodItemStub{}
	}
	return items
}

func add(items *[]dining.FoodItemStub, seen map[string]bool, stub dining.FoodItemStub) {
	key := string(stub.Meal) + "\x00" + strings.ToLower(stub.Name)
	if seen[key] {
		return
	}
	seen[key] = true
	*items = append(*items, stub)
}

func isHeading(s *goquery.Selection) bool {
	switch goquery.NodeName(s) {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return s.HasClass("meal-header") || s.HasClass("meal-title")
}

// resolve turns href into an absolute nutrition URL. Links that lead
// nowhere resolve to "".
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if href == "" || href == "#" || strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

// navigationWords mark link text that belongs to page chrome rather than food.
var navigationWords = map[string]bool{
	"select": true, "menu": true, "menus": true, "date": true, "campus": true,
	"print": true, "view": true, "nutrition": true, "allergen": true, "allergens": true,
	"feedback": true, "contact": true, "hours": true, "location": true, "locations": true,
	"home": true, "back": true, "login": true, "help": true, "cafe": true,
	"kitchen": true, "station": true, "grill": true, "deli": true, "market": true,
}

var navigationPhrases = []string{"penn state", "made to order", "dining services", "skip to"}

// looksLikeFood filters link text that is plausibly a dish name.
func looksLikeFood(text string) bool {
	n := len([]rune(text))
	if n < 3 || n > 70 || !hasLetter(text) {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range navigationPhrases {
		if strings.Contains(lower, p) {
			return false
		}
	}
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if navigationWords[w] {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
