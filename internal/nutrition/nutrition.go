package nutrition

import (
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/matheuskafuri/menuscore/internal/dining"
	"github.com/matheuskafuri/menuscore/internal/markup"
)

type unit string

const (
	grams      unit = "g"
	milligrams unit = "mg"
	micrograms unit = "mcg"
	kcal       unit = "kcal"
	dailyValue unit = "%"
)

// field maps one nutrient to where it appears on the page and where it lands
// in the record. A field is located either by a bold label followed by its
// value, or by the data-title of a "% DV" table cell.
type field struct {
	name     string
	labels   []string
	notAfter []string
	dvTitle  string
	unit     unit
	set      func(r *dining.NutrientRecord, v *float64)
	get      func(r *dining.NutrientRecord) *float64
}

var fields = []field{
	{name: "calories", labels: []string{"calories", "total calories", "energy"}, unit: kcal,
		set: func(r *dining.NutrientRecord, v *float64) { r.Calories = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.Calories }},
	{name: "calories_from_fat", labels: []string{"calories from fat", "fat calories"}, unit: kcal,
		set: func(r *dining.NutrientRecord, v *float64) { r.CaloriesFromFat = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.CaloriesFromFat }},
	{name: "total_fat_g", labels: []string{"total fat", "fat"}, notAfter: []string{"sat", "sat.", "saturated", "trans", "from"}, unit: grams,
		set: func(r *dining.NutrientRecord, v *float64) { r.TotalFatG = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.TotalFatG }},
	{name: "total_fat_dv", dvTitle: "Fat % DV", unit: dailyValue,
		set: func(r *dining.NutrientRecord, v *float64) { r.TotalFatDV = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.TotalFatDV }},
	{name: "saturated_fat_g", labels: []string{"sat fat", "saturated fat", "sat. fat"}, unit: grams,
		set: func(r *dining.NutrientRecord, v *float64) { r.SaturatedFatG = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.SaturatedFatG }},
	{name: "saturated_fat_dv", dvTitle: "Sat Fat % DV", unit: dailyValue,
		set: func(r *dining.NutrientRecord, v *float64) { r.SaturatedFatDV = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.SaturatedFatDV }},
	{name: "trans_fat_g", labels: []string{"trans fat"}, unit: grams,
		set: func(r *dining.NutrientRecord, v *float64) { r.TransFatG = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.TransFatG }},
	{name: "cholesterol_mg", labels: []string{"cholesterol"}, unit: milligrams,
		set: func(r *dining.NutrientRecord, v *float64) { r.CholesterolMg = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.CholesterolMg }},
	{name: "sodium_mg", labels: []string{"sodium"}, unit: milligrams,
		set: func(r *dining.NutrientRecord, v *float64) { r.SodiumMg = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.SodiumMg }},
	{name: "sodium_dv", dvTitle: "Sodium % DV", unit: dailyValue,
		set: func(r *dining.NutrientRecord, v *float64) { r.SodiumDV = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.SodiumDV }},
	{name: "total_carb_g", labels: []string{"total carb", "total carbs", "total carbohydrate", "total carbohydrates", "carbohydrates"}, unit: grams,
		set: func(r *dining.NutrientRecord, v *float64) { r.TotalCarbG = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.TotalCarbG }},
	{name: "total_carb_dv", dvTitle: "Carb % DV", unit: dailyValue,
		set: func(r *dining.NutrientRecord, v *float64) { r.TotalCarbDV = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.TotalCarbDV }},
	{name: "fiber_g", labels: []string{"dietary fiber", "fiber", "fibre"}, unit: grams,
		set: func(r *dining.NutrientRecord, v *float64) { r.FiberG = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.FiberG }},
	{name: "fiber_dv", dvTitle: "Dietary Fiber % DV", unit: dailyValue,
		set: func(r *dining.NutrientRecord, v *float64) { r.FiberDV = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.FiberDV }},
	{name: "sugars_g", labels: []string{"sugars", "total sugars", "sugar"}, notAfter: []string{"added"}, unit: grams,
		set: func(r *dining.NutrientRecord, v *float64) { r.SugarsG = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.SugarsG }},
	{name: "added_sugars_g", labels: []string{"added sugar", "added sugars", "includes added sugars"}, unit: grams,
		set: func(r *dining.NutrientRecord, v *float64) { r.AddedSugarsG = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.AddedSugarsG }},
	{name: "protein_g", labels: []string{"protein"}, unit: grams,
		set: func(r *dining.NutrientRecord, v *float64) { r.ProteinG = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.ProteinG }},
	{name: "protein_dv", dvTitle: "Protein % DV", unit: dailyValue,
		set: func(r *dining.NutrientRecord, v *float64) { r.ProteinDV = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.ProteinDV }},
	{name: "vitamin_d_mcg", labels: []string{"vitamin d"}, unit: micrograms,
		set: func(r *dining.NutrientRecord, v *float64) { r.VitaminDMcg = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.VitaminDMcg }},
	{name: "calcium_mg", labels: []string{"calcium"}, unit: milligrams,
		set: func(r *dining.NutrientRecord, v *float64) { r.CalciumMg = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.CalciumMg }},
	{name: "iron_mg", labels: []string{"iron"}, unit: milligrams,
		set: func(r *dining.NutrientRecord, v *float64) { r.IronMg = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.IronMg }},
	{name: "potassium_mg", labels: []string{"potassium"}, unit: milligrams,
		set: func(r *dining.NutrientRecord, v *float64) { r.PotassiumMg = v },
		get: func(r *dining.NutrientRecord) *float64 { return r.PotassiumMg }},
}

// Fields lists the names of every nutrient the parser knows.
func Fields() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

// Parser turns nutrition pages into records.
type Parser struct {
	Now func() time.Time
}

// Parse reads one nutrition page. Fields that cannot be located or converted
// are left nil; the rest of the record is unaffected.
func (p *Parser) Parse(r io.Reader, sourceURL string) *dining.NutrientRecord {
	now := time.Now
	if p != nil && p.Now != nil {
		now = p.Now
	}

	doc := markup.Load(r)
	rec := &dining.NutrientRecord{SourceURL: sourceURL, ExtractedAt: now()}

	labeled := labelValues(doc)
	text := strings.ToLower(markup.Text(doc.Find("body")))

	for _, f := range fields {
		var raw string
		switch {
		case f.dvTitle != "":
			raw = dvCell(doc, f.dvTitle)
		default:
			raw = lookup(labeled, f)
		}
		v := convert(raw, f.unit)
		if v == nil && f.dvTitle == "" {
			v = convert(scanText(text, f), f.unit)
		}
		if v != nil {
			f.set(rec, v)
		}
	}

	rec.Ingredients = ingredients(doc)
	rec.ServingSize = labeled["serving size"]
	return rec
}

// Parse reads a nutrition page with the default clock.
func Parse(r io.Reader, sourceURL string) *dining.NutrientRecord {
	return (&Parser{}).Parse(r, sourceURL)
}

// Missing lists the nutrients absent from rec.
func Missing(rec *dining.NutrientRecord) []string {
	var out []string
	for _, f := range fields {
		if f.get(rec) == nil {
			out = append(out, f.name)
		}
	}
	return out
}

// Empty reports whether rec carries no nutrient figures at all.
func Empty(rec *dining.NutrientRecord) bool {
	return len(Missing(rec)) == len(fields)
}

// labelValues collects "<b>Label</b> value" pairs keyed by lowercase label.
// The first value carrying a number wins.
func labelValues(doc *goquery.Document) map[string]string {
	out := make(map[string]string)
	doc.Find("b, strong, th, dt").Each(func(_ int, s *goquery.Selection) {
		txt := markup.Text(s)
		label, value := txt, ""
		// "<b>Calories: 376</b>" keeps both halves in one element
		if i := strings.IndexAny(txt, "0123456789"); i > 0 {
			label, value = txt[:i], strings.TrimSpace(txt[i:])
		}
		label = strings.ToLower(strings.TrimSpace(strings.TrimRight(strings.TrimSpace(label), ":")))
		if label == "" {
			return
		}
		if value == "" {
			value = markup.TrailingText(s)
		}
		if value == "" {
			value = markup.Text(s.Next())
		}
		if value == "" {
			return
		}
		prev, seen := out[label]
		if !seen || (!hasDigit(prev) && hasDigit(value)) {
			out[label] = value
		}
	})
	return out
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

func lookup(labeled map[string]string, f field) string {
	for _, l := range f.labels {
		if v, ok := labeled[l]; ok {
			return v
		}
	}
	return ""
}

func dvCell(doc *goquery.Document, title string) string {
	sel := doc.Find(`td[data-title^="` + title + `"]`).First()
	return markup.Text(sel)
}

var scanCache = make(map[string]*regexp.Regexp)

func init() {
	for _, f := range fields {
		for _, l := range f.labels {
			scanCache[l] = regexp.MustCompile(`(^|[^a-z])` + regexp.QuoteMeta(l) + `\s*:?\s*(-?\d[\d,]*(?:\.\d+)?\s*[a-zµ%]*)`)
		}
	}
}

// scanText looks for "label value" in the flattened page text, for pages
// that do not mark labels up in bold.
func scanText(text string, f field) string {
	for _, l := range f.labels {
		for _, m := range scanCache[l].FindAllStringSubmatchIndex(text, -1) {
			if precededBy(text[:m[3]], f.notAfter) {
				continue
			}
			return text[m[4]:m[5]]
		}
	}
	return ""
}

func precededBy(prefix string, words []string) bool {
	prefix = strings.TrimSpace(prefix)
	for _, w := range words {
		if strings.HasSuffix(prefix, w) {
			return true
		}
	}
	return false
}

var conversions = map[unit]map[string]float64{
	grams:      {"g": 1, "mg": 0.001, "mcg": 0.000001},
	milligrams: {"mg": 1, "g": 1000, "mcg": 0.001},
	micrograms: {"mcg": 1, "mg": 1000, "g": 1000000},
	kcal:       {"kcal": 1, "cal": 1},
	dailyValue: {"%": 1},
}

// convert parses raw and scales it into the field's unit. A value with a
// unit the field cannot take is treated as absent.
func convert(raw string, want unit) *float64 {
	if raw == "" {
		return nil
	}
	v, u, ok := markup.Number(raw)
	if !ok {
		return nil
	}
	if u == "" {
		return dining.Float(v)
	}
	factor, ok := conversions[want][u]
	if !ok {
		return nil
	}
	return dining.Float(v * factor)
}

var labelRe = regexp.MustCompile(`(?i)^\s*ingredients?\s*:?\s*`)

// ingredients concatenates every ingredient block on the page.
func ingredients(doc *goquery.Document) string {
	var blocks []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = labelRe.ReplaceAllString(markup.Clean(s), "")
		if i := strings.Index(strings.ToLower(s), "allergens"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			blocks = append(blocks, s)
		}
	}

	doc.Find(".ingredients, .ingredient-list, #ingredients").Each(func(_ int, s *goquery.Selection) {
		add(s.Text())
	})
	if len(blocks) > 0 {
		return strings.Join(blocks, ", ")
	}

	doc.Find("b, strong, dt, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		if !strings.HasPrefix(strings.ToLower(markup.Text(s)), "ingredient") {
			return
		}
		if v := markup.TrailingText(s); v != "" {
			add(v)
			return
		}
		add(s.Parent().Text())
	})
	return strings.Join(blocks, ", ")
}
