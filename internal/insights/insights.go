package insights

import (
	"math"
	"sort"

	"github.com/matheuskafuri/menuscore/internal/dining"
)

// DefaultTop is how many items each leaderboard holds when n is not positive.
const DefaultTop = 5

// Report summarises one result set.
type Report struct {
	Campus       string              `json:"campus"`
	Date         string              `json:"date"`
	Items        int                 `json:"items"`
	Scored       int                 `json:"scored"`
	Unscored     int                 `json:"unscored"`
	PerMeal      map[dining.Meal]int `json:"per_meal"`
	AvgCalories  *float64            `json:"avg_calories,omitempty"`
	AvgScore     *float64            `json:"avg_score,omitempty"`
	TopProtein   []Entry             `json:"top_protein"`
	LowestSodium []Entry             `json:"lowest_sodium"`
}

// Entry is one leaderboard row.
type Entry struct {
	Name  string      `json:"name"`
	Meal  dining.Meal `json:"meal"`
	Value float64     `json:"value"`
	Score *int        `json:"score,omitempty"`
}

// Build aggregates rs. Averages only count items that state the figure.
func Build(rs *dining.ResultSet, n int) Report {
	if n <= 0 {
		n = DefaultTop
	}
	r := Report{
		Campus:  rs.Campus,
		Date:    rs.Date.Format(dining.DateLayout),
		Items:   len(rs.Items),
		PerMeal: make(map[dining.Meal]int),
	}

	var calories, scores []float64
	var protein, sodium []Entry
	for _, it := range rs.Items {
		r.PerMeal[it.Stub.Meal]++
		if it.Scored() {
			r.Scored++
			scores = append(scores, float64(*it.Score))
		} else {
			r.Unscored++
		}
		rec := it.Nutrients
		if rec == nil {
			continue
		}
		if rec.Calories != nil {
			calories = append(calories, *rec.Calories)
		}
		if rec.ProteinG != nil {
			protein = append(protein, entry(it, *rec.ProteinG))
		}
		if rec.SodiumMg != nil {
			sodium = append(sodium, entry(it, *rec.SodiumMg))
		}
	}

	r.AvgCalories = mean(calories)
	r.AvgScore = mean(scores)

	// stable sorts keep rank order between equal values
	sort.SliceStable(protein, func(i, j int) bool { return protein[i].Value > protein[j].Value })
	sort.SliceStable(sodium, func(i, j int) bool { return sodium[i].Value < sodium[j].Value })
	r.TopProtein = head(protein, n)
	r.LowestSodium = head(sodium, n)
	return r
}

func entry(it dining.ScoredFoodItem, v float64) Entry {
	return Entry{Name: it.Stub.Name, Meal: it.Stub.Meal, Value: v, Score: it.Score}
}

func mean(vs []float64) *float64 {
	if len(vs) == 0 {
		return nil
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	avg := math.Round(sum/float64(len(vs))*10) / 10
	return &avg
}

func head(es []Entry, n int) []Entry {
	if len(es) > n {
		es = es[:n]
	}
	if es == nil {
		return []Entry{}
	}
	return es
}
