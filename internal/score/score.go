package score

import (
	"context"
	"math"
	"strings"

	"github.com/matheuskafuri/menuscore/internal/dining"
)

// Weights tune the nutritional score. Components not stated on a nutrition
// page contribute nothing.
type Weights struct {
	Base              float64 `yaml:"base"`
	Protein           float64 `yaml:"protein"`
	ProteinDensityCap float64 `yaml:"protein_density_cap"`
	Fiber             float64 `yaml:"fiber"`
	FiberCap          float64 `yaml:"fiber_cap"`
	SaturatedFat      float64 `yaml:"saturated_fat"`
	Sodium            float64 `yaml:"sodium"`
	AddedSugar        float64 `yaml:"added_sugar"`
	AddedSugarCap     float64 `yaml:"added_sugar_cap"`
}

const (
	defaultBase              = 40.0
	defaultProtein           = 4.0  // per gram of protein per 100 kcal
	defaultProteinDensityCap = 12.0 // g protein per 100 kcal
	defaultFiber             = 2.5  // per gram
	defaultFiberCap          = 10.0 // grams
	defaultSaturatedFat      = 0.6  // per % DV
	defaultSodium            = 0.4  // per % DV
	defaultAddedSugar        = 1.0  // per gram
	defaultAddedSugarCap     = 50.0 // grams
)

// DefaultWeights returns the stock weights.
func DefaultWeights() Weights {
	return Weights{
		Base:              defaultBase,
		Protein:           defaultProtein,
		ProteinDensityCap: defaultProteinDensityCap,
		Fiber:             defaultFiber,
		FiberCap:          defaultFiberCap,
		SaturatedFat:      defaultSaturatedFat,
		Sodium:            defaultSodium,
		AddedSugar:        defaultAddedSugar,
		AddedSugarCap:     defaultAddedSugarCap,
	}
}

// Input is everything a scorer may look at for one item.
type Input struct {
	Stub        dining.FoodItemStub
	Nutrients   *dining.NutrientRecord
	Preferences dining.Preferences
}

// Result is the outcome of scoring one item. Score is nil when the item could
// not be scored.
type Result struct {
	Score     *int
	Basis     dining.Basis
	Breakdown *dining.Breakdown
	Reasoning string
}

// Scorer turns an item into a health score. Implementations must be safe for
// concurrent use.
type Scorer interface {
	Score(ctx context.Context, in Input) (Result, error)
}

// Nutritional scores purely from the nutrient record.
type Nutritional struct {
	Weights Weights
}

// NewNutritional returns a Nutritional scorer, filling zero weights from the
// defaults.
func NewNutritional(w Weights) *Nutritional {
	d := DefaultWeights()
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&w.Base, d.Base)
	fill(&w.Protein, d.Protein)
	fill(&w.ProteinDensityCap, d.ProteinDensityCap)
	fill(&w.Fiber, d.Fiber)
	fill(&w.FiberCap, d.FiberCap)
	fill(&w.SaturatedFat, d.SaturatedFat)
	fill(&w.Sodium, d.Sodium)
	fill(&w.AddedSugar, d.AddedSugar)
	fill(&w.AddedSugarCap, d.AddedSugarCap)
	return &Nutritional{Weights: w}
}

// Score never fails.
func (n *Nutritional) Score(_ context.Context, in Input) (Result, error) {
	return Compute(in.Nutrients, n.Weights), nil
}

// Compute is the pure nutritional score. A nil record yields an Unscored
// result; otherwise the score is an integer in [0, 100].
func Compute(rec *dining.NutrientRecord, w Weights) Result {
	if rec == nil {
		return Result{Basis: dining.Unscored, Reasoning: "No nutrition data"}
	}

	b := dining.Breakdown{
		Base:           w.Base,
		ProteinDensity: w.Protein * proteinDensity(rec, w.ProteinDensityCap),
		Fiber:          w.Fiber * capped(rec.FiberG, w.FiberCap),
		SaturatedFat:   -w.SaturatedFat * capped(rec.SaturatedFatDV, math.Inf(1)),
		Sodium:         -w.Sodium * capped(rec.SodiumDV, math.Inf(1)),
		AddedSugar:     -w.AddedSugar * capped(rec.AddedSugarsG, w.AddedSugarCap),
	}
	b.Raw = b.Base + b.ProteinDensity + b.Fiber + b.SaturatedFat + b.Sodium + b.AddedSugar

	s := int(math.Round(b.Raw))
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	return Result{
		Score:     &s,
		Basis:     dining.Nutritional,
		Breakdown: &b,
		Reasoning: reasoning(rec, b),
	}
}

// proteinDensity is grams of protein per 100 kcal, capped. It is 0 when
// either figure is missing or calories are not positive.
func proteinDensity(rec *dining.NutrientRecord, limit float64) float64 {
	if rec.ProteinG == nil || rec.Calories == nil || *rec.Calories <= 0 {
		return 0
	}
	return math.Min(*rec.ProteinG*100 / *rec.Calories, limit)
}

func capped(v *float64, limit float64) float64 {
	if v == nil {
		return 0
	}
	return math.Min(*v, limit)
}

// reasoning summarises the components that moved the score noticeably.
func reasoning(rec *dining.NutrientRecord, b dining.Breakdown) string {
	var parts []string
	switch {
	case b.ProteinDensity >= 30:
		parts = append(parts, "High protein density")
	case b.ProteinDensity >= 12:
		parts = append(parts, "Moderate protein")
	}
	if b.Fiber >= 10 {
		parts = append(parts, "Good fiber")
	}
	if rec.SodiumDV != nil {
		switch {
		case *rec.SodiumDV >= 30:
			parts = append(parts, "High sodium")
		case *rec.SodiumDV <= 10:
			parts = append(parts, "Low sodium")
		}
	}
	if rec.SaturatedFatDV != nil && *rec.SaturatedFatDV >= 20 {
		parts = append(parts, "High saturated fat")
	}
	if rec.AddedSugarsG != nil && *rec.AddedSugarsG >= 10 {
		parts = append(parts, "Added sugar")
	}
	if len(parts) == 0 {
		return "Standard option"
	}
	return strings.Join(parts, ", ")
}
