package dining

import "time"

// NutrientRecord holds the nutrition facts parsed from one nutrition page.
// A nil field means the page did not state it.
type NutrientRecord struct {
	Calories        *float64 `json:"calories,omitempty"`
	CaloriesFromFat *float64 `json:"calories_from_fat,omitempty"`
	TotalFatG       *float64 `json:"total_fat_g,omitempty"`
	TotalFatDV      *float64 `json:"total_fat_dv,omitempty"`
	SaturatedFatG   *float64 `json:"saturated_fat_g,omitempty"`
	SaturatedFatDV  *float64 `json:"saturated_fat_dv,omitempty"`
	TransFatG       *float64 `json:"trans_fat_g,omitempty"`
	CholesterolMg   *float64 `json:"cholesterol_mg,omitempty"`
	SodiumMg        *float64 `json:"sodium_mg,omitempty"`
	SodiumDV        *float64 `json:"sodium_dv,omitempty"`
	TotalCarbG      *float64 `json:"total_carb_g,omitempty"`
	TotalCarbDV     *float64 `json:"total_carb_dv,omitempty"`
	FiberG          *float64 `json:"fiber_g,omitempty"`
	FiberDV         *float64 `json:"fiber_dv,omitempty"`
	SugarsG         *float64 `json:"sugars_g,omitempty"`
	AddedSugarsG    *float64 `json:"added_sugars_g,omitempty"`
	ProteinG        *float64 `json:"protein_g,omitempty"`
	ProteinDV       *float64 `json:"protein_dv,omitempty"`
	VitaminDMcg     *float64 `json:"vitamin_d_mcg,omitempty"`
	CalciumMg       *float64 `json:"calcium_mg,omitempty"`
	IronMg          *float64 `json:"iron_mg,omitempty"`
	PotassiumMg     *float64 `json:"potassium_mg,omitempty"`

	Ingredients string    `json:"ingredients,omitempty"`
	ServingSize string    `json:"serving_size,omitempty"`
	ExtractedAt time.Time `json:"extracted_at"`
	SourceURL   string    `json:"source_url,omitempty"`
}

// Float returns a pointer to v, for building records by hand.
func Float(v float64) *float64 {
	return &v
}

// Value returns the pointed-to value, or 0 when absent.
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
