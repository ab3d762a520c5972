package usda

import (
	"fmt"
	"strings"

	"github.com/pantrylens/backend/internal/barcode"
	"github.com/pantrylens/backend/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// USDA Nutrient IDs for the nutrients we report
const (
	NutrientIDEnergy         = 1008 // Calories (kcal)
	NutrientIDEnergyAtwaterG = 2047 // Energy, Atwater general factors (kcal)
	NutrientIDEnergyAtwaterS = 2048 // Energy, Atwater specific factors (kcal)
	NutrientIDProtein        = 1003 // Protein (g)
	NutrientIDTotalFat       = 1004 // Total lipid (fat) (g)
	NutrientIDCarbohydrate   = 1005 // Carbohydrate, by difference (g)
	NutrientIDFiber          = 1079 // Fiber, total dietary (g)
	NutrientIDSugars         = 2000 // Sugars, total including NLEA (g)
	NutrientIDSugarsTotal    = 1063 // Sugars, Total (g)
	NutrientIDSodium         = 1093 // Sodium, Na (mg)
	milligramsPerGram        = 1000.0
	foodDetailsURLFormat     = "https://fdc.nal.usda.gov/food-details/%d/nutrients"
	minSuffixMatchDigits     = 8
)

// nutrientRule matches one reported nutrient. Records from different data
// type families number the same nutrient differently, so each rule lists
// every known ID and legacy nutrient number, in order of preference.
type nutrientRule struct {
	ids     []int
	numbers []string
	scale   float64
	set     func(n *domain.Nutrition, v *float64)
}

var nutrientRules = []nutrientRule{
	{
		ids:     []int{NutrientIDEnergy, NutrientIDEnergyAtwaterG, NutrientIDEnergyAtwaterS},
		numbers: []string{"208", "957", "958"},
		scale:   1,
		set:     func(n *domain.Nutrition, v *float64) { n.Energy = v },
	},
	{
		ids:     []int{NutrientIDProtein},
		numbers: []string{"203"},
		scale:   1,
		set:     func(n *domain.Nutrition, v *float64) { n.Protein = v },
	},
	{
		ids:     []int{NutrientIDTotalFat},
		numbers: []string{"204"},
		scale:   1,
		set:     func(n *domain.Nutrition, v *float64) { n.Fat = v },
	},
	{
		ids:     []int{NutrientIDCarbohydrate},
		numbers: []string{"205"},
		scale:   1,
		set:     func(n *domain.Nutrition, v *float64) { n.Carbohydrates = v },
	},
	{
		ids:     []int{NutrientIDFiber},
		numbers: []string{"291"},
		scale:   1,
		set:     func(n *domain.Nutrition, v *float64) { n.Fiber = v },
	},
	{
		ids:     []int{NutrientIDSugars, NutrientIDSugarsTotal},
		numbers: []string{"269", "269.3"},
		scale:   1,
		set:     func(n *domain.Nutrition, v *float64) { n.Sugars = v },
	},
	{
		ids:     []int{NutrientIDSodium},
		numbers: []string{"307"},
		scale:   1 / milligramsPerGram,
		set:     func(n *domain.Nutrition, v *float64) { n.Sodium = v },
	},
}

// ExtractNutrients maps USDA nutrient rows onto per-100g nutrition. Sodium is
// converted from milligrams to grams.
func ExtractNutrients(rows []domain.USDANutrient) domain.Nutrition {
	var n domain.Nutrition
	for _, rule := range nutrientRules {
		if v, ok := findByRule(rows, rule); ok {
			scaled := v * rule.scale
			rule.set(&n, &scaled)
		}
	}
	return n
}

func findByRule(rows []domain.USDANutrient, rule nutrientRule) (float64, bool) {
	for _, id := range rule.ids {
		for _, row := range rows {
			if nutrientID(row) == id {
				if v, ok := nutrientValue(row); ok {
					return v, true
				}
			}
		}
	}
	for _, number := range rule.numbers {
		for _, row := range rows {
			if nutrientNumber(row) == number {
				if v, ok := nutrientValue(row); ok {
					return v, true
				}
			}
		}
	}
	return 0, false
}

func nutrientID(row domain.USDANutrient) int {
	if row.Nutrient != nil && row.Nutrient.ID != 0 {
		return row.Nutrient.ID
	}
	return row.NutrientID
}

func nutrientNumber(row domain.USDANutrient) string {
	if row.Nutrient != nil && row.Nutrient.Number != "" {
		return row.Nutrient.Number
	}
	return row.NutrientNumber
}

func nutrientValue(row domain.USDANutrient) (float64, bool) {
	unit := row.UnitName
	if row.Nutrient != nil && row.Nutrient.UnitName != "" {
		unit = row.Nutrient.UnitName
	}
	if strings.EqualFold(unit, "kJ") {
		return 0, false
	}
	if row.Amount != nil {
		return *row.Amount, true
	}
	return row.Value, true
}

// MatchGTIN decides whether a food's gtinUpc identifies the scanned code.
// FoodData Central stores codes with inconsistent zero padding and
// occasionally without the check digit, so a suffix overlap of at least
// eight digits is accepted as an approximate match.
func MatchGTIN(foodGTIN, code string) (matched, approximate bool) {
	food := barcode.TrimLeadingZeros(strings.TrimSpace(foodGTIN))
	want := barcode.TrimLeadingZeros(code)
	if food == "" || want == "" {
		return false, false
	}
	if food == want {
		return true, false
	}

	shorter := min(len(food), len(want))
	if shorter < minSuffixMatchDigits {
		return false, false
	}
	if strings.HasSuffix(food, want) || strings.HasSuffix(want, food) ||
		strings.HasPrefix(food, want) || strings.HasPrefix(want, food) {
		return true, true
	}
	return false, false
}

// PickFood returns the best food for code: an exact GTIN match if one exists,
// otherwise the first approximate match.
func PickFood(foods []domain.USDAFood, code string) (*domain.USDAFood, bool, bool) {
	var fallback *domain.USDAFood
	for i := range foods {
		matched, approximate := MatchGTIN(foods[i].GTINUPC, code)
		if !matched {
			continue
		}
		if !approximate {
			return &foods[i], false, true
		}
		if fallback == nil {
			fallback = &foods[i]
		}
	}
	if fallback != nil {
		return fallback, true, true
	}
	return nil, false, false
}

// MergeDetails overlays a detail record on the search hit; empty detail
// fields keep the search values.
func MergeDetails(hit, detail *domain.USDAFood) *domain.USDAFood {
	merged := *hit
	if detail == nil {
		return &merged
	}
	if detail.Description != "" {
		merged.Description = detail.Description
	}
	if detail.BrandOwner != "" {
		merged.BrandOwner = detail.BrandOwner
	}
	if detail.BrandName != "" {
		merged.BrandName = detail.BrandName
	}
	if detail.BrandedFoodCategory != "" {
		merged.BrandedFoodCategory = detail.BrandedFoodCategory
	}
	if detail.FoodCategory != nil {
		merged.FoodCategory = detail.FoodCategory
	}
	if detail.Ingredients != "" {
		merged.Ingredients = detail.Ingredients
	}
	if detail.PackageWeight != "" {
		merged.PackageWeight = detail.PackageWeight
	}
	if len(detail.Nutrients) > 0 {
		merged.Nutrients = detail.Nutrients
	}
	return &merged
}

// ToMatch converts a USDA food record into a provider match
func ToMatch(food *domain.USDAFood, code, endpoint string, regional, approximate bool) *domain.ProviderMatch {
	brand := strings.TrimSpace(food.BrandName)
	if brand == "" {
		brand = strings.TrimSpace(food.BrandOwner)
	}

	return &domain.ProviderMatch{
		Source:      domain.SourceUSDA,
		Endpoint:    endpoint,
		Regional:    regional,
		Approximate: approximate,
		Draft: domain.NormalizedProduct{
			Found:            true,
			Code:             code,
			Name:             displayName(food.Description),
			Brand:            displayName(brand),
			IngredientsText:  strings.TrimSpace(food.Ingredients),
			NutritionPer100:  ExtractNutrients(food.Nutrients),
			Allergens:        []string{},
			QuantityText:     strings.TrimSpace(food.PackageWeight),
			SourceName:       domain.SourceUSDA,
			SourceURL:        fmt.Sprintf(foodDetailsURLFormat, food.FdcID),
			RegionalMatch:    regional,
			ApproximateMatch: approximate,
		},
		CategorySignals: categorySignals(food),
	}
}

func categorySignals(food *domain.USDAFood) []string {
	var signals []string
	if food.BrandedFoodCategory != "" {
		signals = append(signals, food.BrandedFoodCategory)
	}
	switch c := food.FoodCategory.(type) {
	case string:
		if c != "" {
			signals = append(signals, c)
		}
	case map[string]any:
		if d, ok := c["description"].(string); ok && d != "" {
			signals = append(signals, d)
		}
	}
	return signals
}

// displayName title-cases the all-caps descriptions branded records use
func displayName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s != strings.ToUpper(s) {
		return s
	}
	// a Caser keeps state, so each call gets its own
	return cases.Title(language.English).String(strings.ToLower(s))
}
