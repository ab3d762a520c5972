package domain

import (
	"context"
)

// ProductSource is one provider in the resolution chain. Resolve returns
// either a match or a *NoMatch error; it never panics on upstream failures.
type ProductSource interface {
	Name() string
	Resolve(ctx context.Context, req ResolutionRequest) (*ProviderMatch, error)
}

// CategoryMapper turns a provider's raw category signal into a canonical category
type CategoryMapper interface {
	MapCategory(signals []string, source string) string
}

// FallbackCatalog is the read-only table of products absent from network sources
type FallbackCatalog interface {
	Lookup(code string) (FallbackEntry, bool)
	Len() int
}

// FallbackEntry is one static catalog record
type FallbackEntry struct {
	Code            string    `yaml:"code" json:"code"`
	Name            string    `yaml:"name" json:"name"`
	Brand           string    `yaml:"brand" json:"brand"`
	Category        string    `yaml:"category" json:"category"`
	IngredientsText string    `yaml:"ingredients" json:"ingredients"`
	QuantityText    string    `yaml:"quantity" json:"quantity"`
	Packaging       string    `yaml:"packaging" json:"packaging"`
	Allergens       []string  `yaml:"allergens" json:"allergens"`
	Nutrition       Nutrition `yaml:"nutrition_per_100g" json:"nutritionPer100"`
}

// USDAClient defines the interface for interacting with USDA FoodData Central API.
// Each call is a single request against endpoint.
type USDAClient interface {
	SearchFoods(ctx context.Context, endpoint, query string) (*USDASearchResponse, error)
	GetFoodDetails(ctx context.Context, endpoint string, fdcID int) (*USDAFood, error)
	Configured() bool
}

// USDAFood is a food record from FoodData Central. Search results carry flat
// nutrient rows, detail records nest the nutrient definition.
type USDAFood struct {
	FdcID               int            `json:"fdcId"`
	Description         string         `json:"description"`
	DataType            string         `json:"dataType"`
	GTINUPC             string         `json:"gtinUpc,omitempty"`
	BrandOwner          string         `json:"brandOwner,omitempty"`
	BrandName           string         `json:"brandName,omitempty"`
	BrandedFoodCategory string         `json:"brandedFoodCategory,omitempty"`
	FoodCategory        any            `json:"foodCategory,omitempty"`
	Ingredients         string         `json:"ingredients,omitempty"`
	PackageWeight       string         `json:"packageWeight,omitempty"`
	ServingSize         float64        `json:"servingSize,omitempty"`
	ServingSizeUnit     string         `json:"servingSizeUnit,omitempty"`
	Nutrients           []USDANutrient `json:"foodNutrients"`
}

// USDANutrient covers both the flat search shape and the nested detail shape
type USDANutrient struct {
	NutrientID     int     `json:"nutrientId,omitempty"`
	NutrientName   string  `json:"nutrientName,omitempty"`
	NutrientNumber string  `json:"nutrientNumber,omitempty"`
	UnitName       string  `json:"unitName,omitempty"`
	Value          float64 `json:"value,omitempty"`

	Nutrient *USDANutrientDefinition `json:"nutrient,omitempty"`
	Amount   *float64                `json:"amount,omitempty"`
}

// USDANutrientDefinition is the nested nutrient block of a detail record
type USDANutrientDefinition struct {
	ID       int    `json:"id"`
	Number   string `json:"number"`
	Name     string `json:"name"`
	UnitName string `json:"unitName"`
}

// USDASearchResponse represents the response from USDA search API
type USDASearchResponse struct {
	Foods       []USDAFood `json:"foods"`
	TotalHits   int        `json:"totalHits"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
}
