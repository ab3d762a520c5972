package domain

import "time"

// Source names reported in results and metrics
const (
	SourceOpenFoodFacts = "openfoodfacts"
	SourceUSDA          = "usda"
	SourceFallback      = "fallback"
)

// CategoryOther is returned when no canonical category matches
const CategoryOther = "Other"

// ResolutionRequest is created once per lookup and never mutated
type ResolutionRequest struct {
	Code           CleanCode
	Format         BarcodeFormatInfo
	RegionHint     string // normalized currency hint, e.g. "USD"
	MaxRetries     int
	AttemptTimeout time.Duration
	Backoff        time.Duration
}

// AttemptOutcome classifies a single fetch attempt
type AttemptOutcome string

const (
	OutcomeSuccess   AttemptOutcome = "success"
	OutcomeTimeout   AttemptOutcome = "timeout"
	OutcomeHTTPError AttemptOutcome = "http-error"
	OutcomeNoMatch   AttemptOutcome = "no-match"
)

// SourceAttemptRecord is one entry in the diagnostic trail of a resolution
type SourceAttemptRecord struct {
	Source    string         `json:"source"`
	Endpoint  string         `json:"endpoint"`
	Attempt   int            `json:"attempt"`
	Outcome   AttemptOutcome `json:"outcome"`
	ElapsedMs int64          `json:"elapsedMs"`
}

// Nutrition holds per-100g values; nil means the provider did not report it.
// Energy is kcal, everything else grams.
type Nutrition struct {
	Energy        *float64 `json:"energy,omitempty" yaml:"energy"`
	Fat           *float64 `json:"fat,omitempty" yaml:"fat"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty" yaml:"carbohydrates"`
	Protein       *float64 `json:"protein,omitempty" yaml:"protein"`
	Fiber         *float64 `json:"fiber,omitempty" yaml:"fiber"`
	Sugars        *float64 `json:"sugars,omitempty" yaml:"sugars"`
	Sodium        *float64 `json:"sodium,omitempty" yaml:"sodium"`
}

// Scores are the optional quality grades some providers publish
type Scores struct {
	Nutriscore *string `json:"nutriscore,omitempty"`
	NovaGroup  *int    `json:"novaGroup,omitempty"`
	Ecoscore   *string `json:"ecoscore,omitempty"`
}

// NormalizedProduct is the canonical product record every source maps into.
// Found is always true; a miss is a ResolutionFailure.
type NormalizedProduct struct {
	Found            bool      `json:"found"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Brand            string    `json:"brand,omitempty"`
	Category         string    `json:"category"`
	IngredientsText  string    `json:"ingredientsText,omitempty"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	NutritionPer100  Nutrition `json:"nutritionPer100"`
	Scores           Scores    `json:"scores"`
	Allergens        []string  `json:"allergens"`
	Packaging        string    `json:"packaging,omitempty"`
	QuantityText     string    `json:"quantityText,omitempty"`
	SourceName       string    `json:"sourceName"`
	SourceURL        string    `json:"sourceUrl,omitempty"`
	RegionalMatch    bool      `json:"regionalMatch"`
	ApproximateMatch bool      `json:"approximateMatch"`
}

// ProviderMatch is what a source hands back on a hit: the provider record
// translated into product fields, plus the raw category signal the
// category mapper still has to interpret.
type ProviderMatch struct {
	Source          string
	Endpoint        string
	Regional        bool
	Approximate     bool
	Draft           NormalizedProduct
	CategorySignals []string
	Attempts        []SourceAttemptRecord
}

// ResolutionFailure is returned when no source could answer
type ResolutionFailure struct {
	Code             string            `json:"code"`
	AttemptedSources []string          `json:"attemptedSources"`
	FormatInfo       BarcodeFormatInfo `json:"formatInfo"`
	Suggestions      []string          `json:"suggestions"`
}

// Resolution is the outcome of one Resolve call. Exactly one of Product and
// Failure is set.
type Resolution struct {
	Product    *NormalizedProduct    `json:"product,omitempty"`
	Failure    *ResolutionFailure    `json:"failure,omitempty"`
	FormatInfo BarcodeFormatInfo     `json:"formatInfo"`
	Attempts   []SourceAttemptRecord `json:"attempts"`
	ElapsedMs  int64                 `json:"elapsedMs"`
}

// Found reports whether the resolution produced a product
func (r *Resolution) Found() bool {
	return r != nil && r.Product != nil
}
